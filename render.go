package main

import (
	"flag"
	"image"
	"image/draw"
	"os"

	"github.com/faiface/glhf"
	"github.com/faiface/mainthread"
	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

var (
	texturePath  = flag.String("t", "texture.png", "texture file")
	renderRadius = flag.Int("r", 6, "render radius in chunks")
)

// disableGPUUpload skips buffer creation so mesh lifecycle code can
// run without a GL context. Only tests set it.
var disableGPUUpload = false

func loadImage(fname string) ([]uint8, image.Rectangle, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, image.Rectangle{}, errors.Wrap(err, "open texture")
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, image.Rectangle{}, errors.Wrap(err, "decode texture")
	}
	rgba := image.NewRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
	return rgba.Pix, img.Bounds(), nil
}

// BlockRender owns the meshing pipeline output: the queue of chunks
// waiting for a remesh and the GPU-resident mesh sets. Opaque and
// fluid meshes live in separate sets because the fluid pass draws
// after all opaque geometry with blending enabled.
type BlockRender struct {
	shader      *glhf.Shader
	fluidShader *glhf.Shader
	texture     *glhf.Texture
	game        *Game

	mesher      *mesher
	blockMeshes map[Vec3]*Mesh
	fluidMeshes map[Vec3]*Mesh

	// meshed marks positions whose current content has been built at
	// least once, including chunks whose build came out empty. The
	// streamer uses it to avoid re-queueing settled chunks.
	meshed map[Vec3]bool

	stat Stat

	item *Mesh
}

func NewBlockRender(game *Game) (*BlockRender, error) {
	img, rect, err := loadImage(*texturePath)
	if err != nil {
		return nil, err
	}

	r := &BlockRender{
		game:        game,
		mesher:      newMesher(),
		blockMeshes: make(map[Vec3]*Mesh),
		fluidMeshes: make(map[Vec3]*Mesh),
		meshed:      make(map[Vec3]bool),
	}

	format := glhf.AttrFormat{
		glhf.Attr{Name: "pos", Type: glhf.Vec3},
		glhf.Attr{Name: "tex", Type: glhf.Vec2},
		glhf.Attr{Name: "normal", Type: glhf.Vec3},
	}
	uniforms := glhf.AttrFormat{
		glhf.Attr{Name: "matrix", Type: glhf.Mat4},
		glhf.Attr{Name: "camera", Type: glhf.Vec3},
		glhf.Attr{Name: "fogdis", Type: glhf.Float},
	}
	mainthread.Call(func() {
		r.shader, err = glhf.NewShader(format, uniforms, blockVertexSource, blockFragmentSource)
		if err != nil {
			return
		}
		r.fluidShader, err = glhf.NewShader(format, uniforms, blockVertexSource, fluidFragmentSource)
		if err != nil {
			return
		}
		r.texture = glhf.NewTexture(rect.Dx(), rect.Dy(), false, img)
	})
	if err != nil {
		return nil, errors.Wrap(err, "compile chunk shader")
	}
	return r, nil
}

// DirtyChunk marks a chunk position as needing a remesh.
func (r *BlockRender) DirtyChunk(id Vec3) {
	r.mesher.Enqueue(id)
}

// ChunkLoaded is the world's load hook: a freshly loaded chunk may be
// the missing neighbour of a queued chunk, so a stalled mesher gets
// another look.
func (r *BlockRender) ChunkLoaded(id Vec3) {
	r.mesher.Unstall()
}

// Step runs one budgeted meshing pass: pull up to meshBudget
// neighbour-ready chunks from the queue, closest first, rebuild their
// meshes and swap them into the resident sets.
func (r *BlockRender) Step(player Vec3) {
	w := r.game.world
	r.mesher.Step(player, w.HasNeighbours, func(id Vec3) {
		r.absorb(buildChunkMesh(w, w.Chunk(id)))
	})
}

// absorb installs a freshly built mesh, replacing whatever was
// resident for that position. The old buffers are released before
// the new ones install, and empty streams leave no entry behind.
func (r *BlockRender) absorb(d *ChunkMeshData) {
	r.evict(d.Id)
	r.meshed[d.Id] = true
	if d.BlockFaces > 0 {
		r.blockMeshes[d.Id] = NewMesh(r.shader, d.BlockData)
	}
	if d.FluidFaces > 0 {
		r.fluidMeshes[d.Id] = NewMesh(r.fluidShader, d.FluidData)
	}
}

// evict releases the GPU buffers held for a chunk position in both
// sets, if any.
func (r *BlockRender) evict(id Vec3) {
	delete(r.meshed, id)
	if m, ok := r.blockMeshes[id]; ok {
		m.Release()
		delete(r.blockMeshes, id)
	}
	if m, ok := r.fluidMeshes[id]; ok {
		m.Release()
		delete(r.fluidMeshes, id)
	}
}

// HasMesh reports whether the chunk's current content has already
// been built (possibly into nothing, for an all-air chunk).
func (r *BlockRender) HasMesh(id Vec3) bool {
	return r.meshed[id]
}

func frustumPlanes(mat *mgl32.Mat4) []mgl32.Vec4 {
	c1, c2, c3, c4 := mat.Rows()
	return []mgl32.Vec4{
		c4.Add(c1),          // left
		c4.Sub(c1),          // right
		c4.Sub(c2),          // top
		c4.Add(c2),          // bottom
		c4.Mul(0.1).Add(c3), // front
		c4.Mul(320).Sub(c3), // back
	}
}

// chunkVisible tests the chunk's bounding cube against the frustum
// planes. Inside or intersecting counts as visible.
func chunkVisible(planes []mgl32.Vec4, id Vec3) bool {
	p := mgl32.Vec3{
		float32(id.X * ChunkWidth),
		float32(id.Y * ChunkWidth),
		float32(id.Z * ChunkWidth),
	}
	const m = ChunkWidth

	points := [8]mgl32.Vec3{
		{p.X(), p.Y(), p.Z()},
		{p.X() + m, p.Y(), p.Z()},
		{p.X() + m, p.Y(), p.Z() + m},
		{p.X(), p.Y(), p.Z() + m},
		{p.X(), p.Y() + m, p.Z()},
		{p.X() + m, p.Y() + m, p.Z()},
		{p.X() + m, p.Y() + m, p.Z() + m},
		{p.X(), p.Y() + m, p.Z() + m},
	}
	for _, plane := range planes {
		var in, out int
		for _, point := range points {
			if plane.Dot(point.Vec4(1)) < 0 {
				out++
			} else {
				in++
			}
			if in != 0 && out != 0 {
				break
			}
		}
		if in == 0 {
			return false
		}
	}
	return true
}

func (r *BlockRender) get3dmat() mgl32.Mat4 {
	n := float32(*renderRadius * ChunkWidth)
	width, height := r.game.win.GetSize()
	mat := mgl32.Perspective(radian(45), float32(width)/float32(height), 0.01, n)
	return mat.Mul4(r.game.activeCamera().Matrix())
}

func (r *BlockRender) getPlayerMat() mgl32.Mat4 {
	n := float32(*renderRadius * ChunkWidth)
	width, height := r.game.win.GetSize()
	mat := mgl32.Perspective(radian(45), float32(width)/float32(height), 0.01, n)
	return mat.Mul4(r.game.camera.Matrix())
}

func (r *BlockRender) setUniforms(shader *glhf.Shader, mat mgl32.Mat4) {
	shader.SetUniformAttr(0, mat)
	shader.SetUniformAttr(1, r.game.activeCamera().Pos())
	shader.SetUniformAttr(2, float32(*renderRadius)*ChunkWidth)
}

// Draw renders the resident chunk meshes: the opaque set, then the
// fluid set with blending. The frustum follows the player view even
// when the free camera is active, so culling can be inspected from
// outside.
func (r *BlockRender) Draw() {
	mat := r.get3dmat()
	pmat := r.getPlayerMat()
	planes := frustumPlanes(&pmat)

	r.stat = Stat{CacheChunks: len(r.blockMeshes) + len(r.fluidMeshes)}

	r.shader.Begin()
	r.texture.Begin()
	r.setUniforms(r.shader, mat)
	for id, mesh := range r.blockMeshes {
		if chunkVisible(planes, id) {
			r.stat.RendingChunks++
			r.stat.Faces += mesh.Faces()
			mesh.Draw()
		}
	}
	r.drawItem()
	r.texture.End()
	r.shader.End()

	r.fluidShader.Begin()
	r.texture.Begin()
	r.setUniforms(r.fluidShader, mat)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	for id, mesh := range r.fluidMeshes {
		if chunkVisible(planes, id) {
			r.stat.RendingChunks++
			r.stat.Faces += mesh.Faces()
			mesh.Draw()
		}
	}
	gl.Disable(gl.BLEND)
	r.texture.End()
	r.fluidShader.End()
}

// call on mainthread
func (r *BlockRender) UpdateItem(w int) {
	var vertices []float32
	texture := tex.Texture(w)
	if IsPlant(w) {
		vertices = makePlantData(vertices, Vec3{0, 0, 0}, texture)
	} else {
		show := [6]bool{true, true, true, true, true, true}
		vertices = makeCubeData(vertices, show, Vec3{0, 0, 0}, texture)
	}
	item := NewMesh(r.shader, vertices)
	if r.item != nil {
		r.item.Release()
	}
	r.item = item
}

func (r *BlockRender) drawItem() {
	if r.item == nil {
		return
	}
	width, height := r.game.win.GetSize()
	ratio := float32(width) / float32(height)
	projection := mgl32.Ortho2D(0, 15, 0, 15/ratio)
	model := mgl32.Translate3D(1, 1, 0)
	model = model.Mul4(mgl32.HomogRotate3DX(radian(10)))
	model = model.Mul4(mgl32.HomogRotate3DY(radian(45)))
	mat := projection.Mul4(model)
	r.shader.SetUniformAttr(0, mat)
	r.shader.SetUniformAttr(1, mgl32.Vec3{0, 0, 0})
	r.shader.SetUniformAttr(2, float32(*renderRadius)*ChunkWidth)
	r.item.Draw()
}

type Stat struct {
	Faces         int
	CacheChunks   int
	RendingChunks int
}

func (r *BlockRender) Stat() Stat {
	return r.stat
}

// Mesh wraps one GPU vertex buffer. A mesh with zero faces never
// allocates GL objects.
type Mesh struct {
	vao, vbo uint32
	faces    int
	released bool
}

func NewMesh(shader *glhf.Shader, data []float32) *Mesh {
	m := new(Mesh)
	m.faces = len(data) / floatsPerVertex / 6
	if m.faces == 0 || disableGPUUpload {
		return m
	}
	gl.GenVertexArrays(1, &m.vao)
	gl.GenBuffers(1, &m.vbo)
	gl.BindVertexArray(m.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)

	offset := 0
	for _, attr := range shader.VertexFormat() {
		loc := gl.GetAttribLocation(shader.ID(), gl.Str(attr.Name+"\x00"))
		var size int32
		switch attr.Type {
		case glhf.Float:
			size = 1
		case glhf.Vec2:
			size = 2
		case glhf.Vec3:
			size = 3
		case glhf.Vec4:
			size = 4
		}
		gl.VertexAttribPointer(
			uint32(loc),
			size,
			gl.FLOAT,
			false,
			int32(shader.VertexFormat().Size()),
			gl.PtrOffset(offset),
		)
		gl.EnableVertexAttribArray(uint32(loc))
		offset += attr.Type.Size()
	}
	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	return m
}

func (m *Mesh) Faces() int {
	return m.faces
}

func (m *Mesh) Draw() {
	if m.vao != 0 {
		gl.BindVertexArray(m.vao)
		gl.DrawArrays(gl.TRIANGLES, 0, int32(m.faces)*6)
		gl.BindVertexArray(0)
	}
}

func (m *Mesh) Release() {
	if m.vao != 0 {
		gl.DeleteVertexArrays(1, &m.vao)
		gl.DeleteBuffers(1, &m.vbo)
		m.vao = 0
		m.vbo = 0
	}
	m.released = true
}

type Lines struct {
	vao, vbo uint32
	shader   *glhf.Shader
	nvertex  int
}

func NewLines(shader *glhf.Shader, data []float32) *Lines {
	l := new(Lines)
	l.shader = shader
	l.nvertex = len(data) / (shader.VertexFormat().Size() / 4)
	gl.GenVertexArrays(1, &l.vao)
	gl.GenBuffers(1, &l.vbo)
	gl.BindVertexArray(l.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, l.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)

	offset := 0
	for _, attr := range shader.VertexFormat() {
		loc := gl.GetAttribLocation(shader.ID(), gl.Str(attr.Name+"\x00"))
		var size int32
		switch attr.Type {
		case glhf.Float:
			size = 1
		case glhf.Vec2:
			size = 2
		case glhf.Vec3:
			size = 3
		case glhf.Vec4:
			size = 4
		}
		gl.VertexAttribPointer(
			uint32(loc),
			size,
			gl.FLOAT,
			false,
			int32(shader.VertexFormat().Size()),
			gl.PtrOffset(offset),
		)
		gl.EnableVertexAttribArray(uint32(loc))
		offset += attr.Type.Size()
	}
	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	return l
}

func (l *Lines) Draw(mat mgl32.Mat4) {
	if l.vao != 0 {
		l.shader.SetUniformAttr(0, mat)
		gl.BindVertexArray(l.vao)
		gl.DrawArrays(gl.LINES, 0, int32(l.nvertex))
		gl.BindVertexArray(0)
	}
}

func (l *Lines) Release() {
	if l.vao != 0 {
		gl.DeleteVertexArrays(1, &l.vao)
		gl.DeleteBuffers(1, &l.vbo)
		l.vao = 0
		l.vbo = 0
	}
}

// LineRender draws the crosshair and the wireframe highlight around
// the aimed-at block.
type LineRender struct {
	game      *Game
	shader    *glhf.Shader
	cross     *Lines
	wireFrame *Lines
	lastBlock Vec3
}

func NewLineRender(game *Game) (*LineRender, error) {
	r := &LineRender{
		game: game,
	}
	var err error
	mainthread.Call(func() {
		r.shader, err = glhf.NewShader(glhf.AttrFormat{
			glhf.Attr{Name: "pos", Type: glhf.Vec3},
		}, glhf.AttrFormat{
			glhf.Attr{Name: "matrix", Type: glhf.Mat4},
		}, lineVertexSource, lineFragmentSource)

		if err != nil {
			return
		}
		r.cross = makeCross(r.shader)
	})
	if err != nil {
		return nil, errors.Wrap(err, "compile line shader")
	}
	return r, nil
}

func (r *LineRender) drawCross() {
	width, height := r.game.win.GetFramebufferSize()
	project := mgl32.Ortho2D(0, float32(width), float32(height), 0)
	model := mgl32.Translate3D(float32(width/2), float32(height/2), 0)
	model = model.Mul4(mgl32.Scale3D(float32(height/30), float32(height/30), 0))
	r.cross.Draw(project.Mul4(model))
}

func (r *LineRender) drawWireFrame(mat mgl32.Mat4) {
	g := r.game
	block, _ := g.world.HitTest(g.camera.Pos(), g.camera.Front())
	if block == nil {
		return
	}

	mat = mat.Mul4(mgl32.Translate3D(float32(block.X), float32(block.Y), float32(block.Z)))
	mat = mat.Mul4(mgl32.Scale3D(1.06, 1.06, 1.06))
	if *block == r.lastBlock && r.wireFrame != nil {
		r.wireFrame.Draw(mat)
		return
	}

	id := *block
	show := [6]bool{
		IsTransparent(g.world.Block(id.Left())),
		IsTransparent(g.world.Block(id.Right())),
		IsTransparent(g.world.Block(id.Up())),
		IsTransparent(g.world.Block(id.Down())),
		IsTransparent(g.world.Block(id.Front())),
		IsTransparent(g.world.Block(id.Back())),
	}
	vertices := makeWireFrameData(nil, show)
	if len(vertices) == 0 {
		return
	}
	r.lastBlock = *block
	if r.wireFrame != nil {
		r.wireFrame.Release()
	}

	r.wireFrame = NewLines(r.shader, vertices)
	r.wireFrame.Draw(mat)
}

func (r *LineRender) Draw() {
	width, height := r.game.win.GetSize()
	projection := mgl32.Perspective(radian(45), float32(width)/float32(height), 0.01, ChunkWidth*float32(*renderRadius))
	camera := r.game.activeCamera().Matrix()
	mat := projection.Mul4(camera)

	r.shader.Begin()
	r.drawCross()
	r.drawWireFrame(mat)
	r.shader.End()
}

func makeCross(shader *glhf.Shader) *Lines {
	return NewLines(shader, []float32{
		-0.5, 0, 0, 0.5, 0, 0,
		0, -0.5, 0, 0, 0.5, 0,
	})
}
