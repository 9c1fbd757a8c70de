package main

import (
	"log"

	"github.com/faiface/glhf"
	"github.com/faiface/mainthread"
	"github.com/go-gl/glfw/v3.2/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

type PlayerState struct {
	X, Y, Z float32
	Rx, Ry  float32
}

type playerState struct {
	PlayerState
	time float64
}

// Player is one remote entity: the last two state snapshots plus the
// mesh drawn between them.
type Player struct {
	s1, s2 playerState

	shader *glhf.Shader
	mesh   *Mesh
}

// computeMat interpolates between the two snapshots. Equal snapshot
// times mean there is nothing to interpolate yet.
func (p *Player) computeMat() mgl32.Mat4 {
	t := float32(1)
	if t1 := p.s2.time - p.s1.time; t1 > 0 {
		t = float32((glfw.GetTime() - p.s2.time) / t1)
		if t > 1 {
			t = 1
		}
	}

	x := mix(p.s1.X, p.s2.X, t)
	y := mix(p.s1.Y, p.s2.Y, t)
	z := mix(p.s1.Z, p.s2.Z, t)
	rx := mix(p.s1.Rx, p.s2.Rx, t)
	ry := mix(p.s1.Ry, p.s2.Ry, t)

	front := mgl32.Vec3{
		cos(radian(ry)) * cos(radian(rx)),
		sin(radian(ry)),
		cos(radian(ry)) * sin(radian(rx)),
	}.Normalize()
	right := front.Cross(mgl32.Vec3{0, 1, 0})
	up := right.Cross(front).Normalize()
	pos := mgl32.Vec3{x, y, z}
	return mgl32.LookAtV(pos, pos.Add(front), up).Inv()
}

func (p *Player) UpdateState(s playerState) {
	p.s1, p.s2 = p.s2, s
}

func (p *Player) Draw(mat mgl32.Mat4) {
	mat = mat.Mul4(p.computeMat())

	p.shader.SetUniformAttr(0, mat)
	p.mesh.Draw()
}

func (p *Player) Release() {
	p.mesh.Release()
}

// PlayerRender is the entity arena: peer id to player record. The
// local player is never in here; it is the camera.
type PlayerRender struct {
	shader  *glhf.Shader
	texture *glhf.Texture
	players map[int32]*Player
}

func NewPlayerRender() (*PlayerRender, error) {
	img, rect, err := loadImage(*texturePath)
	if err != nil {
		return nil, err
	}

	r := &PlayerRender{
		players: make(map[int32]*Player),
	}
	mainthread.Call(func() {
		r.shader, err = glhf.NewShader(glhf.AttrFormat{
			glhf.Attr{Name: "pos", Type: glhf.Vec3},
			glhf.Attr{Name: "tex", Type: glhf.Vec2},
			glhf.Attr{Name: "normal", Type: glhf.Vec3},
		}, glhf.AttrFormat{
			glhf.Attr{Name: "matrix", Type: glhf.Mat4},
		}, playerVertexSource, playerFragmentSource)

		if err != nil {
			return
		}
		r.texture = glhf.NewTexture(rect.Dx(), rect.Dy(), false, img)
	})
	if err != nil {
		return nil, errors.Wrap(err, "compile player shader")
	}

	return r, nil
}

// UpdateOrAdd records a state snapshot for a peer, creating its
// record on first sight. Runs on the main thread.
func (r *PlayerRender) UpdateOrAdd(id int32, s PlayerState) {
	state := playerState{
		PlayerState: s,
		time:        glfw.GetTime(),
	}

	p, ok := r.players[id]
	if !ok {
		log.Printf("add new player %d", id)
		show := [6]bool{true, true, true, true, true, true}
		cubeData := makeCubeData(nil, show, Vec3{0, 0, 0}, tex.Texture(blockCement))
		p = &Player{
			shader: r.shader,
			mesh:   NewMesh(r.shader, cubeData),
		}
		// Seed both snapshots so a first-seen peer draws at its
		// reported position instead of sliding in from the origin.
		p.s1 = state
		p.s2 = state
		r.players[id] = p
	}
	p.UpdateState(state)
}

func (r *PlayerRender) Remove(id int32) {
	p, ok := r.players[id]
	if ok {
		log.Printf("remove player %d", id)
		p.Release()
		delete(r.players, id)
	}
}

func (r *PlayerRender) Draw(mat mgl32.Mat4) {
	r.shader.Begin()
	r.texture.Begin()
	for _, p := range r.players {
		p.Draw(mat)
	}
	r.texture.End()
	r.shader.End()
}
