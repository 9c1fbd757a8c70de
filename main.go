package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	_ "image/png"

	"net/http"
	_ "net/http/pprof"

	"github.com/faiface/mainthread"
	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/go-gl/glfw/v3.2/glfw"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	pprofPort = flag.String("pprof", "", "http pprof port")
)

// BlockUpdate is a single block edit, either predicted locally or
// pushed by the server. It lives for at most one tick.
type BlockUpdate struct {
	Id         Vec3
	W          int
	fromServer bool
}

// How many missing chunks may load in one tick. Meshing has its own
// budget (meshBudget); this one bounds the generation/fetch cost of
// streaming chunks in as the player moves.
const loadBudget = 8

type Game struct {
	win *glfw.Window

	camera    *Camera
	extCamera *Camera
	extActive bool

	lx, ly   float64
	vy       float32
	prevtime float64

	blockRender  *BlockRender
	lineRender   *LineRender
	playerRender *PlayerRender

	world *World

	pendingEdits []BlockUpdate

	itemidx int
	item    int
	fps     FPS

	ready          bool
	exclusiveMouse bool
	closed         bool
}

func initGL(w, h int) *glfw.Window {
	err := glfw.Init()
	if err != nil {
		log.Fatal(err)
	}

	glfw.WindowHint(glfw.ContextVersionMajor, 3)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, gl.TRUE)

	win, err := glfw.CreateWindow(w, h, "open-builder", nil, nil)
	if err != nil {
		log.Fatal(err)
	}
	win.MakeContextCurrent()
	err = gl.Init()
	if err != nil {
		log.Fatal(err)
	}
	glfw.SwapInterval(1) // enable vsync
	gl.Enable(gl.DEPTH_TEST)
	gl.Enable(gl.CULL_FACE)
	return win
}

func NewGame(w, h int) (*Game, error) {
	var (
		err  error
		game *Game
	)
	game = new(Game)
	game.item = availableItems[0]

	mainthread.Call(func() {
		win := initGL(w, h)
		win.SetMouseButtonCallback(game.onMouseButtonCallback)
		win.SetCursorPosCallback(game.onCursorPosCallback)
		win.SetFramebufferSizeCallback(game.onFrameBufferSizeCallback)
		win.SetKeyCallback(game.onKeyCallback)
		game.win = win
	})
	game.world = NewWorld()

	state := PlayerState{Y: 16}
	if store != nil {
		state = store.GetPlayerState()
	}
	game.camera = NewCamera(mgl32.Vec3{state.X, state.Y, state.Z})
	game.camera.Restore(state)
	game.extCamera = NewCamera(mgl32.Vec3{state.X, state.Y + 8, state.Z})

	game.blockRender, err = NewBlockRender(game)
	if err != nil {
		return nil, err
	}
	game.world.SetEvictHandler(game.blockRender.evict)
	game.world.SetLoadHandler(game.blockRender.ChunkLoaded)
	mainthread.Call(func() {
		game.blockRender.UpdateItem(game.item)
	})

	game.lineRender, err = NewLineRender(game)
	if err != nil {
		return nil, err
	}
	game.playerRender, err = NewPlayerRender()
	if err != nil {
		return nil, err
	}

	// Warm up the spawn neighbourhood so the first frames have
	// something to stand on.
	spawn := NearBlock(game.camera.Pos()).Chunkid()
	game.world.EnsureNeighbours(spawn)
	game.blockRender.DirtyChunk(spawn)
	game.ready = true
	return game, nil
}

func (g *Game) activeCamera() *Camera {
	if g.extActive {
		return g.extCamera
	}
	return g.camera
}

func (g *Game) setExclusiveMouse(exclusive bool) {
	if exclusive {
		g.win.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
	} else {
		g.win.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
	}
	g.exclusiveMouse = exclusive
}

func (g *Game) onMouseButtonCallback(win *glfw.Window, button glfw.MouseButton, action glfw.Action, mod glfw.ModifierKey) {
	if !g.exclusiveMouse {
		g.setExclusiveMouse(true)
		return
	}
	if action != glfw.Press {
		return
	}
	head := NearBlock(g.camera.Pos())
	foot := head.Down()
	block, prev := g.world.HitTest(g.camera.Pos(), g.camera.Front())
	if button == glfw.MouseButton2 {
		if prev != nil && *prev != head && *prev != foot {
			g.pendingEdits = append(g.pendingEdits, BlockUpdate{Id: *prev, W: g.item})
		}
	}
	if button == glfw.MouseButton1 {
		if block != nil {
			g.pendingEdits = append(g.pendingEdits, BlockUpdate{Id: *block, W: blockAir})
		}
	}
}

func (g *Game) onFrameBufferSizeCallback(window *glfw.Window, width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
}

func (g *Game) onCursorPosCallback(win *glfw.Window, xpos float64, ypos float64) {
	if !g.exclusiveMouse {
		return
	}
	if g.lx == 0 && g.ly == 0 {
		g.lx, g.ly = xpos, ypos
		return
	}
	dx, dy := xpos-g.lx, g.ly-ypos
	g.lx, g.ly = xpos, ypos
	g.activeCamera().OnAngleChange(float32(dx), float32(dy))
}

func (g *Game) onKeyCallback(win *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if action != glfw.Press {
		return
	}
	switch key {
	case glfw.KeyTab:
		g.activeCamera().FlipFlying()
	case glfw.KeySpace:
		block := g.CurrentBlockid()
		if g.world.HasBlock(Vec3{block.X, block.Y - 2, block.Z}) {
			g.vy = 8
		}
	case glfw.KeyE:
		g.itemidx = (1 + g.itemidx) % len(availableItems)
		g.item = availableItems[g.itemidx]
		g.blockRender.UpdateItem(g.item)
	case glfw.KeyR:
		g.itemidx--
		if g.itemidx < 0 {
			g.itemidx = len(availableItems) - 1
		}
		g.item = availableItems[g.itemidx]
		g.blockRender.UpdateItem(g.item)
	case glfw.KeyC:
		g.extActive = !g.extActive
	case glfw.KeyEscape:
		g.setExclusiveMouse(false)
	}
}

func (g *Game) handleKeyInput(dt float64) {
	speed := float32(5)
	if g.win.GetKey(glfw.KeyLeftControl) == glfw.Press {
		speed *= 10
	}
	if g.win.GetKey(glfw.KeyW) == glfw.Press {
		g.camera.Accelerate(MoveForward, speed)
	} else if g.win.GetKey(glfw.KeyS) == glfw.Press {
		g.camera.Accelerate(MoveBackward, speed)
	}
	if g.win.GetKey(glfw.KeyA) == glfw.Press {
		g.camera.Accelerate(MoveLeft, speed)
	} else if g.win.GetKey(glfw.KeyD) == glfw.Press {
		g.camera.Accelerate(MoveRight, speed)
	}

	if g.win.GetKey(glfw.KeyUp) == glfw.Press {
		g.extCamera.Accelerate(MoveForward, speed)
	} else if g.win.GetKey(glfw.KeyDown) == glfw.Press {
		g.extCamera.Accelerate(MoveBackward, speed)
	}
	if g.win.GetKey(glfw.KeyLeft) == glfw.Press {
		g.extCamera.Accelerate(MoveLeft, speed)
	} else if g.win.GetKey(glfw.KeyRight) == glfw.Press {
		g.extCamera.Accelerate(MoveRight, speed)
	}

	pos := g.camera.Integrate(float32(dt))
	stop := false
	if !g.camera.Flying() {
		g.vy -= float32(dt * 20)
		if g.vy < -50 {
			g.vy = -50
		}
		pos = mgl32.Vec3{pos.X(), pos.Y() + g.vy*float32(dt), pos.Z()}
	}
	pos, stop = g.world.Collide(pos)
	if stop {
		g.vy = 0
	}
	g.camera.SetPos(pos)

	g.extCamera.Integrate(float32(dt))
}

// pumpEvents drains everything the network delivered since the last
// tick onto the main thread.
func (g *Game) pumpEvents() {
	for {
		select {
		case e := <-blockEvents:
			g.pendingEdits = append(g.pendingEdits, e)
		case p := <-playerEvents:
			g.playerRender.UpdateOrAdd(p.id, p.state)
		case id := <-removeEvents:
			g.playerRender.Remove(id)
		default:
			return
		}
	}
}

// applyBlockEdit writes one edit into the world and marks the owning
// chunk dirty. A block on a chunk boundary face also changes the
// neighbouring chunk's mesh, so that neighbour is marked too: at most
// one extra chunk per axis.
func (g *Game) applyBlockEdit(e BlockUpdate) {
	cid := e.Id.Chunkid()
	g.world.EnsureNeighbours(cid)
	g.world.UpdateBlock(e.Id, e.W)
	g.blockRender.DirtyChunk(cid)

	local := e.Id.Local()
	if local.X == 0 {
		g.blockRender.DirtyChunk(cid.Left())
	} else if local.X == localMask {
		g.blockRender.DirtyChunk(cid.Right())
	}
	if local.Y == 0 {
		g.blockRender.DirtyChunk(cid.Down())
	} else if local.Y == localMask {
		g.blockRender.DirtyChunk(cid.Up())
	}
	if local.Z == 0 {
		g.blockRender.DirtyChunk(cid.Back())
	} else if local.Z == localMask {
		g.blockRender.DirtyChunk(cid.Front())
	}

	if !e.fromServer {
		if store != nil {
			store.UpdateBlock(e.Id, e.W)
		}
		ClientUpdateBlock(e.Id, e.W)
	}
}

func (g *Game) applyBlockEdits() {
	for _, e := range g.pendingEdits {
		g.applyBlockEdit(e)
	}
	g.pendingEdits = g.pendingEdits[:0]
}

// streamChunks pulls the world in around the player: chunks inside
// the render radius load and queue for meshing; one ring beyond that
// loads without meshing so the inner ring becomes neighbour-ready.
func (g *Game) streamChunks() {
	cid := NearBlock(g.camera.Pos()).Chunkid()
	n := *renderRadius
	loaded := 0
	for dx := -n - 1; dx <= n+1 && loaded < loadBudget; dx++ {
		for dz := -n - 1; dz <= n+1 && loaded < loadBudget; dz++ {
			if dx*dx+dz*dz > (n+1)*(n+1) {
				continue
			}
			for dy := -2; dy <= 2; dy++ {
				id := Vec3{cid.X + dx, cid.Y + dy, cid.Z + dz}
				if !g.world.HasChunk(id) {
					g.world.Chunk(id)
					loaded++
				}
				inner := dx*dx+dz*dz <= n*n && dy >= -1 && dy <= 1
				if inner && !g.blockRender.HasMesh(id) {
					g.blockRender.DirtyChunk(id)
				}
			}
		}
	}
}

func (g *Game) CurrentBlockid() Vec3 {
	pos := g.camera.Pos()
	return NearBlock(pos)
}

func (g *Game) ShouldClose() bool {
	return g.closed
}

func (g *Game) renderStat() {
	g.fps.Update()
	p := g.camera.Pos()
	cid := NearBlock(p).Chunkid()
	stat := g.blockRender.Stat()
	title := fmt.Sprintf("[%.2f %.2f %.2f] %v [%d/%d %d] %d", p.X(), p.Y(), p.Z(),
		cid, stat.RendingChunks, stat.CacheChunks, stat.Faces, g.fps.Fps())
	g.win.SetTitle(title)
}

// Update runs one frame: pump network input, integrate kinematics,
// apply the tick's block edits, stream and mesh chunks, then draw.
// All edits land in the world before the mesh queue drains, so a mesh
// never observes a half-applied edit.
func (g *Game) Update() {
	mainthread.Call(func() {
		if !g.ready {
			return
		}
		now := glfw.GetTime()
		dt := now - g.prevtime
		g.prevtime = now
		if dt > 0.02 {
			dt = 0.02
		}

		g.pumpEvents()
		g.handleKeyInput(dt)
		pushPlayerState(g.camera.State())

		g.applyBlockEdits()
		g.streamChunks()
		g.blockRender.Step(NearBlock(g.camera.Pos()).Chunkid())

		gl.ClearColor(0.57, 0.71, 0.77, 1)
		gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

		g.blockRender.Draw()
		g.playerRender.Draw(g.blockRender.get3dmat())
		g.lineRender.Draw()

		g.renderStat()

		g.win.SwapBuffers()
		glfw.PollEvents()
		g.closed = g.win.ShouldClose()
	})
}

func (g *Game) endGame() {
	if store != nil {
		store.UpdatePlayerState(g.camera.State())
	}
	mainthread.Call(func() {
		for id := range g.blockRender.blockMeshes {
			g.blockRender.evict(id)
		}
		for id := range g.blockRender.fluidMeshes {
			g.blockRender.evict(id)
		}
	})
}

type FPS struct {
	lastUpdate time.Time
	cnt        int
	fps        int
}

func (f *FPS) Update() {
	f.cnt++
	now := time.Now()
	p := now.Sub(f.lastUpdate)
	if p >= time.Second {
		f.fps = int(float64(f.cnt) / p.Seconds())
		f.cnt = 0
		f.lastUpdate = now
	}
}

func (f *FPS) Fps() int {
	return f.fps
}

func run() {
	err := LoadTextureDesc()
	if err != nil {
		log.Fatal(err)
	}
	if err := InitStore(); err != nil {
		log.Fatal(err)
	}
	if err := InitClient(); err != nil {
		log.Fatal(err)
	}

	game, err := NewGame(800, 600)
	if err != nil {
		log.Fatal(err)
	}
	tick := time.Tick(time.Second / 60)
	for !game.ShouldClose() {
		<-tick
		game.Update()
	}
	game.endGame()
	if store != nil {
		store.Close()
	}
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	flag.Parse()
	go func() {
		if *pprofPort != "" {
			log.Fatal(http.ListenAndServe(*pprofPort, nil))
		}
	}()
	mainthread.Run(run)
}
