package main

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func fakeMeshData(id Vec3, blockFaces, fluidFaces int) *ChunkMeshData {
	return &ChunkMeshData{
		Id:         id,
		BlockData:  make([]float32, blockFaces*6*floatsPerVertex),
		FluidData:  make([]float32, fluidFaces*6*floatsPerVertex),
		BlockFaces: blockFaces,
		FluidFaces: fluidFaces,
	}
}

func TestAbsorbReplacesMesh(t *testing.T) {
	r := newTestRender()
	id := Vec3{1, 2, 3}

	r.absorb(fakeMeshData(id, 2, 1))
	old := r.blockMeshes[id]
	oldFluid := r.fluidMeshes[id]
	if old == nil || oldFluid == nil {
		t.Fatal("absorb did not install meshes")
	}

	r.absorb(fakeMeshData(id, 3, 1))
	if !old.released || !oldFluid.released {
		t.Fatal("replaced meshes were not released")
	}
	if r.blockMeshes[id] == old {
		t.Fatal("absorb kept the old mesh")
	}
	if r.blockMeshes[id].Faces() != 3 {
		t.Fatalf("faces = %d, want 3", r.blockMeshes[id].Faces())
	}
}

func TestAbsorbZeroSuppression(t *testing.T) {
	r := newTestRender()
	id := Vec3{1, 2, 3}

	r.absorb(fakeMeshData(id, 2, 2))
	oldBlock := r.blockMeshes[id]

	// Rebuild with only fluid left: the opaque entry must vanish, not
	// linger as a zero-face mesh.
	r.absorb(fakeMeshData(id, 0, 1))
	if _, ok := r.blockMeshes[id]; ok {
		t.Fatal("empty opaque stream left an entry behind")
	}
	if !oldBlock.released {
		t.Fatal("old opaque mesh not released")
	}
	if _, ok := r.fluidMeshes[id]; !ok {
		t.Fatal("fluid entry missing")
	}

	// Fully empty build: no entries at all, but the chunk still counts
	// as meshed.
	r.absorb(fakeMeshData(id, 0, 0))
	if len(r.blockMeshes) != 0 || len(r.fluidMeshes) != 0 {
		t.Fatal("empty build left mesh entries")
	}
	if !r.HasMesh(id) {
		t.Fatal("empty build should still mark the chunk meshed")
	}
}

func TestEvict(t *testing.T) {
	r := newTestRender()
	id := Vec3{1, 2, 3}
	r.absorb(fakeMeshData(id, 1, 1))
	b, f := r.blockMeshes[id], r.fluidMeshes[id]

	r.evict(id)
	if !b.released || !f.released {
		t.Fatal("evicted meshes not released")
	}
	if len(r.blockMeshes) != 0 || len(r.fluidMeshes) != 0 {
		t.Fatal("evict left entries behind")
	}
	if r.HasMesh(id) {
		t.Fatal("evicted chunk still marked meshed")
	}

	// Evicting a position with no meshes is a no-op.
	r.evict(id)
}

func TestHasMesh(t *testing.T) {
	r := newTestRender()
	id := Vec3{1, 2, 3}
	if r.HasMesh(id) {
		t.Fatal("unbuilt chunk reported meshed")
	}
	r.absorb(fakeMeshData(id, 1, 0))
	if !r.HasMesh(id) {
		t.Fatal("built chunk not reported meshed")
	}
}

func TestChunkVisible(t *testing.T) {
	// Camera at (16,16,100) looking down -z.
	proj := mgl32.Perspective(radian(45), 1, 0.01, 320)
	view := mgl32.LookAtV(
		mgl32.Vec3{16, 16, 100},
		mgl32.Vec3{16, 16, 0},
		mgl32.Vec3{0, 1, 0},
	)
	mat := proj.Mul4(view)
	planes := frustumPlanes(&mat)

	tests := []struct {
		name    string
		id      Vec3
		visible bool
	}{
		{"straight ahead", Vec3{0, 0, 0}, true},
		{"ahead below", Vec3{0, -1, 0}, true},
		{"behind camera", Vec3{0, 0, 5}, false},
		{"far lateral", Vec3{40, 0, 0}, false},
		{"far down", Vec3{0, -40, 0}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := chunkVisible(planes, tt.id); got != tt.visible {
				t.Errorf("chunkVisible(%v) = %v, want %v", tt.id, got, tt.visible)
			}
		})
	}
}

func TestRenderStep(t *testing.T) {
	g := newTestGame()
	g.world.EnsureNeighbours(testChunk)
	g.world.UpdateBlock(testBlock(5, 5, 5), blockStone)
	g.blockRender.DirtyChunk(testChunk)

	g.blockRender.Step(testChunk)
	if !g.blockRender.HasMesh(testChunk) {
		t.Fatal("chunk not meshed after step")
	}
	m := g.blockRender.blockMeshes[testChunk]
	if m == nil || m.Faces() != 6 {
		t.Fatalf("mesh = %v, want 6 faces", m)
	}
}

func TestRenderStepWaitsForNeighbours(t *testing.T) {
	g := newTestGame()
	// Load the chunk alone: it has content but no neighbours.
	g.world.UpdateBlock(testBlock(5, 5, 5), blockStone)
	g.blockRender.DirtyChunk(testChunk)

	g.blockRender.Step(testChunk)
	if g.blockRender.HasMesh(testChunk) {
		t.Fatal("meshed a chunk with missing neighbours")
	}

	// Loading the neighbours fires the world's load hook, which clears
	// the stall latch; the next tick picks the chunk up.
	g.world.EnsureNeighbours(testChunk)
	g.blockRender.Step(testChunk)
	if !g.blockRender.HasMesh(testChunk) {
		t.Fatal("chunk not meshed after neighbours arrived")
	}
}
