package main

import (
	"reflect"
	"testing"
)

func meshWorld(t *testing.T) *World {
	t.Helper()
	w := NewWorld()
	w.EnsureNeighbours(testChunk)
	return w
}

func TestBuildChunkMeshEmpty(t *testing.T) {
	w := meshWorld(t)
	d := buildChunkMesh(w, w.Chunk(testChunk))
	if d.BlockFaces != 0 || d.FluidFaces != 0 {
		t.Fatalf("empty chunk built %d block, %d fluid faces", d.BlockFaces, d.FluidFaces)
	}
	if len(d.BlockData) != 0 || len(d.FluidData) != 0 {
		t.Fatal("empty chunk produced vertex data")
	}
}

func TestBuildChunkMeshSingleBlock(t *testing.T) {
	w := meshWorld(t)
	w.UpdateBlock(testBlock(5, 5, 5), blockStone)

	d := buildChunkMesh(w, w.Chunk(testChunk))
	if d.BlockFaces != 6 {
		t.Fatalf("isolated block has %d faces, want 6", d.BlockFaces)
	}
	if len(d.BlockData) != 6*6*floatsPerVertex {
		t.Fatalf("vertex data len = %d, want %d", len(d.BlockData), 6*6*floatsPerVertex)
	}
	if d.FluidFaces != 0 {
		t.Fatalf("solid block emitted %d fluid faces", d.FluidFaces)
	}
}

func TestBuildChunkMeshDeterministic(t *testing.T) {
	w := meshWorld(t)
	w.UpdateBlock(testBlock(5, 5, 5), blockStone)
	w.UpdateBlock(testBlock(6, 5, 5), blockGrass)
	w.UpdateBlock(testBlock(5, 6, 5), blockWater)
	w.UpdateBlock(testBlock(9, 9, 9), blockTallGrass)

	a := buildChunkMesh(w, w.Chunk(testChunk))
	b := buildChunkMesh(w, w.Chunk(testChunk))
	if !reflect.DeepEqual(a, b) {
		t.Fatal("two builds of the same content differ")
	}
}

func TestBuildChunkMeshAdjacentCulling(t *testing.T) {
	w := meshWorld(t)
	w.UpdateBlock(testBlock(5, 5, 5), blockStone)
	w.UpdateBlock(testBlock(6, 5, 5), blockStone)

	d := buildChunkMesh(w, w.Chunk(testChunk))
	// Two cubes sharing a face hide two faces between them.
	if d.BlockFaces != 10 {
		t.Fatalf("pair has %d faces, want 10", d.BlockFaces)
	}
}

func TestBuildChunkMeshCrossChunkCulling(t *testing.T) {
	w := meshWorld(t)
	edge := testBlock(31, 5, 5)
	w.UpdateBlock(edge, blockStone)

	d := buildChunkMesh(w, w.Chunk(testChunk))
	if d.BlockFaces != 6 {
		t.Fatalf("edge block has %d faces, want 6", d.BlockFaces)
	}

	// A neighbour across the chunk border hides the shared face.
	w.UpdateBlock(edge.Right(), blockStone)
	d = buildChunkMesh(w, w.Chunk(testChunk))
	if d.BlockFaces != 5 {
		t.Fatalf("edge block has %d faces with neighbour, want 5", d.BlockFaces)
	}
}

func TestBuildChunkMeshFluid(t *testing.T) {
	w := meshWorld(t)
	w.UpdateBlock(testBlock(5, 5, 5), blockWater)
	w.UpdateBlock(testBlock(5, 5, 6), blockWater)

	d := buildChunkMesh(w, w.Chunk(testChunk))
	if d.BlockFaces != 0 {
		t.Fatalf("water emitted %d opaque faces", d.BlockFaces)
	}
	// Faces between the two water cells stay hidden.
	if d.FluidFaces != 10 {
		t.Fatalf("water pair has %d fluid faces, want 10", d.FluidFaces)
	}
}

func TestBuildChunkMeshFluidAgainstSolid(t *testing.T) {
	w := meshWorld(t)
	w.UpdateBlock(testBlock(5, 5, 5), blockWater)
	w.UpdateBlock(testBlock(6, 5, 5), blockStone)

	d := buildChunkMesh(w, w.Chunk(testChunk))
	// The water face against the stone is hidden by the stone.
	if d.FluidFaces != 5 {
		t.Fatalf("water has %d fluid faces, want 5", d.FluidFaces)
	}
	// The stone face against the water still draws, water being
	// transparent.
	if d.BlockFaces != 6 {
		t.Fatalf("stone has %d faces, want 6", d.BlockFaces)
	}
}

func TestBuildChunkMeshPlant(t *testing.T) {
	w := meshWorld(t)
	w.UpdateBlock(testBlock(5, 5, 5), blockTallGrass)

	d := buildChunkMesh(w, w.Chunk(testChunk))
	if d.BlockFaces != 4 {
		t.Fatalf("plant has %d faces, want 4", d.BlockFaces)
	}

	// Plants never hide a neighbour's face.
	w.UpdateBlock(testBlock(6, 5, 5), blockStone)
	d = buildChunkMesh(w, w.Chunk(testChunk))
	if d.BlockFaces != 4+6 {
		t.Fatalf("plant+stone has %d faces, want 10", d.BlockFaces)
	}
}
