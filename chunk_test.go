package main

import "testing"

func TestChunkidLocal(t *testing.T) {
	tests := []struct {
		name  string
		block Vec3
		chunk Vec3
		local Vec3
	}{
		{"origin", Vec3{0, 0, 0}, Vec3{0, 0, 0}, Vec3{0, 0, 0}},
		{"inside first chunk", Vec3{10, 20, 31}, Vec3{0, 0, 0}, Vec3{10, 20, 31}},
		{"start of second chunk", Vec3{32, 32, 32}, Vec3{1, 1, 1}, Vec3{0, 0, 0}},
		{"negative one", Vec3{-1, -1, -1}, Vec3{-1, -1, -1}, Vec3{31, 31, 31}},
		{"deep negative", Vec3{-33, -64, -32}, Vec3{-2, -2, -1}, Vec3{31, 0, 0}},
		{"mixed", Vec3{-42, 11, 30}, Vec3{-2, 0, 0}, Vec3{22, 11, 30}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.block.Chunkid(); got != tt.chunk {
				t.Errorf("Chunkid(%v) = %v, want %v", tt.block, got, tt.chunk)
			}
			if got := tt.block.Local(); got != tt.local {
				t.Errorf("Local(%v) = %v, want %v", tt.block, got, tt.local)
			}
		})
	}
}

func TestChunkSetBlock(t *testing.T) {
	cid := Vec3{-1, 2, 3}
	c := NewChunk(cid)
	bid := Vec3{-1, 2*ChunkWidth + 7, 3*ChunkWidth + 31}

	if got := c.Block(bid); got != blockAir {
		t.Fatalf("fresh chunk block = %d, want air", got)
	}
	c.SetBlock(bid, blockStone)
	if got := c.Block(bid); got != blockStone {
		t.Fatalf("block = %d, want %d", got, blockStone)
	}
	c.SetBlock(bid, blockAir)
	if got := c.Block(bid); got != blockAir {
		t.Fatalf("cleared block = %d, want air", got)
	}
}

func TestChunkRangeBlocksOrder(t *testing.T) {
	c := NewChunk(Vec3{0, 0, 0})
	c.SetBlock(Vec3{5, 0, 0}, blockSand)
	c.SetBlock(Vec3{0, 0, 5}, blockSand)
	c.SetBlock(Vec3{0, 5, 0}, blockSand)

	var order []Vec3
	c.RangeBlocks(func(id Vec3, w int) {
		order = append(order, id)
	})
	want := []Vec3{{5, 0, 0}, {0, 0, 5}, {0, 5, 0}}
	if len(order) != len(want) {
		t.Fatalf("visited %d blocks, want %d", len(order), len(want))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("visit %d = %v, want %v (x, then z, then y)", i, order[i], want[i])
		}
	}
}

func TestDistanceTo(t *testing.T) {
	a := Vec3{1, -2, 3}
	b := Vec3{-1, 2, 0}
	if d := a.DistanceTo(b); d != 9 {
		t.Fatalf("distance = %d, want 9", d)
	}
	if d := a.DistanceTo(a); d != 0 {
		t.Fatalf("self distance = %d, want 0", d)
	}
}
