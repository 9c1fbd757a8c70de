package main

import (
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "blocks.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestStoreBlocks(t *testing.T) {
	s := newTestStore(t)
	blocks := map[Vec3]int{
		{1, 2, 3}:      blockStone,
		{-1, -2, -3}:   blockBrick,
		{100, 50, -70}: blockWater,
	}
	for bid, w := range blocks {
		if err := s.UpdateBlock(bid, w); err != nil {
			t.Fatal(err)
		}
	}

	for bid, want := range blocks {
		found := false
		s.RangeBlocks(bid.Chunkid(), func(got Vec3, w int) {
			if got == bid {
				found = true
				if w != want {
					t.Errorf("block %v = %d, want %d", bid, w, want)
				}
			}
		})
		if !found {
			t.Errorf("block %v not returned for its chunk", bid)
		}
	}
}

func TestStoreRangeBlocksScope(t *testing.T) {
	s := newTestStore(t)
	inside := Vec3{5, 5, 5}
	outside := Vec3{ChunkWidth + 5, 5, 5}
	s.UpdateBlock(inside, blockStone)
	s.UpdateBlock(outside, blockBrick)

	var got []Vec3
	s.RangeBlocks(inside.Chunkid(), func(bid Vec3, w int) {
		got = append(got, bid)
	})
	if len(got) != 1 || got[0] != inside {
		t.Fatalf("RangeBlocks returned %v, want only %v", got, inside)
	}
}

func TestStoreOverwriteBlock(t *testing.T) {
	s := newTestStore(t)
	bid := Vec3{1, 2, 3}
	s.UpdateBlock(bid, blockStone)
	s.UpdateBlock(bid, blockAir)

	var got int
	s.RangeBlocks(bid.Chunkid(), func(id Vec3, w int) {
		if id == bid {
			got = w
		}
	})
	if got != blockAir {
		t.Fatalf("block = %d, want last write %d", got, blockAir)
	}
}

func TestStoreChunkVersion(t *testing.T) {
	s := newTestStore(t)
	cid := Vec3{3, 0, -7}
	if v := s.GetChunkVersion(cid); v != "" {
		t.Fatalf("fresh chunk version = %q, want empty", v)
	}
	if err := s.UpdateChunkVersion(cid, "v42"); err != nil {
		t.Fatal(err)
	}
	if v := s.GetChunkVersion(cid); v != "v42" {
		t.Fatalf("chunk version = %q, want v42", v)
	}
}

func TestStorePlayerState(t *testing.T) {
	s := newTestStore(t)

	// No saved state: spawn height default.
	state := s.GetPlayerState()
	if state.Y != 16 {
		t.Fatalf("default state = %v, want Y 16", state)
	}

	want := PlayerState{X: 1.5, Y: 80, Z: -3.25, Rx: -90, Ry: 30}
	if err := s.UpdatePlayerState(want); err != nil {
		t.Fatal(err)
	}
	if got := s.GetPlayerState(); got != want {
		t.Fatalf("state = %v, want %v", got, want)
	}
}

func TestBlockDbKeyRoundtrip(t *testing.T) {
	ids := []Vec3{
		{0, 0, 0},
		{1, 2, 3},
		{-1, -32, 31},
		{1000, -2000, 3000},
	}
	for _, bid := range ids {
		key := encodeBlockDbKey(bid.Chunkid(), bid)
		cid, got := decodeBlockDbKey(key)
		if cid != bid.Chunkid() || got != bid {
			t.Errorf("roundtrip(%v) = %v/%v", bid, cid, got)
		}
	}
}
