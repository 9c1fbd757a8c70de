package main

import (
	"log"

	"github.com/go-gl/mathgl/mgl32"
	lru "github.com/hashicorp/golang-lru"
)

// Chunks load lazily and stay resident until the LRU pushes them out.
// The streaming core never forces an eviction; the bound only caps
// memory on long play sessions.
const maxResidentChunks = 4096

// World owns the chunk table. Only the tick loop mutates it, so no
// locking beyond what the cache provides is needed.
type World struct {
	chunks  *lru.Cache
	onEvict func(id Vec3)
	onLoad  func(id Vec3)
}

func NewWorld() *World {
	w := new(World)
	cache, err := lru.NewWithEvict(maxResidentChunks, func(key, value interface{}) {
		if w.onEvict != nil {
			w.onEvict(key.(Vec3))
		}
	})
	if err != nil {
		log.Panic(err)
	}
	w.chunks = cache
	return w
}

// SetEvictHandler installs the callback that releases GPU meshes when
// a chunk leaves the table. Local edits are already persisted at edit
// time, so eviction has nothing to write.
func (w *World) SetEvictHandler(f func(id Vec3)) {
	w.onEvict = f
}

// SetLoadHandler installs the callback fired after a chunk loads.
// Loads happen outside the mesh queue, so this is how stalled
// neighbour waits learn that new data arrived.
func (w *World) SetLoadHandler(f func(id Vec3)) {
	w.onLoad = f
}

func (w *World) HasChunk(id Vec3) bool {
	return w.chunks.Contains(id)
}

// HasNeighbours reports whether all six face-adjacent chunks are
// loaded. Meshing a chunk reads across its borders, so a chunk is
// only meshable once this holds.
func (w *World) HasNeighbours(id Vec3) bool {
	for _, n := range id.Neighbors() {
		if !w.chunks.Contains(n) {
			return false
		}
	}
	return true
}

// Chunk returns the chunk at id, loading it if needed.
func (w *World) Chunk(id Vec3) *Chunk {
	if v, ok := w.chunks.Get(id); ok {
		return v.(*Chunk)
	}
	c := w.loadChunk(id)
	w.chunks.Add(id, c)
	if w.onLoad != nil {
		w.onLoad(id)
	}
	return c
}

// EnsureNeighbours loads the chunk at id and its six neighbours.
// Runs before any edit is written so mesh generation never observes a
// partially loaded neighbour set.
func (w *World) EnsureNeighbours(id Vec3) {
	w.Chunk(id)
	for _, n := range id.Neighbors() {
		w.Chunk(n)
	}
}

// loadChunk assembles chunk content: deterministic terrain, then the
// local cache overlay, then whatever the server has newer.
func (w *World) loadChunk(id Vec3) *Chunk {
	c := NewChunk(id)
	for bid, tp := range makeTerrain(id) {
		c.SetBlock(bid, tp)
	}
	if store != nil {
		store.RangeBlocks(id, func(bid Vec3, tp int) {
			c.SetBlock(bid, tp)
		})
	}
	ClientFetchChunk(id, func(bid Vec3, tp int) {
		c.SetBlock(bid, tp)
	})
	return c
}

func (w *World) BlockChunk(block Vec3) *Chunk {
	v, ok := w.chunks.Get(block.Chunkid())
	if !ok {
		return nil
	}
	return v.(*Chunk)
}

// Block returns the type at a block position, or -1 when the owning
// chunk is not loaded.
func (w *World) Block(id Vec3) int {
	chunk := w.BlockChunk(id)
	if chunk == nil {
		return -1
	}
	return chunk.Block(id)
}

func (w *World) HasBlock(id Vec3) bool {
	tp := w.Block(id)
	return tp != -1 && tp != blockAir
}

// UpdateBlock writes a block type, loading the owning chunk if
// needed. All world mutation funnels through here.
func (w *World) UpdateBlock(id Vec3, tp int) {
	w.Chunk(id.Chunkid()).SetBlock(id, tp)
}

// HitTest steps a ray from pos along vec and returns the first solid
// block hit and the empty block just before it.
func (w *World) HitTest(pos mgl32.Vec3, vec mgl32.Vec3) (*Vec3, *Vec3) {
	var (
		maxLen = float32(8.0)
		step   = float32(0.125)

		block, prev Vec3
		pprev       *Vec3
	)

	for length := float32(0); length < maxLen; length += step {
		block = NearBlock(pos.Add(vec.Mul(length)))
		if prev != block && w.HasBlock(block) {
			return &block, pprev
		}
		prev = block
		pprev = &prev
	}
	return nil, nil
}

// Collide clamps pos against obstacle blocks around the head and
// foot. The returned bool is true when vertical motion stopped.
func (w *World) Collide(pos mgl32.Vec3) (mgl32.Vec3, bool) {
	x, y, z := pos.X(), pos.Y(), pos.Z()
	nx, ny, nz := round(pos.X()), round(pos.Y()), round(pos.Z())
	const pad = 0.25

	head := Vec3{int(nx), int(ny), int(nz)}
	foot := head.Down()

	stop := false
	for _, b := range []Vec3{foot, head} {
		if IsObstacle(w.Block(b.Left())) && x < nx && nx-x > pad {
			x = nx - pad
		}
		if IsObstacle(w.Block(b.Right())) && x > nx && x-nx > pad {
			x = nx + pad
		}
		if IsObstacle(w.Block(b.Down())) && y < ny && ny-y > pad {
			y = ny - pad
			stop = true
		}
		if IsObstacle(w.Block(b.Up())) && y > ny && y-ny > pad {
			y = ny + pad
			stop = true
		}
		if IsObstacle(w.Block(b.Back())) && z < nz && nz-z > pad {
			z = nz - pad
		}
		if IsObstacle(w.Block(b.Front())) && z > nz && z-nz > pad {
			z = nz + pad
		}
	}
	return mgl32.Vec3{x, y, z}, stop
}

const waterLevel = 12

// makeTerrain generates the deterministic offline terrain falling
// inside the chunk's y-range: a noise height field with sand shores,
// a water table, flowers, trees and clouds.
func makeTerrain(cid Vec3) map[Vec3]int {
	m := make(map[Vec3]int)
	y0 := cid.Y * ChunkWidth
	y1 := y0 + ChunkWidth
	// Terrain, trees and clouds all live below y=128; chunks outside
	// that band are air.
	if y0 >= 128 || y1 <= 0 {
		return m
	}
	set := func(x, y, z, w int) {
		if y >= y0 && y < y1 {
			m[Vec3{x, y, z}] = w
		}
	}

	p, q := cid.X, cid.Z
	for dx := 0; dx < ChunkWidth; dx++ {
		for dz := 0; dz < ChunkWidth; dz++ {
			x, z := p*ChunkWidth+dx, q*ChunkWidth+dz
			f := noise2(float32(x)*0.01, float32(z)*0.01, 4, 0.5, 2)
			g := noise2(float32(-x)*0.01, float32(-z)*0.01, 2, 0.9, 2)
			mh := int(g*32 + 16)
			h := int(f * float32(mh))
			w := blockGrass
			if h <= waterLevel {
				w = blockSand
			}
			for y := 0; y < h; y++ {
				set(x, y, z, w)
			}
			// flood the shore up to the water table
			for y := h; y <= waterLevel; y++ {
				set(x, y, z, blockWater)
			}

			// flowers
			if w == blockGrass {
				if noise2(-float32(x)*0.1, float32(z)*0.1, 4, 0.8, 2) > 0.6 {
					set(x, h, z, blockTallGrass)
				}
				if noise2(float32(x)*0.05, float32(-z)*0.05, 4, 0.8, 2) > 0.7 {
					flower := 18 + int(noise2(float32(x)*0.1, float32(z)*0.1, 4, 0.8, 2)*7)
					set(x, h, z, flower)
				}
			}

			// tree, kept away from chunk borders so it fits the column
			if w == blockGrass {
				ok := true
				if dx-4 < 0 || dz-4 < 0 ||
					dx+4 > ChunkWidth || dz+4 > ChunkWidth {
					ok = false
				}
				if ok && noise2(float32(x), float32(z), 6, 0.5, 2) > 0.79 {
					for y := h + 3; y < h+8; y++ {
						for ox := -3; ox <= 3; ox++ {
							for oz := -3; oz <= 3; oz++ {
								d := ox*ox + oz*oz + (y-h-4)*(y-h-4)
								if d < 11 {
									set(x+ox, y, z+oz, blockLeaves)
								}
							}
						}
					}
					for y := h; y < h+7; y++ {
						set(x, y, z, blockWood)
					}
				}
			}

			// cloud
			for y := 64; y < 72; y++ {
				if y < y0 || y >= y1 {
					continue
				}
				if noise3(float32(x)*0.01, float32(y)*0.1, float32(z)*0.01, 8, 0.5, 2) > 0.69 {
					set(x, y, z, blockCloud)
				}
			}
		}
	}
	return m
}
