package main

import (
	"log"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	ChunkWidth = 32

	// 32 = 2^5, so local coordinates pack into the block index with
	// plain shifts: idx = x | z<<5 | y<<10.
	shiftZ    = 5
	shiftY    = 10
	localMask = ChunkWidth - 1

	chunkVolume = ChunkWidth * ChunkWidth * ChunkWidth
)

type Vec3 struct {
	X, Y, Z int
}

func (v Vec3) Left() Vec3 {
	return Vec3{v.X - 1, v.Y, v.Z}
}
func (v Vec3) Right() Vec3 {
	return Vec3{v.X + 1, v.Y, v.Z}
}
func (v Vec3) Up() Vec3 {
	return Vec3{v.X, v.Y + 1, v.Z}
}
func (v Vec3) Down() Vec3 {
	return Vec3{v.X, v.Y - 1, v.Z}
}
func (v Vec3) Front() Vec3 {
	return Vec3{v.X, v.Y, v.Z + 1}
}
func (v Vec3) Back() Vec3 {
	return Vec3{v.X, v.Y, v.Z - 1}
}

// Chunkid maps a block position to the position of its owning chunk.
func (v Vec3) Chunkid() Vec3 {
	return Vec3{
		int(math.Floor(float64(v.X) / ChunkWidth)),
		int(math.Floor(float64(v.Y) / ChunkWidth)),
		int(math.Floor(float64(v.Z) / ChunkWidth)),
	}
}

// Local maps a block position to its coordinate inside the owning
// chunk, each component in [0, ChunkWidth).
func (v Vec3) Local() Vec3 {
	return Vec3{v.X & localMask, v.Y & localMask, v.Z & localMask}
}

// Neighbors returns the six face-adjacent chunk positions.
func (v Vec3) Neighbors() [6]Vec3 {
	return [6]Vec3{v.Left(), v.Right(), v.Up(), v.Down(), v.Front(), v.Back()}
}

// DistanceTo is the Manhattan distance between two chunk positions.
func (v Vec3) DistanceTo(o Vec3) int {
	return absInt(v.X-o.X) + absInt(v.Y-o.Y) + absInt(v.Z-o.Z)
}

func NearBlock(pos mgl32.Vec3) Vec3 {
	return Vec3{
		int(round(pos.X())),
		int(round(pos.Y())),
		int(round(pos.Z())),
	}
}

func blockIndex(local Vec3) int {
	return local.X | local.Z<<shiftZ | local.Y<<shiftY
}

// Chunk stores the block types of a ChunkWidth^3 cube as a dense
// array. Block type 0 is air. The dense layout keeps block iteration
// order fixed, which the mesh builder relies on for byte-identical
// rebuilds.
type Chunk struct {
	id     Vec3
	blocks [chunkVolume]uint8
}

func NewChunk(id Vec3) *Chunk {
	return &Chunk{id: id}
}

func (c *Chunk) Id() Vec3 {
	return c.id
}

func (c *Chunk) Block(id Vec3) int {
	if id.Chunkid() != c.id {
		log.Panicf("block %v not in chunk %v", id, c.id)
	}
	return int(c.blocks[blockIndex(id.Local())])
}

func (c *Chunk) SetBlock(id Vec3, w int) {
	if id.Chunkid() != c.id {
		log.Panicf("block %v not in chunk %v", id, c.id)
	}
	c.blocks[blockIndex(id.Local())] = uint8(w)
}

// RangeBlocks visits every non-air block in index order, passing
// world coordinates.
func (c *Chunk) RangeBlocks(f func(id Vec3, w int)) {
	base := Vec3{c.id.X * ChunkWidth, c.id.Y * ChunkWidth, c.id.Z * ChunkWidth}
	idx := 0
	for y := 0; y < ChunkWidth; y++ {
		for z := 0; z < ChunkWidth; z++ {
			for x := 0; x < ChunkWidth; x++ {
				if w := c.blocks[idx]; w != 0 {
					f(Vec3{base.X + x, base.Y + y, base.Z + z}, int(w))
				}
				idx++
			}
		}
	}
}
