package main

// ChunkMeshData is the transient output of buildChunkMesh: two vertex
// streams tagged with the chunk position. A zero face count means
// that stream has nothing to upload and no GPU buffer may be created
// for it.
type ChunkMeshData struct {
	Id         Vec3
	BlockData  []float32
	FluidData  []float32
	BlockFaces int
	FluidFaces int
}

// buildChunkMesh emits the visible geometry of a chunk into separate
// opaque and fluid streams. It only reads the world (the chunk and
// its face-adjacent neighbours for cross-border culling), so the same
// world content always yields byte-identical output.
func buildChunkMesh(w *World, c *Chunk) *ChunkMeshData {
	d := &ChunkMeshData{Id: c.Id()}
	c.RangeBlocks(func(id Vec3, tp int) {
		neighbors := [6]int{
			w.Block(id.Left()),
			w.Block(id.Right()),
			w.Block(id.Up()),
			w.Block(id.Down()),
			w.Block(id.Front()),
			w.Block(id.Back()),
		}
		switch {
		case IsFluid(tp):
			// Fluid faces against other fluid cells stay hidden so
			// the interior of a pool never renders.
			var show [6]bool
			for i, n := range neighbors {
				show[i] = IsTransparent(n) && !IsFluid(n)
			}
			d.FluidData = makeCubeData(d.FluidData, show, id, tex.Texture(tp))
		case IsPlant(tp):
			d.BlockData = makePlantData(d.BlockData, id, tex.Texture(tp))
		default:
			var show [6]bool
			for i, n := range neighbors {
				show[i] = IsTransparent(n)
			}
			d.BlockData = makeCubeData(d.BlockData, show, id, tex.Texture(tp))
		}
	})
	d.BlockFaces = len(d.BlockData) / floatsPerVertex / 6
	d.FluidFaces = len(d.FluidData) / floatsPerVertex / 6
	return d
}
