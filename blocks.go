package main

// Block type ids. 0 is air, plants occupy 17..31 so a single range
// check classifies them.
const (
	blockAir    = 0
	blockGrass  = 1
	blockSand   = 2
	blockStone  = 3
	blockBrick  = 4
	blockWood   = 5
	blockCement = 6
	blockDirt   = 7
	blockPlank  = 8
	blockWater  = 10
	blockLeaves = 15
	blockCloud  = 16

	blockTallGrass = 17
)

var availableItems = []int{
	blockGrass, blockSand, blockStone, blockBrick, blockWood,
	blockCement, blockDirt, blockPlank, blockLeaves,
	blockTallGrass, 18, 19, 20, 21, 22, 23,
}

func IsPlant(tp int) bool {
	return tp >= 17 && tp <= 31
}

func IsFluid(tp int) bool {
	return tp == blockWater
}

func IsTransparent(tp int) bool {
	if IsPlant(tp) {
		return true
	}
	switch tp {
	case -1, blockAir, blockWater, blockLeaves:
		return true
	default:
		return false
	}
}

func IsObstacle(tp int) bool {
	if IsPlant(tp) {
		return false
	}
	switch tp {
	case -1:
		// Unloaded chunks block movement.
		return true
	case blockAir, blockWater:
		return false
	default:
		return true
	}
}

// BlockTexture holds per-face texture coordinates, one uv pair per
// emitted vertex, in the same six-vertex order the face emitters use.
type BlockTexture struct {
	Left, Right, Up, Down, Front, Back [6][2]float32
}

const atlasTiles = 16

// tileUV expands an atlas tile index into the six uv pairs of a face
// quad (two triangles: a,b,c,c,d,a).
func tileUV(tile int) [6][2]float32 {
	tx := float32(tile%atlasTiles) / atlasTiles
	ty := float32(tile/atlasTiles) / atlasTiles
	s := float32(1) / atlasTiles
	u0, v0 := tx, ty
	u1, v1 := tx+s, ty+s
	return [6][2]float32{
		{u0, v0}, {u1, v0}, {u1, v1},
		{u1, v1}, {u0, v1}, {u0, v0},
	}
}

func makeBlockTexture(left, right, up, down, front, back int) *BlockTexture {
	return &BlockTexture{
		Left:  tileUV(left),
		Right: tileUV(right),
		Up:    tileUV(up),
		Down:  tileUV(down),
		Front: tileUV(front),
		Back:  tileUV(back),
	}
}

func sameSides(side, up, down int) *BlockTexture {
	return makeBlockTexture(side, side, up, down, side, side)
}

func uniform(tile int) *BlockTexture {
	return makeBlockTexture(tile, tile, tile, tile, tile, tile)
}

// TextureDesc is the material table: block type to atlas coordinates.
type TextureDesc struct {
	m   map[int]*BlockTexture
	def *BlockTexture
}

func (t *TextureDesc) Texture(w int) *BlockTexture {
	if b, ok := t.m[w]; ok {
		return b
	}
	return t.def
}

var tex *TextureDesc

func LoadTextureDesc() error {
	m := map[int]*BlockTexture{
		blockGrass:  sameSides(3, 0, 2),
		blockSand:   uniform(18),
		blockStone:  uniform(6),
		blockBrick:  uniform(7),
		blockWood:   sameSides(20, 21, 21),
		blockCement: uniform(22),
		blockDirt:   uniform(2),
		blockPlank:  uniform(5),
		blockWater:  uniform(13),
		blockLeaves: uniform(52),
		blockCloud:  uniform(14),
	}
	// Plants and flowers sit in one atlas row.
	for i := 17; i <= 31; i++ {
		m[i] = uniform(48 + (i - 17))
	}
	tex = &TextureDesc{m: m, def: uniform(4)}
	return nil
}
