package main

// Face order used everywhere a [6] of faces appears.
const (
	sleft = iota
	sright
	sup
	sdown
	sfront
	sback
)

// Each vertex is pos(3) + tex(2) + normal(3).
const floatsPerVertex = 8

var faceNormals = [6][3]float32{
	{-1, 0, 0},
	{1, 0, 0},
	{0, 1, 0},
	{0, -1, 0},
	{0, 0, 1},
	{0, 0, -1},
}

// Corner offsets of a unit cube per face, six vertices forming two
// triangles (a,b,c, c,d,a) with outward winding.
var faceVertices = [6][6][3]float32{
	{ // left
		{-0.5, -0.5, -0.5}, {-0.5, -0.5, 0.5}, {-0.5, 0.5, 0.5},
		{-0.5, 0.5, 0.5}, {-0.5, 0.5, -0.5}, {-0.5, -0.5, -0.5},
	},
	{ // right
		{0.5, -0.5, 0.5}, {0.5, -0.5, -0.5}, {0.5, 0.5, -0.5},
		{0.5, 0.5, -0.5}, {0.5, 0.5, 0.5}, {0.5, -0.5, 0.5},
	},
	{ // up
		{-0.5, 0.5, 0.5}, {0.5, 0.5, 0.5}, {0.5, 0.5, -0.5},
		{0.5, 0.5, -0.5}, {-0.5, 0.5, -0.5}, {-0.5, 0.5, 0.5},
	},
	{ // down
		{-0.5, -0.5, -0.5}, {0.5, -0.5, -0.5}, {0.5, -0.5, 0.5},
		{0.5, -0.5, 0.5}, {-0.5, -0.5, 0.5}, {-0.5, -0.5, -0.5},
	},
	{ // front
		{-0.5, -0.5, 0.5}, {0.5, -0.5, 0.5}, {0.5, 0.5, 0.5},
		{0.5, 0.5, 0.5}, {-0.5, 0.5, 0.5}, {-0.5, -0.5, 0.5},
	},
	{ // back
		{0.5, -0.5, -0.5}, {-0.5, -0.5, -0.5}, {-0.5, 0.5, -0.5},
		{-0.5, 0.5, -0.5}, {0.5, 0.5, -0.5}, {0.5, -0.5, -0.5},
	},
}

// Crossed quads for plants: two planes through the cell center.
var plantVertices = [4][6][3]float32{
	{
		{0, -0.5, -0.5}, {0, -0.5, 0.5}, {0, 0.5, 0.5},
		{0, 0.5, 0.5}, {0, 0.5, -0.5}, {0, -0.5, -0.5},
	},
	{
		{0, -0.5, 0.5}, {0, -0.5, -0.5}, {0, 0.5, -0.5},
		{0, 0.5, -0.5}, {0, 0.5, 0.5}, {0, -0.5, 0.5},
	},
	{
		{-0.5, -0.5, 0}, {0.5, -0.5, 0}, {0.5, 0.5, 0},
		{0.5, 0.5, 0}, {-0.5, 0.5, 0}, {-0.5, -0.5, 0},
	},
	{
		{0.5, -0.5, 0}, {-0.5, -0.5, 0}, {-0.5, 0.5, 0},
		{-0.5, 0.5, 0}, {0.5, 0.5, 0}, {0.5, -0.5, 0},
	},
}

var plantFaces = [4]int{sleft, sright, sfront, sback}

func texFaces(tex *BlockTexture) [6]*[6][2]float32 {
	return [6]*[6][2]float32{
		&tex.Left, &tex.Right, &tex.Up, &tex.Down, &tex.Front, &tex.Back,
	}
}

func appendFace(vertices []float32, x, y, z float32, corners *[6][3]float32, uv *[6][2]float32, normal [3]float32) []float32 {
	for i := 0; i < 6; i++ {
		vertices = append(vertices,
			x+corners[i][0], y+corners[i][1], z+corners[i][2],
			uv[i][0], uv[i][1],
			normal[0], normal[1], normal[2],
		)
	}
	return vertices
}

// makeCubeData emits the shown faces of one cube at the block
// position. show order: left, right, up, down, front, back.
func makeCubeData(vertices []float32, show [6]bool, block Vec3, tex *BlockTexture) []float32 {
	x, y, z := float32(block.X), float32(block.Y), float32(block.Z)
	uv := texFaces(tex)
	for f := 0; f < 6; f++ {
		if !show[f] {
			continue
		}
		vertices = appendFace(vertices, x, y, z, &faceVertices[f], uv[f], faceNormals[f])
	}
	return vertices
}

func makePlantData(vertices []float32, block Vec3, tex *BlockTexture) []float32 {
	x, y, z := float32(block.X), float32(block.Y), float32(block.Z)
	uv := texFaces(tex)
	for i, f := range plantFaces {
		vertices = appendFace(vertices, x, y, z, &plantVertices[i], uv[f], faceNormals[f])
	}
	return vertices
}

// makeWireFrameData emits the outline edges of the shown faces of a
// unit cube at the origin, as line segments.
func makeWireFrameData(vertices []float32, show [6]bool) []float32 {
	// Quad corners within the six-vertex face list.
	corner := [4]int{0, 1, 2, 4}
	for f := 0; f < 6; f++ {
		if !show[f] {
			continue
		}
		for i := 0; i < 4; i++ {
			a := faceVertices[f][corner[i]]
			b := faceVertices[f][corner[(i+1)%4]]
			vertices = append(vertices, a[0], a[1], a[2], b[0], b[1], b[2])
		}
	}
	return vertices
}
