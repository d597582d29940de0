package transform

import "github.com/xybimage/xybc/image"

// ExtractBlock copies the 8x8 block at pixel origin (bx*8, by*8) out of plane
// into a flat row-major buffer of 64 samples, clamping to the plane edge for
// partial border blocks.
func ExtractBlock(plane *image.Plane[float32], bx, by int, out []float64) {
	xsize, ysize := plane.XSize(), plane.YSize()
	x0, y0 := bx*blockSize, by*blockSize
	for dy := 0; dy < blockSize; dy++ {
		sy := y0 + dy
		if sy >= ysize {
			sy = ysize - 1
		}
		row := plane.Row(sy)
		for dx := 0; dx < blockSize; dx++ {
			sx := x0 + dx
			if sx >= xsize {
				sx = xsize - 1
			}
			out[dy*blockSize+dx] = float64(row[sx])
		}
	}
}

// StoreBlock writes a flat row-major buffer of 64 samples back into plane at
// pixel origin (bx*8, by*8), discarding samples that fall past the plane
// edge for partial border blocks.
func StoreBlock(plane *image.Plane[float32], bx, by int, in []float64) {
	xsize, ysize := plane.XSize(), plane.YSize()
	x0, y0 := bx*blockSize, by*blockSize
	for dy := 0; dy < blockSize; dy++ {
		sy := y0 + dy
		if sy >= ysize {
			continue
		}
		row := plane.Row(sy)
		for dx := 0; dx < blockSize; dx++ {
			sx := x0 + dx
			if sx >= xsize {
				continue
			}
			row[sx] = float32(in[dy*blockSize+dx])
		}
	}
}
