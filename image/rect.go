package image

// Rect is a clamped (x0, y0, xsize, ysize) view onto a plane. It carries no
// reference to the plane itself so the same Rect can be reused against any
// plane of matching dimensions, mirroring how group-sized windows are
// passed around the codec without allocating sub-images.
type Rect struct {
	X0, Y0         int
	XSize, YSize   int
}

// MakeRect builds a Rect clamped to [0, planeXSize) x [0, planeYSize).
func MakeRect(x0, y0, xsize, ysize, planeXSize, planeYSize int) Rect {
	if x0 < 0 {
		xsize += x0
		x0 = 0
	}
	if y0 < 0 {
		ysize += y0
		y0 = 0
	}
	if x0+xsize > planeXSize {
		xsize = planeXSize - x0
	}
	if y0+ysize > planeYSize {
		ysize = planeYSize - y0
	}
	if xsize < 0 {
		xsize = 0
	}
	if ysize < 0 {
		ysize = 0
	}
	return Rect{X0: x0, Y0: y0, XSize: xsize, YSize: ysize}
}

// RectFull returns a Rect covering an entire xsize x ysize plane.
func RectFull(xsize, ysize int) Rect {
	return Rect{X0: 0, Y0: 0, XSize: xsize, YSize: ysize}
}

// Contains reports whether (x, y) falls within the rect.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X0 && x < r.X0+r.XSize && y >= r.Y0 && y < r.Y0+r.YSize
}

// Empty reports whether the rect covers zero area.
func (r Rect) Empty() bool {
	return r.XSize <= 0 || r.YSize <= 0
}
