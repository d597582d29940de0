package opsin

import "github.com/xybimage/xybc/image"

// ForwardFromSrgb8 converts an 8-bit sRGB image to a float32 XYB image.
func ForwardFromSrgb8(srgb *image.Image[uint8]) *image.Image[float32] {
	xsize, ysize := srgb.XSize(), srgb.YSize()
	out := image.NewImage[float32](xsize, ysize)
	for yy := 0; yy < ysize; yy++ {
		rRow := srgb.Planes[0].Row(yy)
		gRow := srgb.Planes[1].Row(yy)
		bRow := srgb.Planes[2].Row(yy)
		xRow := out.Planes[0].Row(yy)
		yRow := out.Planes[1].Row(yy)
		bOutRow := out.Planes[2].Row(yy)
		for xx := 0; xx < xsize; xx++ {
			r := float64(Srgb8ToLinear(rRow[xx]))
			g := float64(Srgb8ToLinear(gRow[xx]))
			b := float64(Srgb8ToLinear(bRow[xx]))
			x, y, z := ForwardPixel(r, g, b)
			xRow[xx] = float32(x)
			yRow[xx] = float32(y)
			bOutRow[xx] = float32(z)
		}
	}
	return out
}

// ForwardFromLinear converts a linear-light float32 RGB image to XYB.
func ForwardFromLinear(linear *image.Image[float32]) *image.Image[float32] {
	xsize, ysize := linear.XSize(), linear.YSize()
	out := image.NewImage[float32](xsize, ysize)
	for yy := 0; yy < ysize; yy++ {
		rRow := linear.Planes[0].Row(yy)
		gRow := linear.Planes[1].Row(yy)
		bRow := linear.Planes[2].Row(yy)
		xRow := out.Planes[0].Row(yy)
		yRow := out.Planes[1].Row(yy)
		bOutRow := out.Planes[2].Row(yy)
		for xx := 0; xx < xsize; xx++ {
			x, y, z := ForwardPixel(float64(rRow[xx]), float64(gRow[xx]), float64(bRow[xx]))
			xRow[xx] = float32(x)
			yRow[xx] = float32(y)
			bOutRow[xx] = float32(z)
		}
	}
	return out
}

// InverseToSrgb8 converts a float32 XYB image back to 8-bit sRGB, clamping
// to [0,1] in linear space before the final sRGB encode.
func InverseToSrgb8(xyb *image.Image[float32]) *image.Image[uint8] {
	xsize, ysize := xyb.XSize(), xyb.YSize()
	out := image.NewImage[uint8](xsize, ysize)
	for yy := 0; yy < ysize; yy++ {
		xRow := xyb.Planes[0].Row(yy)
		yRow := xyb.Planes[1].Row(yy)
		bRow := xyb.Planes[2].Row(yy)
		rOut := out.Planes[0].Row(yy)
		gOut := out.Planes[1].Row(yy)
		bOut := out.Planes[2].Row(yy)
		for xx := 0; xx < xsize; xx++ {
			r, g, b := InversePixel(float64(xRow[xx]), float64(yRow[xx]), float64(bRow[xx]))
			rOut[xx] = LinearToSrgb8(float32(clamp01(r)))
			gOut[xx] = LinearToSrgb8(float32(clamp01(g)))
			bOut[xx] = LinearToSrgb8(float32(clamp01(b)))
		}
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
