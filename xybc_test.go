package xybc

import (
	"testing"

	"github.com/xybimage/xybc/image"
)

func solidImage(xsize, ysize int, r, g, b uint8) *image.Image[uint8] {
	img := image.NewImage[uint8](xsize, ysize)
	img.Planes[0].Fill(r)
	img.Planes[1].Fill(g)
	img.Planes[2].Fill(b)
	return img
}

func TestEncodeDecodeTinyGrayImage(t *testing.T) {
	img := solidImage(1, 1, 128, 128, 128)
	stream, err := Encode(NewParams(), img, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(stream) >= 64 {
		t.Fatalf("expected a 1x1 stream under 64 bytes, got %d", len(stream))
	}
	out, err := Decode(NewParams(), stream, nil)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.XSize() != 1 || out.YSize() != 1 {
		t.Fatalf("size mismatch: got %dx%d", out.XSize(), out.YSize())
	}
}

func TestEncodeDecodeUniformBlockImage(t *testing.T) {
	img := solidImage(64, 64, 0, 0, 0)
	stream, err := Encode(NewParams(), img, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(stream) >= 200 {
		t.Fatalf("expected a 64x64 flat-black stream under 200 bytes, got %d", len(stream))
	}
	if _, err := Decode(NewParams(), stream, nil); err != nil {
		t.Fatalf("Decode: %v", err)
	}
}

func TestEncodeWithTargetSizeFitsBudget(t *testing.T) {
	img := image.NewImage[uint8](256, 256)
	seed := uint32(12345)
	for c := 0; c < 3; c++ {
		for y := 0; y < 256; y++ {
			row := img.Planes[c].Row(y)
			for x := range row {
				seed = seed*1664525 + 1013904223
				row[x] = uint8(seed >> 24)
			}
		}
	}
	const target = 4096
	stream, err := Encode(NewParams().WithTargetSize(target), img, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(stream) > target+256 {
		t.Fatalf("stream of %d bytes badly overshoots target %d", len(stream), target)
	}
	if _, err := Decode(NewParams(), stream, nil); err != nil {
		t.Fatalf("Decode: %v", err)
	}
}

func TestEncodeDecodeGrayRampRoundTrips(t *testing.T) {
	img := image.NewImage[uint8](8, 8)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			v := uint8(16 * (x + y))
			img.Planes[0].Set(x, y, v)
			img.Planes[1].Set(x, y, v)
			img.Planes[2].Set(x, y, v)
		}
	}
	stream, err := Encode(NewParams(), img, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := Decode(NewParams(), stream, nil); err != nil {
		t.Fatalf("Decode: %v", err)
	}
}

func TestDecodeTruncatedStreamReportsTruncated(t *testing.T) {
	img := solidImage(32, 32, 200, 100, 50)
	stream, err := Encode(NewParams(), img, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	truncated := stream[:len(stream)/2]
	_, err = Decode(NewParams(), truncated, nil)
	if err == nil {
		t.Fatalf("expected an error decoding a truncated stream")
	}
	cerr, ok := err.(*CodecError)
	if !ok {
		t.Fatalf("expected *CodecError, got %T", err)
	}
	if cerr.Kind != Truncated {
		t.Fatalf("expected Truncated for a truncated stream, got %v", cerr.Kind)
	}
}

func TestEncodeRejectsEmptyImage(t *testing.T) {
	_, err := Encode(NewParams(), image.NewImage[uint8](0, 0), nil)
	if err == nil {
		t.Fatalf("expected an error for a zero-sized image")
	}
	cerr, ok := err.(*CodecError)
	if !ok || cerr.Kind != InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	_, err := Decode(NewParams(), []byte{0, 1, 2, 3, 4, 5, 6, 7}, nil)
	if err == nil {
		t.Fatalf("expected an error for a stream with a bad magic")
	}
	cerr, ok := err.(*CodecError)
	if !ok || cerr.Kind != InvalidBitstream {
		t.Fatalf("expected InvalidBitstream, got %v", err)
	}
}
