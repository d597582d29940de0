package xybc

import (
	"github.com/xybimage/xybc/bitio"
	"github.com/xybimage/xybc/image"
	"github.com/xybimage/xybc/noise"
	"github.com/xybimage/xybc/opsin"
	"github.com/xybimage/xybc/threadpool"
	"github.com/xybimage/xybc/transform"
)

// Decode reverses Encode. pool may be nil, in which case decoding runs
// single-threaded (nothing in a single decode is expensive enough to
// need more).
func Decode(params *Params, stream []byte, pool *threadpool.Pool) (*image.Image[uint8], error) {
	if params == nil {
		params = NewParams()
	}
	if len(stream) == 0 {
		return nil, newErr(InvalidArgument, "empty stream")
	}
	log := params.logger()
	if pool == nil {
		pool = threadpool.New(1)
	}

	r := bitio.NewReader(stream)
	header, cerr := readHeader(r)
	if cerr != nil {
		return nil, cerr
	}

	noiseParams, err := noise.Decode(r)
	if err != nil {
		return nil, newErr(Truncated, "truncated noise block")
	}

	ctanMap, err := readCtanBlock(r)
	if err != nil {
		return nil, newErr(Truncated, "truncated chroma-from-luma block")
	}

	bx, by := blockGrid(header.XSize, header.YSize)
	plan := &bodyPlan{
		coeffs:   &blockCoeffs{bx: bx, by: by},
		ctanMap:  ctanMap,
		smoothDC: header.hasFlag(FlagSmoothDCPred),
	}
	log.Debug("decode: body", "xsize", header.XSize, "ysize", header.YSize, "quantTemplate", header.QuantTemplID)
	coef, cerr2 := decodeBody(r, plan, int(header.QuantTemplID))
	if cerr2 != nil {
		return nil, cerr2
	}

	opsinImg := inverseBlocks(coef, bx, by, header.XSize, header.YSize, pool)

	if header.hasFlag(FlagGaborishTransform) {
		for _, p := range opsinImg.Planes {
			transform.GaborishForward(p)
		}
	}

	applyNoise := !header.hasFlag(FlagDenoise) && !noiseParams.IsZero()
	if params.applyNoise == Off {
		applyNoise = false
	} else if params.applyNoise == On {
		applyNoise = !noiseParams.IsZero()
	}
	if applyNoise {
		noise.AddNoise(noiseParams, opsinImg)
	}

	return opsin.InverseToSrgb8(opsinImg), nil
}
