package xybc

import (
	"github.com/xybimage/xybc/bitio"
	"github.com/xybimage/xybc/image"
	"github.com/xybimage/xybc/noise"
	"github.com/xybimage/xybc/opsin"
	"github.com/xybimage/xybc/quant"
	"github.com/xybimage/xybc/ratectl"
	"github.com/xybimage/xybc/threadpool"
	"github.com/xybimage/xybc/transform"
)

// defaultTemplateID selects the flatter of quant's two dequantization
// matrix templates; picking between them per image is future work (see
// DESIGN.md's Open Questions).
const defaultTemplateID = 0

// Encode compresses an 8-bit sRGB image (spec.md §1, §6). pool may be
// nil, in which case a pool sized to runtime.NumCPU() is used.
func Encode(params *Params, img *image.Image[uint8], pool *threadpool.Pool) ([]byte, error) {
	if params == nil {
		params = NewParams()
	}
	if img == nil || img.XSize() <= 0 || img.YSize() <= 0 {
		return nil, newErr(InvalidArgument, "image is nil or empty")
	}
	if img.XSize() > maxDim || img.YSize() > maxDim {
		return nil, newErr(SizeLimitExceeded, "dimensions %dx%d exceed %d", img.XSize(), img.YSize(), maxDim)
	}
	if pool == nil {
		pool = threadpool.New(0)
	}
	log := params.logger()

	templateID := defaultTemplateID
	if params.quantTemplate >= 0 && params.quantTemplate < quant.NumTemplates {
		templateID = params.quantTemplate
	}

	xsize, ysize := img.XSize(), img.YSize()
	opsinImg := opsin.ForwardFromSrgb8(img)

	if params.gaborish {
		for _, p := range opsinImg.Planes {
			transform.GaborishInverse(p)
		}
	}

	var noiseParams noise.Params
	if params.denoise != On {
		noiseParams = noise.EstimateParams(opsinImg, 1.0)
	}

	coeffs := forwardBlocks(opsinImg, pool)
	ctanMap := estimateCtan(coeffs)

	aqMap := quant.AdaptiveQuantMap(opsinImg.Planes[1])
	if params.uniformQuant > 0 {
		aqMap.Fill(float32(params.uniformQuant))
	}

	codec := &searchCodec{
		coeffs:     coeffs,
		ctanMap:    ctanMap,
		templateID: templateID,
		smoothDC:   params.smoothDCPred,
		xsize:      xsize,
		ysize:      ysize,
		log:        log,
	}
	cmp := newRefComparator(opsinImg, params.hfAsymmetry)

	targetBytes := targetSizeBytes(params, xsize, ysize)

	var q *quant.Quantizer
	switch {
	case targetBytes > 0 && params.fastMode:
		log.Debug("rate control: standard loop + fast scalar scale", "targetBytes", targetBytes, "targetDistance", params.butteraugliDistance)
		seedQ, _ := ratectl.StandardLoop(aqMap, codec, cmp, params.butteraugliDistance, templateID)
		_, seedSize := codec.EncodeDecode(seedQ.DCScale(), seedQ.RawField())
		best := ratectl.FastScalarScale(&ratectl.BestField{Quantizer: seedQ, SizeBytes: seedSize}, codec, targetBytes)
		q = best.Quantizer
	case targetBytes > 0:
		log.Debug("rate control: target-size search", "targetBytes", targetBytes)
		best, _ := ratectl.TargetSizeSearch(aqMap, codec, cmp, targetBytes, templateID)
		q = best.Quantizer
	case params.maxButteraugliIters > ratectl.MaxStandardIters:
		log.Debug("rate control: high-quality loop", "maxIters", params.maxButteraugliIters, "targetDistance", params.butteraugliDistance)
		q, _ = ratectl.HighQualityLoop(aqMap, codec, cmp, params.butteraugliDistance, templateID)
	default:
		log.Debug("rate control: standard loop", "targetDistance", params.butteraugliDistance)
		q, _ = ratectl.StandardLoop(aqMap, codec, cmp, params.butteraugliDistance, templateID)
	}

	flags := uint16(0)
	if params.gaborish {
		flags |= FlagGaborishTransform
	}
	if params.smoothDCPred {
		flags |= FlagSmoothDCPred
	}
	// FlagDenoise records that the stream was encoded as noise-free: the
	// decoder then never has grain to synthesize regardless of its own
	// ApplyNoise override.
	if params.denoise == On {
		flags |= FlagDenoise
	}

	header := Header{
		XSize:        xsize,
		YSize:        ysize,
		Flags:        flags,
		QuantTemplID: uint8(templateID),
		Kind:         KindDefault,
	}

	w := bitio.NewWriter()
	writeHeader(w, header)
	noise.Encode(w, noiseParams)
	writeCtanBlock(w, ctanMap)

	plan := newBodyPlan(coeffs, ctanMap, params.smoothDCPred)
	encodeBody(w, plan, q)
	w.PadToEightBytes()

	return w.Bytes(), nil
}

func targetSizeSizeFromBitrate(bpp float64, xsize, ysize int) int {
	if bpp <= 0 {
		return 0
	}
	return int(bpp * float64(xsize*ysize) / 8.0)
}

func targetSizeBytes(p *Params, xsize, ysize int) int {
	if p.targetSize > 0 {
		return p.targetSize
	}
	if p.targetBitrate > 0 {
		return targetSizeSizeFromBitrate(p.targetBitrate, xsize, ysize)
	}
	return 0
}
