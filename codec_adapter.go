package xybc

import (
	"log/slog"

	"github.com/xybimage/xybc/bitio"
	"github.com/xybimage/xybc/ctan"
	"github.com/xybimage/xybc/image"
	"github.com/xybimage/xybc/quant"
)

// searchCodec adapts encodeBody/decodeBody to ratectl.Codec: one
// EncodeDecode call per rate-control search iteration, measuring the
// coded size a candidate quantizer produces and returning the image it
// reconstructs to so the search's comparator can score it. The DCT
// coefficients and chroma-from-luma map are fixed across every call
// (computed once, up front, by Encode); only the quantizer varies.
type searchCodec struct {
	coeffs     *blockCoeffs
	ctanMap    *ctan.Map
	templateID int
	smoothDC   bool
	xsize      int
	ysize      int
	log        *slog.Logger
}

func (sc *searchCodec) EncodeDecode(dcScale float64, field []uint32) (*image.Image[float32], int) {
	plan := newBodyPlan(sc.coeffs, sc.ctanMap, sc.smoothDC)

	q := quant.NewQuantizer(sc.templateID, sc.coeffs.bx, sc.coeffs.by)
	q.SetQuantField(dcScale, field)

	w := bitio.NewWriter()
	encodeBody(w, plan, q)
	w.PadToEightBytes()
	body := w.Bytes()

	r := bitio.NewReader(body)
	decodePlan := newBodyPlan(sc.coeffs, sc.ctanMap, sc.smoothDC)
	coef, err := decodeBody(r, decodePlan, sc.templateID)
	if err != nil {
		// The search loop only ever feeds back quantizer fields this
		// same process just encoded, so a decode failure here means a
		// real bug rather than a malformed external stream; surfacing a
		// blank reconstruction lets the comparator penalize it instead
		// of taking down the whole search.
		log := sc.log
		if log == nil {
			log = pkgLogger
		}
		log.Warn("search codec: self-produced stream failed to decode, falling back to a blank reconstruction", "err", err)
		return image.NewImage[float32](sc.xsize, sc.ysize), len(body)
	}

	recon := inverseBlocks(coef, sc.coeffs.bx, sc.coeffs.by, sc.xsize, sc.ysize, nil)
	return recon, len(body)
}
