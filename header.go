package xybc

import "github.com/xybimage/xybc/bitio"

// magic identifies a stream produced by this package (spec.md §6,
// bitstream layout item 1: "magic, version, xsize, ysize, flags
// bitfield, quant-template index, bitstream kind").
const magic uint32 = 0x58594243 // "XYBC", little-endian on the wire

// version is the only header version this implementation reads or
// writes.
const version uint16 = 1

// maxDim is the largest xsize or ysize this implementation accepts
// (spec.md §5: "xsize > 2^25-1 rejected"; §7: SizeLimitExceeded).
const maxDim = (1 << 25) - 1

// Flag bits packed into the header's flags bitfield (spec.md §3).
const (
	FlagAlpha             uint16 = 1 << 0
	FlagDenoise           uint16 = 1 << 1
	FlagDither            uint16 = 1 << 2
	FlagGaborishTransform uint16 = 1 << 3
	FlagSmoothDCPred      uint16 = 1 << 4
)

// BitstreamKind selects the payload format following the header
// (spec.md §3: "Bitstream-kind is Default or BrunsliTranscode (the
// latter is out of core scope)").
type BitstreamKind uint8

const (
	KindDefault BitstreamKind = 0
	// KindBrunsliTranscode is recognized on decode only to produce a
	// clear Unsupported error; transcoding itself is out of scope
	// (spec.md §1 Non-goals).
	KindBrunsliTranscode BitstreamKind = 1
)

// Header is the fixed-size preamble every stream starts with.
type Header struct {
	XSize, YSize int
	Flags        uint16
	QuantTemplID uint8
	Kind         BitstreamKind
}

func (h Header) hasFlag(f uint16) bool { return h.Flags&f != 0 }

// writeHeader serializes h, little-endian, to w.
func writeHeader(w *bitio.Writer, h Header) {
	w.WriteBits(uint64(magic), 32)
	w.WriteBits(uint64(version), 16)
	w.WriteBits(uint64(h.XSize), 32)
	w.WriteBits(uint64(h.YSize), 32)
	w.WriteBits(uint64(h.Flags), 16)
	w.WriteBits(uint64(h.QuantTemplID), 8)
	w.WriteBits(uint64(h.Kind), 8)
}

// readHeader reverses writeHeader, validating the magic, version, and
// bitstream kind.
func readHeader(r *bitio.Reader) (Header, *CodecError) {
	wrapTrunc := func(err error) *CodecError {
		if err != nil {
			return newErr(Truncated, "truncated header")
		}
		return nil
	}

	gotMagic, err := r.ReadBits(32)
	if cerr := wrapTrunc(err); cerr != nil {
		return Header{}, cerr
	}
	if uint32(gotMagic) != magic {
		return Header{}, newErr(InvalidBitstream, "bad magic %#x", gotMagic)
	}
	gotVersion, err := r.ReadBits(16)
	if cerr := wrapTrunc(err); cerr != nil {
		return Header{}, cerr
	}
	if uint16(gotVersion) != version {
		return Header{}, newErr(InvalidBitstream, "unsupported version %d", gotVersion)
	}
	xsize, err := r.ReadBits(32)
	if cerr := wrapTrunc(err); cerr != nil {
		return Header{}, cerr
	}
	ysize, err := r.ReadBits(32)
	if cerr := wrapTrunc(err); cerr != nil {
		return Header{}, cerr
	}
	flags, err := r.ReadBits(16)
	if cerr := wrapTrunc(err); cerr != nil {
		return Header{}, cerr
	}
	templID, err := r.ReadBits(8)
	if cerr := wrapTrunc(err); cerr != nil {
		return Header{}, cerr
	}
	kind, err := r.ReadBits(8)
	if cerr := wrapTrunc(err); cerr != nil {
		return Header{}, cerr
	}

	h := Header{
		XSize:        int(xsize),
		YSize:        int(ysize),
		Flags:        uint16(flags),
		QuantTemplID: uint8(templID),
		Kind:         BitstreamKind(kind),
	}
	if h.XSize <= 0 || h.YSize <= 0 {
		return Header{}, newErr(InvalidBitstream, "non-positive dimensions %dx%d", h.XSize, h.YSize)
	}
	if h.XSize > maxDim || h.YSize > maxDim {
		return Header{}, newErr(SizeLimitExceeded, "dimensions %dx%d exceed %d", h.XSize, h.YSize, maxDim)
	}
	if h.Kind == KindBrunsliTranscode {
		return Header{}, newErr(Unsupported, "BrunsliTranscode bitstream kind is out of scope")
	}
	if h.Kind != KindDefault {
		return Header{}, newErr(InvalidBitstream, "unknown bitstream kind %d", h.Kind)
	}
	return h, nil
}
