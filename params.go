package xybc

import "log/slog"

// Tristate represents an on/off/default override, used for params that
// fall back to a size- or content-derived default unless the caller
// pins a value (spec.md §6: "denoise / apply_noise overrides (on | off
// | default)").
type Tristate int

const (
	Default Tristate = iota
	On
	Off
)

// Params is the fluent builder for Encode's tuning knobs (spec.md §6).
// NewParams returns the defaults (ButteraugliDistance 1.0, Gaborish on,
// every override Default). In a zero-value Params every field is zero:
// the distance target is 0, Gaborish is off and quant template 0 is used.
type Params struct {
	butteraugliDistance float64
	targetSize          int
	targetBitrate       float64
	uniformQuant        float64
	fastMode            bool
	maxButteraugliIters int
	hfAsymmetry         float64
	denoise             Tristate
	applyNoise          Tristate
	clearMetadata       bool
	gaborish            bool
	smoothDCPred        bool
	quantTemplate       int

	// Logger is ambient: it is never part of the wire format. A nil
	// Logger falls back to the package-level logger set by SetLogger.
	Logger *slog.Logger
}

// NewParams returns the default parameter set: target a butteraugli
// distance of 1.0 with the standard rate-control loop.
func NewParams() *Params {
	return &Params{
		butteraugliDistance: 1.0,
		maxButteraugliIters: ratectlDefaultIters,
		gaborish:            true,
		quantTemplate:       -1,
	}
}

// ratectlDefaultIters mirrors ratectl.MaxStandardIters without importing
// that package here (Params has no need of ratectl's other symbols, and
// importing it would tie every caller of Params to the search-loop
// package just to build a default parameter set).
const ratectlDefaultIters = 7

// WithButteraugliDistance sets the target perceptual distance (higher
// means smaller, lower-quality output).
func (p *Params) WithButteraugliDistance(d float64) *Params { p.butteraugliDistance = d; return p }

// WithTargetSize requests the rate-control loop search for a field that
// produces a stream of at most size bytes, taking priority over
// ButteraugliDistance when positive.
func (p *Params) WithTargetSize(size int) *Params { p.targetSize = size; return p }

// WithTargetBitrate requests a target stream size derived from bits per
// pixel rather than an absolute byte count.
func (p *Params) WithTargetBitrate(bpp float64) *Params { p.targetBitrate = bpp; return p }

// WithUniformQuant replaces every value of the adaptive quantization map
// with q when q is positive. The rate-control search still runs from that
// uniform seed and rescales the field per block.
func (p *Params) WithUniformQuant(q float64) *Params { p.uniformQuant = q; return p }

// WithFastMode selects FastScalarScale over the full search loops when a
// size or bitrate target is set.
func (p *Params) WithFastMode(v bool) *Params { p.fastMode = v; return p }

// WithMaxButteraugliIters selects the high-quality loop when n exceeds
// ratectl.MaxStandardIters (7). It does not change how many iterations
// either loop runs.
func (p *Params) WithMaxButteraugliIters(n int) *Params { p.maxButteraugliIters = n; return p }

// WithHFAsymmetry biases the comparator's scoring toward penalizing
// over-blurring versus over-sharpening at high frequencies.
func (p *Params) WithHFAsymmetry(v float64) *Params { p.hfAsymmetry = v; return p }

// WithDenoise overrides whether the Denoise header flag is set. On sets
// the flag and skips noise estimation; Default and Off both leave the flag
// clear and estimate noise parameters.
func (p *Params) WithDenoise(t Tristate) *Params { p.denoise = t; return p }

// WithApplyNoise overrides whether the decoder synthesizes noise back
// into the image (Default follows the stream's noise block).
func (p *Params) WithApplyNoise(t Tristate) *Params { p.applyNoise = t; return p }

// WithClearMetadata requests that any caller-attached metadata be
// dropped rather than round-tripped (this implementation carries no
// metadata beyond the header, so this is accepted and has no effect).
func (p *Params) WithClearMetadata(v bool) *Params { p.clearMetadata = v; return p }

// WithGaborish toggles the Gaborish pre/post filter (on by default).
func (p *Params) WithGaborish(v bool) *Params { p.gaborish = v; return p }

// WithSmoothDCPred selects the alternate, always-average DC predictor
// (spec.md §9: "an optional alternative DC-predictor variant, not a
// behavioral invariant").
func (p *Params) WithSmoothDCPred(v bool) *Params { p.smoothDCPred = v; return p }

// WithQuantTemplate selects which of quant.NumTemplates dequantization
// matrices the header's quant-template index field names. Values outside
// [0, quant.NumTemplates) are ignored, leaving the encoder's own default.
func (p *Params) WithQuantTemplate(id int) *Params { p.quantTemplate = id; return p }

// WithLogger overrides the logger this Params' Encode/Decode call logs
// through, in place of the package-level logger set by SetLogger.
func (p *Params) WithLogger(l *slog.Logger) *Params { p.Logger = l; return p }
