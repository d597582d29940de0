package entropy

import "fmt"

// ErrDecodeConsistency is returned when a decode operation observes state
// that should be unreachable if the bitstream was produced by this
// package's encoder: a decoded slot that falls in no symbol's
// cumulative-frequency range.
var ErrDecodeConsistency = fmt.Errorf("entropy: decode consistency failure")

// ErrTruncated is returned when a decode read needs more bytes than the
// input provides.
var ErrTruncated = fmt.Errorf("entropy: truncated stream")

// stateLowerBound is the renormalization floor for the byte-oriented ANS
// state register (ryg_rans-style: 2^23).
const stateLowerBound = 1 << 23

// Table holds a normalized (summing to ProbabilityScale) frequency table
// for one cluster's symbol alphabet, plus the cumulative-frequency offsets
// needed for encode and decode.
type Table struct {
	freq    []uint16
	cumFreq []uint16
}

// NewTable normalizes hist into a Table whose frequencies sum to exactly
// ProbabilityScale, using the largest-remainder method so every nonzero
// symbol keeps a nonzero frequency (required for the coder to remain
// lossless).
func NewTable(hist *Histogram) *Table {
	n := len(hist.Counts)
	freq := make([]uint16, n)
	total := hist.Total()
	if total == 0 {
		freq[0] = ProbabilityScale
		return buildTable(freq)
	}

	type remainder struct {
		idx  int
		frac float64
	}
	remainders := make([]remainder, 0, n)
	assigned := uint32(0)
	for i, c := range hist.Counts {
		if c == 0 {
			continue
		}
		exact := float64(c) * ProbabilityScale / float64(total)
		f := uint16(exact)
		if f == 0 {
			f = 1
		}
		freq[i] = f
		assigned += uint32(f)
		remainders = append(remainders, remainder{idx: i, frac: exact - float64(int(exact))})
	}

	// Distribute the rounding slack across the symbols with the largest
	// fractional remainder so the table sums to exactly ProbabilityScale.
	for assigned != ProbabilityScale && len(remainders) > 0 {
		if assigned < ProbabilityScale {
			bestK := 0
			for k := 1; k < len(remainders); k++ {
				if remainders[k].frac > remainders[bestK].frac {
					bestK = k
				}
			}
			freq[remainders[bestK].idx]++
			assigned++
			remainders[bestK].frac = -1
		} else {
			bestK := 0
			for k := range remainders {
				if freq[remainders[k].idx] > freq[remainders[bestK].idx] {
					bestK = k
				}
			}
			if freq[remainders[bestK].idx] > 1 {
				freq[remainders[bestK].idx]--
				assigned--
			} else {
				break
			}
		}
	}
	return buildTable(freq)
}

func buildTable(freq []uint16) *Table {
	cum := make([]uint16, len(freq)+1)
	for i, f := range freq {
		cum[i+1] = cum[i] + f
	}
	return &Table{freq: freq, cumFreq: cum[:len(freq)]}
}

// symbolAt returns the symbol whose cumulative-frequency range contains
// slot, via linear search over the whole alphabet (1088 symbols for the
// codec's histograms).
func (t *Table) symbolAt(slot uint32) (symbol int, ok bool) {
	for i := len(t.freq) - 1; i >= 0; i-- {
		if uint32(t.cumFreq[i]) <= slot {
			return i, true
		}
	}
	return 0, false
}

// Encoder is a byte-oriented rANS encoder. Tokens must be pushed in
// reverse order (spec.md §4.6: "the coder is reverse-order: encoding
// walks tokens back-to-front"); Finish() then returns the stream in
// correct forward decode order.
type Encoder struct {
	state uint32
	out   []byte
}

// NewEncoder creates an Encoder at its initial state.
func NewEncoder() *Encoder {
	return &Encoder{state: stateLowerBound}
}

// Put encodes one symbol under table, in reverse-token-order relative to
// the final decoded sequence.
func (e *Encoder) Put(table *Table, symbol int) {
	freq := uint32(table.freq[symbol])
	start := uint32(table.cumFreq[symbol])

	xMax := ((stateLowerBound >> ProbabilityBits) << 8) * freq
	for e.state >= xMax {
		e.out = append(e.out, byte(e.state))
		e.state >>= 8
	}
	e.state = (e.state/freq)<<ProbabilityBits + (e.state % freq) + start
}

// Finish flushes the encoder's final state (4 bytes, little-endian) and
// returns the completed stream. The returned bytes are in forward decode
// order even though Put was called in reverse token order: encoded bytes
// are appended as the state overflows, which happens oldest-first.
func (e *Encoder) Finish() []byte {
	var tail [4]byte
	tail[0] = byte(e.state)
	tail[1] = byte(e.state >> 8)
	tail[2] = byte(e.state >> 16)
	tail[3] = byte(e.state >> 24)
	// Appended oldest-to-newest as tail[3..0] so that the whole-buffer
	// reversal below lands the final stream's first four bytes in
	// little-endian order (tail[0] first), matching NewDecoder's read.
	e.out = append(e.out, tail[3], tail[2], tail[1], tail[0])
	reversed := make([]byte, len(e.out))
	for i, b := range e.out {
		reversed[len(e.out)-1-i] = b
	}
	return reversed
}

// Decoder is a byte-oriented rANS decoder, the exact inverse of Encoder.
type Decoder struct {
	data  []byte
	pos   int
	state uint32
}

// NewDecoder creates a Decoder over a stream produced by Encoder.Finish.
func NewDecoder(data []byte) (*Decoder, error) {
	if len(data) < 4 {
		return nil, ErrTruncated
	}
	d := &Decoder{data: data, pos: 4}
	d.state = uint32(data[0]) | uint32(data[1])<<8 | uint32(data[2])<<16 | uint32(data[3])<<24
	return d, nil
}

// Get decodes one symbol under table. Symbols come out in the original
// (forward) token order.
func (d *Decoder) Get(table *Table) (symbol int, err error) {
	slot := d.state & (ProbabilityScale - 1)
	symbol, ok := table.symbolAt(slot)
	if !ok {
		return 0, ErrDecodeConsistency
	}
	freq := uint32(table.freq[symbol])
	start := uint32(table.cumFreq[symbol])
	d.state = freq*(d.state>>ProbabilityBits) + slot - start

	for d.state < stateLowerBound {
		if d.pos >= len(d.data) {
			return 0, ErrTruncated
		}
		d.state = (d.state << 8) | uint32(d.data[d.pos])
		d.pos++
	}
	return symbol, nil
}
