package xybc

import (
	"testing"

	"github.com/xybimage/xybc/bitio"
	"github.com/xybimage/xybc/entropy"
)

// TestWriteSymbolsSurvivesClusteredCountOverflow exercises a cluster whose
// merged per-symbol count exceeds uint16 after entropy.ClusterHistograms
// sums two already-clamped contexts together: writeSymbols must clamp the
// post-merge counts before building its own table, not just before
// writing, or the encoder's table and the wire bytes disagree.
func TestWriteSymbolsSurvivesClusteredCountOverflow(t *testing.T) {
	const perContext = 40000 // clamped individually, fits in uint16...
	seq := make([]symToken, 0, perContext*2+2)
	for i := 0; i < perContext; i++ {
		seq = append(seq, symToken{ctx: 0, symbol: 1})
		seq = append(seq, symToken{ctx: 1, symbol: 1})
	}
	// A few other symbols so each context's histogram is non-degenerate.
	seq = append(seq, symToken{ctx: 0, symbol: 2}, symToken{ctx: 1, symbol: 3})

	w := bitio.NewWriter()
	writeSymbols(w, seq)
	w.PadToEightBytes()

	r := bitio.NewReader(w.Bytes())
	ct, err := readSymbolTables(r)
	if err != nil {
		t.Fatalf("readSymbolTables: %v", err)
	}
	coded, _, err := readCodedBytes(r)
	if err != nil {
		t.Fatalf("readCodedBytes: %v", err)
	}

	dec, err := entropy.NewDecoder(coded)
	if err != nil {
		t.Fatalf("entropy.NewDecoder: %v", err)
	}
	for i := 0; i < len(seq); i++ {
		table, ok := ct.tableFor(seq[i].ctx)
		if !ok {
			t.Fatalf("context %d missing from decoded table set", seq[i].ctx)
		}
		sym, derr := dec.Get(table)
		if derr != nil {
			t.Fatalf("symbol %d: decode error %v", i, derr)
		}
		if sym != seq[i].symbol {
			t.Fatalf("symbol %d: got %d want %d (encoder/decoder table mismatch, likely from an un-reclamped clustered count)", i, sym, seq[i].symbol)
		}
	}
}
