package entropy

import (
	"math/rand"
	"testing"
)

func TestANSRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(31))
	const numSymbols = 6
	hist := NewHistogram(numSymbols)
	weights := []uint32{50, 20, 15, 8, 5, 2}

	var symbols []int
	for i := 0; i < 2000; i++ {
		r := rng.Intn(100)
		acc := uint32(0)
		chosen := numSymbols - 1
		for s, w := range weights {
			acc += w
			if uint32(r) < acc {
				chosen = s
				break
			}
		}
		symbols = append(symbols, chosen)
		hist.Add(chosen)
	}

	table := NewTable(hist)
	var total uint32
	for _, f := range table.freq {
		total += uint32(f)
	}
	if total != ProbabilityScale {
		t.Fatalf("normalized table sums to %d, want %d", total, ProbabilityScale)
	}

	enc := NewEncoder()
	for i := len(symbols) - 1; i >= 0; i-- {
		enc.Put(table, symbols[i])
	}
	stream := enc.Finish()

	dec, err := NewDecoder(stream)
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	for i, want := range symbols {
		got, err := dec.Get(table)
		if err != nil {
			t.Fatalf("symbol %d: decode error %v", i, err)
		}
		if got != want {
			t.Fatalf("symbol %d: got %d want %d", i, got, want)
		}
	}
}

func TestANSSingleSymbolAlphabet(t *testing.T) {
	hist := NewHistogram(1)
	hist.Add(0)
	table := NewTable(hist)

	enc := NewEncoder()
	for i := 0; i < 10; i++ {
		enc.Put(table, 0)
	}
	stream := enc.Finish()

	dec, err := NewDecoder(stream)
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	for i := 0; i < 10; i++ {
		got, err := dec.Get(table)
		if err != nil || got != 0 {
			t.Fatalf("iteration %d: got (%d, %v), want (0, nil)", i, got, err)
		}
	}
}

func TestNewDecoderTruncated(t *testing.T) {
	if _, err := NewDecoder([]byte{1, 2}); err != ErrTruncated {
		t.Fatalf("NewDecoder on short input: got %v, want ErrTruncated", err)
	}
}

func TestClusterHistogramsMergesSimilarContexts(t *testing.T) {
	a := NewHistogram(4)
	b := NewHistogram(4)
	for i := 0; i < 100; i++ {
		a.Add(i % 4)
		b.Add(i % 4)
	}
	c := NewHistogram(4)
	c.Add(3)
	c.Add(3)
	c.Add(3)

	clusterOf, clusters := ClusterHistograms([]*Histogram{a, b, c}, 1e9)
	if len(clusters) != 1 {
		t.Fatalf("with a very high threshold, expected everything to merge into 1 cluster, got %d", len(clusters))
	}
	if clusterOf[0] != clusterOf[1] || clusterOf[1] != clusterOf[2] {
		t.Fatalf("expected all contexts in the same cluster, got %v", clusterOf)
	}
}

func TestClusterHistogramsKeepsDistinctContextsSeparate(t *testing.T) {
	a := NewHistogram(4)
	a.Counts[0] = 1000
	b := NewHistogram(4)
	b.Counts[3] = 1000

	clusterOf, clusters := ClusterHistograms([]*Histogram{a, b}, 0.0)
	if len(clusters) != 2 {
		t.Fatalf("with zero threshold, expected no merge, got %d clusters", len(clusters))
	}
	if clusterOf[0] == clusterOf[1] {
		t.Fatalf("expected distinct clusters, got same cluster id %d", clusterOf[0])
	}
}
