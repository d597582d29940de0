package xybc

import (
	"github.com/xybimage/xybc/bitio"
	"github.com/xybimage/xybc/ctan"
)

// writeCtanBlock serializes the chroma-from-luma map (bitstream layout
// item 4): tile-grid dimensions, the two DC fallback factors, then every
// tile's Y->X and Y->B factors, each an int8 biased by ctan.FactorBias so
// it round-trips as an unsigned byte.
func writeCtanBlock(w *bitio.Writer, m *ctan.Map) {
	w.WriteBits(uint64(m.TilesX()), 16)
	w.WriteBits(uint64(m.TilesY()), 16)
	w.WriteBits(uint64(biasFactor(m.YToXDC())), 8)
	w.WriteBits(uint64(biasFactor(m.YToBDC())), 8)
	for ty := 0; ty < m.TilesY(); ty++ {
		for tx := 0; tx < m.TilesX(); tx++ {
			w.WriteBits(uint64(biasFactor(m.YToX(tx, ty))), 8)
			w.WriteBits(uint64(biasFactor(m.YToB(tx, ty))), 8)
		}
	}
}

func readCtanBlock(r *bitio.Reader) (*ctan.Map, error) {
	tilesX, err := r.ReadBits(16)
	if err != nil {
		return nil, err
	}
	tilesY, err := r.ReadBits(16)
	if err != nil {
		return nil, err
	}
	m := ctan.NewMap(int(tilesX), int(tilesY))

	dcX, err := r.ReadBits(8)
	if err != nil {
		return nil, err
	}
	dcB, err := r.ReadBits(8)
	if err != nil {
		return nil, err
	}
	m.SetYToXDC(unbiasFactor(dcX))
	m.SetYToBDC(unbiasFactor(dcB))

	for ty := 0; ty < m.TilesY(); ty++ {
		for tx := 0; tx < m.TilesX(); tx++ {
			vx, err := r.ReadBits(8)
			if err != nil {
				return nil, err
			}
			vb, err := r.ReadBits(8)
			if err != nil {
				return nil, err
			}
			m.SetYToX(tx, ty, unbiasFactor(vx))
			m.SetYToB(tx, ty, unbiasFactor(vb))
		}
	}
	return m, nil
}

func biasFactor(v int8) uint8  { return uint8(int(v) + ctan.FactorBias) }
func unbiasFactor(v uint64) int8 { return int8(int(v) - ctan.FactorBias) }
