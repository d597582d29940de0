package ratectl

// blockSize is the quant field's native resolution: one entry per 8x8
// pixel block, matching quant.Quantizer's field dimensions.
const blockSize = 8

// tileMargin pads every downsampled tile's max-distance estimate upward
// by a fixed fraction, so a single bad pixel at a tile edge doesn't get
// smoothed away by neighboring low-distance pixels when a later pass
// reads the per-tile value instead of the full map (spec.md §4.8:
// "down-sample it to tile resolution taking per-tile maxima with a small
// margin").
const tileMargin = 1.05

// DownsampleToTiles reduces a per-pixel distance map to one value per
// 8x8 block: the block's pixel maximum, scaled up by tileMargin.
func DownsampleToTiles(d *DistMap, fieldXSize, fieldYSize int) []float64 {
	out := make([]float64, fieldXSize*fieldYSize)
	for by := 0; by < fieldYSize; by++ {
		for bx := 0; bx < fieldXSize; bx++ {
			var maxV float64
			for y := by * blockSize; y < (by+1)*blockSize && y < d.YSize; y++ {
				row := d.Values[y]
				for x := bx * blockSize; x < (bx+1)*blockSize && x < d.XSize; x++ {
					if row[x] > maxV {
						maxV = row[x]
					}
				}
			}
			out[by*fieldXSize+bx] = maxV * tileMargin
		}
	}
	return out
}
