package indicator

import "swingwatch/pkg/model"

// VolumeWindow is the trailing window used for volume and turnover averages
const VolumeWindow = 20

// RelativeVolume returns the volume of candles[i] divided by the mean volume
// of the VolumeWindow bars before it. Falls back to 1.0 when there is not
// enough history or the average is zero.
func RelativeVolume(candles []model.Candle, i int) float64 {
	if i < VolumeWindow || i >= len(candles) {
		return 1.0
	}

	var sum int64
	for j := i - VolumeWindow; j < i; j++ {
		sum += candles[j].Volume
	}
	avg := float64(sum) / float64(VolumeWindow)
	if avg == 0 {
		return 1.0
	}
	return float64(candles[i].Volume) / avg
}

// AvgTurnover returns the mean close*volume over the VolumeWindow bars ending
// at i, or nil if fewer bars are available.
func AvgTurnover(candles []model.Candle, i int) *float64 {
	if i+1 < VolumeWindow || i >= len(candles) {
		return nil
	}

	var sum float64
	for j := i - VolumeWindow + 1; j <= i; j++ {
		sum += candles[j].Turnover()
	}
	avg := sum / float64(VolumeWindow)
	return &avg
}
