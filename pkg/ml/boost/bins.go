package boost

import "sort"

// binned is a column-major quantisation of the training matrix. A sample falls
// in bin b of feature f when thresholds[f][b-1] < x <= thresholds[f][b].
type binned struct {
	thresholds [][]float64
	codes      [][]uint16
}

func binFeatures(samples [][]float64, featureCount, maxBins int) *binned {
	n := len(samples)
	b := &binned{
		thresholds: make([][]float64, featureCount),
		codes:      make([][]uint16, featureCount),
	}
	column := make([]float64, n)
	for f := 0; f < featureCount; f++ {
		for i, s := range samples {
			column[i] = s[f]
		}
		th := cutPoints(column, maxBins)
		codes := make([]uint16, n)
		for i, s := range samples {
			codes[i] = uint16(binOf(th, s[f]))
		}
		b.thresholds[f] = th
		b.codes[f] = codes
	}
	return b
}

// cutPoints returns at most maxBins-1 split thresholds, placed half way between
// neighbouring distinct values so unseen values route the same way as their neighbours.
func cutPoints(values []float64, maxBins int) []float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	uniq := sorted[:0]
	for i, v := range sorted {
		if i == 0 || v != uniq[len(uniq)-1] {
			uniq = append(uniq, v)
		}
	}
	if len(uniq) < 2 {
		return nil
	}

	var th []float64
	if len(uniq) <= maxBins {
		th = make([]float64, 0, len(uniq)-1)
		for k := 0; k+1 < len(uniq); k++ {
			th = append(th, (uniq[k]+uniq[k+1])/2)
		}
		return th
	}
	for k := 1; k < maxBins; k++ {
		j := k * len(uniq) / maxBins
		if j < 1 {
			continue
		}
		cut := (uniq[j-1] + uniq[j]) / 2
		if len(th) == 0 || cut > th[len(th)-1] {
			th = append(th, cut)
		}
	}
	return th
}

func binOf(thresholds []float64, x float64) int {
	return sort.SearchFloat64s(thresholds, x)
}
