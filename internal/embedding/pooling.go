package embedding

// MeanPool averages token vectors from a [seq, dims] row-major hidden state,
// counting only positions where mask is 1.
func MeanPool(hidden []float32, mask []int64, dims int) []float32 {
	out := make([]float32, dims)
	var count float32
	for t, m := range mask {
		if m == 0 {
			continue
		}
		row := hidden[t*dims : (t+1)*dims]
		for d, v := range row {
			out[d] += v
		}
		count++
	}
	if count > 0 {
		for d := range out {
			out[d] /= count
		}
	}
	return out
}
