package util

import (
	"math"
	"sort"
)

//Mean returns the arithmetic mean of the values, 0 for an empty list
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

//Variance returns the population variance of the values
func Variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := Mean(values)
	var sum float64
	for _, v := range values {
		sum += (v - mean) * (v - mean)
	}
	return sum / float64(len(values))
}

//Quantile picks the element nearest to quantile q of an ascending list
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	return sorted[Round(q*float64(len(sorted)-1))]
}

//BowleySkew measures the symmetry of an ascending list using its
//quartiles. The skew is 0 when the quartiles make it unreliable.
func BowleySkew(sorted []float64) float64 {
	low := Quantile(sorted, .25)
	mid := Quantile(sorted, .5)
	high := Quantile(sorted, .75)
	den := high - low
	if den == 0 || mid == low || mid == high {
		return 0
	}
	return (low + high - 2*mid) / den
}

//MedianAbsDeviation returns the median absolute deviation about the
//median of an ascending list
func MedianAbsDeviation(sorted []float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	mid := Quantile(sorted, .5)
	devs := make([]float64, len(sorted))
	for i, v := range sorted {
		devs[i] = math.Abs(v - mid)
	}
	sort.Float64s(devs)
	return Quantile(devs, .5)
}

//ShannonEntropy returns the entropy of s in bits per byte
func ShannonEntropy(s string) float64 {
	if s == "" {
		return 0
	}
	var counts [256]float64
	for i := 0; i < len(s); i++ {
		counts[s[i]]++
	}
	var ent float64
	length := float64(len(s))
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := c / length
		ent -= p * math.Log2(p)
	}
	return ent
}
