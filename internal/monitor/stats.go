package monitor

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ksTest runs a two-sample Kolmogorov-Smirnov test. Returns the D statistic
// and an asymptotic two-sided p-value. Empty samples and identical samples
// both yield p = 1: absence of data is never evidence of drift.
func ksTest(reference, current []float64) (statistic, p float64) {
	if len(reference) == 0 || len(current) == 0 {
		return 0, 1
	}

	x := append([]float64(nil), reference...)
	y := append([]float64(nil), current...)
	sort.Float64s(x)
	sort.Float64s(y)

	d := stat.KolmogorovSmirnov(x, nil, y, nil)

	n1 := float64(len(x))
	n2 := float64(len(y))
	ne := math.Sqrt(n1 * n2 / (n1 + n2))
	lambda := (ne + 0.12 + 0.11/ne) * d

	return d, ksSurvival(lambda)
}

// ksSurvival evaluates Q_KS(lambda) = 2 * sum_{j>=1} (-1)^{j-1} exp(-2 j^2 lambda^2).
func ksSurvival(lambda float64) float64 {
	if lambda <= 0 {
		return 1
	}
	a2 := -2 * lambda * lambda
	fac := 2.0
	sum := 0.0
	prev := 0.0
	for j := 1; j <= 100; j++ {
		term := fac * math.Exp(a2*float64(j*j))
		sum += term
		abs := math.Abs(term)
		if abs <= 0.001*prev || abs <= 1e-8*math.Abs(sum) {
			return clampProb(sum)
		}
		fac = -fac
		prev = abs
	}
	// The series only fails to converge for tiny lambda, where the samples
	// are indistinguishable anyway.
	return 1
}

// chiSquareTest runs a Pearson chi-squared test of homogeneity over the
// category frequencies of the two samples. A single shared category carries
// no distributional information, so it yields p = 1.
func chiSquareTest(reference, current []string) (statistic, p float64) {
	if len(reference) == 0 || len(current) == 0 {
		return 0, 1
	}

	refCounts := map[string]float64{}
	curCounts := map[string]float64{}
	for _, v := range reference {
		refCounts[v]++
	}
	for _, v := range current {
		curCounts[v]++
	}

	categories := map[string]struct{}{}
	for c := range refCounts {
		categories[c] = struct{}{}
	}
	for c := range curCounts {
		categories[c] = struct{}{}
	}
	k := len(categories)
	if k < 2 {
		return 0, 1
	}

	n1 := float64(len(reference))
	n2 := float64(len(current))
	total := n1 + n2

	chi2 := 0.0
	for c := range categories {
		o1 := refCounts[c]
		o2 := curCounts[c]
		rowTotal := o1 + o2
		e1 := n1 * rowTotal / total
		e2 := n2 * rowTotal / total
		if e1 > 0 {
			chi2 += (o1 - e1) * (o1 - e1) / e1
		}
		if e2 > 0 {
			chi2 += (o2 - e2) * (o2 - e2) / e2
		}
	}

	dist := distuv.ChiSquared{K: float64(k - 1)}
	return chi2, clampProb(dist.Survival(chi2))
}

func clampProb(p float64) float64 {
	if math.IsNaN(p) || p > 1 {
		return 1
	}
	if p < 0 {
		return 0
	}
	return p
}
