// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analysis

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pdiddy/ddw-trends/pkg/types"
)

// ChiSquare is the outcome of a chi-square test of independence.
type ChiSquare struct {
	Statistic        float64
	PValue           float64
	DegreesOfFreedom int
}

// ChiSquareTest runs a chi-square test of independence on a contingency
// table of observed counts indexed [row][column]. With one degree of
// freedom the Yates continuity correction is applied.
//
// A table with fewer than two rows or columns, or with an all-zero row or
// column, has no defined expected frequencies; the error wraps
// ErrDegenerateInput.
func ChiSquareTest(observed [][]float64) (ChiSquare, error) {
	rows := len(observed)
	if rows < 2 {
		return ChiSquare{}, fmt.Errorf("%w: contingency table needs at least 2 rows, got %d", ErrDegenerateInput, rows)
	}
	cols := len(observed[0])
	if cols < 2 {
		return ChiSquare{}, fmt.Errorf("%w: contingency table needs at least 2 columns, got %d", ErrDegenerateInput, cols)
	}

	rowSums := make([]float64, rows)
	colSums := make([]float64, cols)
	total := 0.0
	for i, row := range observed {
		if len(row) != cols {
			return ChiSquare{}, fmt.Errorf("contingency table row %d has %d columns, want %d", i, len(row), cols)
		}
		for j, v := range row {
			if v < 0 {
				return ChiSquare{}, fmt.Errorf("contingency table cell [%d][%d] is negative", i, j)
			}
			rowSums[i] += v
			colSums[j] += v
			total += v
		}
	}
	for i, s := range rowSums {
		if s == 0 {
			return ChiSquare{}, fmt.Errorf("%w: contingency table row %d is empty", ErrDegenerateInput, i)
		}
	}
	for j, s := range colSums {
		if s == 0 {
			return ChiSquare{}, fmt.Errorf("%w: contingency table column %d is empty", ErrDegenerateInput, j)
		}
	}

	dof := (rows - 1) * (cols - 1)
	stat := 0.0
	for i, row := range observed {
		for j, o := range row {
			e := rowSums[i] * colSums[j] / total
			if dof == 1 {
				diff := e - o
				o += math.Copysign(math.Min(0.5, math.Abs(diff)), diff)
			}
			d := o - e
			stat += d * d / e
		}
	}

	p := distuv.ChiSquared{K: float64(dof)}.Survival(stat)
	return ChiSquare{Statistic: stat, PValue: p, DegreesOfFreedom: dof}, nil
}

// CompareDistributions compares two category samples. Each proportion
// mapping carries every category observed in either sample, with 0 where
// a category is absent, and sums to 1. The chi-square test treats sample
// membership as rows and categories as columns.
//
// When a sample is empty its mapping is nil and the test is reported as
// not computable; the same holds when fewer than two categories occur.
func CompareDistributions(pre, post []types.Category, alpha float64) types.DistributionComparison {
	preCounts := tally(pre)
	postCounts := tally(post)

	seen := make(map[types.Category]bool, len(preCounts)+len(postCounts))
	for c := range preCounts {
		seen[c] = true
	}
	for c := range postCounts {
		seen[c] = true
	}
	cats := make([]types.Category, 0, len(seen))
	for c := range seen {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })

	out := types.DistributionComparison{
		PreDistribution:  proportions(preCounts, cats, len(pre)),
		PostDistribution: proportions(postCounts, cats, len(post)),
	}

	table := [][]float64{make([]float64, len(cats)), make([]float64, len(cats))}
	for j, c := range cats {
		table[0][j] = float64(preCounts[c])
		table[1][j] = float64(postCounts[c])
	}

	res, err := ChiSquareTest(table)
	if err != nil {
		out.Chi2Statistic = types.Undefined(err.Error())
		out.PValue = types.Undefined(err.Error())
		out.Reason = err.Error()
		return out
	}
	out.Chi2Statistic = types.Defined(res.Statistic)
	out.PValue = types.Defined(res.PValue)
	out.DegreesOfFreedom = res.DegreesOfFreedom
	out.Significant = res.PValue < alpha
	return out
}

func tally(cats []types.Category) map[types.Category]int {
	counts := make(map[types.Category]int)
	for _, c := range cats {
		counts[c]++
	}
	return counts
}

func proportions(counts map[types.Category]int, cats []types.Category, n int) map[types.Category]float64 {
	if n == 0 {
		return nil
	}
	out := make(map[types.Category]float64, len(cats))
	for _, c := range cats {
		out[c] = float64(counts[c]) / float64(n)
	}
	return out
}
