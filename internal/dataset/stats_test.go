package dataset

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuantile(t *testing.T) {
	tests := []struct {
		name string
		x    []float64
		p    float64
		want float64
	}{
		{"first quartile", []float64{1, 2, 3, 4, 100}, 0.25, 2},
		{"third quartile", []float64{1, 2, 3, 4, 100}, 0.75, 4},
		{"median odd", []float64{3, 1, 2}, 0.5, 2},
		{"median even interpolates", []float64{4, 1, 2, 3}, 0.5, 2.5},
		{"quartile interpolates", []float64{1, 2, 3, 4}, 0.25, 1.75},
		{"single value", []float64{7}, 0.75, 7},
		{"p zero", []float64{5, 3}, 0, 3},
		{"p one", []float64{5, 3}, 1, 5},
		{"extreme range stays finite", []float64{1.7e308, -1.7e308}, 0.5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Quantile(tt.x, tt.p), 1e-12)
		})
	}
}

func TestAggregatesOnEmptyInput(t *testing.T) {
	assert.True(t, math.IsNaN(Mean(nil)))
	assert.True(t, math.IsNaN(Median(nil)))
	assert.True(t, math.IsNaN(StdDev([]float64{1})))
	assert.True(t, math.IsNaN(Correlation([]float64{1}, []float64{2})))
}

func TestMeanAndStdDev(t *testing.T) {
	x := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	assert.InDelta(t, 5.0, Mean(x), 1e-12)
	// sample standard deviation
	assert.InDelta(t, 2.138089935, StdDev(x), 1e-9)
}

func TestCorrelation(t *testing.T) {
	assert.InDelta(t, 1.0, Correlation([]float64{1, 2, 3}, []float64{2, 4, 6}), 1e-12)
	assert.InDelta(t, -1.0, Correlation([]float64{1, 2, 3}, []float64{3, 2, 1}), 1e-12)
}

func TestModeCell(t *testing.T) {
	tests := []struct {
		name   string
		column *Column
		want   Cell
		ok     bool
	}{
		{"most frequent number", numCol("a", 3, 1, 3, nil), NumberCell(3), true},
		{"tie picks smallest", numCol("a", 5, 2, 5, 2), NumberCell(2), true},
		{"text tie picks first lexically", textCol("a", "b", "a"), TextCell("a"), true},
		{"bool", boolCol("a", true, true, false), BoolCell(true), true},
		{"all null", numCol("a", nil, nil), Cell{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := modeCell(tt.column)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
