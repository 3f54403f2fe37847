package classifier

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// Scaler standardizes feature columns to zero mean and unit variance. Fitted
// parameters are exported so the scaler round-trips through gob alongside the
// ensemble it was fitted with.
type Scaler struct {
	Mean  []float64
	Scale []float64
}

// Fit computes per-column mean and population standard deviation. Columns
// with zero variance get unit scale so constant features pass through
// unchanged instead of dividing by zero.
func (s *Scaler) Fit(x [][]float64) error {
	if len(x) == 0 {
		return fmt.Errorf("scaler fit: empty matrix")
	}
	cols := len(x[0])
	s.Mean = make([]float64, cols)
	s.Scale = make([]float64, cols)

	col := make([]float64, len(x))
	for j := 0; j < cols; j++ {
		for i, row := range x {
			if len(row) != cols {
				return fmt.Errorf("scaler fit: ragged matrix at row %d", i)
			}
			col[i] = row[j]
		}
		s.Mean[j] = stat.Mean(col, nil)
		sd := stat.PopStdDev(col, nil)
		if sd == 0 {
			sd = 1
		}
		s.Scale[j] = sd
	}
	return nil
}

// Transform standardizes a single row using the fitted parameters.
func (s *Scaler) Transform(row []float64) []float64 {
	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = (v - s.Mean[j]) / s.Scale[j]
	}
	return out
}

// TransformMatrix standardizes every row of x.
func (s *Scaler) TransformMatrix(x [][]float64) [][]float64 {
	out := make([][]float64, len(x))
	for i, row := range x {
		out[i] = s.Transform(row)
	}
	return out
}
