package fl

import (
	"fmt"
	"math"

	"github.com/absmach/fedcoord/pkg/errors"
)

// Vector is a fixed-dimension vector of model weights.
type Vector []float64

// Zeros returns a zero vector of dimension d.
func Zeros(d int) Vector {
	return make(Vector, d)
}

func (v Vector) Dim() int {
	return len(v)
}

func (v Vector) Clone() Vector {
	if v == nil {
		return nil
	}
	c := make(Vector, len(v))
	copy(c, v)

	return c
}

// Validate rejects empty vectors and vectors holding NaN or Inf.
func (v Vector) Validate() error {
	if len(v) == 0 {
		return fmt.Errorf("%w: empty vector", errors.ErrInvalidWeights)
	}
	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("%w: non-finite value at index %d", errors.ErrInvalidWeights, i)
		}
	}

	return nil
}

// CheckDim returns ErrDimensionMismatch unless v has dimension d.
func (v Vector) CheckDim(d int) error {
	if len(v) != d {
		return fmt.Errorf("%w: expected %d, got %d", errors.ErrDimensionMismatch, d, len(v))
	}

	return nil
}

// Add returns the elementwise sum of v and o.
func (v Vector) Add(o Vector) (Vector, error) {
	if err := o.CheckDim(len(v)); err != nil {
		return nil, err
	}
	sum := make(Vector, len(v))
	for i := range v {
		sum[i] = v[i] + o[i]
	}

	return sum, nil
}

// Scale returns v multiplied by s.
func (v Vector) Scale(s float64) Vector {
	scaled := make(Vector, len(v))
	for i, x := range v {
		scaled[i] = x * s
	}

	return scaled
}

// AddScaled accumulates s*o into v in place.
func (v Vector) AddScaled(o Vector, s float64) error {
	if err := o.CheckDim(len(v)); err != nil {
		return err
	}
	for i, x := range o {
		v[i] += x * s
	}

	return nil
}

// Equal reports whether v and o have the same dimension and every
// coordinate differs by at most tol.
func (v Vector) Equal(o Vector, tol float64) bool {
	if len(v) != len(o) {
		return false
	}
	for i := range v {
		if math.Abs(v[i]-o[i]) > tol {
			return false
		}
	}

	return true
}
