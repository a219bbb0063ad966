package database

import (
	"errors"
	"fmt"
	"io"

	"github.com/sbinet/npyio"
)

// NumPy dtype descriptors accepted when reading records.
const (
	npyFloat64 = "<f8"
	npyFloat32 = "<f4"
)

// MaxComponents bounds the array length DecodeNPY accepts. Face encodings
// are a few hundred components; a larger header is treated as corrupt.
const MaxComponents = 1 << 16

// EncodeNPY writes e as a 1-D little-endian float64 NumPy array (.npy v1),
// the same layout numpy.save produces for a face encoding.
func EncodeNPY(w io.Writer, e Embedding) error {
	if len(e) == 0 {
		return &DimensionError{Want: 1, Got: 0}
	}
	if err := npyio.Write(w, []float64(e)); err != nil {
		return fmt.Errorf("encoding npy: %w", err)
	}
	return nil
}

// DecodeNPY reads a 1-D float64 or float32 NumPy array. Any other shape or
// dtype is rejected; float32 arrays are widened.
func DecodeNPY(r io.Reader) (Embedding, error) {
	nr, err := npyio.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("reading npy header: %w", err)
	}

	shape := nr.Header.Descr.Shape
	if len(shape) != 1 {
		return nil, fmt.Errorf("expected a 1-D array, got shape %v", shape)
	}
	n := shape[0]
	if n <= 0 {
		return nil, errors.New("empty array")
	}
	if n > MaxComponents {
		return nil, fmt.Errorf("array of %d components exceeds limit of %d", n, MaxComponents)
	}

	switch nr.Header.Descr.Type {
	case npyFloat64:
		out := make([]float64, n)
		if err := nr.Read(&out); err != nil {
			return nil, fmt.Errorf("reading npy data: %w", err)
		}
		return Embedding(out), nil
	case npyFloat32:
		raw := make([]float32, n)
		if err := nr.Read(&raw); err != nil {
			return nil, fmt.Errorf("reading npy data: %w", err)
		}
		out := make(Embedding, n)
		for i, v := range raw {
			out[i] = float64(v)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported dtype %q", nr.Header.Descr.Type)
	}
}
