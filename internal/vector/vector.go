// Package vector serialises embeddings and scores them.
//
// Vectors are stored as contiguous little-endian IEEE-754 float32 values.
package vector

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/custodia-labs/groundwork/internal/core/domain"
)

// Epsilon keeps cosine similarity finite for zero vectors.
const Epsilon = 1e-8

// Encode converts a []float32 to a byte slice for storage.
func Encode(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// Decode converts a byte slice back to []float32.
// A blob whose length is not a multiple of four is rejected.
func Decode(data []byte) ([]float32, error) {
	if len(data) == 0 {
		return nil, nil
	}
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a whole number of float32 values", domain.ErrCorruptEmbedding, len(data))
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats, nil
}

// Cosine returns dot(a, b) / (|a|*|b| + Epsilon).
// Vectors of different length are compared over their common prefix.
func Cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	return dot / (math.Sqrt(na)*math.Sqrt(nb) + Epsilon)
}
