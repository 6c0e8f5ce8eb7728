// Package distance provides the vector distances used by the clustering algorithms.
// All functions expect equal-length vectors.
package distance

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Type names a distance function in configuration
type Type string

const (
	TypeEuclidean Type = "euclidean"
	TypeManhattan Type = "manhattan"
	TypeChebyshev Type = "chebyshev"
	TypeLance     Type = "lance"
)

// Func is a symmetric distance between two vectors
type Func func(a, b []float64) float64

// Euclidean returns sqrt(Σ(aᵢ−bᵢ)²)
func Euclidean(a, b []float64) float64 {
	return floats.Distance(a, b, 2)
}

// Manhattan returns Σ|aᵢ−bᵢ|
func Manhattan(a, b []float64) float64 {
	return floats.Distance(a, b, 1)
}

// Chebyshev returns max|aᵢ−bᵢ|
func Chebyshev(a, b []float64) float64 {
	return floats.Distance(a, b, math.Inf(1))
}

// Lance returns the Canberra-style sum Σ|aᵢ−bᵢ|/(|aᵢ|+|bᵢ|).
// Terms with a zero denominator contribute 0. This is not the Lance–Williams update formula.
func Lance(a, b []float64) float64 {
	if len(a) != len(b) {
		panic("distance: slice lengths do not match")
	}
	sum := 0.0
	for i := range a {
		denom := math.Abs(a[i]) + math.Abs(b[i])
		if denom == 0 {
			continue
		}
		sum += math.Abs(a[i]-b[i]) / denom
	}
	return sum
}

var registry = map[Type]Func{
	TypeEuclidean: Euclidean,
	TypeManhattan: Manhattan,
	TypeChebyshev: Chebyshev,
	TypeLance:     Lance,
}

// ByType looks up the distance function for t
func ByType(t Type) (Func, bool) {
	fn, ok := registry[t]
	return fn, ok
}

// Types lists the supported distance names
func Types() []Type {
	return []Type{TypeEuclidean, TypeManhattan, TypeChebyshev, TypeLance}
}
