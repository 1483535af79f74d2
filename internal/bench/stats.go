package bench

import "math"

// Stats: минимум, среднее и выборочное стандартное отклонение.
type Stats[T int | float64] struct {
	N    int
	Best T
	Mean float64
	Std  float64
}

func Calc[T int | float64](values []T) Stats[T] {
	s := Stats[T]{N: len(values)}
	if s.N == 0 {
		return s
	}

	best := values[0]
	sum := 0.0
	for _, v := range values {
		if v < best {
			best = v
		}
		sum += float64(v)
	}
	mean := sum / float64(s.N)

	variance := 0.0
	if s.N >= 2 {
		for _, v := range values {
			d := float64(v) - mean
			variance += d * d
		}
		variance /= float64(s.N - 1)
	}

	s.Best = best
	s.Mean = mean
	s.Std = math.Sqrt(variance)
	return s
}
