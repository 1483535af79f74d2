package tempura

import (
	"fmt"
	"math"
)

type Config struct {
	// Множитель охлаждения температуры, (0,1).
	Alpha float64
	// Число подряд отклонённых перемешиваний до остановки.
	Iterations int

	InitialTemp float64
}

func DefaultConfig() Config {
	return Config{
		Alpha:       0.9,
		Iterations:  100,
		InitialTemp: 100.0,
	}
}

func (c Config) Validate() error {
	if math.IsNaN(c.Alpha) || c.Alpha <= 0 || c.Alpha >= 1 {
		return fmt.Errorf(
			"alpha должно лежать в интервале (0,1) (получено %f)",
			c.Alpha,
		)
	}
	if c.Iterations <= 0 {
		return fmt.Errorf(
			"Iterations должно быть > 0 (получено %d)",
			c.Iterations,
		)
	}
	if math.IsNaN(c.InitialTemp) || c.InitialTemp <= 0 {
		return fmt.Errorf(
			"InitialTemp должно быть > 0 (получено %f)",
			c.InitialTemp,
		)
	}
	return nil
}
