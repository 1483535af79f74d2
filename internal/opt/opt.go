package opt

import (
	"time"

	"makespan/internal/schedule"
)

//go:generate mockgen -source=opt.go -destination=mocks/mock_optimizer.go -package=mocks

// Optimizer изменяет расписание на месте до локального оптимума
// или исчерпания бюджета.
type Optimizer interface {
	Solve(s *schedule.Schedule) (Result, error)
}

type Result struct {
	Makespan     int
	Improvements int
	Evaluations  int
	Duration     time.Duration
	Meta         map[string]any
}
