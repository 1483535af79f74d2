package fi

import (
	"fmt"
	"log/slog"
	"time"

	"makespan/internal/opt"
	"makespan/internal/schedule"
)

// Solver реализует локальный поиск с принятием первого улучшения.
type Solver struct {
	Log *slog.Logger
}

// New возвращает солвер; nil-логгер отбрасывает записи.
func New(log *slog.Logger) *Solver {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Solver{Log: log}
}

// Solve перебирает пары машин (i, j), j > i, в лексикографическом порядке
// и принимает первый перенос задачи, строго уменьшающий makespan.
// После принятия перебор начинается заново с i = 0.
func (s *Solver) Solve(sch *schedule.Schedule) (opt.Result, error) {
	start := time.Now()
	if sch == nil {
		return opt.Result{}, fmt.Errorf("расписание не задано (nil)")
	}
	log := s.Log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	n := sch.NumMachines()
	improvements, evals := 0, 0

scan:
	for {
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				before := sch.Makespan()
				d, ok := sch.MigrateTask(i, j)
				if !ok {
					// на машине i нет задач
					break
				}
				evals++

				if sch.Makespan() < before {
					improvements++
					log.Debug("move accepted",
						"from", i, "to", j, "duration", d,
						"makespan", sch.Makespan())
					continue scan
				}

				// Откат пробного переноса
				sch.MigrateTask(j, i)
			}
		}
		break
	}

	log.Debug("local optimum reached", "makespan", sch.Makespan(), "improvements", improvements)

	return opt.Result{
		Makespan:     sch.Makespan(),
		Improvements: improvements,
		Evaluations:  evals,
		Duration:     time.Since(start),
		Meta: map[string]any{
			"strategy": "first-improvement",
		},
	}, nil
}
