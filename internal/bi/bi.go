package bi

import (
	"fmt"
	"log/slog"
	"time"

	"makespan/internal/opt"
	"makespan/internal/schedule"
)

// Donor: единственная машина, отдающая задачи.
const Donor = 0

// Solver реализует упрощённый поиск с наилучшим улучшением. Задачи снимаются
// только с машины Donor и отдаются наименее загруженной машине.
type Solver struct {
	Log *slog.Logger
}

func New(log *slog.Logger) *Solver {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Solver{Log: log}
}

// Solve повторяет перенос, пока makespan строго уменьшается.
// Первый неулучшающий перенос откатывается и завершает поиск.
func (s *Solver) Solve(sch *schedule.Schedule) (opt.Result, error) {
	start := time.Now()
	if sch == nil {
		return opt.Result{}, fmt.Errorf("расписание не задано (nil)")
	}
	log := s.Log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	improvements, evals := 0, 0
	for {
		before := sch.Makespan()
		dst := sch.LeastLoaded()
		d, ok := sch.MigrateTask(Donor, dst)
		if !ok {
			break
		}
		evals++

		if sch.Makespan() < before {
			improvements++
			log.Debug("move accepted", "to", dst, "duration", d, "makespan", sch.Makespan())
			continue
		}

		sch.MigrateTask(dst, Donor)
		break
	}

	log.Debug("no improving move left", "makespan", sch.Makespan(), "improvements", improvements)

	return opt.Result{
		Makespan:     sch.Makespan(),
		Improvements: improvements,
		Evaluations:  evals,
		Duration:     time.Since(start),
		Meta: map[string]any{
			"strategy": "best-improvement",
			"donor":    Donor,
		},
	}, nil
}
