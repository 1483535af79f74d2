package tempura

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"go.trai.ch/zerr"

	"makespan/internal/opt"
	"makespan/internal/schedule"
)

// Solver сочетает поиск первого улучшения с элитным снимком
// и перемешиванием узкого места по критерию типа Метрополиса.
type Solver struct {
	Cfg Config
	Rng *rand.Rand
	Log *slog.Logger
}

// New возвращает новый солвер с валидацией конфигурации, с использованием инициализированного генератора случайных чисел.
// Используется в фабриках.
func New(cfg Config, rng *rand.Rand, log *slog.Logger) (*Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("генератор случайных чисел не инициализирован (nil)")
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Solver{Cfg: cfg, Rng: rng, Log: log}, nil
}

// Solve реализует эвристику. По завершении расписание откатывается
// к элитному снимку.
func (s *Solver) Solve(sch *schedule.Schedule) (opt.Result, error) {
	start := time.Now()

	if sch == nil {
		return opt.Result{}, fmt.Errorf("расписание не задано (nil)")
	}
	if err := s.Cfg.Validate(); err != nil {
		return opt.Result{}, err
	}
	if s.Rng == nil {
		return opt.Result{}, fmt.Errorf("генератор случайных чисел не инициализирован (nil)")
	}
	log := s.Log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	n := sch.NumMachines()
	elite := sch.Snapshot()
	T := s.Cfg.InitialTemp

	improvements, evals := 0, 0
	shuffles, acceptedShuffles := 0, 0
	attempts := 0
	cursor := 0

	result := func() opt.Result {
		return opt.Result{
			Makespan:     sch.Makespan(),
			Improvements: improvements,
			Evaluations:  evals,
			Duration:     time.Since(start),
			Meta: map[string]any{
				"strategy":          "tempura",
				"alpha":             s.Cfg.Alpha,
				"iterations":        s.Cfg.Iterations,
				"initial_temp":      s.Cfg.InitialTemp,
				"final_temp":        T,
				"shuffles":          shuffles,
				"accepted_shuffles": acceptedShuffles,
			},
		}
	}

search:
	for n > 1 {
		for i := 0; i < n; i++ {
			// Только узкие места; пустая машина не может быть узким местом
			// при ненулевом makespan.
			if sch.Load(i) != sch.Makespan() || sch.Load(i) == 0 {
				continue
			}

			for j := 0; j < n; j++ {
				if j == i {
					continue
				}
				d, ok := sch.MigrateTask(i, j)
				if !ok {
					break
				}
				evals++

				if sch.Makespan() < elite.Makespan {
					improvements++
					attempts = 0
					elite = sch.Snapshot()
					log.Debug("elite improved",
						"from", i, "to", j, "duration", d,
						"makespan", elite.Makespan)
					continue search
				}
				sch.MigrateTask(j, i)
			}

			// Ни один перенос не улучшил элиту: перемешиваем машину i.
			before := sch.Snapshot()
			old := sch.Makespan()
			var err error
			cursor, err = sch.DealOut(i, cursor)
			if err != nil {
				return result(), rollback(sch, elite, err)
			}
			evals++
			shuffles++

			if sch.Makespan() < elite.Makespan {
				elite = sch.Snapshot()
				log.Debug("elite improved by reshuffle", "machine", i, "makespan", elite.Makespan)
			}

			delta := sch.Makespan() - old
			if delta > 0 && s.accept(delta, T) {
				improvements++
				acceptedShuffles++
				T *= s.Cfg.Alpha
				attempts = 0
				log.Debug("worsening reshuffle accepted",
					"machine", i, "delta", delta, "temp", T,
					"makespan", sch.Makespan())
				continue search
			}

			if err := sch.Restore(before); err != nil {
				return result(), err
			}
			T *= s.Cfg.Alpha
			attempts++
			if attempts >= s.Cfg.Iterations {
				log.Debug("attempt budget exhausted", "attempts", attempts)
				break search
			}
		}
		break
	}

	if err := sch.Restore(elite); err != nil {
		return result(), err
	}
	log.Debug("search finished",
		"makespan", sch.Makespan(), "improvements", improvements,
		"shuffles", shuffles, "accepted_shuffles", acceptedShuffles)

	return result(), nil
}

// accept сравнивает долю floor(exp(-delta/T)*100)/100 с равномерным
// целым из [0, 99]. Ухудшение принимается, только если выпал 0,
// а доля положительна.
func (s *Solver) accept(delta int, temp float64) bool {
	return float64(s.Rng.Intn(100)) < acceptance(delta, temp)
}

// acceptance возвращает floor(exp(-delta/T) * 100) / 100.
func acceptance(delta int, temp float64) float64 {
	return math.Floor(math.Exp(-float64(delta)/temp)*100) / 100
}

// rollback восстанавливает элитный снимок после фатальной ошибки
// и присоединяет ошибку восстановления, если она возникла.
func rollback(sch *schedule.Schedule, elite schedule.Snapshot, cause error) error {
	err := error(zerr.Wrap(cause, "reshuffle failed"))
	if rerr := sch.Restore(elite); rerr != nil {
		err = errors.Join(err, rerr)
	}
	return err
}
