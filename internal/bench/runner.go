package bench

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"

	"makespan/internal/opt"
	"makespan/internal/schedule"
)

// ErrResultMismatch возвращается, если результат оптимизатора расходится
// с состоянием расписания после запуска.
var ErrResultMismatch = zerr.New("optimizer result does not match schedule")

// Distribution задаёт начальное размещение задач.
type Distribution string

const (
	DistributionSingle Distribution = "single"
	DistributionRandom Distribution = "random"
)

type Algorithm struct {
	Name    string
	Factory func(seed int64) opt.Optimizer
}

type Case struct {
	Machines     int
	Exponent     float64
	Distribution Distribution
	InstanceSeed int64
}

// Build генерирует экземпляр задачи, детерминированный по InstanceSeed.
func (c Case) Build() (*schedule.Schedule, error) {
	rng := rand.New(rand.NewSource(c.InstanceSeed))
	switch c.Distribution {
	case DistributionSingle, "":
		return schedule.New(c.Machines, c.Exponent, rng)
	case DistributionRandom:
		return schedule.NewRandomlyDistributed(c.Machines, c.Exponent, rng)
	default:
		return nil, zerr.With(zerr.Wrap(schedule.ErrInvalidParameter, "unknown distribution"), "distribution", string(c.Distribution))
	}
}

type Record struct {
	Algo         string  `yaml:"algo"`
	Machines     int     `yaml:"machines"`
	Exponent     float64 `yaml:"exponent"`
	Distribution string  `yaml:"distribution"`
	Tasks        int     `yaml:"tasks"`
	Runs         int     `yaml:"runs"`
	Instance     string  `yaml:"instance"`

	InitialMakespan int `yaml:"initial_makespan"`
	LowerBound      int `yaml:"lower_bound"`

	TimeBestMs float64 `yaml:"time_best_ms"`
	TimeMeanMs float64 `yaml:"time_mean_ms"`
	TimeStdMs  float64 `yaml:"time_std_ms"`

	MakespanBest int     `yaml:"makespan_best"`
	MakespanMean float64 `yaml:"makespan_mean"`
	MakespanStd  float64 `yaml:"makespan_std"`

	ImprovementsMean float64 `yaml:"improvements_mean"`
}

type Runner struct {
	Runs     int
	BaseSeed int64
	// Workers ограничивает число одновременных запусков; при <= 0 запуски идут по одному.
	// При Workers > 1 запуски делят процессор, и время в отчёте завышено.
	Workers int
	Log     *slog.Logger
}

// RunCase строит экземпляр один раз и запускает алгоритм Runs раз,
// каждый раз на собственной копии расписания с сидом BaseSeed+i.
func (r Runner) RunCase(ctx context.Context, c Case, algo Algorithm) (Record, error) {
	if r.Runs <= 0 {
		return Record{}, fmt.Errorf("количество запусков должно быть > 0 (получено %d)", r.Runs)
	}
	log := r.Log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	inst, err := c.Build()
	if err != nil {
		return Record{}, err
	}

	makespans := make([]int, r.Runs)
	improvements := make([]float64, r.Runs)
	timesMs := make([]float64, r.Runs)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, r.Workers))

	for i := 0; i < r.Runs; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return zerr.With(zerr.Wrap(err, "run cancelled"), "run", i)
			}

			runSeed := r.BaseSeed + int64(i)
			op := algo.Factory(runSeed)
			if op == nil {
				return zerr.With(zerr.New("factory returned nil optimizer"), "algo", algo.Name)
			}

			sch := inst.Clone()
			start := time.Now()
			res, err := op.Solve(sch)
			dur := time.Since(start)
			if err != nil {
				return zerr.With(zerr.Wrap(err, "solve failed"), "run", i)
			}
			if err := verify(inst, sch, res); err != nil {
				return zerr.With(err, "run", i)
			}

			makespans[i] = res.Makespan
			improvements[i] = float64(res.Improvements)
			timesMs[i] = float64(dur.Microseconds()) / 1000.0

			log.Debug("run finished",
				"algo", algo.Name, "run", i, "seed", runSeed,
				"makespan", res.Makespan, "improvements", res.Improvements)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Record{}, err
	}

	msStats := Calc(makespans)
	tStats := Calc(timesMs)

	return Record{
		Algo:         algo.Name,
		Machines:     c.Machines,
		Exponent:     c.Exponent,
		Distribution: string(c.Distribution),
		Tasks:        inst.TaskCount(),
		Runs:         r.Runs,
		Instance:     fmt.Sprintf("%016x", inst.Fingerprint()),

		InitialMakespan: inst.Makespan(),
		LowerBound:      inst.LowerBound(),

		TimeBestMs: tStats.Best,
		TimeMeanMs: tStats.Mean,
		TimeStdMs:  tStats.Std,

		MakespanBest: msStats.Best,
		MakespanMean: msStats.Mean,
		MakespanStd:  msStats.Std,

		ImprovementsMean: Calc(improvements).Mean,
	}, nil
}

// verify проверяет, что оптимизатор только переставлял задачи
// и сообщил фактический makespan.
func verify(inst, sch *schedule.Schedule, res opt.Result) error {
	if err := sch.Validate(); err != nil {
		return err
	}
	if sch.TaskCount() != inst.TaskCount() || sch.TotalWork() != inst.TotalWork() {
		err := zerr.With(zerr.Wrap(ErrResultMismatch, "work not conserved"), "tasks", sch.TaskCount())
		return zerr.With(err, "work", sch.TotalWork())
	}
	if res.Makespan != sch.Makespan() {
		err := zerr.With(zerr.Wrap(ErrResultMismatch, "reported makespan differs"), "reported", res.Makespan)
		return zerr.With(err, "actual", sch.Makespan())
	}
	return nil
}
