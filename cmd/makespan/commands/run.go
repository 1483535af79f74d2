package commands

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/spf13/cobra"
	"go.trai.ch/zerr"

	"makespan/internal/bench"
	"makespan/internal/bi"
	"makespan/internal/config"
	"makespan/internal/fi"
	"makespan/internal/logger"
	"makespan/internal/opt"
	"makespan/internal/tempura"
)

// Фабрики

func newFIFactory(log *slog.Logger) func(seed int64) opt.Optimizer {
	return func(int64) opt.Optimizer {
		return fi.New(log)
	}
}

func newBIFactory(log *slog.Logger) func(seed int64) opt.Optimizer {
	return func(int64) opt.Optimizer {
		return bi.New(log)
	}
}

// newTempuraFactory ожидает уже проверенную конфигурацию и паникует на ошибке New.
func newTempuraFactory(cfg tempura.Config, log *slog.Logger) func(seed int64) opt.Optimizer {
	return func(seed int64) opt.Optimizer {
		solver, err := tempura.New(cfg, rand.New(rand.NewSource(seed)), log)
		if err != nil {
			panic(err)
		}
		return solver
	}
}

func algorithm(cfg config.Config, log *slog.Logger) (bench.Algorithm, error) {
	switch cfg.Strategy {
	case config.StrategyFirst:
		return bench.Algorithm{Name: "first-improvement", Factory: newFIFactory(log)}, nil
	case config.StrategyBest:
		return bench.Algorithm{Name: "best-improvement", Factory: newBIFactory(log)}, nil
	case config.StrategyTempura:
		tc := cfg.TempuraConfig()
		if err := tc.Validate(); err != nil {
			return bench.Algorithm{}, err
		}
		return bench.Algorithm{Name: "tempura", Factory: newTempuraFactory(tc, log)}, nil
	default:
		return bench.Algorithm{}, zerr.With(zerr.New("unknown strategy"), "strategy", cfg.Strategy)
	}
}

func (c *CLI) newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one search strategy on a generated instance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath, err := cmd.Flags().GetString("config")
			if err != nil {
				return err
			}
			cfg, err := config.Load(configPath, cmd.Flags())
			if err != nil {
				return zerr.Wrap(err, "failed to load configuration")
			}

			log, err := logger.New(c.errOut, cfg.LogLevel)
			if err != nil {
				return err
			}

			algo, err := algorithm(cfg, log)
			if err != nil {
				return err
			}

			runner := bench.Runner{
				Runs:     cfg.Runs,
				BaseSeed: cfg.Seed,
				Workers:  cfg.Workers,
				Log:      log,
			}
			cs := bench.Case{
				Machines:     cfg.Machines,
				Exponent:     cfg.Exponent,
				Distribution: bench.Distribution(cfg.Distribution),
				InstanceSeed: cfg.InstanceSeed,
			}

			log.Info("run started",
				"algo", algo.Name, "machines", cs.Machines, "exponent", cs.Exponent,
				"distribution", cfg.Distribution, "runs", runner.Runs)

			rec, err := runner.RunCase(cmd.Context(), cs, algo)
			if err != nil {
				return zerr.With(zerr.Wrap(err, "run failed"), "algo", algo.Name)
			}

			log.Info("run finished",
				"makespan_best", rec.MakespanBest, "makespan_mean", fmt.Sprintf("%.2f", rec.MakespanMean),
				"lower_bound", rec.LowerBound)

			records := []bench.Record{rec}
			if cfg.Format == config.FormatYAML {
				return bench.WriteYAML(c.out, records)
			}
			return bench.WriteText(c.out, records)
		},
	}

	config.RegisterFlags(cmd.Flags())
	return cmd
}
