// Package config собирает параметры запуска из файла, окружения и флагов.
package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.trai.ch/zerr"

	"makespan/internal/tempura"
)

// EnvPrefix задаёт префикс переменных окружения, например MAKESPAN_TEMPURA_ALPHA.
const EnvPrefix = "MAKESPAN"

const (
	StrategyFirst   = "first"
	StrategyBest    = "best"
	StrategyTempura = "tempura"

	DistributionSingle = "single"
	DistributionRandom = "random"

	FormatText = "text"
	FormatYAML = "yaml"
)

type Config struct {
	Machines     int     `mapstructure:"machines"`
	Exponent     float64 `mapstructure:"exponent"`
	Distribution string  `mapstructure:"distribution"`
	Strategy     string  `mapstructure:"strategy"`

	Runs         int   `mapstructure:"runs"`
	Seed         int64 `mapstructure:"seed"`
	InstanceSeed int64 `mapstructure:"instance_seed"`
	Workers      int   `mapstructure:"workers"`

	Format   string `mapstructure:"format"`
	LogLevel string `mapstructure:"log_level"`

	Tempura Tempura `mapstructure:"tempura"`
}

type Tempura struct {
	Alpha       float64 `mapstructure:"alpha"`
	Iterations  int     `mapstructure:"iterations"`
	InitialTemp float64 `mapstructure:"initial_temp"`
}

func Default() Config {
	tc := tempura.DefaultConfig()
	return Config{
		Machines:     10,
		Exponent:     1.5,
		Distribution: DistributionSingle,
		Strategy:     StrategyFirst,
		Runs:         10,
		Seed:         1000,
		InstanceSeed: 777,
		Workers:      1,
		Format:       FormatText,
		LogLevel:     "info",
		Tempura: Tempura{
			Alpha:       tc.Alpha,
			Iterations:  tc.Iterations,
			InitialTemp: tc.InitialTemp,
		},
	}
}

// flagKeys сопоставляет ключи конфигурации именам флагов.
var flagKeys = map[string]string{
	"machines":             "machines",
	"exponent":             "exponent",
	"distribution":         "distribution",
	"strategy":             "strategy",
	"runs":                 "runs",
	"seed":                 "seed",
	"instance_seed":        "instance-seed",
	"workers":              "workers",
	"format":               "format",
	"log_level":            "log-level",
	"tempura.alpha":        "tempura-alpha",
	"tempura.iterations":   "tempura-iterations",
	"tempura.initial_temp": "tempura-temp",
}

// RegisterFlags объявляет флаги запуска (кроме log-level) с умолчаниями из Default.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.Int("machines", d.Machines, "количество машин")
	fs.Float64("exponent", d.Exponent, "показатель: задач = floor(machines^exponent)")
	fs.String("distribution", d.Distribution, "начальное размещение: single | random")
	fs.String("strategy", d.Strategy, "стратегия поиска: first | best | tempura")
	fs.Int("runs", d.Runs, "количество запусков (с разными сидами)")
	fs.Int64("seed", d.Seed, "базовый сид для запусков")
	fs.Int64("instance-seed", d.InstanceSeed, "сид генерации экземпляра задачи")
	fs.Int("workers", d.Workers, "число параллельных запусков")
	fs.String("format", d.Format, "формат отчёта: text | yaml")
	fs.Float64("tempura-alpha", d.Tempura.Alpha, "коэффициент охлаждения (alpha)")
	fs.Int("tempura-iterations", d.Tempura.Iterations, "бюджет отклонённых перемешиваний")
	fs.Float64("tempura-temp", d.Tempura.InitialTemp, "начальная температура")
}

// Load читает конфигурацию. Приоритет: флаги > окружение > файл > умолчания.
// Пустой path означает работу без файла.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, zerr.With(zerr.Wrap(err, "failed to read config file"), "path", path)
		}
	}

	if flags != nil {
		for key, name := range flagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return Config{}, zerr.With(zerr.Wrap(err, "failed to bind flag"), "flag", name)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, zerr.Wrap(err, "failed to decode config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("machines", d.Machines)
	v.SetDefault("exponent", d.Exponent)
	v.SetDefault("distribution", d.Distribution)
	v.SetDefault("strategy", d.Strategy)
	v.SetDefault("runs", d.Runs)
	v.SetDefault("seed", d.Seed)
	v.SetDefault("instance_seed", d.InstanceSeed)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("format", d.Format)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("tempura.alpha", d.Tempura.Alpha)
	v.SetDefault("tempura.iterations", d.Tempura.Iterations)
	v.SetDefault("tempura.initial_temp", d.Tempura.InitialTemp)
}

// TempuraConfig возвращает конфигурацию солвера tempura.
func (c Config) TempuraConfig() tempura.Config {
	return tempura.Config{
		Alpha:       c.Tempura.Alpha,
		Iterations:  c.Tempura.Iterations,
		InitialTemp: c.Tempura.InitialTemp,
	}
}

func (c Config) Validate() error {
	if c.Machines < 1 {
		return fmt.Errorf("количество машин должно быть >= 1 (получено %d)", c.Machines)
	}
	if math.IsNaN(c.Exponent) || c.Exponent < 1.0 {
		return fmt.Errorf("показатель должен быть >= 1 (получено %f)", c.Exponent)
	}
	switch c.Distribution {
	case DistributionSingle, DistributionRandom:
		// ok
	default:
		return fmt.Errorf("неизвестный тип размещения %q", c.Distribution)
	}
	switch c.Strategy {
	case StrategyFirst, StrategyBest:
		// ok
	case StrategyTempura:
		if err := c.TempuraConfig().Validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("неизвестная стратегия %q; доступные: first, best, tempura", c.Strategy)
	}
	if c.Runs <= 0 {
		return fmt.Errorf("количество запусков должно быть > 0 (получено %d)", c.Runs)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("число параллельных запусков должно быть > 0 (получено %d)", c.Workers)
	}
	switch c.Format {
	case FormatText, FormatYAML:
		// ok
	default:
		return fmt.Errorf("неизвестный формат отчёта %q", c.Format)
	}
	return nil
}
