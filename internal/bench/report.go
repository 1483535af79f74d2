package bench

import (
	"fmt"
	"io"

	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

type report struct {
	Records []Record `yaml:"records"`
}

func WriteYAML(w io.Writer, records []Record) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(report{Records: records}); err != nil {
		return zerr.Wrap(err, "failed to encode report")
	}
	return enc.Close()
}

func WriteText(w io.Writer, records []Record) error {
	for _, r := range records {
		_, err := fmt.Fprintf(w,
			"%s: %d машин, %d задач (%s), запусков=%d, экземпляр %s\n"+
				"  Значение целевой функции: начальное=%d нижняя граница=%d лучшее=%d среднее=%.2f стандартное отклонение=%.2f\n"+
				"  Улучшений в среднем=%.2f | Время: среднее=%.2fms стандартное отклонение=%.2fms\n",
			r.Algo, r.Machines, r.Tasks, r.Distribution, r.Runs, r.Instance,
			r.InitialMakespan, r.LowerBound, r.MakespanBest, r.MakespanMean, r.MakespanStd,
			r.ImprovementsMean, r.TimeMeanMs, r.TimeStdMs,
		)
		if err != nil {
			return err
		}
	}
	return nil
}
