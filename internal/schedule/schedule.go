package schedule

import (
	"encoding/binary"
	"iter"
	"math"
	"math/rand"
	"slices"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/zerr"
)

const (
	// MinDuration и MaxDuration задают диапазон длительностей случайных задач.
	MinDuration = 1
	MaxDuration = 99

	// MaxTasks ограничивает floor(machines^exponent).
	MaxTasks = 1 << 24
)

// Schedule хранит набор идентичных машин и кешированное значение makespan.
// Кеш makespan согласован с загрузкой машин после каждой мутирующей операции.
// Параллельный доступ не поддерживается.
type Schedule struct {
	machines []Machine
	makespan int
}

// New создаёт расписание из floor(machines^exponent) случайных задач,
// целиком размещённых на машине 0.
func New(machines int, exponent float64, rng *rand.Rand) (*Schedule, error) {
	n, err := taskCount(machines, exponent, rng)
	if err != nil {
		return nil, err
	}
	s := &Schedule{machines: make([]Machine, machines)}
	first := &s.machines[0]
	first.tasks = make([]int, 0, n)
	for range n {
		first.AppendTask(randomDuration(rng))
	}
	s.makespan = first.load
	return s, nil
}

// NewRandomlyDistributed создаёт то же количество задач, но каждая задача
// назначается на равномерно выбранную машину.
func NewRandomlyDistributed(machines int, exponent float64, rng *rand.Rand) (*Schedule, error) {
	n, err := taskCount(machines, exponent, rng)
	if err != nil {
		return nil, err
	}
	s := &Schedule{machines: make([]Machine, machines)}
	for range n {
		d := randomDuration(rng)
		s.machines[rng.Intn(machines)].AppendTask(d)
	}
	s.RecomputeMakespan()
	return s, nil
}

// FromTasks строит расписание с явно заданным размещением задач.
// Задача tasks[i][k] оказывается k-й снизу на машине i.
func FromTasks(tasks [][]int) (*Schedule, error) {
	if len(tasks) < 1 {
		return nil, zerr.With(zerr.Wrap(ErrInvalidParameter, "machine count must be >= 1"), "machines", len(tasks))
	}
	s := &Schedule{machines: make([]Machine, len(tasks))}
	for i, ts := range tasks {
		for k, d := range ts {
			if d <= 0 {
				err := zerr.With(zerr.Wrap(ErrInvalidParameter, "task duration must be > 0"), "machine", i)
				err = zerr.With(err, "task", k)
				return nil, zerr.With(err, "duration", d)
			}
			s.machines[i].AppendTask(d)
		}
	}
	s.RecomputeMakespan()
	return s, nil
}

func taskCount(machines int, exponent float64, rng *rand.Rand) (int, error) {
	if machines < 1 {
		return 0, zerr.With(zerr.Wrap(ErrInvalidParameter, "machine count must be >= 1"), "machines", machines)
	}
	if math.IsNaN(exponent) || exponent < 1.0 {
		return 0, zerr.With(zerr.Wrap(ErrInvalidParameter, "exponent must be >= 1"), "exponent", exponent)
	}
	if rng == nil {
		return 0, zerr.Wrap(ErrInvalidParameter, "random source is nil")
	}
	f := math.Floor(math.Pow(float64(machines), exponent))
	if f > MaxTasks {
		err := zerr.With(zerr.Wrap(ErrInvalidParameter, "too many tasks"), "machines", machines)
		return 0, zerr.With(err, "exponent", exponent)
	}
	return int(f), nil
}

func randomDuration(rng *rand.Rand) int {
	return MinDuration + rng.Intn(MaxDuration-MinDuration+1)
}

func (s *Schedule) Makespan() int { return s.makespan }

// RecomputeMakespan заново вычисляет максимум загрузки и обновляет кеш.
func (s *Schedule) RecomputeMakespan() int {
	peak := 0
	for i := range s.machines {
		if s.machines[i].load > peak {
			peak = s.machines[i].load
		}
	}
	s.makespan = peak
	return peak
}

// MigrateTask переносит последнюю задачу машины src на машину dst.
// Возвращает длительность перенесённой задачи или false, если src пуста.
// Перенос на ту же машину допустим и ничего не меняет.
func (s *Schedule) MigrateTask(src, dst int) (int, bool) {
	d, ok := s.machines[src].RemoveLastTask()
	if !ok {
		return 0, false
	}
	s.machines[dst].AppendTask(d)
	s.RecomputeMakespan()
	return d, true
}

// DealOut снимает все задачи машины src и раздаёт их по одной остальным
// машинам по кругу, начиная с cursor и пропуская src. Возвращает следующую
// позицию курсора.
func (s *Schedule) DealOut(src, cursor int) (int, error) {
	n := len(s.machines)
	if n < 2 {
		return cursor, nil
	}
	next := ((cursor % n) + n) % n
	count := s.machines[src].Len()
	for k := range count {
		d, ok := s.machines[src].RemoveLastTask()
		if !ok {
			s.RecomputeMakespan()
			err := zerr.With(zerr.Wrap(ErrInconsistentState, "source machine ran out of tasks during reshuffle"), "machine", src)
			err = zerr.With(err, "dealt", k)
			return next, zerr.With(err, "expected", count)
		}
		if next == src {
			next = (next + 1) % n
		}
		s.machines[next].AppendTask(d)
		next = (next + 1) % n
	}
	s.RecomputeMakespan()
	return next, nil
}

func (s *Schedule) NumMachines() int { return len(s.machines) }

func (s *Schedule) Load(i int) int { return s.machines[i].load }

// Loads возвращает загрузку каждой машины.
func (s *Schedule) Loads() []int {
	out := make([]int, len(s.machines))
	for i := range s.machines {
		out[i] = s.machines[i].load
	}
	return out
}

// Tasks возвращает копию последовательности задач машины i.
func (s *Schedule) Tasks(i int) []int { return s.machines[i].Tasks() }

// Machines перебирает машины и копии их последовательностей задач.
func (s *Schedule) Machines() iter.Seq2[int, []int] {
	return func(yield func(int, []int) bool) {
		for i := range s.machines {
			if !yield(i, s.machines[i].Tasks()) {
				return
			}
		}
	}
}

func (s *Schedule) TaskCount() int {
	total := 0
	for i := range s.machines {
		total += s.machines[i].Len()
	}
	return total
}

func (s *Schedule) TotalWork() int {
	total := 0
	for i := range s.machines {
		total += s.machines[i].load
	}
	return total
}

// LeastLoaded возвращает индекс наименее загруженной машины
// (при равенстве выбирается меньший индекс).
func (s *Schedule) LeastLoaded() int {
	best := 0
	for i := 1; i < len(s.machines); i++ {
		if s.machines[i].load < s.machines[best].load {
			best = i
		}
	}
	return best
}

// LowerBound возвращает нижнюю оценку makespan: max(ceil(total/m), самая длинная задача).
func (s *Schedule) LowerBound() int {
	m := len(s.machines)
	lb := (s.TotalWork() + m - 1) / m
	for i := range s.machines {
		for _, d := range s.machines[i].tasks {
			if d > lb {
				lb = d
			}
		}
	}
	return lb
}

// Validate проверяет load == sum(tasks) для каждой машины
// и makespan == max(load).
func (s *Schedule) Validate() error {
	peak := 0
	for i := range s.machines {
		m := &s.machines[i]
		sum := 0
		for _, d := range m.tasks {
			sum += d
		}
		if sum != m.load {
			err := zerr.With(zerr.Wrap(ErrInconsistentState, "machine load differs from task sum"), "machine", i)
			err = zerr.With(err, "load", m.load)
			return zerr.With(err, "sum", sum)
		}
		if m.load > peak {
			peak = m.load
		}
	}
	if peak != s.makespan {
		err := zerr.With(zerr.Wrap(ErrInconsistentState, "cached makespan differs from peak load"), "makespan", s.makespan)
		return zerr.With(err, "peak", peak)
	}
	return nil
}

// Clone возвращает независимую копию расписания.
func (s *Schedule) Clone() *Schedule {
	c := &Schedule{machines: make([]Machine, len(s.machines)), makespan: s.makespan}
	for i := range s.machines {
		c.machines[i] = Machine{tasks: slices.Clone(s.machines[i].tasks), load: s.machines[i].load}
	}
	return c
}

// Fingerprint считает xxhash от последовательностей задач всех машин.
func (s *Schedule) Fingerprint() uint64 {
	h := xxhash.New()
	buf := make([]byte, 0, 8)
	for i := range s.machines {
		buf = binary.LittleEndian.AppendUint64(buf[:0], uint64(len(s.machines[i].tasks)))
		_, _ = h.Write(buf)
		for _, d := range s.machines[i].tasks {
			buf = binary.LittleEndian.AppendUint64(buf[:0], uint64(d))
			_, _ = h.Write(buf)
		}
	}
	return h.Sum64()
}
