package schedule

import (
	"slices"

	"go.trai.ch/zerr"
)

// Snapshot хранит копию состояния машин и makespan на момент создания.
// Не разделяет память с живым расписанием.
type Snapshot struct {
	Machines [][]int
	Makespan int
}

func (s *Schedule) Snapshot() Snapshot {
	snap := Snapshot{Machines: make([][]int, len(s.machines)), Makespan: s.makespan}
	for i := range s.machines {
		snap.Machines[i] = slices.Clone(s.machines[i].tasks)
	}
	return snap
}

// Restore перезаписывает живое расписание состоянием снимка.
// Снимок остаётся пригодным для повторного использования.
func (s *Schedule) Restore(snap Snapshot) error {
	if len(snap.Machines) != len(s.machines) {
		err := zerr.With(zerr.Wrap(ErrInconsistentState, "snapshot machine count mismatch"), "snapshot", len(snap.Machines))
		return zerr.With(err, "schedule", len(s.machines))
	}
	for i, ts := range snap.Machines {
		m := &s.machines[i]
		m.tasks = append(m.tasks[:0], ts...)
		m.load = 0
		for _, d := range ts {
			m.load += d
		}
	}
	s.RecomputeMakespan()
	return nil
}
