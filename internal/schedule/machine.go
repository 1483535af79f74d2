package schedule

import "slices"

// Machine хранит последовательность назначенных задач и их суммарную длительность.
// Задачи добавляются и снимаются только с конца.
type Machine struct {
	tasks []int
	load  int
}

func (m *Machine) Load() int { return m.load }

func (m *Machine) Len() int { return len(m.tasks) }

// Tasks возвращает копию последовательности задач.
func (m *Machine) Tasks() []int { return slices.Clone(m.tasks) }

func (m *Machine) AppendTask(d int) {
	m.tasks = append(m.tasks, d)
	m.load += d
}

// RemoveLastTask снимает последнюю добавленную задачу.
// На пустой машине возвращает false и ничего не меняет.
func (m *Machine) RemoveLastTask() (int, bool) {
	n := len(m.tasks)
	if n == 0 {
		return 0, false
	}
	d := m.tasks[n-1]
	m.tasks = m.tasks[:n-1]
	m.load -= d
	return d, true
}
