package schedule_test

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/zerr"

	"makespan/internal/schedule"
)

func newRng(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

func sum(ts []int) int {
	total := 0
	for _, d := range ts {
		total += d
	}
	return total
}

func TestNew_PlacesAllTasksOnFirstMachine(t *testing.T) {
	s, err := schedule.New(4, 2, newRng(1))
	require.NoError(t, err)

	assert.Equal(t, 4, s.NumMachines())
	assert.Equal(t, 16, s.TaskCount())
	assert.Len(t, s.Tasks(0), 16)
	for i := 1; i < s.NumMachines(); i++ {
		assert.Zero(t, s.Load(i))
		assert.Empty(t, s.Tasks(i))
	}
	for _, d := range s.Tasks(0) {
		assert.GreaterOrEqual(t, d, schedule.MinDuration)
		assert.LessOrEqual(t, d, schedule.MaxDuration)
	}
	assert.Equal(t, s.Load(0), s.Makespan())
	require.NoError(t, s.Validate())
}

func TestNew_SingleMachine(t *testing.T) {
	s, err := schedule.New(1, 1.5, newRng(1))
	require.NoError(t, err)
	assert.Equal(t, 1, s.TaskCount())
	assert.Equal(t, s.Load(0), s.Makespan())
}

func TestNew_InvalidParameters(t *testing.T) {
	tests := []struct {
		name     string
		machines int
		exponent float64
		rng      *rand.Rand
	}{
		{name: "zero machines", machines: 0, exponent: 1.5, rng: newRng(1)},
		{name: "negative machines", machines: -3, exponent: 2, rng: newRng(1)},
		{name: "exponent below one", machines: 5, exponent: 0.5, rng: newRng(1)},
		{name: "NaN exponent", machines: 5, exponent: math.NaN(), rng: newRng(1)},
		{name: "too many tasks", machines: 1000, exponent: 4, rng: newRng(1)},
		{name: "nil rng", machines: 5, exponent: 1.5, rng: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := schedule.New(tt.machines, tt.exponent, tt.rng)
			require.Error(t, err)
			assert.True(t, errors.Is(err, schedule.ErrInvalidParameter), "got %v", err)

			_, err = schedule.NewRandomlyDistributed(tt.machines, tt.exponent, tt.rng)
			require.Error(t, err)
			assert.True(t, errors.Is(err, schedule.ErrInvalidParameter), "got %v", err)
		})
	}
}

func TestNew_ErrorMetadata(t *testing.T) {
	_, err := schedule.New(0, 1.5, newRng(1))
	require.Error(t, err)

	zErr, ok := err.(*zerr.Error)
	require.True(t, ok, "expected *zerr.Error, got %T", err)
	assert.Equal(t, 0, zErr.Metadata()["machines"])
}

func TestNew_Reproducible(t *testing.T) {
	a, err := schedule.New(5, 2, newRng(42))
	require.NoError(t, err)
	b, err := schedule.New(5, 2, newRng(42))
	require.NoError(t, err)

	assert.Equal(t, a.Tasks(0), b.Tasks(0))
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
}

func TestNewRandomlyDistributed(t *testing.T) {
	s, err := schedule.NewRandomlyDistributed(6, 2, newRng(7))
	require.NoError(t, err)

	assert.Equal(t, 36, s.TaskCount())
	peak := 0
	for i, ts := range s.Machines() {
		assert.Equal(t, sum(ts), s.Load(i))
		peak = max(peak, s.Load(i))
	}
	assert.Equal(t, peak, s.Makespan())
	require.NoError(t, s.Validate())
}

func TestFromTasks(t *testing.T) {
	s, err := schedule.FromTasks([][]int{{10, 1}, {}, {4}})
	require.NoError(t, err)

	assert.Equal(t, []int{11, 0, 4}, s.Loads())
	assert.Equal(t, 11, s.Makespan())
	assert.Equal(t, 3, s.TaskCount())
	assert.Equal(t, 15, s.TotalWork())
}

func TestFromTasks_Invalid(t *testing.T) {
	_, err := schedule.FromTasks(nil)
	assert.ErrorIs(t, err, schedule.ErrInvalidParameter)

	_, err = schedule.FromTasks([][]int{{3, 0}})
	assert.ErrorIs(t, err, schedule.ErrInvalidParameter)
}

func TestMigrateTask(t *testing.T) {
	s, err := schedule.FromTasks([][]int{{10, 1}, {}})
	require.NoError(t, err)

	d, ok := s.MigrateTask(0, 1)
	require.True(t, ok)
	assert.Equal(t, 1, d)
	assert.Equal(t, []int{10, 1}, s.Loads())
	assert.Equal(t, 10, s.Makespan())

	d, ok = s.MigrateTask(1, 0)
	require.True(t, ok)
	assert.Equal(t, 1, d)
	assert.Equal(t, 11, s.Makespan())

	_, ok = s.MigrateTask(1, 0)
	assert.False(t, ok, "machine 1 is empty")
	assert.Equal(t, 11, s.Makespan())
	require.NoError(t, s.Validate())
}

func TestMigrateTask_SameMachine(t *testing.T) {
	s, err := schedule.FromTasks([][]int{{2, 3}, {1}})
	require.NoError(t, err)
	before := s.Fingerprint()

	d, ok := s.MigrateTask(0, 0)
	require.True(t, ok)
	assert.Equal(t, 3, d)
	assert.Equal(t, before, s.Fingerprint())
}

func TestMigrateTask_ConservesWork(t *testing.T) {
	s, err := schedule.New(5, 2, newRng(3))
	require.NoError(t, err)
	count, work := s.TaskCount(), s.TotalWork()
	rng := newRng(9)

	for range 500 {
		src := rng.Intn(s.NumMachines())
		dst := rng.Intn(s.NumMachines())
		s.MigrateTask(src, dst)

		require.NoError(t, s.Validate())
		require.Equal(t, count, s.TaskCount())
		require.Equal(t, work, s.TotalWork())
	}
}

func TestRecomputeMakespan_Idempotent(t *testing.T) {
	s, err := schedule.NewRandomlyDistributed(4, 2, newRng(5))
	require.NoError(t, err)

	first := s.RecomputeMakespan()
	second := s.RecomputeMakespan()
	assert.Equal(t, first, second)
	assert.Equal(t, first, s.Makespan())
}

func TestLeastLoaded(t *testing.T) {
	s, err := schedule.FromTasks([][]int{{5}, {2}, {2}, {7}})
	require.NoError(t, err)
	assert.Equal(t, 1, s.LeastLoaded())

	s, err = schedule.FromTasks([][]int{{}, {}, {}})
	require.NoError(t, err)
	assert.Equal(t, 0, s.LeastLoaded())
}

func TestLowerBound(t *testing.T) {
	s, err := schedule.FromTasks([][]int{{5, 5, 5}, {}, {}})
	require.NoError(t, err)
	assert.Equal(t, 5, s.LowerBound())

	s, err = schedule.FromTasks([][]int{{10, 1}, {}})
	require.NoError(t, err)
	assert.Equal(t, 10, s.LowerBound())

	s, err = schedule.FromTasks([][]int{{3, 3, 1}, {}})
	require.NoError(t, err)
	assert.Equal(t, 4, s.LowerBound())
}

func TestDealOut(t *testing.T) {
	s, err := schedule.FromTasks([][]int{{1, 2, 3, 4}, {}, {10}})
	require.NoError(t, err)
	work := s.TotalWork()

	next, err := s.DealOut(0, 0)
	require.NoError(t, err)

	// Снимаются 4, 3, 2, 1; курсор 0 пропускает источник.
	assert.Empty(t, s.Tasks(0))
	assert.Equal(t, []int{4, 2}, s.Tasks(1))
	assert.Equal(t, []int{10, 3, 1}, s.Tasks(2))
	assert.Equal(t, 0, next)
	assert.Equal(t, work, s.TotalWork())
	assert.Equal(t, 14, s.Makespan())
	require.NoError(t, s.Validate())
}

func TestDealOut_CursorRotates(t *testing.T) {
	s, err := schedule.FromTasks([][]int{{}, {7, 8}, {}, {}})
	require.NoError(t, err)

	next, err := s.DealOut(1, 3)
	require.NoError(t, err)

	assert.Equal(t, []int{8}, s.Tasks(3))
	assert.Equal(t, []int{7}, s.Tasks(0))
	assert.Equal(t, 1, next)
}

func TestDealOut_SingleMachine(t *testing.T) {
	s, err := schedule.FromTasks([][]int{{3, 4}})
	require.NoError(t, err)

	next, err := s.DealOut(0, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, next)
	assert.Equal(t, []int{3, 4}, s.Tasks(0))
}

func TestClone_Independent(t *testing.T) {
	s, err := schedule.FromTasks([][]int{{4, 6}, {1}})
	require.NoError(t, err)
	c := s.Clone()

	c.MigrateTask(0, 1)

	assert.Equal(t, []int{4, 6}, s.Tasks(0))
	assert.Equal(t, 10, s.Makespan())
	assert.Equal(t, []int{4}, c.Tasks(0))
	assert.NotEqual(t, s.Fingerprint(), c.Fingerprint())
}

func TestFingerprint_DistinguishesPlacement(t *testing.T) {
	a, err := schedule.FromTasks([][]int{{1, 2}, {}})
	require.NoError(t, err)
	b, err := schedule.FromTasks([][]int{{1}, {2}})
	require.NoError(t, err)
	c, err := schedule.FromTasks([][]int{{2, 1}, {}})
	require.NoError(t, err)

	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}
