package bi_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"makespan/internal/bi"
	"makespan/internal/schedule"
)

func TestSolve_EqualTasks(t *testing.T) {
	sch, err := schedule.FromTasks([][]int{{5, 5, 5}, {}, {}})
	require.NoError(t, err)

	res, err := bi.New(nil).Solve(sch)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Improvements)
	assert.Equal(t, []int{5, 5, 5}, sch.Loads())
	assert.Equal(t, 5, res.Makespan)
	for i := range sch.NumMachines() {
		assert.Len(t, sch.Tasks(i), 1)
	}
}

func TestSolve_EmptyDonor(t *testing.T) {
	sch, err := schedule.FromTasks([][]int{{}, {8}, {3}})
	require.NoError(t, err)
	before := sch.Fingerprint()

	res, err := bi.New(nil).Solve(sch)
	require.NoError(t, err)

	assert.Zero(t, res.Improvements)
	assert.Zero(t, res.Evaluations)
	assert.Equal(t, before, sch.Fingerprint())
}

func TestSolve_OnlyDonorGives(t *testing.T) {
	// Узкое место на машине 1, но отдавать задачи может только машина 0.
	sch, err := schedule.FromTasks([][]int{{2}, {20, 20}, {}})
	require.NoError(t, err)
	before := sch.Fingerprint()

	res, err := bi.New(nil).Solve(sch)
	require.NoError(t, err)

	assert.Zero(t, res.Improvements)
	assert.Equal(t, 1, res.Evaluations)
	assert.Equal(t, before, sch.Fingerprint(), "non-improving move must be undone")
	assert.Equal(t, 40, sch.Makespan())
}

func TestSolve_MonotoneAndConserving(t *testing.T) {
	for seed := int64(1); seed <= 10; seed++ {
		sch, err := schedule.New(4, 2, rand.New(rand.NewSource(seed)))
		require.NoError(t, err)
		initial := sch.Makespan()
		count, work := sch.TaskCount(), sch.TotalWork()

		res, err := bi.New(nil).Solve(sch)
		require.NoError(t, err)

		require.NoError(t, sch.Validate())
		assert.Equal(t, count, sch.TaskCount())
		assert.Equal(t, work, sch.TotalWork())
		assert.Less(t, res.Makespan, initial)
		assert.Equal(t, res.Improvements, res.Evaluations-1)
	}
}

// acceptedMakespans возвращает makespan из каждой записи "move accepted" по порядку.
func acceptedMakespans(t *testing.T, r io.Reader) []int {
	t.Helper()
	var out []int
	dec := json.NewDecoder(r)
	for {
		var rec struct {
			Msg      string `json:"msg"`
			Makespan int    `json:"makespan"`
		}
		err := dec.Decode(&rec)
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
		if rec.Msg == "move accepted" {
			out = append(out, rec.Makespan)
		}
	}
}

func TestSolve_EachAcceptedMoveDecreasesMakespan(t *testing.T) {
	for seed := int64(1); seed <= 10; seed++ {
		sch, err := schedule.New(4, 2, rand.New(rand.NewSource(seed)))
		require.NoError(t, err)
		prev := sch.Makespan()

		var buf bytes.Buffer
		log := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		res, err := bi.New(log).Solve(sch)
		require.NoError(t, err)

		steps := acceptedMakespans(t, &buf)
		require.Len(t, steps, res.Improvements, "seed %d", seed)
		require.NotEmpty(t, steps, "seed %d", seed)
		for _, m := range steps {
			assert.Less(t, m, prev, "seed %d", seed)
			prev = m
		}
		assert.Equal(t, prev, res.Makespan)
	}
}
