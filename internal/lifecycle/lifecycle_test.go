package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/cleanteam/internal/models"
)

var t0 = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func TestStart(t *testing.T) {
	t.Run("pending to in-progress", func(t *testing.T) {
		task := &models.Task{Status: models.StatusPending}

		tr, err := Start(task, t0)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, tr.From)
		assert.Equal(t, models.StatusInProgress, tr.To)
		assert.True(t, tr.ChangesStatus())

		tr.Apply(task)
		assert.Equal(t, models.StatusInProgress, task.Status)
		require.NotNil(t, task.StartedAt)
		assert.Equal(t, t0, *task.StartedAt)
	})

	t.Run("startedAt is set only once", func(t *testing.T) {
		task := &models.Task{Status: models.StatusPending}

		first, err := Start(task, t0)
		require.NoError(t, err)
		first.Apply(task)

		second, err := Start(task, t0.Add(time.Minute))
		require.NoError(t, err)
		assert.True(t, second.NoOp)
		second.Apply(task)

		assert.Equal(t, t0, *task.StartedAt)
	})

	t.Run("stale double submit keeps first stamp", func(t *testing.T) {
		task := &models.Task{Status: models.StatusPending}

		// Both clients read the task while it was pending.
		a, err := Start(task, t0)
		require.NoError(t, err)
		b, err := Start(task, t0.Add(5*time.Second))
		require.NoError(t, err)

		a.Apply(task)
		b.Apply(task)

		assert.Equal(t, t0, *task.StartedAt)
	})

	t.Run("pending with existing startedAt", func(t *testing.T) {
		earlier := t0.Add(-time.Hour)
		task := &models.Task{Status: models.StatusPending, StartedAt: &earlier}

		tr, err := Start(task, t0)
		require.NoError(t, err)
		assert.Nil(t, tr.StartedAt)

		tr.Apply(task)
		assert.Equal(t, earlier, *task.StartedAt)
	})

	t.Run("completed cannot start", func(t *testing.T) {
		_, err := Start(&models.Task{Status: models.StatusCompleted}, t0)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestComplete(t *testing.T) {
	t.Run("in-progress to completed", func(t *testing.T) {
		started := t0
		task := &models.Task{Status: models.StatusInProgress, StartedAt: &started}

		tr, err := Complete(task, t0.Add(2*time.Hour), false)
		require.NoError(t, err)
		tr.Apply(task)

		assert.Equal(t, models.StatusCompleted, task.Status)
		assert.Equal(t, t0.Add(2*time.Hour), *task.CompletedAt)
		assert.Equal(t, t0, *task.StartedAt)
	})

	t.Run("completedAt is the completing call time", func(t *testing.T) {
		stale := t0.Add(-24 * time.Hour)
		task := &models.Task{Status: models.StatusInProgress, CompletedAt: &stale}

		tr, err := Complete(task, t0, false)
		require.NoError(t, err)
		tr.Apply(task)

		assert.Equal(t, t0, *task.CompletedAt)
	})

	t.Run("pending requires operator", func(t *testing.T) {
		_, err := Complete(&models.Task{Status: models.StatusPending}, t0, false)
		assert.ErrorIs(t, err, ErrInvalidTransition)

		tr, err := Complete(&models.Task{Status: models.StatusPending}, t0, true)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, tr.From)
		assert.Equal(t, models.StatusCompleted, tr.To)
	})

	t.Run("no transition back from completed", func(t *testing.T) {
		_, err := Complete(&models.Task{Status: models.StatusCompleted}, t0, true)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestReportIssue(t *testing.T) {
	for _, status := range []models.TaskStatus{models.StatusPending, models.StatusInProgress} {
		t.Run(string(status), func(t *testing.T) {
			task := &models.Task{Status: status}

			tr, err := ReportIssue(task, "  broken window ")
			require.NoError(t, err)
			assert.False(t, tr.ChangesStatus())

			tr.Apply(task)
			assert.Equal(t, status, task.Status)
			require.NotNil(t, task.IssueReport)
			assert.Equal(t, "broken window", *task.IssueReport)
		})
	}

	t.Run("completed", func(t *testing.T) {
		_, err := ReportIssue(&models.Task{Status: models.StatusCompleted}, "late")
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("empty text", func(t *testing.T) {
		_, err := ReportIssue(&models.Task{Status: models.StatusInProgress}, "   ")
		assert.ErrorIs(t, err, ErrEmptyIssue)
	})
}
