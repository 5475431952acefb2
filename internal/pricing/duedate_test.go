package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDueDate_PastDateAdvances(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)
	due := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	corrected, adjusted := NormalizeDueDate(due, now, 5)
	assert.True(t, adjusted)
	assert.Equal(t, time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC), corrected)
}

func TestNormalizeDueDate_TodayUnchanged(t *testing.T) {
	// Due earlier today is not "in the past": comparison is date-only.
	now := time.Date(2026, 3, 15, 23, 0, 0, 0, time.UTC)
	due := time.Date(2026, 3, 15, 1, 0, 0, 0, time.UTC)

	corrected, adjusted := NormalizeDueDate(due, now, 5)
	assert.False(t, adjusted)
	assert.Equal(t, due, corrected)
}

func TestNormalizeDueDate_FutureUnchanged(t *testing.T) {
	now := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	due := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	corrected, adjusted := NormalizeDueDate(due, now, 5)
	assert.False(t, adjusted)
	assert.Equal(t, due, corrected)
}

func TestNormalizeDueDate_GraceFromConfig(t *testing.T) {
	now := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	due := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	corrected, adjusted := NormalizeDueDate(due, now, 10)
	assert.True(t, adjusted)
	assert.Equal(t, time.Date(2026, 3, 25, 0, 0, 0, 0, time.UTC), corrected)
}
