// internal/export/filter/filter_test.go
package filter

import (
	"testing"
	"time"

	"formdesk-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(ts string) models.Submission {
	t, err := time.ParseInLocation("2006-01-02T15:04:05", ts, time.Local)
	if err != nil {
		panic(err)
	}
	return models.Submission{ID: ts, SubmittedAt: t}
}

func TestApply_SameDayWindowIsInclusive(t *testing.T) {
	subs := []models.Submission{
		at("2024-03-10T00:00:00"),
		at("2024-03-10T23:59:00"),
		at("2024-03-11T00:00:01"),
	}

	start := ParseDate("2024-03-10")
	end := ParseDate("2024-03-10")
	require.NotNil(t, start)
	require.NotNil(t, end)

	got := Apply(subs, start, end)
	require.Len(t, got, 2)
	assert.Equal(t, "2024-03-10T00:00:00", got[0].ID)
	assert.Equal(t, "2024-03-10T23:59:00", got[1].ID)
}

func TestApply_OpenEndedBounds(t *testing.T) {
	subs := []models.Submission{
		at("2024-01-01T08:00:00"),
		at("2024-06-15T08:00:00"),
		at("2024-12-31T08:00:00"),
	}

	onlyStart := Apply(subs, ParseDate("2024-06-01"), nil)
	require.Len(t, onlyStart, 2)
	assert.Equal(t, "2024-06-15T08:00:00", onlyStart[0].ID)

	onlyEnd := Apply(subs, nil, ParseDate("2024-06-30"))
	require.Len(t, onlyEnd, 2)
	assert.Equal(t, "2024-01-01T08:00:00", onlyEnd[0].ID)

	unbounded := Apply(subs, nil, nil)
	assert.Len(t, unbounded, 3)
}

func TestParseDate_MalformedTreatedAsUnbounded(t *testing.T) {
	assert.Nil(t, ParseDate(""))
	assert.Nil(t, ParseDate("03/10/2024"))
	assert.Nil(t, ParseDate("not-a-date"))

	got := Apply([]models.Submission{at("2024-03-10T12:00:00")}, ParseDate("bogus"), ParseDate("bogus"))
	assert.Len(t, got, 1)
}

func TestApply_PreservesInputOrder(t *testing.T) {
	// Stored order is not guaranteed to be chronological.
	subs := []models.Submission{
		at("2024-03-12T09:00:00"),
		at("2024-03-10T09:00:00"),
		at("2024-03-11T09:00:00"),
	}

	got := Apply(subs, ParseDate("2024-03-10"), ParseDate("2024-03-12"))
	require.Len(t, got, 3)
	assert.Equal(t, "2024-03-12T09:00:00", got[0].ID)
	assert.Equal(t, "2024-03-10T09:00:00", got[1].ID)
}
