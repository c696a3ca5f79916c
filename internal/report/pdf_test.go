package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus/companion/internal/model"
	"campus/companion/internal/timer"
)

func TestWriteProducesPDF(t *testing.T) {
	now := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	r := HistoryReport{
		UserEmail:   "student@example.com",
		GeneratedAt: now,
		Stats:       model.TimerStats{RecordedFocusCount: 1, FocusSeconds: 1500},
		Records: []model.SessionRecord{{
			ID:                     "r1",
			Mode:                   timer.ModeFocus,
			NextMode:               timer.ModeShortBreak,
			PlannedDurationSeconds: 1500,
			CompletedAt:            now,
		}},
	}

	var buf bytes.Buffer
	require.NoError(t, r.Write(&buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestWriteEmptyHistory(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, HistoryReport{GeneratedAt: time.Now()}.Write(&buf))
	assert.NotZero(t, buf.Len())
}

func TestFormatMinutes(t *testing.T) {
	assert.Equal(t, "1h 05m", formatMinutes(3900))
	assert.Equal(t, "0h 25m", formatMinutes(1500))
}
