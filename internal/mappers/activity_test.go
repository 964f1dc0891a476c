package mappers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/shreyas/kumbhmela-leads/internal/models"
)

func TestActivityFromRowDefaults(t *testing.T) {
	a := ActivityFromRow(models.ActivityRow{ID: "a1", LeadID: "l1", Type: models.ActivityNote})
	assert.Equal(t, "", a.Outcome)
	assert.Equal(t, "", a.Update)
	assert.NotNil(t, a.HiddenFor)
	assert.Equal(t, 0, a.Duration)
}

func TestActivityCallTypeOnlyForCalls(t *testing.T) {
	incoming := models.CallIncoming

	call := ActivityFromRow(models.ActivityRow{Type: models.ActivityCall, CallType: &incoming})
	assert.Equal(t, models.CallIncoming, call.CallType)

	meeting := ActivityFromRow(models.ActivityRow{Type: models.ActivityMeeting, CallType: &incoming})
	assert.Equal(t, "", meeting.CallType)

	row := ActivityToRow(models.Activity{Type: models.ActivityEmail, CallType: models.CallOutgoing})
	assert.Nil(t, row.CallType)

	row = ActivityToRow(models.Activity{Type: models.ActivityCall, CallType: models.CallOutgoing})
	if assert.NotNil(t, row.CallType) {
		assert.Equal(t, models.CallOutgoing, *row.CallType)
	}
}

func TestActivityDuration(t *testing.T) {
	start := time.Date(2025, 1, 14, 10, 0, 0, 0, time.UTC)
	end := start.Add(45*time.Minute + 30*time.Second)
	before := start.Add(-time.Hour)

	assert.Equal(t, 45, DurationMinutes(&start, &end))
	assert.Equal(t, 0, DurationMinutes(&start, &before))
	assert.Equal(t, 0, DurationMinutes(nil, &end))

	row := ActivityToRow(models.Activity{Type: models.ActivityMeeting, StartTime: &start, EndTime: &end, Duration: 999})
	if assert.NotNil(t, row.Duration) {
		assert.Equal(t, 45, *row.Duration)
	}

	a := ActivityFromRow(models.ActivityRow{Type: models.ActivityMeeting, StartTime: &start, EndTime: &end})
	assert.Equal(t, 45, a.Duration)

	negative := -5
	a = ActivityFromRow(models.ActivityRow{Type: models.ActivityMeeting, Duration: &negative})
	assert.Equal(t, 0, a.Duration)
}
