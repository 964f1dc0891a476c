package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shreyas/kumbhmela-leads/internal/filters"
	"github.com/shreyas/kumbhmela-leads/internal/models"
	"github.com/shreyas/kumbhmela-leads/internal/repositories"
)

func TestFollowUpUpdatesLead(t *testing.T) {
	f := newLeadFixture(nil)
	ctx := context.Background()
	lead, err := f.svc.Create(ctx, rep, validLead("Ganga Hotels"))
	require.NoError(t, err)

	next := testNow.Add(48 * time.Hour)
	act, err := f.acts.Create(ctx, rep, models.Activity{
		LeadID:         lead.ID,
		Type:           models.ActivityFollowUp,
		Outcome:        "interested",
		NextAction:     "send quotation",
		NextActionDate: &next,
	})
	require.NoError(t, err)
	assert.Equal(t, rep.UserID, act.CreatedBy)

	got, err := f.svc.Get(ctx, lead.ID, rep.UserID)
	require.NoError(t, err)
	require.NotNil(t, got.NextFollowUp)
	assert.True(t, next.Equal(*got.NextFollowUp))
	assert.Equal(t, "interested", got.FollowUpOutcome)
	assert.Equal(t, "send quotation", got.NextAction)
	assert.Len(t, got.Activities, 1)
	assert.Equal(t, 1, f.notifier.count(models.ChangeUpdate, models.TableLeads))
}

func TestCallDoesNotTouchLead(t *testing.T) {
	f := newLeadFixture(nil)
	ctx := context.Background()
	lead, err := f.svc.Create(ctx, rep, validLead("Ganga Hotels"))
	require.NoError(t, err)

	start := testNow
	end := testNow.Add(25 * time.Minute)
	act, err := f.acts.Create(ctx, rep, models.Activity{
		LeadID: lead.ID, Type: models.ActivityCall, CallType: models.CallOutgoing,
		StartTime: &start, EndTime: &end, Outcome: "busy",
	})
	require.NoError(t, err)
	assert.Equal(t, 25, act.Duration)

	got, err := f.svc.Get(ctx, lead.ID, rep.UserID)
	require.NoError(t, err)
	assert.Nil(t, got.NextFollowUp)
	assert.Equal(t, "", got.FollowUpOutcome)
}

func TestActivityValidation(t *testing.T) {
	f := newLeadFixture(nil)
	ctx := context.Background()

	_, err := f.acts.Create(ctx, rep, models.Activity{LeadID: "x", Type: "fax"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.acts.Create(ctx, rep, models.Activity{LeadID: "x", Type: models.ActivityCall, CallType: "sideways"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	start := testNow
	end := testNow.Add(-time.Minute)
	_, err = f.acts.Create(ctx, rep, models.Activity{LeadID: "x", Type: models.ActivityMeeting, StartTime: &start, EndTime: &end})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.acts.Create(ctx, rep, models.Activity{LeadID: "missing", Type: models.ActivityNote})
	assert.ErrorIs(t, err, repositories.ErrLeadNotFound)
}

func TestHideIsPerViewer(t *testing.T) {
	f := newLeadFixture(nil)
	ctx := context.Background()
	lead, err := f.svc.Create(ctx, rep, validLead("Ganga Hotels"))
	require.NoError(t, err)
	act, err := f.acts.Create(ctx, rep, models.Activity{LeadID: lead.ID, Type: models.ActivityNote, Notes: "left brochure"})
	require.NoError(t, err)

	_, err = f.acts.Hide(ctx, rep, act.ID)
	require.NoError(t, err)

	mine, err := f.acts.List(ctx, filters.ActivityFilter{LeadID: lead.ID, ViewerID: rep.UserID})
	require.NoError(t, err)
	assert.Empty(t, mine)

	theirs, err := f.acts.List(ctx, filters.ActivityFilter{LeadID: lead.ID, ViewerID: "manager-1"})
	require.NoError(t, err)
	assert.Len(t, theirs, 1)

	_, err = f.acts.Unhide(ctx, rep, act.ID)
	require.NoError(t, err)
	mine, err = f.acts.List(ctx, filters.ActivityFilter{LeadID: lead.ID, ViewerID: rep.UserID})
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestSetUpdateText(t *testing.T) {
	f := newLeadFixture(nil)
	ctx := context.Background()
	lead, err := f.svc.Create(ctx, rep, validLead("Ganga Hotels"))
	require.NoError(t, err)
	act, err := f.acts.Create(ctx, rep, models.Activity{LeadID: lead.ID, Type: models.ActivityMeeting})
	require.NoError(t, err)

	updated, err := f.acts.SetUpdate(ctx, rep, act.ID, "  client asked for revised rates ")
	require.NoError(t, err)
	assert.Equal(t, "client asked for revised rates", updated.Update)
	assert.Equal(t, models.ActivityMeeting, updated.Type)
}

func TestActivityDateWindowReachesPastFeedLimit(t *testing.T) {
	f := newLeadFixture(nil)
	ctx := context.Background()

	old := testNow.AddDate(0, 0, -10)
	for i := 0; i < recentActivityLimit+100; i++ {
		f.activities.rows = append(f.activities.rows, models.ActivityRow{
			ID: fmt.Sprintf("old-%d", i), LeadID: "l1", Type: models.ActivityCall, CreatedAt: old,
		})
	}
	yesterday := testNow.AddDate(0, 0, -1)
	f.activities.rows = append(f.activities.rows, models.ActivityRow{
		ID: "recent", LeadID: "l1", Type: models.ActivityMeeting, CreatedAt: old, StartTime: &yesterday,
	})

	feed, err := f.acts.List(ctx, filters.ActivityFilter{})
	require.NoError(t, err)
	assert.Len(t, feed, recentActivityLimit)

	got, err := f.acts.List(ctx, filters.ActivityFilter{Date: filters.DateFilter{Bucket: filters.BucketYesterday}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "recent", got[0].ID)
	assert.Equal(t, 1, f.activities.windowed)
}
