package memory

import (
	"context"
	"fmt"
	"leadchat-backend/internal/models"
	"leadchat-backend/internal/store"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestUpsertLeadIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	arg := store.UpsertLeadParams{
		Email:     "a@b.com",
		Name:      strPtr("Ana"),
		Phone:     strPtr("555-1111"),
		Interests: []string{"seo", "web"},
		Notes:     strPtr("Needs a redesign"),
		Source:    models.LeadSourceChatbot,
	}

	first, err := s.UpsertLead(ctx, arg)
	require.NoError(t, err)
	assert.True(t, first.Created)

	second, err := s.UpsertLead(ctx, arg)
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.False(t, second.Changed)

	assert.Equal(t, 1, s.LeadCount())
	assert.Equal(t, first.Lead.ID, second.Lead.ID)
	assert.Equal(t, first.Lead.Interests, second.Lead.Interests)
	assert.Equal(t, first.Lead.Name, second.Lead.Name)
	assert.Equal(t, first.Lead.CreatedAt, second.Lead.CreatedAt)
	assert.True(t, second.Lead.UpdatedAt.After(first.Lead.UpdatedAt))
}

func TestUpsertLeadMergesInterestsAndKeepsPhone(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.UpsertLead(ctx, store.UpsertLeadParams{
		Email:     "a@b.com",
		Phone:     strPtr("555-1111"),
		Interests: []string{"web"},
	})
	require.NoError(t, err)

	res, err := s.UpsertLead(ctx, store.UpsertLeadParams{
		Email:     "a@b.com",
		Interests: []string{"seo"},
	})
	require.NoError(t, err)

	assert.True(t, res.Changed)
	assert.ElementsMatch(t, []string{"web", "seo"}, res.Lead.Interests)
	require.NotNil(t, res.Lead.Phone)
	assert.Equal(t, "555-1111", *res.Lead.Phone)
	assert.Equal(t, models.UnknownLeadName, res.Lead.Name)
}

func TestUpsertLeadConcurrentSameEmail(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	interests := [][]string{{"web"}, {"seo"}, {"video"}, {"content"}, {"automation"}}
	var wg sync.WaitGroup
	for _, set := range interests {
		wg.Add(1)
		go func(set []string) {
			defer wg.Done()
			_, err := s.UpsertLead(ctx, store.UpsertLeadParams{Email: "x@y.com", Interests: set})
			assert.NoError(t, err)
		}(set)
	}
	wg.Wait()

	assert.Equal(t, 1, s.LeadCount())
	lead, err := s.GetLeadByEmail(ctx, "x@y.com")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"web", "seo", "video", "content", "automation"}, lead.Interests)
}

func TestReturnedLeadIsACopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	res, err := s.UpsertLead(ctx, store.UpsertLeadParams{Email: "a@b.com", Interests: []string{"web"}})
	require.NoError(t, err)

	res.Lead.Interests[0] = "tampered"

	lead, err := s.GetLeadByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"web"}, lead.Interests)
}

func TestListLeadsMostRecentFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	clock := base
	s.SetClock(func() time.Time { return clock })

	for i := 0; i < 3; i++ {
		clock = base.Add(time.Duration(i) * time.Minute)
		_, err := s.UpsertLead(ctx, store.UpsertLeadParams{Email: fmt.Sprintf("lead%d@example.com", i)})
		require.NoError(t, err)
	}
	// Touch the oldest one again.
	clock = base.Add(time.Hour)
	_, err := s.UpsertLead(ctx, store.UpsertLeadParams{Email: "lead0@example.com"})
	require.NoError(t, err)

	leads, err := s.ListLeads(ctx, 2)
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, "lead0@example.com", leads[0].Email)
	assert.Equal(t, "lead2@example.com", leads[1].Email)
}

func TestGetLeadByEmailNotFound(t *testing.T) {
	_, err := NewMemoryStore().GetLeadByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUnavailable(t *testing.T) {
	s := NewMemoryStore()
	s.SetUnavailable(true)

	_, err := s.UpsertLead(context.Background(), store.UpsertLeadParams{Email: "a@b.com"})
	assert.ErrorIs(t, err, store.ErrUnavailable)
	assert.ErrorIs(t, s.Ping(context.Background()), store.ErrUnavailable)
	assert.Equal(t, 0, s.LeadCount())
}

func TestCreateMeetingDeduplicatesExternalID(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	leadID := uuid.New()
	at := time.Date(2024, 6, 1, 15, 0, 0, 0, time.UTC)

	first, err := s.CreateMeeting(ctx, store.CreateMeetingParams{
		LeadID:          &leadID,
		ExternalEventID: strPtr("evt_1"),
		ScheduledAt:     &at,
		Status:          models.MeetingStatusConfirmed,
	})
	require.NoError(t, err)

	again, err := s.CreateMeeting(ctx, store.CreateMeetingParams{
		ExternalEventID: strPtr("evt_1"),
		Status:          models.MeetingStatusPending,
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, models.MeetingStatusConfirmed, again.Status)

	_, err = s.CreateMeeting(ctx, store.CreateMeetingParams{Status: models.MeetingStatusPending})
	require.NoError(t, err)

	all, err := s.ListMeetings(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, first.ID, all[0].ID, "scheduled meetings sort before unscheduled ones")

	byLead, err := s.ListMeetingsByLead(ctx, leadID)
	require.NoError(t, err)
	require.Len(t, byLead, 1)
	assert.Equal(t, first.ID, byLead[0].ID)
}

func TestAppendConversationAccumulates(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	leadID := uuid.New()

	_, err := s.AppendConversation(ctx, leadID, []models.Message{{Role: models.RoleUser, Content: "hi"}})
	require.NoError(t, err)
	conv, err := s.AppendConversation(ctx, leadID, []models.Message{{Role: models.RoleAssistant, Content: "hello"}})
	require.NoError(t, err)
	assert.Len(t, conv.Messages, 2)

	list, err := s.ListConversationsByLead(ctx, leadID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "hello", list[0].Messages[1].Content)
}
