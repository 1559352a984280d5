// Package memory provides an in-process store.Store used by tests and by local
// development when no DATABASE_URL is configured.
package memory

import (
	"context"
	"leadchat-backend/internal/models"
	"leadchat-backend/internal/store"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Compile-time check to ensure MemoryStore implements store.Store
var _ store.Store = (*MemoryStore)(nil)

// MemoryStore keeps all rows in maps guarded by a single mutex, which serializes
// every upsert and gives the same per-email convergence as the SQL upsert.
type MemoryStore struct {
	mu            sync.Mutex
	leads         map[string]*models.Lead // keyed by normalized email
	meetings      []*models.Meeting
	conversations []*models.Conversation
	now           func() time.Time
	last          time.Time
	unavailable   bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		leads: make(map[string]*models.Lead),
		now:   time.Now,
	}
}

// SetUnavailable makes every subsequent call fail with store.ErrUnavailable.
func (s *MemoryStore) SetUnavailable(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unavailable = v
}

// SetClock overrides the time source.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.check(ctx)
}

// --- Lead Methods ---

func (s *MemoryStore) UpsertLead(ctx context.Context, arg store.UpsertLeadParams) (*store.UpsertLeadResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	now := s.tick()
	existing, ok := s.leads[arg.Email]
	if !ok {
		if arg.ID == uuid.Nil {
			arg.ID = uuid.New()
		}
		lead := store.NewLeadFromParams(arg, now)
		s.leads[arg.Email] = &lead
		return &store.UpsertLeadResult{Lead: copyLead(&lead), Created: true, Changed: true}, nil
	}

	merged, changed := store.MergeLead(*existing, arg, now)
	s.leads[arg.Email] = &merged
	return &store.UpsertLeadResult{Lead: copyLead(&merged), Changed: changed}, nil
}

func (s *MemoryStore) GetLeadByEmail(ctx context.Context, email string) (*models.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	lead, ok := s.leads[email]
	if !ok {
		return nil, store.ErrNotFound
	}
	return copyLead(lead), nil
}

func (s *MemoryStore) ListLeads(ctx context.Context, limit int) ([]models.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	leads := make([]models.Lead, 0, len(s.leads))
	for _, l := range s.leads {
		leads = append(leads, *copyLead(l))
	}
	sort.Slice(leads, func(i, j int) bool {
		if leads[i].UpdatedAt.Equal(leads[j].UpdatedAt) {
			return leads[i].Email < leads[j].Email
		}
		return leads[i].UpdatedAt.After(leads[j].UpdatedAt)
	})
	if limit > 0 && len(leads) > limit {
		leads = leads[:limit]
	}
	return leads, nil
}

// LeadCount reports the number of stored leads.
func (s *MemoryStore) LeadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.leads)
}

// --- Meeting Methods ---

func (s *MemoryStore) CreateMeeting(ctx context.Context, arg store.CreateMeetingParams) (*models.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	if arg.ExternalEventID != nil {
		for _, m := range s.meetings {
			if m.ExternalEventID != nil && *m.ExternalEventID == *arg.ExternalEventID {
				c := *m
				return &c, nil
			}
		}
	}

	now := s.tick()
	if arg.ID == uuid.Nil {
		arg.ID = uuid.New()
	}
	m := &models.Meeting{
		ID:              arg.ID,
		LeadID:          arg.LeadID,
		ExternalEventID: arg.ExternalEventID,
		ScheduledAt:     arg.ScheduledAt,
		Status:          arg.Status,
		MeetingURL:      arg.MeetingURL,
		Notes:           arg.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	s.meetings = append(s.meetings, m)
	c := *m
	return &c, nil
}

func (s *MemoryStore) ListMeetings(ctx context.Context, limit int) ([]models.Meeting, error) {
	return s.filterMeetings(ctx, limit, func(*models.Meeting) bool { return true })
}

func (s *MemoryStore) ListMeetingsByLead(ctx context.Context, leadID uuid.UUID) ([]models.Meeting, error) {
	return s.filterMeetings(ctx, 0, func(m *models.Meeting) bool {
		return m.LeadID != nil && *m.LeadID == leadID
	})
}

func (s *MemoryStore) filterMeetings(ctx context.Context, limit int, keep func(*models.Meeting) bool) ([]models.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	out := make([]models.Meeting, 0)
	for _, m := range s.meetings {
		if keep(m) {
			out = append(out, *m)
		}
	}
	// Same ordering as the SQL: scheduled_at ascending, unscheduled last.
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].ScheduledAt, out[j].ScheduledAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Before(*b)
		}
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- Conversation Methods ---

func (s *MemoryStore) AppendConversation(ctx context.Context, leadID uuid.UUID, messages []models.Message) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	now := s.tick()
	var latest *models.Conversation
	for _, c := range s.conversations {
		if c.LeadID == leadID {
			latest = c
		}
	}
	if latest == nil {
		latest = &models.Conversation{ID: uuid.New(), LeadID: leadID, CreatedAt: now}
		s.conversations = append(s.conversations, latest)
	}
	latest.Messages = append(latest.Messages, messages...)
	latest.UpdatedAt = now

	c := *latest
	c.Messages = append([]models.Message(nil), latest.Messages...)
	return &c, nil
}

func (s *MemoryStore) ListConversationsByLead(ctx context.Context, leadID uuid.UUID) ([]models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	out := make([]models.Conversation, 0)
	for _, c := range s.conversations {
		if c.LeadID == leadID {
			cp := *c
			cp.Messages = append([]models.Message(nil), c.Messages...)
			out = append(out, cp)
		}
	}
	return out, nil
}

// check must be called with mu held.
func (s *MemoryStore) check(ctx context.Context) error {
	if s.unavailable {
		return store.ErrUnavailable
	}
	return ctx.Err()
}

// tick returns a strictly increasing timestamp so updated_at always advances.
// Must be called with mu held.
func (s *MemoryStore) tick() time.Time {
	now := s.now()
	if !now.After(s.last) {
		now = s.last.Add(time.Microsecond)
	}
	s.last = now
	return now
}

func copyLead(l *models.Lead) *models.Lead {
	c := *l
	c.Interests = append([]string{}, l.Interests...)
	return &c
}
