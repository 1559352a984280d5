package services

import (
	"context"
	"errors"
	"fmt"
	"leadchat-backend/internal/metrics"
	"leadchat-backend/internal/models"
	"leadchat-backend/internal/notify"
	"leadchat-backend/internal/store"
	"log/slog"
	"net/mail"
	"strings"
	"time"
)

// Custom errors for lead service
var (
	ErrValidation       = errors.New("input validation failed")
	ErrLeadNotFound     = errors.New("lead not found")
	ErrStoreUnavailable = errors.New("lead store unavailable")
	ErrStoreWrite       = errors.New("failed to write lead")
)

const (
	DefaultLeadListLimit = 50
	MaxLeadListLimit     = 200
)

// LeadCandidate holds raw, un-normalized lead fields from a form or an extraction.
type LeadCandidate struct {
	Email     string
	Name      string
	Phone     string
	Company   string
	Website   string
	Interests []string
	Notes     string
	Source    string
}

// LeadService owns lead normalization, the merge-upsert and notification dispatch.
type LeadService struct {
	store         store.Store
	notifier      notify.Notifier
	bg            *Background
	notifyTimeout time.Duration
	logger        *slog.Logger
}

func NewLeadService(s store.Store, notifier notify.Notifier, bg *Background, notifyTimeout time.Duration, logger *slog.Logger) *LeadService {
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	return &LeadService{
		store:         s,
		notifier:      notifier,
		bg:            bg,
		notifyTimeout: notifyTimeout,
		logger:        logger.With("component", "LeadService"),
	}
}

// UpsertLead validates and merges the candidate into the lead table. When the write
// created a row or changed one, a notification is dispatched in the background;
// its outcome never affects the result.
func (s *LeadService) UpsertLead(ctx context.Context, c LeadCandidate) (*store.UpsertLeadResult, error) {
	params, err := NormalizeLead(c)
	if err != nil {
		return nil, err
	}

	res, err := s.store.UpsertLead(ctx, params)
	if err != nil {
		s.logger.Error("Lead upsert failed", "email", params.Email, "error", err)
		return nil, mapStoreError(err, ErrStoreWrite)
	}

	switch {
	case res.Created:
		metrics.RecordLeadUpsert("created")
	case res.Changed:
		metrics.RecordLeadUpsert("updated")
	default:
		metrics.RecordLeadUpsert("unchanged")
	}
	s.logger.Info("Lead upserted", "email", res.Lead.Email, "lead_id", res.Lead.ID, "created", res.Created, "changed", res.Changed)

	if res.Created || res.Changed {
		s.dispatchNotification(res.Lead)
	}
	return res, nil
}

func (s *LeadService) dispatchNotification(lead *models.Lead) {
	snapshot := *lead
	s.bg.Go("notify-lead", s.notifyTimeout, func(ctx context.Context) error {
		if err := s.notifier.Notify(ctx, &snapshot); err != nil {
			metrics.RecordNotification("failed")
			return err
		}
		metrics.RecordNotification("sent")
		s.logger.Debug("Lead notification sent", "email", snapshot.Email)
		return nil
	})
}

// GetLeadByEmail returns the lead for an email in any case/whitespace form.
func (s *LeadService) GetLeadByEmail(ctx context.Context, email string) (*models.Lead, error) {
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	lead, err := s.store.GetLeadByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrLeadNotFound
		}
		return nil, mapStoreError(err, nil)
	}
	return lead, nil
}

// ListLeads returns the most recently updated leads first.
// A non-positive limit means the default; larger limits are capped.
func (s *LeadService) ListLeads(ctx context.Context, limit int) ([]models.Lead, error) {
	if limit <= 0 {
		limit = DefaultLeadListLimit
	}
	if limit > MaxLeadListLimit {
		limit = MaxLeadListLimit
	}
	leads, err := s.store.ListLeads(ctx, limit)
	if err != nil {
		s.logger.Error("Listing leads failed", "error", err)
		return nil, mapStoreError(err, nil)
	}
	return leads, nil
}

// ListConversations returns the stored transcripts for a lead.
func (s *LeadService) ListConversations(ctx context.Context, email string) ([]models.Conversation, error) {
	lead, err := s.GetLeadByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	conversations, err := s.store.ListConversationsByLead(ctx, lead.ID)
	if err != nil {
		return nil, mapStoreError(err, nil)
	}
	return conversations, nil
}

// RecordTranscript appends a finished turn to the lead's stored conversation.
func (s *LeadService) RecordTranscript(ctx context.Context, lead *models.Lead, messages []models.Message) error {
	if _, err := s.store.AppendConversation(ctx, lead.ID, messages); err != nil {
		return fmt.Errorf("append conversation for lead %s: %w", lead.ID, mapStoreError(err, ErrStoreWrite))
	}
	return nil
}

// mapStoreError maps connectivity failures to ErrStoreUnavailable and wraps everything
// else in fallback. A nil fallback returns other errors unchanged.
func mapStoreError(err, fallback error) error {
	if errors.Is(err, store.ErrUnavailable) {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if fallback == nil {
		return err
	}
	return fmt.Errorf("%w: %v", fallback, err)
}

// --- Normalization ---

// NormalizeEmail trims, lower-cases and validates an email address.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", fmt.Errorf("%w: email is required", ErrValidation)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: invalid email address", ErrValidation)
	}
	return email, nil
}

// NormalizeInterests lower-cases, trims, deduplicates and sorts interest tags.
func NormalizeInterests(interests []string) []string {
	cleaned := make([]string, 0, len(interests))
	for _, i := range interests {
		i = strings.ToLower(strings.TrimSpace(i))
		if i != "" {
			cleaned = append(cleaned, i)
		}
	}
	return store.UnionInterests(nil, cleaned)
}

// NormalizeLead turns a raw candidate into store parameters.
// Empty strings and the "Unknown" placeholder become absent values.
func NormalizeLead(c LeadCandidate) (store.UpsertLeadParams, error) {
	email, err := NormalizeEmail(c.Email)
	if err != nil {
		return store.UpsertLeadParams{}, err
	}

	name := strings.TrimSpace(c.Name)
	if strings.EqualFold(name, models.UnknownLeadName) {
		name = ""
	}
	source := strings.ToLower(strings.TrimSpace(c.Source))
	if source == "" {
		source = models.LeadSourceChatbot
	}

	return store.UpsertLeadParams{
		Email:     email,
		Name:      optional(name),
		Phone:     optional(c.Phone),
		Company:   optional(c.Company),
		Website:   optional(c.Website),
		Interests: NormalizeInterests(c.Interests),
		Notes:     optional(c.Notes),
		Source:    source,
	}, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
