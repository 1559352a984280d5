package store

import (
	"leadchat-backend/internal/models"
	"slices"
	"time"
)

// MergeLead applies the lead merge policy to a copy of existing and reports whether
// any field other than updated_at changed. Callers must hold the per-email
// serialization (a store mutex or a row lock) across read, merge and write.
func MergeLead(existing models.Lead, arg UpsertLeadParams, now time.Time) (models.Lead, bool) {
	merged := existing
	changed := false

	if arg.Name != nil && *arg.Name != "" && *arg.Name != models.UnknownLeadName && *arg.Name != existing.Name {
		merged.Name = *arg.Name
		changed = true
	}
	if replaceOptional(&merged.Phone, arg.Phone) {
		changed = true
	}
	if replaceOptional(&merged.Company, arg.Company) {
		changed = true
	}
	if replaceOptional(&merged.Website, arg.Website) {
		changed = true
	}
	if replaceOptional(&merged.Notes, arg.Notes) {
		changed = true
	}

	union := UnionInterests(existing.Interests, arg.Interests)
	if !slices.Equal(union, existing.Interests) {
		changed = true
	}
	merged.Interests = union
	merged.UpdatedAt = now

	return merged, changed
}

// NewLeadFromParams builds the row inserted when no lead exists for the email.
func NewLeadFromParams(arg UpsertLeadParams, now time.Time) models.Lead {
	name := models.UnknownLeadName
	if arg.Name != nil && *arg.Name != "" {
		name = *arg.Name
	}
	return models.Lead{
		ID:        arg.ID,
		Email:     arg.Email,
		Name:      name,
		Phone:     cloneString(arg.Phone),
		Company:   cloneString(arg.Company),
		Website:   cloneString(arg.Website),
		Interests: UnionInterests(nil, arg.Interests),
		Notes:     cloneString(arg.Notes),
		Source:    arg.Source,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// UnionInterests returns the sorted, deduplicated union of both sets. Never nil.
func UnionInterests(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	slices.Sort(out)
	return slices.Compact(out)
}

func replaceOptional(dst **string, candidate *string) bool {
	if candidate == nil || *candidate == "" {
		return false
	}
	if *dst != nil && **dst == *candidate {
		return false
	}
	*dst = cloneString(candidate)
	return true
}

func cloneString(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	return &v
}
