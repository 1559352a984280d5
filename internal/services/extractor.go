package services

import (
	"context"
	"encoding/json"
	"fmt"
	"leadchat-backend/internal/llm"
	"leadchat-backend/internal/models"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

// ExtractionOutcome is the terminal state of one background extraction.
type ExtractionOutcome string

const (
	OutcomeSaved   ExtractionOutcome = "saved"
	OutcomeSkipped ExtractionOutcome = "skipped"
	OutcomeFailed  ExtractionOutcome = "failed"
)

const saveLeadTool = "save_lead"

// saveLeadSchema is the JSON schema of the save_lead arguments.
var saveLeadSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"email": map[string]any{
			"type":        "string",
			"description": "The visitor's email address exactly as they wrote it",
		},
		"name": map[string]any{
			"type":        "string",
			"description": "The visitor's full name",
		},
		"phone": map[string]any{
			"type":        "string",
			"description": "The visitor's phone number",
		},
		"company": map[string]any{
			"type":        "string",
			"description": "The visitor's company or organization",
		},
		"interests": map[string]any{
			"type":        "array",
			"description": "Services the visitor is interested in",
			"items": map[string]any{
				"type": "string",
				"enum": []string{"web", "seo", "video", "content", "automation"},
			},
		},
		"summary": map[string]any{
			"type":        "string",
			"description": "One or two sentences describing what the visitor needs",
		},
	},
	"required": []string{"email"},
}

// LeadExtractor turns a finished transcript into a lead write.
type LeadExtractor struct {
	llm    *llm.Client
	leads  *LeadService
	logger *slog.Logger
}

func NewLeadExtractor(client *llm.Client, leads *LeadService, logger *slog.Logger) *LeadExtractor {
	return &LeadExtractor{
		llm:    client,
		leads:  leads,
		logger: logger.With("component", "LeadExtractor"),
	}
}

// Extract asks the model for structured lead data. A nil result with a nil error
// means no qualifying contact information: the model declined, or its output
// lacked a valid email.
func (e *LeadExtractor) Extract(ctx context.Context, t *Transcript) (*models.ExtractionResult, error) {
	tool := llms.Tool{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name:        saveLeadTool,
			Description: "Save the visitor's contact details as a sales lead",
			Parameters:  saveLeadSchema,
		},
	}

	call, err := e.llm.CallTool(ctx, e.buildPrompt(t), tool)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamModel, err)
	}
	if call == nil {
		return nil, nil
	}

	var result models.ExtractionResult
	if err := json.Unmarshal([]byte(call.Arguments), &result); err != nil {
		e.logger.Warn("Discarding malformed save_lead arguments", "error", err)
		return nil, nil
	}
	if _, err := NormalizeEmail(result.Email); err != nil {
		e.logger.Debug("Discarding extraction without a valid email", "error", err)
		return nil, nil
	}
	return &result, nil
}

// Process runs extraction, the lead upsert and transcript persistence for one turn.
// A notification is dispatched by the lead service when the row is new or changed.
func (e *LeadExtractor) Process(ctx context.Context, t *Transcript) (ExtractionOutcome, error) {
	result, err := e.Extract(ctx, t)
	if err != nil {
		return OutcomeFailed, err
	}
	if result == nil {
		return OutcomeSkipped, nil
	}

	res, err := e.leads.UpsertLead(ctx, LeadCandidate{
		Email:     result.Email,
		Name:      result.Name,
		Phone:     result.Phone,
		Company:   result.Company,
		Interests: result.Interests,
		Notes:     result.Summary,
		Source:    models.LeadSourceChatbot,
	})
	if err != nil {
		return OutcomeFailed, err
	}

	if err := e.leads.RecordTranscript(ctx, res.Lead, t.Messages()); err != nil {
		// The lead itself is captured; a missing transcript is only logged.
		e.logger.Warn("Transcript not recorded", "email", res.Lead.Email, "error", err)
	}
	return OutcomeSaved, nil
}

func (e *LeadExtractor) buildPrompt(t *Transcript) []models.Message {
	var b strings.Builder
	if t.LeadEmail != "" {
		fmt.Fprintf(&b, "The website already knows this visitor's email: %s\n\n", t.LeadEmail)
	}
	b.WriteString("Transcript:\n")
	for _, m := range t.Messages() {
		role := "Visitor"
		if m.Role == models.RoleAssistant {
			role = "Assistant"
		}
		fmt.Fprintf(&b, "%s: %s\n", role, m.Content)
	}

	return []models.Message{
		{Role: models.RoleSystem, Content: extractionPrompt},
		{Role: models.RoleUser, Content: b.String()},
	}
}
