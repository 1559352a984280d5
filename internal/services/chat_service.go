package services

import (
	"context"
	"errors"
	"fmt"
	"leadchat-backend/internal/llm"
	"leadchat-backend/internal/models"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"
)

// Custom errors for chat service
var (
	ErrUpstreamModel = errors.New("language model request failed")
	ErrChatDisabled  = errors.New("chat model is not configured")
)

// MaxMessageLength bounds a single user message, in characters.
const MaxMessageLength = 4000

// Transcript is one finished turn plus the history it was generated from.
type Transcript struct {
	History   []models.Message // Bounded history that was sent, oldest first
	Message   string           // The new user message
	Reply     string           // Assistant text; partial when the turn failed
	LeadEmail string           // Optional email the client already knows
	At        time.Time
}

// Messages returns the turn as an ordered message list: history, user message, reply.
func (t *Transcript) Messages() []models.Message {
	out := make([]models.Message, 0, len(t.History)+2)
	out = append(out, t.History...)
	out = append(out, models.Message{Role: models.RoleUser, Content: t.Message, Timestamp: t.At})
	if t.Reply != "" {
		out = append(out, models.Message{Role: models.RoleAssistant, Content: t.Reply, Timestamp: t.At})
	}
	return out
}

// ChatService drives a conversational turn against the model.
type ChatService struct {
	llm          *llm.Client
	systemPrompt string
	historyLimit int
	timeout      time.Duration
	logger       *slog.Logger
}

// NewChatService creates a ChatService. A nil client disables chat.
func NewChatService(client *llm.Client, systemPrompt string, historyLimit int, timeout time.Duration, logger *slog.Logger) *ChatService {
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	return &ChatService{
		llm:          client,
		systemPrompt: systemPrompt,
		historyLimit: historyLimit,
		timeout:      timeout,
		logger:       logger.With("component", "ChatService"),
	}
}

// Enabled reports whether a model is configured.
func (s *ChatService) Enabled() bool {
	return s.llm != nil
}

// ModelName returns the configured model, or "" when disabled.
func (s *ChatService) ModelName() string {
	if s.llm == nil {
		return ""
	}
	return s.llm.Model()
}

// ValidateMessage trims the message and rejects empty or oversized input.
func ValidateMessage(message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", fmt.Errorf("%w: message is required", ErrValidation)
	}
	if utf8.RuneCountInString(message) > MaxMessageLength {
		return "", fmt.Errorf("%w: message exceeds %d characters", ErrValidation, MaxMessageLength)
	}
	return message, nil
}

// BoundHistory keeps the last limit user/assistant turns with content.
// Client-supplied system turns are dropped so the persona cannot be overridden.
func BoundHistory(history []models.Message, limit int) []models.Message {
	kept := make([]models.Message, 0, len(history))
	for _, m := range history {
		if m.Role != models.RoleUser && m.Role != models.RoleAssistant {
			continue
		}
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		kept = append(kept, models.Message{Role: m.Role, Content: m.Content, Timestamp: m.Timestamp})
	}
	if limit > 0 && len(kept) > limit {
		kept = kept[len(kept)-limit:]
	}
	return kept
}

// PrepareHistory applies BoundHistory with the configured limit.
func (s *ChatService) PrepareHistory(history []models.Message) []models.Message {
	return BoundHistory(history, s.historyLimit)
}

// BuildPrompt returns [system] ++ history ++ [user message].
func (s *ChatService) BuildPrompt(history []models.Message, message string) []models.Message {
	prompt := make([]models.Message, 0, len(history)+2)
	prompt = append(prompt, models.Message{Role: models.RoleSystem, Content: s.systemPrompt})
	prompt = append(prompt, history...)
	prompt = append(prompt, models.Message{Role: models.RoleUser, Content: message})
	return prompt
}

// StreamTurn relays model output fragments to onFragment as they arrive and returns
// the finished transcript. History is used as given. On failure the returned transcript
// carries whatever text was already relayed and the error wraps ErrUpstreamModel.
func (s *ChatService) StreamTurn(ctx context.Context, history []models.Message, message string, onFragment func(string) error) (*Transcript, error) {
	if s.llm == nil {
		return nil, ErrChatDisabled
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	t := &Transcript{History: history, Message: message, At: start.UTC()}
	reply, err := s.llm.StreamChat(ctx, s.BuildPrompt(history, message), onFragment)
	t.Reply = reply
	if err != nil {
		s.logger.Warn("Streaming turn failed", "relayed_bytes", len(reply), "elapsed", time.Since(start), "error", err)
		return t, fmt.Errorf("%w: %v", ErrUpstreamModel, err)
	}

	s.logger.Debug("Streaming turn complete", "reply_bytes", len(reply), "elapsed", time.Since(start))
	return t, nil
}

// CompleteTurn is the buffered variant of StreamTurn.
func (s *ChatService) CompleteTurn(ctx context.Context, history []models.Message, message string) (*Transcript, error) {
	if s.llm == nil {
		return nil, ErrChatDisabled
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	t := &Transcript{History: history, Message: message, At: time.Now().UTC()}
	reply, err := s.llm.Complete(ctx, s.BuildPrompt(history, message))
	if err != nil {
		s.logger.Warn("Completion turn failed", "error", err)
		return t, fmt.Errorf("%w: %v", ErrUpstreamModel, err)
	}
	t.Reply = reply
	return t, nil
}

// withTimeout bounds a model call; a zero timeout leaves ctx unbounded.
func (s *ChatService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}
