package handlers

import (
	"errors"
	"io"
	"leadchat-backend/internal/metrics"
	"leadchat-backend/internal/models"
	"leadchat-backend/internal/services"
	"leadchat-backend/pkg/httputil"
	"log/slog"
	"net/http"
	"strings"
)

// chatFailureMessage is the only error text a chat client ever sees for upstream failures.
const chatFailureMessage = "Failed to generate response"

// TurnDispatcher receives finished turns for background processing.
type TurnDispatcher interface {
	Dispatch(t *services.Transcript)
}

// ChatHandlers serves the chat endpoints.
type ChatHandlers struct {
	chatService *services.ChatService
	pipeline    TurnDispatcher
	logger      *slog.Logger
}

// NewChatHandlers creates a new ChatHandlers instance.
func NewChatHandlers(chatService *services.ChatService, pipeline TurnDispatcher, logger *slog.Logger) *ChatHandlers {
	return &ChatHandlers{
		chatService: chatService,
		pipeline:    pipeline,
		logger:      logger.With("component", "ChatHandlers"),
	}
}

// decodeChatRequest validates the body; on failure it has already responded.
func (h *ChatHandlers) decodeChatRequest(w http.ResponseWriter, r *http.Request) (*models.ChatRequest, string, bool) {
	var req models.ChatRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return nil, "", false
	}
	message, err := services.ValidateMessage(req.Message)
	if err != nil {
		if strings.TrimSpace(req.Message) == "" {
			httputil.RespondError(w, http.StatusBadRequest, "Message is required")
		} else {
			httputil.RespondError(w, http.StatusBadRequest, "Message is too long")
		}
		return nil, "", false
	}
	if !h.chatService.Enabled() {
		httputil.RespondError(w, http.StatusServiceUnavailable, "Chat is not available")
		return nil, "", false
	}
	return &req, message, true
}

// HandleChatStream handles POST /api/chat/stream.
//
// The reply is streamed as raw text/plain fragments, flushed as the model emits them.
// A failure before the first fragment becomes a 500; after that the status is already
// sent, so the body simply ends. Lead extraction for the turn is dispatched after the
// body is closed and never delays or alters the response.
func (h *ChatHandlers) HandleChatStream(w http.ResponseWriter, r *http.Request) {
	req, message, ok := h.decodeChatRequest(w, r)
	if !ok {
		return
	}

	rc := http.NewResponseController(w)
	started := false
	startBody := func() {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)
		started = true
	}

	onFragment := func(fragment string) error {
		if !started {
			startBody()
		}
		if _, err := io.WriteString(w, fragment); err != nil {
			return err
		}
		if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
			return err
		}
		return nil
	}

	history := h.chatService.PrepareHistory(req.History)
	transcript, err := h.chatService.StreamTurn(r.Context(), history, message, onFragment)
	if err != nil {
		switch {
		case r.Context().Err() != nil:
			h.logger.Info("Client disconnected mid-stream", "relayed", started)
			metrics.RecordChatStream("disconnected")
		case !started:
			h.logger.Error("Chat stream failed before first fragment", "error", err)
			metrics.RecordChatStream("failed")
			respondServiceError(w, err, chatFailureMessage)
			return
		default:
			h.logger.Error("Chat stream aborted after partial reply", "error", err)
			metrics.RecordChatStream("aborted")
		}
		// Extraction still sees whatever was exchanged.
		if started {
			transcript.LeadEmail = req.LeadEmail
			h.pipeline.Dispatch(transcript)
		}
		return
	}

	if !started {
		startBody() // Empty reply: still a well-formed, closed 200 body
	}
	metrics.RecordChatStream("completed")

	transcript.LeadEmail = req.LeadEmail
	h.pipeline.Dispatch(transcript)
}

// HandleChatComplete handles POST /api/chat/complete, the buffered variant.
func (h *ChatHandlers) HandleChatComplete(w http.ResponseWriter, r *http.Request) {
	req, message, ok := h.decodeChatRequest(w, r)
	if !ok {
		return
	}

	history := h.chatService.PrepareHistory(req.History)
	transcript, err := h.chatService.CompleteTurn(r.Context(), history, message)
	if err != nil {
		h.logger.Error("Chat completion failed", "error", err)
		metrics.RecordChatStream("failed")
		respondServiceError(w, err, chatFailureMessage)
		return
	}

	metrics.RecordChatStream("completed")
	httputil.RespondJSON(w, http.StatusOK, models.CompleteResponse{Response: transcript.Reply})

	transcript.LeadEmail = req.LeadEmail
	h.pipeline.Dispatch(transcript)
}
