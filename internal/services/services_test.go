package services

import (
	"context"
	"io"
	"leadchat-backend/internal/llm"
	"leadchat-backend/internal/llm/llmtest"
	"leadchat-backend/internal/models"
	"leadchat-backend/internal/store/memory"
	"log/slog"
	"sync"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingNotifier counts notifications per email.
type recordingNotifier struct {
	mu    sync.Mutex
	leads []models.Lead
	err   error
}

func (r *recordingNotifier) Notify(ctx context.Context, lead *models.Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leads = append(r.leads, *lead)
	return r.err
}

func (r *recordingNotifier) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.leads)
}

type fixture struct {
	store    *memory.MemoryStore
	notifier *recordingNotifier
	bg       *Background
	leads    *LeadService
	model    *llmtest.Model
	chat     *ChatService
	extract  *LeadExtractor
}

func newFixture(t *testing.T, model *llmtest.Model) *fixture {
	t.Helper()
	logger := testLogger()
	f := &fixture{
		store:    memory.NewMemoryStore(),
		notifier: &recordingNotifier{},
		bg:       NewBackground(2, logger),
		model:    model,
	}
	f.leads = NewLeadService(f.store, f.notifier, f.bg, time.Second, logger)
	client := llm.NewClient(model, "test-model", llm.DefaultSettings)
	f.chat = NewChatService(client, "", 4, 5*time.Second, logger)
	f.extract = NewLeadExtractor(client, f.leads, logger)
	return f
}

// settle waits for background notifications.
func (f *fixture) settle(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := f.bg.Wait(ctx); err != nil {
		t.Fatalf("background tasks did not finish: %v", err)
	}
}
