package notify

import (
	"context"
	"errors"
	"io"
	"leadchat-backend/internal/models"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleLead() *models.Lead {
	phone := "305-555-0100"
	notes := "Restaurant owner looking for a new website"
	return &models.Lead{
		Email:     "carlos@example.com",
		Name:      "Carlos Diaz",
		Phone:     &phone,
		Interests: []string{"seo", "web"},
		Notes:     &notes,
	}
}

// MockNotifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, lead *models.Lead) error {
	args := m.Called(ctx, lead)
	return args.Error(0)
}

type fakeSender struct {
	sent []*gomail.Message
	err  error
}

func (f *fakeSender) DialAndSend(m ...*gomail.Message) error {
	f.sent = append(f.sent, m...)
	return f.err
}

type fakeSlack struct {
	channel string
	calls   int
	err     error
}

func (f *fakeSlack) PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error) {
	f.calls++
	f.channel = channelID
	return channelID, "1700000000.000100", f.err
}

func TestFormatLeadSummary(t *testing.T) {
	summary, err := FormatLeadSummary(sampleLead(), "https://admin.cloudmiami.com/leads")
	require.NoError(t, err)

	assert.Equal(t, "New lead: Carlos Diaz (carlos@example.com)", summary.Subject)
	assert.Contains(t, summary.Text, "Phone: 305-555-0100")
	assert.Contains(t, summary.Text, "Company: -")
	assert.Contains(t, summary.Text, "Interests: seo, web")
	assert.Contains(t, summary.Text, "Summary: Restaurant owner looking for a new website")
	assert.Contains(t, summary.Text, "View in dashboard: https://admin.cloudmiami.com/leads?email=carlos%40example.com")
	assert.Contains(t, summary.HTML, "<td>Carlos Diaz</td>")
}

func TestFormatLeadSummaryEscapesHTML(t *testing.T) {
	lead := sampleLead()
	lead.Name = "<script>alert(1)</script>"

	summary, err := FormatLeadSummary(lead, "")
	require.NoError(t, err)
	assert.NotContains(t, summary.HTML, "<script>")
	assert.NotContains(t, summary.Text, "View in dashboard")
}

func TestEmailNotifierSends(t *testing.T) {
	sender := &fakeSender{}
	n := NewEmailNotifierWithSender(EmailConfig{
		From: "bot@cloudmiami.com",
		To:   []string{"sales@cloudmiami.com"},
	}, sender)

	require.NoError(t, n.Notify(context.Background(), sampleLead()))
	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, []string{"sales@cloudmiami.com"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"carlos@example.com"}, msg.GetHeader("Reply-To"))
	assert.Equal(t, []string{"New lead: Carlos Diaz (carlos@example.com)"}, msg.GetHeader("Subject"))
}

func TestEmailNotifierWrapsSendError(t *testing.T) {
	n := NewEmailNotifierWithSender(EmailConfig{From: "bot@cloudmiami.com", To: []string{"sales@cloudmiami.com"}},
		&fakeSender{err: errors.New("connection refused")})

	err := n.Notify(context.Background(), sampleLead())
	assert.ErrorIs(t, err, ErrNotification)
}

func TestSlackNotifier(t *testing.T) {
	client := &fakeSlack{}
	n := NewSlackNotifierWithClient(client, "C123", "")
	require.NoError(t, n.Notify(context.Background(), sampleLead()))
	assert.Equal(t, 1, client.calls)
	assert.Equal(t, "C123", client.channel)

	client.err = errors.New("channel_not_found")
	assert.ErrorIs(t, n.Notify(context.Background(), sampleLead()), ErrNotification)
}

func TestMultiNotifierDeliversToEveryChannel(t *testing.T) {
	lead := sampleLead()
	failing := new(MockNotifier)
	failing.On("Notify", mock.Anything, lead).Return(errors.New("smtp down"))
	ok := new(MockNotifier)
	ok.On("Notify", mock.Anything, lead).Return(nil)

	n := NewMultiNotifier(failing, ok)
	err := n.Notify(context.Background(), lead)

	assert.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "smtp down"))
	failing.AssertNumberOfCalls(t, "Notify", 1)
	ok.AssertNumberOfCalls(t, "Notify", 1)
	assert.Equal(t, 2, n.Len())
}

func TestRetryNotifierRecovers(t *testing.T) {
	lead := sampleLead()
	next := new(MockNotifier)
	next.On("Notify", mock.Anything, lead).Return(errors.New("temporary")).Once()
	next.On("Notify", mock.Anything, lead).Return(nil).Once()

	r := NewRetryNotifier(next, 2, time.Millisecond, testLogger())
	require.NoError(t, r.Notify(context.Background(), lead))
	next.AssertNumberOfCalls(t, "Notify", 2)
}

func TestRetryNotifierGivesUp(t *testing.T) {
	lead := sampleLead()
	next := new(MockNotifier)
	next.On("Notify", mock.Anything, lead).Return(errors.New("permanent"))

	r := NewRetryNotifier(next, 2, time.Millisecond, testLogger())
	err := r.Notify(context.Background(), lead)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "giving up after 3 attempts")
	next.AssertNumberOfCalls(t, "Notify", 3)
}

func TestRetryNotifierStopsOnCancel(t *testing.T) {
	lead := sampleLead()
	next := new(MockNotifier)
	next.On("Notify", mock.Anything, lead).Return(errors.New("down"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRetryNotifier(next, 10, time.Hour, testLogger())
	assert.Error(t, r.Notify(ctx, lead))
}
