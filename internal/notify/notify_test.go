package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingNotifier captures sent notifications.
type recordingNotifier struct {
	sent []Notification
	err  error
}

func (r *recordingNotifier) Send(ctx context.Context, n Notification) error {
	r.sent = append(r.sent, n)
	return r.err
}

func TestMultiNotifierFansOut(t *testing.T) {
	a := &recordingNotifier{}
	b := &recordingNotifier{}
	m := NewMultiNotifier(LevelAll, a, b)

	err := m.Send(context.Background(), Notification{Type: NotificationInfo, Title: "hi"})
	require.NoError(t, err)

	require.Len(t, a.sent, 1)
	require.Len(t, b.sent, 1)
	assert.Equal(t, "hi", a.sent[0].Title)
	assert.False(t, a.sent[0].Timestamp.IsZero())
}

func TestMultiNotifierErrorsOnlyFilter(t *testing.T) {
	a := &recordingNotifier{}
	m := NewMultiNotifier(LevelErrorsOnly, a)

	require.NoError(t, m.Send(context.Background(), Notification{Type: NotificationInfo}))
	require.NoError(t, m.Send(context.Background(), Notification{Type: NotificationGeneration}))
	assert.Empty(t, a.sent)

	require.NoError(t, m.Send(context.Background(), Notification{Type: NotificationError}))
	assert.Len(t, a.sent, 1)
}

func TestMultiNotifierContinuesPastFailingChannel(t *testing.T) {
	boom := errors.New("boom")
	failing := &recordingNotifier{err: boom}
	ok := &recordingNotifier{}
	m := NewMultiNotifier(LevelAll, failing, ok)

	err := m.Send(context.Background(), Notification{Type: NotificationInfo})

	assert.ErrorIs(t, err, boom)
	assert.Len(t, ok.sent, 1, "later channels still receive the notification")
}

func TestMultiNotifierAddChannel(t *testing.T) {
	m := NewMultiNotifier(LevelAll)
	added := &recordingNotifier{}
	m.AddChannel(added)

	require.NoError(t, m.Send(context.Background(), Notification{Type: NotificationInfo}))
	assert.Len(t, added.sent, 1)
}

func TestTerminalNotifierOutput(t *testing.T) {
	var buf bytes.Buffer
	n := NewTerminalNotifierWithWriter(&buf, false)

	err := n.Send(context.Background(), Notification{
		Type:      NotificationGeneration,
		Title:     "Reflections generated",
		Message:   "2 weekly, 1 monthly",
		Timestamp: time.Date(2026, 8, 28, 9, 15, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, "[09:15:00] REFLECTIONS | Reflections generated | 2 weekly, 1 monthly\n", buf.String())
}

func TestTerminalNotifierBellOnError(t *testing.T) {
	var buf bytes.Buffer
	n := NewTerminalNotifierWithWriter(&buf, false)
	n.SetBellEnabled(true)

	require.NoError(t, n.Send(context.Background(), Notification{Type: NotificationError, Title: "x"}))
	assert.Contains(t, buf.String(), "\a")

	buf.Reset()
	n.SetBellEnabled(false)
	require.NoError(t, n.Send(context.Background(), Notification{Type: NotificationError, Title: "x"}))
	assert.NotContains(t, buf.String(), "\a")
}

func TestWebhookNotifierPostsJSON(t *testing.T) {
	var received map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL)
	err := n.Send(context.Background(), Notification{
		Type:    NotificationSummary,
		Title:   "Weekly summary",
		Message: "Net +$120",
	})
	require.NoError(t, err)

	assert.Equal(t, "summary", received["type"])
	assert.Equal(t, "Weekly summary", received["title"])
	assert.NotEmpty(t, received["timestamp"])
}

func TestWebhookNotifierStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL)
	err := n.Send(context.Background(), Notification{Type: NotificationInfo})
	assert.Error(t, err)
}

func TestNopNotifier(t *testing.T) {
	assert.NoError(t, NopNotifier{}.Send(context.Background(), Notification{Type: NotificationError}))
}
