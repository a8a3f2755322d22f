package services

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNtfyClientSend(t *testing.T) {
	var gotMethod, gotPath, gotTitle, gotPriority, gotTags, gotAuth, gotBody string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotTitle = r.Header.Get("Title")
		gotPriority = r.Header.Get("Priority")
		gotTags = r.Header.Get("Tags")
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewNtfyClient(srv.URL+"/", "reminders", "secret-token")
	err := client.Send(context.Background(), &Notification{
		Title:    "Task due soon",
		Message:  "\"pay rent\" is due at 18:00",
		Priority: "high",
		Tags:     []string{"alarm_clock"},
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/reminders", gotPath)
	assert.Equal(t, "Task due soon", gotTitle)
	assert.Equal(t, "high", gotPriority)
	assert.Equal(t, "alarm_clock", gotTags)
	assert.Equal(t, "Bearer secret-token", gotAuth)
	assert.Equal(t, "\"pay rent\" is due at 18:00", gotBody)
}

func TestNtfyClientOmitsEmptyHeaders(t *testing.T) {
	var hadTitle, hadPriority, hadTags, hadAuth bool

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hadTitle = r.Header["Title"]
		_, hadPriority = r.Header["Priority"]
		_, hadTags = r.Header["Tags"]
		_, hadAuth = r.Header["Authorization"]
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewNtfyClient(srv.URL, "reminders", "")
	err := client.Send(context.Background(), &Notification{Message: "bare message"})
	require.NoError(t, err)

	assert.False(t, hadTitle)
	assert.False(t, hadPriority)
	assert.False(t, hadTags)
	assert.False(t, hadAuth)
}

func TestNtfyClientServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("access denied"))
	}))
	defer srv.Close()

	client := NewNtfyClient(srv.URL, "reminders", "")
	err := client.Send(context.Background(), &Notification{Message: "nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, err.Error(), "access denied")
}

func TestNtfyClientUnreachableServer(t *testing.T) {
	client := NewNtfyClient("http://127.0.0.1:1", "reminders", "")
	err := client.Send(context.Background(), &Notification{Message: "nope"})
	require.Error(t, err)
}

func TestMockNotifierAlwaysSucceeds(t *testing.T) {
	notifier := NewMockNotifier()
	err := notifier.Send(context.Background(), &Notification{Title: "t", Message: "m"})
	assert.NoError(t, err)
}
