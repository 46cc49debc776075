package ntfy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jon4hz/lifetrack/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendSubmission(t *testing.T) {
	var (
		got  Message
		auth string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(&config.NtfyConfig{ServerURL: srv.URL, Topic: "mods", Token: "tk"})
	err := c.SendSubmission(context.Background(), "food", "Chicken", "alice", "http://localhost/admin")
	require.NoError(t, err)

	assert.Equal(t, "Bearer tk", auth)
	assert.Equal(t, "mods", got.Topic)
	assert.Equal(t, "New food submission", got.Title)
	assert.Contains(t, got.Message, "Chicken")
	assert.Contains(t, got.Message, "alice")
	assert.Equal(t, "http://localhost/admin", got.Click)
}

func TestSendMessage_BasicAuthAndErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "bob", user)
		assert.Equal(t, "secret", pass)
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("topic is reserved"))
	}))
	defer srv.Close()

	c := NewClient(&config.NtfyConfig{ServerURL: srv.URL, Topic: "mods", Username: "bob", Password: "secret"})
	err := c.SendMessage(context.Background(), Message{Title: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
	assert.Contains(t, err.Error(), "topic is reserved")
}

func TestSendSuspensionSweep_Empty(t *testing.T) {
	c := NewClient(&config.NtfyConfig{ServerURL: "http://127.0.0.1:0", Topic: "mods"})
	assert.NoError(t, c.SendSuspensionSweep(context.Background(), nil))
}
