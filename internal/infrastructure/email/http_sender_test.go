package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ties-together/marketplace-backend/internal/domain/port"
)

func TestHTTPSender_Send(t *testing.T) {
	var got sendRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := NewHTTPSender(srv.URL, "key-1", "TIES <no-reply@ties.test>", 50)
	err := s.Send(context.Background(), port.EmailMessage{
		To:       "talent@example.com",
		Subject:  "New booking request",
		Template: "booking_request",
		Data:     map[string]any{"name": "Sam"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Bearer key-1", auth)
	assert.Equal(t, "talent@example.com", got.To)
	assert.Equal(t, "booking_request", got.Template)
	assert.Equal(t, "Sam", got.Data["name"])
}

func TestHTTPSender_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":"upstream"}`))
	}))
	defer srv.Close()

	err := NewHTTPSender(srv.URL, "", "", 50).Send(context.Background(), port.EmailMessage{To: "a@b.c"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestHTTPSender_RequiresRecipient(t *testing.T) {
	err := NewHTTPSender("http://unused", "", "", 1).Send(context.Background(), port.EmailMessage{})
	assert.Error(t, err)
}

func TestNew_FallsBackToLog(t *testing.T) {
	m := New("", "", "", 0)
	_, ok := m.(LogSender)
	assert.True(t, ok)
	assert.NoError(t, m.Send(context.Background(), port.EmailMessage{To: "x@y.z"}))
}
