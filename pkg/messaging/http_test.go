package messaging

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPSenderPostsEmail(t *testing.T) {
	var received EmailMessage

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/email", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	sender := NewHTTPSender(Config{BaseURL: srv.URL, APIKey: "test-key"})

	err := sender.SendEmail(context.Background(), EmailMessage{
		To:      "jan@example.com",
		Subject: "Factuur INV-2026-001",
		Body:    "Zie bijlage",
	})

	require.NoError(t, err)
	assert.Equal(t, "jan@example.com", received.To)
	assert.Equal(t, "Factuur INV-2026-001", received.Subject)
}

func TestHTTPSenderSurfacesGatewayErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	sender := NewHTTPSender(Config{BaseURL: srv.URL})

	err := sender.SendWhatsApp(context.Background(), WhatsAppMessage{To: "+31612345678", Body: "hi"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}
