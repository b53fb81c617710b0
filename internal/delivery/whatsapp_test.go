package delivery

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestWhatsAppGatewaySendSuccess(t *testing.T) {
	var captured whatsappSendRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"messages": []map[string]string{{"id": "wamid.123"}},
		})
	}))
	defer server.Close()

	g := NewWhatsAppGateway(server.URL, "test-token", 5*time.Second, testLogger())
	outcome := g.Send(context.Background(), Message{
		PhoneLocal:   "79123456",
		CouponCode:   "CPN-ABC123",
		CustomerName: "Ahmed",
		Branch:       "Muscat",
	})

	assert.True(t, outcome.Success)
	assert.Equal(t, "wamid.123", outcome.MessageID)
	assert.Empty(t, outcome.Error)
	assert.Equal(t, "96879123456", captured.To)
	assert.Contains(t, captured.Text.Body, "CPN-ABC123")
	assert.Contains(t, captured.Text.Body, "Ahmed")
}

func TestWhatsAppGatewayProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	g := NewWhatsAppGateway(server.URL, "test-token", 5*time.Second, testLogger())
	outcome := g.Send(context.Background(), Message{PhoneLocal: "79123456", CouponCode: "X"})

	assert.False(t, outcome.Success)
	assert.NotEmpty(t, outcome.Error)
}

func TestWhatsAppGatewayUnreachableProvider(t *testing.T) {
	g := NewWhatsAppGateway("http://127.0.0.1:1", "test-token", time.Second, testLogger())
	outcome := g.Send(context.Background(), Message{PhoneLocal: "79123456", CouponCode: "X"})

	assert.False(t, outcome.Success)
	assert.NotEmpty(t, outcome.Error)
}
