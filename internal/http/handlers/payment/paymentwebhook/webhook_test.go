package paymentwebhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/greenbarter/plantswap/internal/paymentprovider"
)

const testSecret = "whsec_test_secret"

// MockService реализует интерфейс paymentwebhook.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) ProcessWebhookEvent(ctx context.Context, event *paymentprovider.WebhookEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// signBody строит заголовок подписи для заданного тела и момента времени.
func signBody(body []byte, ts int64, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte("."))
	mac.Write(body)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func TestPaymentWebhookHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	validBody := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"cs_1","mode":"payment"}}}`)

	tests := []struct {
		name           string
		body           []byte
		signature      func(body []byte) string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "событие с корректной подписью обработано",
			body: validBody,
			signature: func(body []byte) string {
				return signBody(body, time.Now().Unix(), testSecret)
			},
			setupMock: func(m *MockService) {
				m.On("ProcessWebhookEvent", mock.Anything, mock.MatchedBy(func(e *paymentprovider.WebhookEvent) bool {
					return e.ID == "evt_1" && e.Type == "checkout.session.completed"
				})).Return(nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"event_id":"evt_1"`,
		},
		{
			name: "подпись с чужим секретом",
			body: validBody,
			signature: func(body []byte) string {
				return signBody(body, time.Now().Unix(), "whsec_wrong_secret")
			},
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"invalid webhook signature"}`,
		},
		{
			name: "устаревшая метка времени",
			body: validBody,
			signature: func(body []byte) string {
				return signBody(body, time.Now().Add(-10*time.Minute).Unix(), testSecret)
			},
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"invalid webhook signature"}`,
		},
		{
			name: "отсутствует заголовок подписи",
			body: validBody,
			signature: func(_ []byte) string {
				return ""
			},
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"invalid webhook signature"}`,
		},
		{
			name: "подписанное тело не является JSON",
			body: []byte("not a json"),
			signature: func(body []byte) string {
				return signBody(body, time.Now().Unix(), testSecret)
			},
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"invalid webhook payload"}`,
		},
		{
			name: "ошибка обработки возвращает 500 для повторной доставки",
			body: validBody,
			signature: func(body []byte) string {
				return signBody(body, time.Now().Unix(), testSecret)
			},
			setupMock: func(m *MockService) {
				m.On("ProcessWebhookEvent", mock.Anything, mock.AnythingOfType("*paymentprovider.WebhookEvent")).
					Return(errors.New("db error"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"status":"Error","error":"failed to process event"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService, testSecret)

			req := httptest.NewRequest(http.MethodPost, "/payments/webhook", bytes.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			if sig := tt.signature(tt.body); sig != "" {
				req.Header.Set("Webhook-Signature", sig)
			}
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "req-id"))

			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)

			mockService.AssertExpectations(t)
		})
	}
}
