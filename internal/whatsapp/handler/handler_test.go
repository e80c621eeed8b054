package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"shelfscan_backend/internal/whatsapp/repository"
	"shelfscan_backend/platform/logger"
)

type stubDirectory struct {
	store Store
	found bool
	err   error
}

func (s *stubDirectory) FindByPhone(ctx context.Context, phoneNumber string) (Store, bool, error) {
	return s.store, s.found, s.err
}

type stubIngestor struct {
	calls []string
	err   error
}

func (s *stubIngestor) EnqueueIngest(ctx context.Context, storeID uuid.UUID, phoneNumber, mediaURL, mediaType string) error {
	s.calls = append(s.calls, mediaURL)
	return s.err
}

type stubMessageLog struct {
	logged []repository.Message
}

func (s *stubMessageLog) Log(ctx context.Context, msg repository.Message) (uuid.UUID, error) {
	s.logged = append(s.logged, msg)
	return uuid.New(), nil
}

func postWebhook(t *testing.T, h *Handler, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/webhook/whatsapp", h.Webhook)

	req := httptest.NewRequest(http.MethodPost, "/webhook/whatsapp", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestWebhookGreeting(t *testing.T) {
	msgLog := &stubMessageLog{}
	ingestor := &stubIngestor{}
	h := New(&stubDirectory{}, ingestor, msgLog, logger.New("development"))

	form := url.Values{}
	form.Set("From", "whatsapp:+919876543210")
	form.Set("Body", "Namaste!")
	form.Set("NumMedia", "0")

	rec := postWebhook(t, h, form)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ShelfScan AI") {
		t.Fatalf("expected greeting reply, got %s", rec.Body.String())
	}
	if len(ingestor.calls) != 0 {
		t.Fatal("greeting must not enqueue a scan")
	}
	if len(msgLog.logged) != 1 || msgLog.logged[0].MessageType != repository.TypeText {
		t.Fatalf("expected inbound text logged, got %+v", msgLog.logged)
	}
}

func TestWebhookImageEnqueuesScan(t *testing.T) {
	storeID := uuid.New()
	dir := &stubDirectory{store: Store{ID: storeID, Pincode: "110001"}, found: true}
	ingestor := &stubIngestor{}
	h := New(dir, ingestor, &stubMessageLog{}, logger.New("development"))

	form := url.Values{}
	form.Set("From", "whatsapp:+919876543210")
	form.Set("NumMedia", "1")
	form.Set("MediaUrl0", "https://gateway.example/media/abc")
	form.Set("MediaContentType0", "image/jpeg")

	rec := postWebhook(t, h, form)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(ingestor.calls) != 1 || ingestor.calls[0] != "https://gateway.example/media/abc" {
		t.Fatalf("expected one enqueued ingest, got %v", ingestor.calls)
	}
	if !strings.Contains(rec.Body.String(), "Analysis") {
		t.Fatalf("expected processing acknowledgment, got %s", rec.Body.String())
	}
}

func TestWebhookUnknownNumber(t *testing.T) {
	ingestor := &stubIngestor{}
	h := New(&stubDirectory{found: false}, ingestor, &stubMessageLog{}, logger.New("development"))

	form := url.Values{}
	form.Set("From", "whatsapp:+919876543210")
	form.Set("NumMedia", "1")
	form.Set("MediaUrl0", "https://gateway.example/media/abc")

	rec := postWebhook(t, h, form)
	if !strings.Contains(rec.Body.String(), "register nahi hai") {
		t.Fatalf("expected registration prompt, got %s", rec.Body.String())
	}
	if len(ingestor.calls) != 0 {
		t.Fatal("unregistered number must not enqueue a scan")
	}
}

func TestWebhookMissingMediaURL(t *testing.T) {
	h := New(&stubDirectory{found: true}, &stubIngestor{}, &stubMessageLog{}, logger.New("development"))

	form := url.Values{}
	form.Set("From", "whatsapp:+919876543210")
	form.Set("NumMedia", "1")

	rec := postWebhook(t, h, form)
	if !strings.Contains(rec.Body.String(), "dobara try") {
		t.Fatalf("expected retry prompt, got %s", rec.Body.String())
	}
}
