// Package handler receives Twilio-style WhatsApp webhooks. The gateway posts
// a form for every inbound message and expects a TwiML reply within a few
// seconds, so heavy work is enqueued rather than done inline.
package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"shelfscan_backend/internal/whatsapp/repository"
	"shelfscan_backend/platform/logger"
	"shelfscan_backend/platform/sanitize"
)

// Store is the slice of store data the webhook needs.
type Store struct {
	ID       uuid.UUID
	Name     string
	Pincode  string
	Language string
}

// StoreDirectory resolves stores by WhatsApp number.
type StoreDirectory interface {
	FindByPhone(ctx context.Context, phoneNumber string) (Store, bool, error)
}

// ScanIngestor hands an inbound shelf photo to the background pipeline.
type ScanIngestor interface {
	EnqueueIngest(ctx context.Context, storeID uuid.UUID, phoneNumber, mediaURL, mediaType string) error
}

var greetingWords = map[string]bool{
	"hi": true, "hello": true, "hey": true, "help": true,
	"start": true, "scan": true, "namaste": true, "namaskar": true,
}

const (
	replyGreeting = "Namaskar! Main ShelfScan AI hoon.\n\n" +
		"Apni shelf ki photo bhejiye aur main 30 seconds mein bataunga:\n" +
		"- Kya order karna chahiye\n" +
		"- Kitna stock bacha hai\n" +
		"- Shelf kaise rearrange karein\n\n" +
		"Recommendation voice note mein milega!"
	replySendPhoto     = "Shelf ki photo bhejiye, main analysis karunga!"
	replyNotRegistered = "Aapka number ShelfScan AI mein register nahi hai.\n\nPehle register karein, phir apni shelf ki photo bhejiye!"
	replyNoMedia       = "Image receive nahi hui. Please dobara try karein."
	replyProcessing    = "Photo mil gayi! Analysis chal raha hai, 30 seconds mein aapko recommendation milega."
	replyTryLater      = "Abhi processing mein dikkat aa rahi hai. Thodi der baad dobara try karein."
)

// MessageLog is the slice of the message repository the webhook writes to.
type MessageLog interface {
	Log(ctx context.Context, msg repository.Message) (uuid.UUID, error)
}

type Handler struct {
	stores   StoreDirectory
	ingestor ScanIngestor
	messages MessageLog
	log      *logger.Logger
}

func New(stores StoreDirectory, ingestor ScanIngestor, messages MessageLog, log *logger.Logger) *Handler {
	return &Handler{stores: stores, ingestor: ingestor, messages: messages, log: log}
}

// Webhook handles POST /webhook/whatsapp.
func (h *Handler) Webhook(c *gin.Context) {
	from := strings.TrimPrefix(c.PostForm("From"), "whatsapp:")
	body := strings.ToLower(strings.TrimSpace(c.PostForm("Body")))
	numMedia, _ := strconv.Atoi(c.PostForm("NumMedia"))
	mediaURL := c.PostForm("MediaUrl0")
	mediaType := c.PostForm("MediaContentType0")
	if mediaType == "" {
		mediaType = "image/jpeg"
	}

	h.logInbound(c.Request.Context(), from, body, numMedia, mediaURL)

	if numMedia == 0 {
		if body == "" || containsGreeting(body) {
			respondTwiML(c, replyGreeting)
			return
		}
		respondTwiML(c, replySendPhoto)
		return
	}

	if mediaURL == "" {
		respondTwiML(c, replyNoMedia)
		return
	}

	store, found, err := h.stores.FindByPhone(c.Request.Context(), from)
	if err != nil {
		h.log.Error("store lookup failed for webhook", "error", err.Error())
		respondTwiML(c, replyTryLater)
		return
	}
	if !found {
		respondTwiML(c, replyNotRegistered)
		return
	}

	if err := h.ingestor.EnqueueIngest(c.Request.Context(), store.ID, from, mediaURL, mediaType); err != nil {
		h.log.Error("failed to enqueue shelf photo", "error", err.Error(), "store_id", store.ID.String())
		respondTwiML(c, replyTryLater)
		return
	}

	respondTwiML(c, replyProcessing)
}

func (h *Handler) logInbound(ctx context.Context, from, body string, numMedia int, mediaURL string) {
	msgType := repository.TypeText
	if numMedia > 0 {
		msgType = repository.TypeImage
	}
	// Logging must never block the webhook reply.
	_, err := h.messages.Log(ctx, repository.Message{
		Phone:       from,
		Direction:   repository.DirectionInbound,
		MessageType: msgType,
		Content:     sanitize.Text(body),
		MediaURL:    mediaURL,
		Status:      repository.StatusReceived,
	})
	if err != nil {
		h.log.Error("failed to log inbound whatsapp message", "error", err.Error())
	}
}

func containsGreeting(body string) bool {
	for _, word := range strings.Fields(body) {
		if greetingWords[strings.Trim(word, "!.,?")] {
			return true
		}
	}
	return false
}

func respondTwiML(c *gin.Context, message string) {
	twiml := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<Response><Message><Body>%s</Body></Message></Response>`, xmlEscape(message))
	c.Data(http.StatusOK, "text/xml; charset=utf-8", []byte(twiml))
}

func xmlEscape(s string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
	)
	return replacer.Replace(s)
}
