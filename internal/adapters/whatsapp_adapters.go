package adapters

import (
	"context"

	"github.com/google/uuid"

	storesrepo "shelfscan_backend/internal/stores/repository"
	voiceservice "shelfscan_backend/internal/voice/service"
	wahandler "shelfscan_backend/internal/whatsapp/handler"
	warepo "shelfscan_backend/internal/whatsapp/repository"
	"shelfscan_backend/platform/apperr"
	"shelfscan_backend/platform/logger"
	"shelfscan_backend/platform/phone"
)

// WhatsAppStoreDirectory adapts the stores repository for the webhook's
// store-by-number lookup.
type WhatsAppStoreDirectory struct {
	repo *storesrepo.Repo
}

// NewWhatsAppStoreDirectory creates the directory adapter.
func NewWhatsAppStoreDirectory(repo *storesrepo.Repo) *WhatsAppStoreDirectory {
	return &WhatsAppStoreDirectory{repo: repo}
}

// FindByPhone resolves a store by WhatsApp number. Numbers are normalized the
// same way registration normalizes them, so lookups match regardless of how
// the gateway formats the sender.
func (a *WhatsAppStoreDirectory) FindByPhone(ctx context.Context, phoneNumber string) (wahandler.Store, bool, error) {
	normalized, ok := phone.NormalizeIndianMobile(phoneNumber)
	if !ok {
		normalized = phone.NormalizeE164(phoneNumber)
	}

	store, err := a.repo.GetByPhone(ctx, normalized)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return wahandler.Store{}, false, nil
		}
		return wahandler.Store{}, false, err
	}

	return wahandler.Store{
		ID:       store.ID,
		Name:     store.Name,
		Pincode:  store.Pincode,
		Language: store.Language,
	}, true, nil
}

// Compile-time check that WhatsAppStoreDirectory implements the webhook port.
var _ wahandler.StoreDirectory = (*WhatsAppStoreDirectory)(nil)

// OutboundMessageLogger adapts the WhatsApp message repository for the voice
// orchestrator's outbound logging. Log failures are swallowed; delivery must
// never depend on the audit trail.
type OutboundMessageLogger struct {
	repo *warepo.Repo
	log  *logger.Logger
}

// NewOutboundMessageLogger creates the logger adapter.
func NewOutboundMessageLogger(repo *warepo.Repo, log *logger.Logger) *OutboundMessageLogger {
	return &OutboundMessageLogger{repo: repo, log: log}
}

// LogOutbound records one outbound exchange.
func (a *OutboundMessageLogger) LogOutbound(ctx context.Context, storeID uuid.UUID, phoneNumber, messageType, content, mediaURL, status string) {
	_, err := a.repo.Log(ctx, warepo.Message{
		StoreID:     &storeID,
		Phone:       phoneNumber,
		Direction:   warepo.DirectionOutbound,
		MessageType: messageType,
		Content:     content,
		MediaURL:    mediaURL,
		Status:      status,
	})
	if err != nil {
		a.log.Error("failed to log outbound whatsapp message", "error", err.Error())
	}
}

// Compile-time check that OutboundMessageLogger implements the voice port.
var _ voiceservice.OutboundLogger = (*OutboundMessageLogger)(nil)
