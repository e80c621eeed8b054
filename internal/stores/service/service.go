package service

import (
	"context"
	"fmt"
	"net/url"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"

	"shelfscan_backend/internal/events"
	"shelfscan_backend/internal/stores/repository"
	"shelfscan_backend/internal/stores/transport"
	"shelfscan_backend/platform/apperr"
	"shelfscan_backend/platform/logger"
	"shelfscan_backend/platform/phone"
)

const defaultLanguage = "hi"

// onboardingGreeting is pre-filled into the WhatsApp composer when a store
// scans the onboarding QR code.
const onboardingGreeting = "Hi! I want to start scanning my shelves."

// Service implements store registration and lookup.
type Service struct {
	repo           *repository.Repo
	whatsappNumber string
	bus            events.Bus
	log            *logger.Logger
}

// New creates the stores service. whatsappNumber is the gateway's E.164
// number used for the onboarding QR deep link.
func New(repo *repository.Repo, whatsappNumber string, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, whatsappNumber: whatsappNumber, bus: bus, log: log}
}

// Register validates and creates a new store. The phone number is
// normalized to +91XXXXXXXXXX before storage so WhatsApp webhook lookups
// match exactly.
func (s *Service) Register(ctx context.Context, req transport.RegisterStoreRequest) (repository.Store, error) {
	normalized, ok := phone.NormalizeIndianMobile(req.Phone)
	if !ok {
		return repository.Store{}, apperr.Validation("phone must be a valid Indian mobile number")
	}

	language := req.Language
	if language == "" {
		language = defaultLanguage
	}

	store, err := s.repo.Create(ctx, repository.CreateStoreParams{
		Name:     req.Name,
		Phone:    normalized,
		Pincode:  req.Pincode,
		Language: language,
	})
	if err != nil {
		return repository.Store{}, err
	}

	s.bus.Publish(ctx, events.StoreRegistered{
		BaseEvent: events.NewBaseEvent(),
		StoreID:   store.ID,
		Phone:     store.Phone,
		Pincode:   store.Pincode,
	})

	s.log.Info("store registered", "store_id", store.ID, "pincode", store.Pincode)
	return store, nil
}

// GetByID retrieves a store.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (repository.Store, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByPhone retrieves a store by its normalized phone number.
func (s *Service) GetByPhone(ctx context.Context, phoneNumber string) (repository.Store, error) {
	return s.repo.GetByPhone(ctx, phone.NormalizeE164(phoneNumber))
}

// OnboardingQR renders a PNG QR code that opens a WhatsApp chat with the
// gateway number and a pre-filled greeting.
func (s *Service) OnboardingQR(size int) ([]byte, error) {
	if s.whatsappNumber == "" {
		return nil, apperr.Unavailable("whatsapp gateway number is not configured")
	}
	if size < 128 || size > 1024 {
		size = 512
	}

	link := fmt.Sprintf("https://wa.me/%s?text=%s",
		phone.NormalizeE164(s.whatsappNumber)[1:],
		url.QueryEscape(onboardingGreeting),
	)

	png, err := qrcode.Encode(link, qrcode.Medium, size)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to render QR code", err)
	}
	return png, nil
}
