package service

import (
	"bytes"
	"testing"

	"shelfscan_backend/internal/events"
	"shelfscan_backend/platform/apperr"
	"shelfscan_backend/platform/logger"
)

func TestOnboardingQRRendersPNG(t *testing.T) {
	svc := New(nil, "+919876543210", events.NewInMemoryBus(logger.New("development")), logger.New("development"))

	png, err := svc.OnboardingQR(256)
	if err != nil {
		t.Fatalf("OnboardingQR() error = %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Fatalf("OnboardingQR() did not return a PNG")
	}
}

func TestOnboardingQRWithoutGatewayNumber(t *testing.T) {
	svc := New(nil, "", events.NewInMemoryBus(logger.New("development")), logger.New("development"))

	_, err := svc.OnboardingQR(256)
	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("OnboardingQR() error = %v, want unavailable", err)
	}
}

func TestOnboardingQRClampsSize(t *testing.T) {
	svc := New(nil, "+919876543210", events.NewInMemoryBus(logger.New("development")), logger.New("development"))

	// Out-of-range sizes fall back to the default rather than erroring.
	if _, err := svc.OnboardingQR(16); err != nil {
		t.Fatalf("OnboardingQR(16) error = %v", err)
	}
	if _, err := svc.OnboardingQR(4096); err != nil {
		t.Fatalf("OnboardingQR(4096) error = %v", err)
	}
}
