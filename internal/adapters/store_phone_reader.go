package adapters

import (
	"context"

	"github.com/google/uuid"

	"shelfscan_backend/internal/scheduler"
	storesrepo "shelfscan_backend/internal/stores/repository"
)

// StorePhoneReader adapts the stores repository for the voice redelivery
// sweeper's phone lookup.
type StorePhoneReader struct {
	repo *storesrepo.Repo
}

// NewStorePhoneReader creates the phone lookup adapter.
func NewStorePhoneReader(repo *storesrepo.Repo) *StorePhoneReader {
	return &StorePhoneReader{repo: repo}
}

// PhoneByID returns the WhatsApp number a store registered with.
func (a *StorePhoneReader) PhoneByID(ctx context.Context, storeID uuid.UUID) (string, error) {
	store, err := a.repo.GetByID(ctx, storeID)
	if err != nil {
		return "", err
	}
	return store.Phone, nil
}

// Compile-time check that StorePhoneReader implements the sweeper port.
var _ scheduler.StorePhones = (*StorePhoneReader)(nil)
