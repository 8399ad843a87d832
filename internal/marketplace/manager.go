package marketplace

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"blue-carbon/registry-backend/internal/credits"
)

// ErrNotActive is returned when cancelling or selling a non-active listing
var ErrNotActive = errors.New("listing is not active")

// LedgerService is the slice of the credit ledger the marketplace needs
type LedgerService interface {
	Reserve(ctx context.Context, projectID uuid.UUID, amount float64) (*credits.CreditLedger, error)
	Release(ctx context.Context, projectID uuid.UUID, amount float64) (*credits.CreditLedger, error)
	Settle(ctx context.Context, projectID uuid.UUID, amount float64) (*credits.CreditLedger, error)
}

// PriceSource quotes the current carbon credit price
type PriceSource interface {
	UnitPrice(ctx context.Context) (float64, error)
}

// Manager owns marketplace listings. Listing credits parks them in the
// ledger's reserved pool; the pool move and the listing write are ordered
// so a listing only ever exists with its credits reserved.
type Manager struct {
	repo   Repository
	ledger LedgerService
	prices PriceSource
	logger *zap.Logger

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

// NewManager creates a marketplace manager
func NewManager(repo Repository, ledger LedgerService, prices PriceSource, logger *zap.Logger) *Manager {
	return &Manager{
		repo:   repo,
		ledger: ledger,
		prices: prices,
		logger: logger,
		locks:  make(map[uuid.UUID]*sync.Mutex),
	}
}

func (m *Manager) listingLock(listingID uuid.UUID) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[listingID]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[listingID] = lock
	}
	return lock
}

// List puts an amount of a project's credits up for sale. When no asking
// price is given the current quote is used; the quote is fetched before
// any credits move so a slow price source cannot hold reserved credits.
func (m *Manager) List(ctx context.Context, projectID uuid.UUID, amount float64, askingPrice *float64) (*Listing, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("amount must be positive, got %v", amount)
	}

	var price float64
	if askingPrice != nil {
		price = *askingPrice
	} else {
		quoted, err := m.prices.UnitPrice(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to quote price: %w", err)
		}
		price = quoted
	}
	if price <= 0 {
		return nil, fmt.Errorf("asking price must be positive, got %v", price)
	}

	if _, err := m.ledger.Reserve(ctx, projectID, amount); err != nil {
		return nil, err
	}

	listing := &Listing{
		ID:          uuid.New(),
		ProjectID:   projectID,
		Amount:      amount,
		AskingPrice: price,
		Status:      StatusActive,
		ListedAt:    time.Now().UTC(),
	}
	if err := m.repo.Create(ctx, listing); err != nil {
		// put the credits back, the listing never existed
		if _, releaseErr := m.ledger.Release(ctx, projectID, amount); releaseErr != nil {
			m.logger.Error("failed to release credits after listing write failure",
				zap.String("project_id", projectID.String()),
				zap.Error(releaseErr))
		}
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}

	m.logger.Info("credits listed",
		zap.String("listing_id", listing.ID.String()),
		zap.String("project_id", projectID.String()),
		zap.Float64("amount", amount),
		zap.Float64("asking_price", price))
	return listing, nil
}

// Cancel takes an active listing off the market and returns its credits
// to the available pool.
func (m *Manager) Cancel(ctx context.Context, listingID uuid.UUID) (*Listing, error) {
	lock := m.listingLock(listingID)
	lock.Lock()
	defer lock.Unlock()

	listing, err := m.repo.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.Status != StatusActive {
		return nil, fmt.Errorf("%w: listing is %s", ErrNotActive, listing.Status)
	}

	if _, err := m.ledger.Release(ctx, listing.ProjectID, listing.Amount); err != nil {
		return nil, err
	}

	listing.Status = StatusCancelled
	if err := m.repo.Update(ctx, listing); err != nil {
		return nil, fmt.Errorf("failed to update listing: %w", err)
	}

	m.logger.Info("listing cancelled", zap.String("listing_id", listingID.String()))
	return listing, nil
}

// Sell completes an active listing: its reserved credits retire for good
// and the listing is marked sold.
func (m *Manager) Sell(ctx context.Context, listingID uuid.UUID) (*Listing, error) {
	lock := m.listingLock(listingID)
	lock.Lock()
	defer lock.Unlock()

	listing, err := m.repo.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.Status != StatusActive {
		return nil, fmt.Errorf("%w: listing is %s", ErrNotActive, listing.Status)
	}

	if _, err := m.ledger.Settle(ctx, listing.ProjectID, listing.Amount); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	listing.Status = StatusSold
	listing.SoldAt = &now
	if err := m.repo.Update(ctx, listing); err != nil {
		return nil, fmt.Errorf("failed to update listing: %w", err)
	}

	m.logger.Info("listing sold",
		zap.String("listing_id", listingID.String()),
		zap.Float64("amount", listing.Amount))
	return listing, nil
}

// GetListing returns a listing by id
func (m *Manager) GetListing(ctx context.Context, id uuid.UUID) (*Listing, error) {
	return m.repo.GetByID(ctx, id)
}

// ActiveListings returns all currently active listings, newest first
func (m *Manager) ActiveListings(ctx context.Context) ([]*Listing, error) {
	return m.repo.ListActive(ctx)
}

// Statistics summarizes the active side of the marketplace
func (m *Manager) Statistics(ctx context.Context) (*Statistics, error) {
	listings, err := m.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Statistics{ActiveListings: len(listings)}
	for _, l := range listings {
		stats.AverageAskPrice += l.AskingPrice
		stats.TotalListed += l.Amount
	}
	if len(listings) > 0 {
		stats.AverageAskPrice /= float64(len(listings))
	}
	return stats, nil
}
