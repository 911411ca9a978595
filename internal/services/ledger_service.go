package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"backoffice-backend/internal/cache"
	"backoffice-backend/internal/ledger"
	"backoffice-backend/internal/models"
	"backoffice-backend/internal/repositories"
	"backoffice-backend/internal/timeutil"
)

type LedgerService struct {
	LedgerRepo   *repositories.LedgerRepository
	CustomerRepo *repositories.CustomerRepository
}

func NewLedgerService(ledgerRepo *repositories.LedgerRepository, customerRepo *repositories.CustomerRepository) *LedgerService {
	return &LedgerService{
		LedgerRepo:   ledgerRepo,
		CustomerRepo: customerRepo,
	}
}

// GetStatement returns the customer's ledger with running balances re-derived
// from the debit/credit feed. The stored running_balance column is only a
// cache of the same computation; when the two disagree the derived value wins
// and the mismatch is logged for investigation. For pages past the start of
// the statement the derivation is seeded with the balance accumulated before
// the page, so every line carries its true whole-history running balance.
func (s *LedgerService) GetStatement(ctx context.Context, customerID int, limit, offset int) ([]models.LedgerEntry, error) {
	entries, err := s.LedgerRepo.GetByCustomer(ctx, customerID, limit, offset)
	if err != nil {
		return nil, err
	}

	opening, err := s.LedgerRepo.GetBalanceBefore(ctx, customerID, offset)
	if err != nil {
		return nil, err
	}

	feed := make([]ledger.Entry, 0, len(entries))
	for _, e := range entries {
		feed = append(feed, ledger.Entry{ID: e.ID, Date: e.EntryDate, Debit: e.Debit, Credit: e.Credit})
	}
	lines := ledger.RunningBalancesFrom(feed, opening)

	byID := make(map[int]int, len(entries))
	for i, e := range entries {
		byID[e.ID] = i
	}
	for _, line := range lines {
		i := byID[line.ID]
		if !entries[i].RunningBalance.Equal(line.RunningBalance) {
			log.Printf("[Ledger] Stored running balance %s != derived %s on entry %d (customer %d)",
				entries[i].RunningBalance, line.RunningBalance, line.ID, customerID)
			entries[i].RunningBalance = line.RunningBalance
		}
	}
	return entries, nil
}

// GetBalance returns the customer's balance with credit-utilization state,
// cached in Redis for a few minutes and invalidated on every ledger write
func (s *LedgerService) GetBalance(ctx context.Context, customerID int) (*models.CustomerBalanceResponse, error) {
	if data, ok := cache.GetCachedBalance(ctx, customerID); ok {
		var resp models.CustomerBalanceResponse
		if err := json.Unmarshal(data, &resp); err == nil {
			return &resp, nil
		}
	}

	customer, err := s.CustomerRepo.Get(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("customer not found: %w", err)
	}

	stored, err := s.LedgerRepo.GetBalance(ctx, customerID)
	if err != nil {
		return nil, err
	}

	// Full feed; the derivation is only meaningful over every entry
	entries, err := s.LedgerRepo.GetByCustomer(ctx, customerID, 1_000_000, 0)
	if err != nil {
		return nil, err
	}
	feed := make([]ledger.Entry, 0, len(entries))
	for _, e := range entries {
		feed = append(feed, ledger.Entry{ID: e.ID, Date: e.EntryDate, Debit: e.Debit, Credit: e.Credit})
	}

	state := ledger.DeriveAccountState(feed, customer.CreditLimit)

	resp := &models.CustomerBalanceResponse{
		CustomerID:         customerID,
		CurrentBalance:     stored,
		DerivedBalance:     state.CurrentBalance,
		Consistent:         stored.Equal(state.CurrentBalance),
		CreditLimit:        customer.CreditLimit,
		UtilizationPercent: state.UtilizationPercent,
		UtilizationLevel:   string(state.Level),
	}
	if !resp.Consistent {
		log.Printf("[Ledger] Stored balance %s != derived %s for customer %d", stored, state.CurrentBalance, customerID)
	}

	if data, err := json.Marshal(resp); err == nil {
		cache.CacheBalance(ctx, customerID, data)
	}
	return resp, nil
}

// RecordAdjustment appends a manual ADJUSTMENT entry. Exactly one of
// debit/credit must be set.
func (s *LedgerService) RecordAdjustment(ctx context.Context, req *models.CreateLedgerEntryRequest, userID int) (*models.LedgerEntry, error) {
	if req.CustomerID == 0 {
		return nil, errors.New("customer is required")
	}
	if req.Debit.Sign() < 0 || req.Credit.Sign() < 0 {
		return nil, errors.New("debit and credit cannot be negative")
	}
	if (req.Debit.Sign() > 0) == (req.Credit.Sign() > 0) {
		return nil, errors.New("exactly one of debit or credit must be set")
	}

	if _, err := s.CustomerRepo.Get(ctx, req.CustomerID); err != nil {
		return nil, fmt.Errorf("customer not found: %w", err)
	}

	req.EntryType = models.LedgerEntryTypeAdjustment
	req.CreatedByUserID = userID
	if req.EntryDate.IsZero() {
		req.EntryDate = timeutil.StartOfDay(timeutil.Now())
	}

	entry, err := s.LedgerRepo.Append(ctx, req)
	if err != nil {
		return nil, err
	}
	cache.InvalidateBalance(ctx, req.CustomerID)
	return entry, nil
}

func (s *LedgerService) GetSummary(ctx context.Context, customerID int) (*models.LedgerSummary, error) {
	return s.LedgerRepo.GetSummaryByCustomer(ctx, customerID)
}

// GetDebtors returns customers with money owed, largest balance first
func (s *LedgerService) GetDebtors(ctx context.Context) ([]models.LedgerSummary, error) {
	return s.LedgerRepo.GetDebtors(ctx)
}
