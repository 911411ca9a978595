package services

import (
	"context"
	"errors"
	"fmt"

	"backoffice-backend/internal/allocation"
	"backoffice-backend/internal/cache"
	"backoffice-backend/internal/metrics"
	"backoffice-backend/internal/models"
	"backoffice-backend/internal/repositories"
	"backoffice-backend/internal/timeutil"
)

type PaymentService struct {
	PaymentRepo  *repositories.PaymentRepository
	InvoiceRepo  *repositories.InvoiceRepository
	CustomerRepo *repositories.CustomerRepository
}

func NewPaymentService(
	paymentRepo *repositories.PaymentRepository,
	invoiceRepo *repositories.InvoiceRepository,
	customerRepo *repositories.CustomerRepository,
) *PaymentService {
	return &PaymentService{
		PaymentRepo:  paymentRepo,
		InvoiceRepo:  invoiceRepo,
		CustomerRepo: customerRepo,
	}
}

// outstandingSet converts repository rows to the allocation engine's view
func outstandingSet(invoices []models.OutstandingInvoice) []allocation.OutstandingInvoice {
	set := make([]allocation.OutstandingInvoice, 0, len(invoices))
	for _, inv := range invoices {
		set = append(set, allocation.OutstandingInvoice{
			InvoiceID:     inv.ID,
			BalanceAmount: inv.BalanceAmount,
		})
	}
	return set
}

// RecordPayment validates the submitted allocations against the customer's
// outstanding invoices and persists the payment. The allocations must sum
// exactly to the payment amount; a partial or over allocation is rejected.
func (s *PaymentService) RecordPayment(ctx context.Context, req *models.RecordPaymentRequest, userID int) (*models.Payment, error) {
	if req.CustomerID == 0 {
		return nil, errors.New("customer is required")
	}

	customer, err := s.CustomerRepo.Get(ctx, req.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("customer not found: %w", err)
	}

	outstanding, err := s.InvoiceRepo.GetOutstandingByCustomer(ctx, customer.ID)
	if err != nil {
		return nil, err
	}

	allocs := make([]allocation.Allocation, 0, len(req.Allocations))
	for _, a := range req.Allocations {
		allocs = append(allocs, allocation.Allocation{InvoiceID: a.InvoiceID, Amount: a.Amount})
	}
	if err := allocation.ValidateSubmission(req.Amount, allocs, outstandingSet(outstanding)); err != nil {
		metrics.AllocationRejections.Inc()
		return nil, err
	}

	date := req.Date
	if date.IsZero() {
		date = timeutil.StartOfDay(timeutil.Now())
	}
	method := req.Method
	if method == "" {
		method = "cash"
	}

	payment := &models.Payment{
		CustomerID:      customer.ID,
		Date:            date,
		Amount:          req.Amount,
		Method:          method,
		Reference:       req.Reference,
		Notes:           req.Notes,
		CreatedByUserID: userID,
	}
	if err := s.PaymentRepo.CreateWithAllocations(ctx, payment, req.Allocations); err != nil {
		return nil, err
	}

	metrics.PaymentsRecorded.WithLabelValues(method).Inc()
	cache.InvalidatePaymentCaches(ctx, customer.ID)
	return payment, nil
}

// SuggestAllocations runs the oldest-first auto-allocation over the customer's
// outstanding invoices without persisting anything. The payment dialog uses it
// for its "auto allocate" button.
func (s *PaymentService) SuggestAllocations(ctx context.Context, customerID int, req *models.RecordPaymentRequest) ([]allocation.Allocation, error) {
	if req.Amount.Sign() <= 0 {
		return nil, allocation.ErrNonPositiveAmount
	}

	outstanding, err := s.InvoiceRepo.GetOutstandingByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	engine := allocation.NewEngine(req.Amount, outstandingSet(outstanding))
	// Seed the engine with the user's existing rows so auto-allocate only
	// tops up what is still empty
	for _, a := range req.Allocations {
		if err := engine.Add(a.InvoiceID); err != nil {
			return nil, err
		}
		if err := engine.Set(a.InvoiceID, a.Amount); err != nil {
			return nil, err
		}
	}
	engine.AutoAllocate()
	return engine.Allocations(), nil
}

func (s *PaymentService) GetPayment(ctx context.Context, id int) (*models.Payment, error) {
	return s.PaymentRepo.Get(ctx, id)
}

func (s *PaymentService) ListPayments(ctx context.Context, customerID, limit, offset int) ([]models.Payment, error) {
	return s.PaymentRepo.List(ctx, customerID, limit, offset)
}
