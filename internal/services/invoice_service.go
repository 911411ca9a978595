package services

import (
	"context"
	"errors"
	"fmt"

	"backoffice-backend/internal/cache"
	"backoffice-backend/internal/metrics"
	"backoffice-backend/internal/models"
	"backoffice-backend/internal/pricing"
	"backoffice-backend/internal/repositories"
	"backoffice-backend/internal/timeutil"

	"github.com/shopspring/decimal"
)

type InvoiceService struct {
	InvoiceRepo  *repositories.InvoiceRepository
	CustomerRepo *repositories.CustomerRepository
}

func NewInvoiceService(invoiceRepo *repositories.InvoiceRepository, customerRepo *repositories.CustomerRepository) *InvoiceService {
	return &InvoiceService{
		InvoiceRepo:  invoiceRepo,
		CustomerRepo: customerRepo,
	}
}

// pricingPolicy materializes the document's discount policy from the request
func pricingPolicy(req *models.CreateInvoiceRequest) (pricing.Policy, error) {
	switch req.DiscountPolicy {
	case "", "per_item":
		return pricing.PerItem{}, nil
	case "per_document":
		discountType := pricing.DiscountType(req.DocumentDiscountType)
		if discountType != pricing.DiscountTypePercent && discountType != pricing.DiscountTypeFlat {
			return nil, fmt.Errorf("invalid document discount type %q", req.DocumentDiscountType)
		}
		return pricing.PerDocument{Discount: pricing.Discount{
			Type:  discountType,
			Value: req.DocumentDiscountValue,
		}}, nil
	default:
		return nil, fmt.Errorf("invalid discount policy %q", req.DiscountPolicy)
	}
}

// CreateInvoice validates the request, recomputes all totals from the line
// items and persists the invoice. Client-sent totals are never trusted.
func (s *InvoiceService) CreateInvoice(ctx context.Context, req *models.CreateInvoiceRequest, userID int) (*models.Invoice, error) {
	if req.CustomerID == 0 {
		return nil, errors.New("customer is required")
	}
	if len(req.Items) == 0 {
		return nil, errors.New("at least one item is required")
	}

	customer, err := s.CustomerRepo.Get(ctx, req.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("customer not found: %w", err)
	}
	if !customer.IsActive {
		return nil, errors.New("customer is inactive")
	}

	policy, err := pricingPolicy(req)
	if err != nil {
		return nil, err
	}

	lines := make([]pricing.LineItem, 0, len(req.Items))
	for _, it := range req.Items {
		if it.Quantity.Sign() < 0 || it.UnitPrice.Sign() < 0 {
			return nil, errors.New("item quantity and price cannot be negative")
		}
		discountType := pricing.DiscountType(it.DiscountType)
		if discountType == "" {
			discountType = pricing.DiscountTypePercent
		}
		lines = append(lines, pricing.LineItem{
			ItemRef:        it.ItemRef,
			Description:    it.Description,
			Quantity:       it.Quantity,
			Rate:           it.UnitPrice,
			TaxRatePercent: it.TaxRate,
			Discount:       pricing.Discount{Type: discountType, Value: it.DiscountValue},
		})
	}

	totals := pricing.ComputeTotals(lines, policy)

	invoiceDate := req.InvoiceDate
	if invoiceDate.IsZero() {
		invoiceDate = timeutil.StartOfDay(timeutil.Now())
	}
	dueDate := req.DueDate
	if dueDate.IsZero() {
		dueDate = invoiceDate
	}

	policyName := req.DiscountPolicy
	if policyName == "" {
		policyName = "per_item"
	}

	inv := &models.Invoice{
		CustomerID:            req.CustomerID,
		InvoiceDate:           invoiceDate,
		DueDate:               dueDate,
		Terms:                 req.Terms,
		Notes:                 req.Notes,
		DiscountPolicy:        policyName,
		DocumentDiscountType:  req.DocumentDiscountType,
		DocumentDiscountValue: req.DocumentDiscountValue,
		Subtotal:              totals.Subtotal,
		DiscountTotal:         totals.DiscountTotal,
		TaxTotal:              totals.TaxTotal,
		TotalAmount:           totals.GrandTotal,
		CreatedByUserID:       userID,
	}
	for _, line := range lines {
		inv.Items = append(inv.Items, models.InvoiceItem{
			ItemID:         line.ItemRef,
			Description:    line.Description,
			Quantity:       line.Quantity,
			UnitPrice:      line.Rate,
			TaxRatePercent: line.TaxRatePercent,
			DiscountType:   string(line.Discount.Type),
			DiscountValue:  line.Discount.Value,
			LineTotal:      pricing.ItemTotal(line, policy),
		})
	}

	var immediatePayment *models.Payment
	if req.RecordPayment && req.Payment != nil && req.Payment.Amount.Sign() > 0 {
		// The wizard seeds the amount from the grand total but the user may
		// have edited it; never take more than the invoice total
		amount := decimal.Min(req.Payment.Amount, totals.GrandTotal)
		date := req.Payment.Date
		if date.IsZero() {
			date = invoiceDate
		}
		method := req.Payment.Method
		if method == "" {
			method = "cash"
		}
		immediatePayment = &models.Payment{
			Date:            date,
			Amount:          amount,
			Method:          method,
			Reference:       req.Payment.Reference,
			Notes:           req.Payment.Notes,
			CreatedByUserID: userID,
		}
	}

	if err := s.InvoiceRepo.Create(ctx, inv, immediatePayment); err != nil {
		return nil, err
	}

	metrics.InvoicesCreated.Inc()
	if immediatePayment != nil {
		metrics.PaymentsRecorded.WithLabelValues(immediatePayment.Method).Inc()
	}
	cache.InvalidateInvoiceCaches(ctx, inv.CustomerID)
	return inv, nil
}

func (s *InvoiceService) GetInvoice(ctx context.Context, id int) (*models.Invoice, error) {
	return s.InvoiceRepo.Get(ctx, id)
}

func (s *InvoiceService) ListInvoices(ctx context.Context, customerID, limit, offset int) ([]models.Invoice, error) {
	return s.InvoiceRepo.List(ctx, customerID, limit, offset)
}

// GetOutstandingInvoices returns a customer's open invoices oldest first
func (s *InvoiceService) GetOutstandingInvoices(ctx context.Context, customerID int) ([]models.OutstandingInvoice, error) {
	return s.InvoiceRepo.GetOutstandingByCustomer(ctx, customerID)
}
