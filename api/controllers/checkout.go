package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/adriansoto/stockpilot-backend/api/middleware"
	"github.com/adriansoto/stockpilot-backend/api/responses"
	"github.com/adriansoto/stockpilot-backend/api/validators"
	checkoutsvc "github.com/adriansoto/stockpilot-backend/internal/checkout"
	"github.com/adriansoto/stockpilot-backend/pkg/db/models"
	"github.com/adriansoto/stockpilot-backend/pkg/enums"
	pkgerrors "github.com/adriansoto/stockpilot-backend/pkg/errors"
	"github.com/adriansoto/stockpilot-backend/pkg/logger"
)

// Checkout finalizes a cart into a paid invoice. The acting cashier comes
// from the gateway identity, never from the body.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		paymentMethod, err := enums.ParsePaymentMethod(payload.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown payment method").WithDetails(map[string]any{"field": "payment_method"}))
			return
		}

		cart := checkoutsvc.NewCart()
		for _, line := range payload.Lines {
			if _, err := cart.AddLine(line.ProductID, line.Qty); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		invoice, err := svc.Checkout(r.Context(), cart, checkoutsvc.CheckoutInput{
			PaymentMethod: paymentMethod,
			CashierID:     middleware.ActorIDFromContext(r.Context()),
			CustomerID:    payload.CustomerID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newInvoiceResponse(invoice))
	}
}

// InvoiceDetail returns one invoice with its line items.
func InvoiceDetail(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		invoiceID, err := validators.ParseUUIDParam(r, "invoiceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invoice, err := svc.GetInvoice(r.Context(), invoiceID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newInvoiceResponse(invoice))
	}
}

// InvoiceRefund reverses a paid invoice in full.
func InvoiceRefund(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		invoiceID, err := validators.ParseUUIDParam(r, "invoiceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invoice, err := svc.Refund(r.Context(), invoiceID, middleware.ActorIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newInvoiceResponse(invoice))
	}
}

type checkoutRequest struct {
	PaymentMethod string             `json:"payment_method" validate:"required"`
	CustomerID    *uuid.UUID         `json:"customer_id,omitempty"`
	Lines         []checkoutLineItem `json:"lines" validate:"required,min=1,dive"`
}

type checkoutLineItem struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Qty       int       `json:"qty" validate:"required,gt=0"`
}

type invoiceResponse struct {
	InvoiceID     uuid.UUID             `json:"invoice_id"`
	Status        string                `json:"status"`
	SubtotalCents int                   `json:"subtotal_cents"`
	TaxRate       string                `json:"tax_rate"`
	TaxCents      int                   `json:"tax_cents"`
	TotalCents    int                   `json:"total_cents"`
	PaymentMethod string                `json:"payment_method"`
	CashierID     uuid.UUID             `json:"cashier_id"`
	CustomerID    *uuid.UUID            `json:"customer_id,omitempty"`
	Lines         []invoiceLineResponse `json:"lines"`
	RefundedAt    *time.Time            `json:"refunded_at,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
}

type invoiceLineResponse struct {
	LineItemID     uuid.UUID `json:"line_item_id"`
	ProductID      uuid.UUID `json:"product_id"`
	ProductSKU     string    `json:"product_sku"`
	UnitPriceCents int       `json:"unit_price_cents"`
	Qty            int       `json:"qty"`
}

func newInvoiceResponse(invoice *models.Invoice) invoiceResponse {
	if invoice == nil {
		return invoiceResponse{}
	}
	lines := make([]invoiceLineResponse, 0, len(invoice.LineItems))
	for _, item := range invoice.LineItems {
		lines = append(lines, invoiceLineResponse{
			LineItemID:     item.ID,
			ProductID:      item.ProductID,
			ProductSKU:     item.ProductSKU,
			UnitPriceCents: item.UnitPriceCents,
			Qty:            item.Qty,
		})
	}
	return invoiceResponse{
		InvoiceID:     invoice.ID,
		Status:        string(invoice.Status),
		SubtotalCents: invoice.SubtotalCents,
		TaxRate:       invoice.TaxRate.String(),
		TaxCents:      invoice.TaxCents,
		TotalCents:    invoice.TotalCents,
		PaymentMethod: string(invoice.PaymentMethod),
		CashierID:     invoice.CashierID,
		CustomerID:    invoice.CustomerID,
		Lines:         lines,
		RefundedAt:    invoice.RefundedAt,
		CreatedAt:     invoice.CreatedAt,
	}
}
