package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/adriansoto/stockpilot-backend/api/middleware"
	"github.com/adriansoto/stockpilot-backend/api/responses"
	"github.com/adriansoto/stockpilot-backend/api/validators"
	"github.com/adriansoto/stockpilot-backend/internal/purchasing"
	"github.com/adriansoto/stockpilot-backend/pkg/db/models"
	"github.com/adriansoto/stockpilot-backend/pkg/enums"
	pkgerrors "github.com/adriansoto/stockpilot-backend/pkg/errors"
	"github.com/adriansoto/stockpilot-backend/pkg/logger"
)

// PurchaseOrderCreate opens a new order in the created status.
func PurchaseOrderCreate(svc purchasing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload purchaseOrderCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines := make([]purchasing.LineInput, 0, len(payload.Lines))
		for _, line := range payload.Lines {
			lines = append(lines, purchasing.LineInput{
				ProductID:     line.ProductID,
				Qty:           line.Qty,
				UnitCostCents: line.UnitCostCents,
			})
		}

		po, err := svc.Create(r.Context(), purchasing.CreateInput{
			SupplierID:       payload.SupplierID,
			ExpectedDelivery: payload.ExpectedDelivery,
			Lines:            lines,
			ActorID:          middleware.ActorIDFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newPurchaseOrderResponse(po))
	}
}

// PurchaseOrderAdvance moves an order one step along its status chain, or
// cancels it.
func PurchaseOrderAdvance(svc purchasing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		poID, err := validators.ParseUUIDParam(r, "poId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload purchaseOrderAdvanceRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		target, err := enums.ParsePurchaseOrderStatus(payload.Target)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown status").WithDetails(map[string]any{"field": "target"}))
			return
		}

		po, err := svc.Advance(r.Context(), poID, purchasing.AdvanceInput{
			Target:  target,
			ActorID: middleware.ActorIDFromContext(r.Context()),
			Note:    payload.Note,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newPurchaseOrderResponse(po))
	}
}

// PurchaseOrderDetail returns one order with its lines and timeline.
func PurchaseOrderDetail(svc purchasing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		poID, err := validators.ParseUUIDParam(r, "poId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		po, err := svc.Get(r.Context(), poID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newPurchaseOrderResponse(po))
	}
}

// PurchaseOrderList lists orders, optionally filtered by status.
func PurchaseOrderList(svc purchasing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var status *enums.PurchaseOrderStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParsePurchaseOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown status").WithDetails(map[string]any{"field": "status"}))
				return
			}
			status = &parsed
		}

		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pos, err := svc.List(r.Context(), status, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]purchaseOrderResponse, 0, len(pos))
		for i := range pos {
			out = append(out, newPurchaseOrderResponse(&pos[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

type purchaseOrderCreateRequest struct {
	SupplierID       uuid.UUID                `json:"supplier_id" validate:"required"`
	ExpectedDelivery *time.Time               `json:"expected_delivery,omitempty"`
	Lines            []purchaseOrderLineInput `json:"lines" validate:"required,min=1,dive"`
}

type purchaseOrderLineInput struct {
	ProductID     uuid.UUID `json:"product_id" validate:"required"`
	Qty           int       `json:"qty" validate:"required,gt=0"`
	UnitCostCents int       `json:"unit_cost_cents" validate:"min=0"`
}

type purchaseOrderAdvanceRequest struct {
	Target string `json:"target" validate:"required"`
	Note   string `json:"note,omitempty"`
}

type purchaseOrderResponse struct {
	PurchaseOrderID  uuid.UUID                   `json:"purchase_order_id"`
	SupplierID       uuid.UUID                   `json:"supplier_id"`
	Status           string                      `json:"status"`
	ExpectedDelivery *time.Time                  `json:"expected_delivery,omitempty"`
	ReceivedDate     *time.Time                  `json:"received_date,omitempty"`
	Lines            []purchaseOrderLineResponse `json:"lines"`
	Timeline         []timelineEntryResponse     `json:"timeline"`
	CreatedAt        time.Time                   `json:"created_at"`
}

type purchaseOrderLineResponse struct {
	LineItemID    uuid.UUID `json:"line_item_id"`
	ProductID     uuid.UUID `json:"product_id"`
	Qty           int       `json:"qty"`
	UnitCostCents int       `json:"unit_cost_cents"`
}

type timelineEntryResponse struct {
	Position    int       `json:"position"`
	Status      string    `json:"status"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

func newPurchaseOrderResponse(po *models.PurchaseOrder) purchaseOrderResponse {
	if po == nil {
		return purchaseOrderResponse{}
	}
	lines := make([]purchaseOrderLineResponse, 0, len(po.LineItems))
	for _, item := range po.LineItems {
		lines = append(lines, purchaseOrderLineResponse{
			LineItemID:    item.ID,
			ProductID:     item.ProductID,
			Qty:           item.Qty,
			UnitCostCents: item.UnitCostCents,
		})
	}
	timeline := make([]timelineEntryResponse, 0, len(po.Timeline))
	for _, entry := range po.Timeline {
		timeline = append(timeline, timelineEntryResponse{
			Position:    entry.Position,
			Status:      string(entry.Status),
			Description: entry.Description,
			CreatedAt:   entry.CreatedAt,
		})
	}
	return purchaseOrderResponse{
		PurchaseOrderID:  po.ID,
		SupplierID:       po.SupplierID,
		Status:           string(po.Status),
		ExpectedDelivery: po.ExpectedDelivery,
		ReceivedDate:     po.ReceivedDate,
		Lines:            lines,
		Timeline:         timeline,
		CreatedAt:        po.CreatedAt,
	}
}
