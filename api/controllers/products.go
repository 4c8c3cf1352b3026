package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/adriansoto/stockpilot-backend/api/responses"
	"github.com/adriansoto/stockpilot-backend/api/validators"
	"github.com/adriansoto/stockpilot-backend/internal/catalog"
	"github.com/adriansoto/stockpilot-backend/internal/ledger"
	"github.com/adriansoto/stockpilot-backend/pkg/db/models"
	"github.com/adriansoto/stockpilot-backend/pkg/enums"
	pkgerrors "github.com/adriansoto/stockpilot-backend/pkg/errors"
	"github.com/adriansoto/stockpilot-backend/pkg/logger"
	"github.com/adriansoto/stockpilot-backend/pkg/pagination"
)

// ProductStock reports the current on-hand count for one product.
func ProductStock(catalogSvc catalog.Service, ledgerSvc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := catalogSvc.Get(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		onHand, err := ledgerSvc.CurrentStock(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, stockResponse{
			ProductID:  product.ID,
			SKU:        product.SKU,
			Name:       product.Name,
			OnHand:     onHand,
			ReorderMin: product.ReorderMin,
			ReorderMax: product.ReorderMax,
		})
	}
}

// ProductMovements pages through a product's movement history newest-first.
func ProductMovements(ledgerSvc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter, err := movementFilterFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := ledgerSvc.ListMovements(r.Context(), productID, filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newMovementPageResponse(page))
	}
}

// ProductsLowStock lists active products whose on-hand count fell below
// their reorder minimum.
func ProductsLowStock(catalogSvc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := catalogSvc.LowStock(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]stockResponse, 0, len(rows))
		for _, row := range rows {
			out = append(out, stockResponse{
				ProductID:  row.Product.ID,
				SKU:        row.Product.SKU,
				Name:       row.Product.Name,
				OnHand:     row.OnHand,
				ReorderMin: row.Product.ReorderMin,
				ReorderMax: row.Product.ReorderMax,
			})
		}
		responses.WriteSuccess(w, out)
	}
}

func movementFilterFromQuery(r *http.Request) (ledger.MovementFilter, error) {
	var filter ledger.MovementFilter

	if raw := strings.TrimSpace(r.URL.Query().Get("type")); raw != "" {
		movementType, err := enums.ParseMovementType(raw)
		if err != nil {
			return filter, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown movement type").WithDetails(map[string]any{"field": "type"})
		}
		filter.Type = &movementType
	}

	from, err := validators.ParseQueryTime(r, "from")
	if err != nil {
		return filter, err
	}
	filter.From = from

	to, err := validators.ParseQueryTime(r, "to")
	if err != nil {
		return filter, err
	}
	filter.To = to

	filter.Search = strings.TrimSpace(r.URL.Query().Get("search"))

	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return filter, err
	}
	filter.Limit = limit

	cursor, err := pagination.ParseCursor(r.URL.Query().Get("cursor"))
	if err != nil {
		return filter, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed cursor").WithDetails(map[string]any{"field": "cursor"})
	}
	filter.Cursor = cursor

	return filter, nil
}

type stockResponse struct {
	ProductID  uuid.UUID `json:"product_id"`
	SKU        string    `json:"sku"`
	Name       string    `json:"name"`
	OnHand     int       `json:"on_hand"`
	ReorderMin int       `json:"reorder_min"`
	ReorderMax int       `json:"reorder_max"`
}

type movementResponse struct {
	MovementID    uuid.UUID `json:"movement_id"`
	ProductID     uuid.UUID `json:"product_id"`
	Type          string    `json:"type"`
	QuantityDelta int       `json:"quantity_delta"`
	Reference     string    `json:"reference"`
	ActorID       uuid.UUID `json:"actor_id"`
	Notes         *string   `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type movementPageResponse struct {
	Movements  []movementResponse `json:"movements"`
	NextCursor string             `json:"next_cursor,omitempty"`
}

func newMovementPageResponse(page ledger.MovementPage) movementPageResponse {
	movements := make([]movementResponse, 0, len(page.Movements))
	for _, movement := range page.Movements {
		movements = append(movements, newMovementResponse(movement))
	}
	return movementPageResponse{
		Movements:  movements,
		NextCursor: page.NextCursor,
	}
}

func newMovementResponse(movement models.StockMovement) movementResponse {
	return movementResponse{
		MovementID:    movement.ID,
		ProductID:     movement.ProductID,
		Type:          string(movement.Type),
		QuantityDelta: movement.QuantityDelta,
		Reference:     movement.Reference,
		ActorID:       movement.ActorID,
		Notes:         movement.Notes,
		CreatedAt:     movement.CreatedAt,
	}
}
