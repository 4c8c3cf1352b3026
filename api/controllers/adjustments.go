package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/adriansoto/stockpilot-backend/api/middleware"
	"github.com/adriansoto/stockpilot-backend/api/responses"
	"github.com/adriansoto/stockpilot-backend/api/validators"
	"github.com/adriansoto/stockpilot-backend/internal/adjustments"
	"github.com/adriansoto/stockpilot-backend/pkg/enums"
	pkgerrors "github.com/adriansoto/stockpilot-backend/pkg/errors"
	"github.com/adriansoto/stockpilot-backend/pkg/logger"
)

// AdjustmentCommit applies a manual stock correction through the ledger.
func AdjustmentCommit(svc adjustments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input, err := adjustmentInputFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		movement, err := svc.Adjust(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newMovementResponse(*movement))
	}
}

// AdjustmentPreview shows what an adjustment would do without committing
// it. The answer is advisory: commit re-validates under the row lock.
func AdjustmentPreview(svc adjustments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input, err := adjustmentInputFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		preview, err := svc.Preview(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, preview)
	}
}

type adjustmentRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Direction string    `json:"direction" validate:"required"`
	Qty       int       `json:"qty" validate:"required,gt=0"`
	Reason    string    `json:"reason" validate:"required"`
	Notes     *string   `json:"notes,omitempty"`
}

func adjustmentInputFromRequest(r *http.Request) (adjustments.AdjustmentInput, error) {
	var payload adjustmentRequest
	if err := validators.DecodeJSONBody(r, &payload); err != nil {
		return adjustments.AdjustmentInput{}, err
	}

	direction, err := enums.ParseAdjustmentDirection(payload.Direction)
	if err != nil {
		return adjustments.AdjustmentInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown direction").WithDetails(map[string]any{"field": "direction"})
	}
	reason, err := enums.ParseAdjustmentReason(payload.Reason)
	if err != nil {
		return adjustments.AdjustmentInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown reason").WithDetails(map[string]any{"field": "reason"})
	}

	return adjustments.AdjustmentInput{
		ProductID: payload.ProductID,
		Direction: direction,
		Qty:       payload.Qty,
		Reason:    reason,
		ActorID:   middleware.ActorIDFromContext(r.Context()),
		Notes:     payload.Notes,
	}, nil
}
