package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Esraa-27/flash-sale-api/internal/domain"
)

// HoldCreator is the minimal interface needed to create a hold.
type HoldCreator interface {
	CreateWithValidation(ctx context.Context, productID string, quantity int) (domain.Hold, error)
}

// HandleCreateHold returns an HTTP handler for POST /api/holds.
func HandleCreateHold(svc HoldCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		var req createHoldRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if fields := req.validate(); len(fields) > 0 {
			writeValidationError(w, fields)
			return
		}

		hold, err := svc.CreateWithValidation(r.Context(), req.ProductID, req.Quantity)
		if err != nil {
			writeAppErr(w, err)
			return
		}

		resp := createHoldResponse{
			HoldID:    hold.ID,
			ProductID: hold.ProductID,
			Quantity:  hold.Quantity,
			ExpiresAt: hold.ExpiresAt,
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

type createHoldRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"qty"`
}

func (r createHoldRequest) validate() map[string][]string {
	fields := make(map[string][]string)
	if r.ProductID == "" {
		fields["product_id"] = append(fields["product_id"], "product_id is required")
	}
	if r.Quantity < 1 {
		fields["qty"] = append(fields["qty"], "qty must be at least 1")
	}
	return fields
}

type createHoldResponse struct {
	HoldID    string `json:"hold_id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	ExpiresAt time.Time `json:"expires_at"`
}
