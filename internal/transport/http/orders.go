package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Esraa-27/flash-sale-api/internal/domain"
)

// OrderCreator is the minimal interface needed to create an order from a
// hold.
type OrderCreator interface {
	CreateFromHold(ctx context.Context, holdID string) (domain.Order, error)
}

// HandleCreateOrder returns an HTTP handler for POST /api/orders.
func HandleCreateOrder(svc OrderCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		var req createOrderRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.HoldID == "" {
			writeValidationError(w, map[string][]string{"hold_id": {"hold_id is required"}})
			return
		}

		order, err := svc.CreateFromHold(r.Context(), req.HoldID)
		if err != nil {
			writeAppErr(w, err)
			return
		}

		resp := createOrderResponse{
			OrderID: order.ID,
			HoldID:  order.HoldID,
			Status:  string(order.Status),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

type createOrderRequest struct {
	HoldID string `json:"hold_id"`
}

type createOrderResponse struct {
	OrderID string `json:"order_id"`
	HoldID  string `json:"hold_id"`
	Status  string `json:"status"`
}
