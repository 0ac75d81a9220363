package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Esraa-27/flash-sale-api/internal/app"
)

// WebhookProcessor is the minimal interface needed to reconcile a payment
// provider delivery.
type WebhookProcessor interface {
	Process(ctx context.Context, in app.ProcessWebhookInput) (app.WebhookResult, error)
}

// HandleWebhook returns an HTTP handler for POST /api/payments/webhook.
func HandleWebhook(svc WebhookProcessor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		var req webhookRequest
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

		res, err := svc.Process(r.Context(), app.ProcessWebhookInput{
			OrderID:        req.OrderID,
			IdempotencyKey: req.IdempotencyKey,
			Status:         req.Status,
		})
		if err != nil {
			writeAppErr(w, err)
			return
		}

		resp := webhookResponse{
			OrderID: res.OrderID,
			Status:  res.Status,
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

type webhookRequest struct {
	OrderID        string `json:"order_id"`
	IdempotencyKey string `json:"idempotency_key"`
	Status         string `json:"status"`
}

func (r webhookRequest) validate() map[string][]string {
	fields := make(map[string][]string)
	if r.OrderID == "" {
		fields["order_id"] = append(fields["order_id"], "order_id is required")
	}
	if r.IdempotencyKey == "" {
		fields["idempotency_key"] = append(fields["idempotency_key"], "idempotency_key is required")
	}
	if r.Status == "" {
		fields["status"] = append(fields["status"], "status is required")
	}
	return fields
}

type webhookResponse struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}
