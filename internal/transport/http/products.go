package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Esraa-27/flash-sale-api/internal/app"
)

// ProductGetter is the minimal interface needed to serve a product view.
type ProductGetter interface {
	Get(ctx context.Context, id string) (app.ProductView, error)
}

// HandleGetProduct returns an HTTP handler for GET /api/products/{id}.
func HandleGetProduct(svc ProductGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		id, ok := parseProductPath(r.URL.Path)
		if !ok {
			http.NotFound(w, r)
			return
		}

		view, err := svc.Get(r.Context(), id)
		if err != nil {
			writeAppErr(w, err)
			return
		}

		resp := productResponse{
			ID:             view.Product.ID,
			Name:           view.Product.Name,
			Price:          view.Product.Price,
			TotalStock:     view.Product.Stock,
			AvailableStock: view.AvailableStock,
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func parseProductPath(path string) (string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 3 {
		return "", false
	}
	if parts[0] != "api" || parts[1] != "products" || parts[2] == "" {
		return "", false
	}
	return parts[2], true
}

type productResponse struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Price          float64 `json:"price"`
	TotalStock     int     `json:"total_stock"`
	AvailableStock int     `json:"available_stock"`
}
