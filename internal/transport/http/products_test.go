package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Esraa-27/flash-sale-api/internal/app"
	"github.com/Esraa-27/flash-sale-api/internal/apperr"
	"github.com/Esraa-27/flash-sale-api/internal/domain"
)

func TestHandleGetProduct(t *testing.T) {
	t.Parallel()

	view := app.ProductView{
		Product:        domain.Product{ID: "prod-1", Name: "Concert Ticket", Price: 49.99, Stock: 100},
		AvailableStock: 60,
	}

	tests := []struct {
		name           string
		path           string
		serviceErr     error
		expectedStatus int
		expectedSubstr string
	}{
		{
			name:           "success",
			path:           "/api/products/prod-1",
			expectedStatus: http.StatusOK,
			expectedSubstr: `"available_stock":60`,
		},
		{
			name:           "not found",
			path:           "/api/products/missing",
			serviceErr:     apperr.NotFound(domain.ErrProductNotFound.Error()),
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "bad path",
			path:           "/api/products/",
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := &stubProductService{view: view, err: tt.serviceErr}
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()

			HandleGetProduct(svc).ServeHTTP(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d", tt.expectedStatus, rec.Code)
			}
			if tt.expectedSubstr != "" && !strings.Contains(rec.Body.String(), tt.expectedSubstr) {
				t.Fatalf("expected response to contain %q, got %q", tt.expectedSubstr, rec.Body.String())
			}
		})
	}
}

type stubProductService struct {
	view app.ProductView
	err  error
}

func (s *stubProductService) Get(_ context.Context, _ string) (app.ProductView, error) {
	return s.view, s.err
}
