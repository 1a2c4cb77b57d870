package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/nomena/pharmastock/internal/cache"
	"github.com/nomena/pharmastock/internal/repository/memory"
	"github.com/nomena/pharmastock/internal/service"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	medicineRepo := memory.NewMedicineRepository(store)
	entryRepo := memory.NewEntryRepository(store)
	expeditionRepo := memory.NewExpeditionRepository(store)
	reportRepo := memory.NewReportRepository(store)
	noop := cache.NewNoopDashboardCache()

	stock := service.NewStockService(entryRepo, expeditionRepo)
	return NewRouter(&Services{
		Medicines:   service.NewMedicineService(medicineRepo, noop),
		Entries:     service.NewEntryService(entryRepo, medicineRepo, noop),
		Expeditions: service.NewExpeditionService(medicineRepo, entryRepo, expeditionRepo, stock, noop),
		Dashboard:   service.NewDashboardService(reportRepo, noop),
	}, nil)
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter()

	w := doJSON(t, router, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestMedicineLifecycleOverHTTP(t *testing.T) {
	router := newTestRouter()

	w := doJSON(t, router, http.MethodPost, "/api/v1/medicines", map[string]any{
		"name":         "Paracetamol",
		"category":     "analgesic",
		"form":         "tablet",
		"dosage_value": 500,
		"dosage_unit":  "mg",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", w.Code, w.Body.String())
	}

	var created struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}

	w = doJSON(t, router, http.MethodGet, "/api/v1/medicines/999", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing medicine status = %d, want 404", w.Code)
	}

	w = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/v1/medicines/%d", created.ID), nil)
	if w.Code != http.StatusOK {
		t.Errorf("delete status = %d, want 200", w.Code)
	}
}

func TestValidationErrorsReturn400WithFieldMap(t *testing.T) {
	router := newTestRouter()

	w := doJSON(t, router, http.MethodPost, "/api/v1/medicines", map[string]any{
		"category": "analgesic",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}

	var resp struct {
		Errors map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if _, ok := resp.Errors["name"]; !ok {
		t.Errorf("errors = %v, want name key", resp.Errors)
	}
}

func TestInsufficientStockReturns422(t *testing.T) {
	router := newTestRouter()

	w := doJSON(t, router, http.MethodPost, "/api/v1/medicines", map[string]any{
		"name":     "Amoxicillin",
		"category": "antibiotic",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create medicine status = %d", w.Code)
	}

	w = doJSON(t, router, http.MethodPost, "/api/v1/entries", map[string]any{
		"medicine_id":    1,
		"quantity":       5,
		"inventory_unit": "Box",
		"entered_at":     "2026-01-10",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create entry status = %d, body %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodPost, "/api/v1/expeditions", map[string]any{
		"village":       "Ambositra",
		"zone":          "south",
		"shipped_at":    "2026-02-01",
		"duration_days": 3,
		"lines":         []map[string]any{{"medicine_id": 1, "quantity": 8}},
	})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		Error    string `json:"error"`
		Failures []struct {
			Requested int `json:"requested"`
			Available int `json:"available"`
		} `json:"failures"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	want := "Insufficient stock for: Amoxicillin (requested: 8, available: 5)"
	if resp.Error != want {
		t.Errorf("error = %q, want %q", resp.Error, want)
	}
	if len(resp.Failures) != 1 || resp.Failures[0].Requested != 8 || resp.Failures[0].Available != 5 {
		t.Errorf("failures = %+v", resp.Failures)
	}
}
