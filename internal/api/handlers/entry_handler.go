package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nomena/pharmastock/internal/domain"
	"github.com/nomena/pharmastock/internal/service"
)

type EntryHandler struct {
	service   *service.EntryService
	medicines *service.MedicineService
}

func NewEntryHandler(service *service.EntryService, medicines *service.MedicineService) *EntryHandler {
	return &EntryHandler{service: service, medicines: medicines}
}

type entryRequest struct {
	MedicineID    int64   `json:"medicine_id"`
	Supplier      *string `json:"supplier"`
	Quantity      int     `json:"quantity"`
	InventoryUnit string  `json:"inventory_unit"`
	EnteredAt     string  `json:"entered_at"`
	ExpiresAt     string  `json:"expires_at"`
}

func (r entryRequest) toInput() (domain.EntryInput, error) {
	v := domain.NewValidationError()
	enteredAt := parseDate(r.EnteredAt, "entered_at", v)
	expiresAt := parseOptionalDate(r.ExpiresAt, "expires_at", v)
	if v.HasErrors() {
		return domain.EntryInput{}, v
	}

	return domain.EntryInput{
		MedicineID:    r.MedicineID,
		Supplier:      r.Supplier,
		Quantity:      r.Quantity,
		InventoryUnit: r.InventoryUnit,
		EnteredAt:     enteredAt,
		ExpiresAt:     expiresAt,
	}, nil
}

// List returns the entries newest first, together with the catalog options
// and the standard inventory-unit vocabulary the entry form offers.
func (h *EntryHandler) List(c *gin.Context) {
	entries, err := h.service.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	options, err := h.medicines.Options(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entries":   entries,
		"medicines": options,
		"units":     service.InventoryUnits,
	})
}

func (h *EntryHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	e, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, e)
}

func (h *EntryHandler) Create(c *gin.Context) {
	var req entryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	input, err := req.toInput()
	if err != nil {
		respondError(c, err)
		return
	}

	e, err := h.service.Create(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, e)
}

func (h *EntryHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req entryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	input, err := req.toInput()
	if err != nil {
		respondError(c, err)
		return
	}

	e, err := h.service.Update(c.Request.Context(), id, input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, e)
}

func (h *EntryHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Entry deleted."})
}
