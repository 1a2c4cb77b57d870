package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nomena/pharmastock/internal/domain"
	"github.com/nomena/pharmastock/internal/service"
)

type ExpeditionHandler struct {
	service   *service.ExpeditionService
	medicines *service.MedicineService
}

func NewExpeditionHandler(service *service.ExpeditionService, medicines *service.MedicineService) *ExpeditionHandler {
	return &ExpeditionHandler{service: service, medicines: medicines}
}

type expeditionRequest struct {
	Village      string `json:"village"`
	Zone         string `json:"zone"`
	ShippedAt    string `json:"shipped_at"`
	DurationDays int    `json:"duration_days"`
	Lines        []struct {
		MedicineID int64 `json:"medicine_id"`
		Quantity   int   `json:"quantity"`
	} `json:"lines"`
}

func (r expeditionRequest) toInput() (domain.ExpeditionInput, error) {
	v := domain.NewValidationError()
	shippedAt := parseDate(r.ShippedAt, "shipped_at", v)
	if v.HasErrors() {
		return domain.ExpeditionInput{}, v
	}

	input := domain.ExpeditionInput{
		Village:      r.Village,
		Zone:         r.Zone,
		ShippedAt:    shippedAt,
		DurationDays: r.DurationDays,
		Lines:        make([]domain.LineRequest, 0, len(r.Lines)),
	}
	for _, l := range r.Lines {
		input.Lines = append(input.Lines, domain.LineRequest{MedicineID: l.MedicineID, Quantity: l.Quantity})
	}

	return input, nil
}

// List returns the expeditions newest first with formatted line details,
// plus the catalog options the expedition form offers.
func (h *ExpeditionHandler) List(c *gin.Context) {
	expeditions, err := h.service.List(c.Request.Context())
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
		"expeditions": expeditions,
		"medicines":   options,
		"zones":       domain.Zones(),
	})
}

func (h *ExpeditionHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	view, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *ExpeditionHandler) Create(c *gin.Context) {
	var req expeditionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	input, err := req.toInput()
	if err != nil {
		respondError(c, err)
		return
	}

	exp, err := h.service.Create(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, exp)
}

func (h *ExpeditionHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req expeditionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	input, err := req.toInput()
	if err != nil {
		respondError(c, err)
		return
	}

	exp, err := h.service.Update(c.Request.Context(), id, input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, exp)
}

func (h *ExpeditionHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Expedition deleted."})
}
