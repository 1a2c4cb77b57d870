package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nomena/pharmastock/internal/domain"
	"github.com/nomena/pharmastock/internal/service"
)

type MedicineHandler struct {
	service *service.MedicineService
}

func NewMedicineHandler(service *service.MedicineService) *MedicineHandler {
	return &MedicineHandler{service: service}
}

type medicineRequest struct {
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Form        *string  `json:"form"`
	DosageValue *float64 `json:"dosage_value"`
	DosageUnit  *string  `json:"dosage_unit"`
	ExpiresAt   string   `json:"expires_at"`
}

func (r medicineRequest) toInput() (domain.MedicineInput, error) {
	v := domain.NewValidationError()
	expiresAt := parseOptionalDate(r.ExpiresAt, "expires_at", v)
	if v.HasErrors() {
		return domain.MedicineInput{}, v
	}

	return domain.MedicineInput{
		Name:        r.Name,
		Category:    r.Category,
		Form:        r.Form,
		DosageValue: r.DosageValue,
		DosageUnit:  r.DosageUnit,
		ExpiresAt:   expiresAt,
	}, nil
}

func (h *MedicineHandler) List(c *gin.Context) {
	medicines, err := h.service.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	options, err := h.service.Options(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"medicines": medicines,
		"options":   options,
	})
}

func (h *MedicineHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	m, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, m)
}

func (h *MedicineHandler) Create(c *gin.Context) {
	var req medicineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	input, err := req.toInput()
	if err != nil {
		respondError(c, err)
		return
	}

	m, err := h.service.Create(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, m)
}

func (h *MedicineHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req medicineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	input, err := req.toInput()
	if err != nil {
		respondError(c, err)
		return
	}

	m, err := h.service.Update(c.Request.Context(), id, input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, m)
}

func (h *MedicineHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Medicine deleted."})
}
