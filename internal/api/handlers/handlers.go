// Package handlers holds the gin handlers for the catalog, ledger and
// dashboard endpoints. Failure classes map to status codes here: field
// validation to 400, missing resources to 404, insufficient stock to 422,
// everything else to a generic 500.
package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nomena/pharmastock/internal/domain"
	"github.com/rs/zerolog/log"
)

const dateLayout = "2006-01-02"

func respondError(c *gin.Context, err error) {
	var validationErr *domain.ValidationError
	var stockErr *domain.StockError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"errors": validationErr.Fields})
	case errors.As(err, &stockErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":    stockErr.Error(),
			"failures": stockErr.Failures,
		})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "resource not found"})
	default:
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// parseDate converts a "2006-01-02" form value; empty input yields the zero
// time so required-field checks stay in the services.
func parseDate(value, field string, v *domain.ValidationError) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		v.Add(field, "Must be a valid date (YYYY-MM-DD).")
		return time.Time{}
	}
	return t
}

func parseOptionalDate(value, field string, v *domain.ValidationError) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		v.Add(field, "Must be a valid date (YYYY-MM-DD).")
		return nil
	}
	return &t
}
