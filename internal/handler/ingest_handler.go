package handler

import (
	"errors"
	"log"
	"net/http"

	"tracker/internal/service"
	"tracker/internal/validate"

	"github.com/gin-gonic/gin"
)

// IngestHandler serves the machine-facing endpoints field devices call.
// They authenticate with the device bearer token, never a session, and
// answer in the fixed {ok, ...} wire shape agents are built against.
type IngestHandler struct {
	ingestService service.IngestService
}

// NewIngestHandler sets up the routing dependencies for the device API
func NewIngestHandler(ingestService service.IngestService) *IngestHandler {
	return &IngestHandler{ingestService: ingestService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *IngestHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api")
	{
		api.POST("/validate_device", h.ValidateDevice)
		api.POST("/location_update", h.LocationUpdate)
	}
}

type validateDeviceRequest struct {
	IMEI  string `json:"imei"`
	Phone string `json:"phone"`
	Token string `json:"token"`
}

type locationUpdateRequest struct {
	IMEI  string   `json:"imei"`
	Phone string   `json:"phone"`
	Token string   `json:"token"`
	Lat   *float64 `json:"lat"`
	Lng   *float64 `json:"lng"`
}

// deviceIdentifier picks the submitted identifier, IMEI first. Values
// are matched exactly as submitted; the ingest path never normalizes.
func deviceIdentifier(imei, phoneNumber string) validate.Identifier {
	if imei != "" {
		return validate.IMEIIdentifier(imei)
	}
	return validate.PhoneIdentifier(phoneNumber)
}

// ValidateDevice handles POST /api/validate_device
func (h *IngestHandler) ValidateDevice(c *gin.Context) {
	var req validateDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "missing parameters"})
		return
	}
	if req.Token == "" || (req.IMEI == "" && req.Phone == "") {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "missing parameters"})
		return
	}

	err := h.ingestService.ValidateDevice(c.Request.Context(), deviceIdentifier(req.IMEI, req.Phone), req.Token)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"ok": true, "valid": true})
	case errors.Is(err, service.ErrDeviceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "device not found"})
	case errors.Is(err, service.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "invalid token"})
	default:
		log.Printf("ERROR in /api/validate_device: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "internal error"})
	}
}

// LocationUpdate handles POST /api/location_update
func (h *IngestHandler) LocationUpdate(c *gin.Context) {
	var req locationUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "missing parameters"})
		return
	}
	if req.Token == "" || (req.IMEI == "" && req.Phone == "") || req.Lat == nil || req.Lng == nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "missing parameters"})
		return
	}

	err := h.ingestService.SubmitLocation(c.Request.Context(), deviceIdentifier(req.IMEI, req.Phone), *req.Lat, *req.Lng, req.Token)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"ok": true, "updated": true})
	case errors.Is(err, service.ErrDeviceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "device not found"})
	case errors.Is(err, service.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "invalid token"})
	default:
		log.Printf("ERROR in /api/location_update: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "internal error"})
	}
}
