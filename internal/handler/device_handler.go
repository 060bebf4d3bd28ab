package handler

import (
	"errors"
	"net/http"
	"strings"

	"tracker/internal/middleware"
	"tracker/internal/model"
	"tracker/internal/phone"
	"tracker/internal/service"
	"tracker/internal/validate"
	"tracker/pkg/response"

	"github.com/gin-gonic/gin"
)

type DeviceHandler struct {
	deviceService service.DeviceService
	phones        phone.Metadata
}

// NewDeviceHandler sets up the routing dependencies for device endpoints
func NewDeviceHandler(deviceService service.DeviceService, phones phone.Metadata) *DeviceHandler {
	return &DeviceHandler{deviceService: deviceService, phones: phones}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *DeviceHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/add", middleware.RequireLogin(), h.Add)
	router.POST("/search", middleware.RequireLogin(), h.Search)
	router.POST("/device/token", middleware.RequireRole(model.RoleAdmin), h.Token)
}

type searchRequest struct {
	Query string `json:"query"`
}

type tokenRequest struct {
	Query      string `json:"query"`
	Regenerate bool   `json:"regenerate"`
}

// Add registers a new device from an operator submission.
func (h *DeviceHandler) Add(c *gin.Context) {
	var req service.RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	device, err := h.deviceService.Register(c.Request.Context(), req)
	if err != nil {
		var valErr *service.ValidationError
		switch {
		case errors.As(err, &valErr):
			c.JSON(http.StatusBadRequest, response.ValidationErrors(http.StatusBadRequest, valErr.Messages))
		case errors.Is(err, service.ErrDeviceExists):
			c.JSON(http.StatusConflict, response.Error(http.StatusConflict, err.Error()))
		default:
			c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to add device"))
		}
		return
	}

	c.JSON(http.StatusCreated, response.SuccessMessage(http.StatusCreated, "Device added.", device))
}

// Search looks a device up by IMEI or phone number. The query string is
// classified once here; phone queries also return coarse carrier/region
// metadata for the number itself.
func (h *DeviceHandler) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Query) == "" {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Enter IMEI or phone number."))
		return
	}
	query := strings.TrimSpace(req.Query)

	id, err := validate.ParseIdentifier(query, h.phones)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid IMEI or phone number."))
		return
	}

	data := gin.H{
		"query":   query,
		"is_imei": id.Kind == validate.KindIMEI,
	}
	if id.Kind == validate.KindPhone {
		data["coarse"] = gin.H{
			"carrier": h.phones.Carrier(id.Value),
			"region":  h.phones.Region(id.Value),
		}
	}

	detail, err := h.deviceService.Lookup(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrDeviceNotFound) {
			c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Search failed"))
		return
	}

	data["result"] = detail
	c.JSON(http.StatusOK, response.Success(http.StatusOK, data))
}

// Token displays a device's bearer token, optionally rotating it first.
// Rotation never touches the location history.
func (h *DeviceHandler) Token(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Query) == "" {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Enter IMEI or phone number."))
		return
	}

	device, err := h.deviceService.RotateToken(c.Request.Context(), strings.TrimSpace(req.Query), req.Regenerate)
	if err != nil {
		if errors.Is(err, service.ErrDeviceNotFound) {
			c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Token lookup failed"))
		return
	}

	if req.Regenerate {
		c.JSON(http.StatusOK, response.SuccessMessage(http.StatusOK, "Token regenerated.", device))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, device))
}
