package handler

import (
	"encoding/json"
	"net/http"

	"tracker/internal/middleware"
	"tracker/internal/model"
	"tracker/internal/service"
	"tracker/pkg/response"

	"github.com/gin-gonic/gin"
)

type TransferHandler struct {
	transferService service.TransferService
}

// NewTransferHandler sets up the routing dependencies for bulk transfer
func NewTransferHandler(transferService service.TransferService) *TransferHandler {
	return &TransferHandler{transferService: transferService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *TransferHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/export", middleware.RequireLogin(), h.Export)
	router.POST("/import", middleware.RequireRole(model.RoleAdmin), h.Import)
}

// Export streams the whole corpus as one JSON document, in the same
// shape Import consumes.
func (h *TransferHandler) Export(c *gin.Context) {
	doc, err := h.transferService.Export(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Export failed"))
		return
	}
	c.JSON(http.StatusOK, doc)
}

// Import bulk-loads devices from an uploaded JSON file. Devices whose
// IMEI or phone already exist are skipped, never merged.
func (h *TransferHandler) Import(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Select a JSON file."))
		return
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Select a JSON file."))
		return
	}
	defer f.Close()

	var doc service.ExportDocument
	if err := json.NewDecoder(f).Decode(&doc); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid JSON."))
		return
	}

	summary, err := h.transferService.Import(c.Request.Context(), &doc)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Import failed"))
		return
	}

	c.JSON(http.StatusOK, response.SuccessMessage(http.StatusOK, "Import completed.", summary))
}
