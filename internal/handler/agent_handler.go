package handler

import (
	"archive/zip"
	"errors"
	"io"
	"io/fs"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"tracker/internal/config"
	"tracker/internal/middleware"
	"tracker/internal/phone"
	"tracker/internal/sms"
	"tracker/pkg/response"

	"github.com/gin-gonic/gin"
)

// AgentHandler covers device onboarding: sending the install link by
// SMS and serving the example agent code as a zip.
type AgentHandler struct {
	sender sms.Sender
	phones phone.Metadata
	cfg    config.AgentConfig
}

// NewAgentHandler sets up the routing dependencies for onboarding
func NewAgentHandler(sender sms.Sender, phones phone.Metadata, cfg config.AgentConfig) *AgentHandler {
	return &AgentHandler{sender: sender, phones: phones, cfg: cfg}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *AgentHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/onboard/sms", middleware.RequireLogin(), h.OnboardSMS)
	router.GET("/agent/download", h.Download)
}

type onboardRequest struct {
	Phone string `json:"phone"`
}

// agentLink is the download URL placed in onboarding messages: the
// configured override when set, otherwise this server's own route.
func (h *AgentHandler) agentLink(c *gin.Context) string {
	if h.cfg.DownloadURL != "" {
		return h.cfg.DownloadURL
	}
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host + "/agent/download"
}

// OnboardSMS sends the companion-app install link to a phone number.
func (h *AgentHandler) OnboardSMS(c *gin.Context) {
	var req onboardRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Phone) == "" {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Enter a valid phone number including country code."))
		return
	}

	normalized, ok := h.phones.Normalize(strings.TrimSpace(req.Phone))
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Enter a valid phone number including country code."))
		return
	}

	body := "Install the tracking companion app: " + h.agentLink(c)
	if err := h.sender.Send(c.Request.Context(), normalized, body); err != nil {
		if errors.Is(err, sms.ErrNotConfigured) {
			c.JSON(http.StatusBadGateway, response.Error(http.StatusBadGateway, "Vonage is not configured. Set environment variables."))
			return
		}
		c.JSON(http.StatusBadGateway, response.Error(http.StatusBadGateway, "Failed to send SMS: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.SuccessMessage(http.StatusOK, "Onboarding SMS sent.", nil))
}

// Download streams a zip of the example agent directory. No session
// gate: the link lands on phones that are not logged in.
func (h *AgentHandler) Download(c *gin.Context) {
	if _, err := os.Stat(h.cfg.Dir); err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Agent example code is not available."))
		return
	}

	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", `attachment; filename="android_agent_example.zip"`)

	zw := zip.NewWriter(c.Writer)
	defer zw.Close()

	walkErr := filepath.WalkDir(h.cfg.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		arcname, err := filepath.Rel(h.cfg.Dir, path)
		if err != nil {
			return err
		}
		w, err := zw.Create(filepath.ToSlash(arcname))
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(w, f)
		return err
	})
	if walkErr != nil {
		// Headers are already out; all we can do is log and cut the stream.
		log.Printf("ERROR building agent zip: %v", walkErr)
	}
}
