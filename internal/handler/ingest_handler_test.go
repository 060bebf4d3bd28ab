package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tracker/internal/repository"
	"tracker/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testIMEI = "490154203237518"

func newIngestRouter(t *testing.T) (*gin.Engine, *service.DeviceResponse) {
	t.Helper()
	db := openTestDB(t)
	repo := repository.NewDeviceRepository(db)
	tx := repository.NewTransactionManager(db)

	devices := service.NewDeviceService(repo, stubMetadata{})
	device, err := devices.Register(context.Background(), service.RegisterDeviceRequest{IMEI: testIMEI})
	require.NoError(t, err)

	router := newTestRouter()
	NewIngestHandler(service.NewIngestService(repo, tx)).RegisterRoutes(router.Group(""))
	return router, device
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestValidateDevice_WireShapes(t *testing.T) {
	router, device := newIngestRouter(t)

	// Missing parameters.
	w := postJSON(router, "/api/validate_device", `{"imei":"`+testIMEI+`"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, false, body["ok"])
	assert.Equal(t, "missing parameters", body["error"])

	// Unknown device.
	w = postJSON(router, "/api/validate_device", `{"imei":"000000000000000","token":"x"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "device not found", decodeBody(t, w)["error"])

	// Token mismatch.
	w = postJSON(router, "/api/validate_device", `{"imei":"`+testIMEI+`","token":"bogus"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid token", decodeBody(t, w)["error"])

	// Success.
	w = postJSON(router, "/api/validate_device", `{"imei":"`+testIMEI+`","token":"`+device.APIToken+`"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, true, body["valid"])
}

func TestLocationUpdate_WireShapes(t *testing.T) {
	router, device := newIngestRouter(t)

	// Coordinates are required alongside identifier and token.
	w := postJSON(router, "/api/location_update", `{"imei":"`+testIMEI+`","token":"`+device.APIToken+`","lat":1.0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "missing parameters", decodeBody(t, w)["error"])

	// Malformed JSON behaves like an empty payload.
	w = postJSON(router, "/api/location_update", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(router, "/api/location_update", `{"imei":"`+testIMEI+`","token":"bogus","lat":1.0,"lng":2.0}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = postJSON(router, "/api/location_update", `{"imei":"`+testIMEI+`","token":"`+device.APIToken+`","lat":1.0,"lng":2.0}`)
	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, true, body["updated"])
}

func TestLocationUpdate_ZeroCoordinatesAccepted(t *testing.T) {
	router, device := newIngestRouter(t)

	// (0, 0) is a legitimate fix; only absent fields are rejected.
	w := postJSON(router, "/api/location_update", `{"imei":"`+testIMEI+`","token":"`+device.APIToken+`","lat":0,"lng":0}`)
	assert.Equal(t, http.StatusOK, w.Code)
}
