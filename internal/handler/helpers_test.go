package handler

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"tracker/internal/database"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	return db
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

// stubMetadata accepts any +prefixed number and strips spaces.
type stubMetadata struct{}

func (stubMetadata) Normalize(raw string) (string, bool) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	if !strings.HasPrefix(s, "+") || len(s) < 8 {
		return "", false
	}
	return s, true
}

func (stubMetadata) Carrier(string) string { return "Test Mobile" }
func (stubMetadata) Region(string) string  { return "Testland" }

type sentSMS struct {
	To   string
	Body string
}

type fakeSender struct {
	Err  error
	Sent []sentSMS
}

func (f *fakeSender) Send(_ context.Context, to, body string) error {
	if f.Err != nil {
		return f.Err
	}
	f.Sent = append(f.Sent, sentSMS{To: to, Body: body})
	return nil
}
