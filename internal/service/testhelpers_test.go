package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"tracker/internal/database"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDB opens a named in-memory sqlite database. The shared cache
// keeps the database alive across gorm's pooled connections.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return openNamedTestDB(t, "main")
}

func openNamedTestDB(t *testing.T, suffix string) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()) + "_" + suffix
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	return db
}

// stubMetadata is a deterministic phone.Metadata: it accepts any
// +prefixed number, strips spaces, and reports fixed metadata.
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

// fakeSender records outbound SMS, or fails every send when Err is set.
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
