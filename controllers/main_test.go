package controllers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Faioumy3/FazarahFajr01/config"
	"github.com/Faioumy3/FazarahFajr01/middleware"
	"github.com/Faioumy3/FazarahFajr01/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// setupTestDB opens a fresh in-memory database per test. Redis-backed
// helpers fail open when no server is reachable, so they need no setup.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	config.SetForTesting(config.AppConfig{JWTSecret: "test-secret"})
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func configWithAdmin(t *testing.T, phones ...string) {
	t.Helper()
	config.SetForTesting(config.AppConfig{JWTSecret: "test-secret", AdminPhones: phones})
}

func cairoLoc(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Africa/Cairo")
	if err != nil {
		t.Fatalf("load Africa/Cairo: %v", err)
	}
	return loc
}

// authAs stands in for the JWT middleware.
func authAs(userID uint) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Set(middleware.ContextUserIDKey, userID)
		ctx.Next()
	}
}

func performJSON(t *testing.T, engine *gin.Engine, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func mustCreateUser(t *testing.T, db *gorm.DB, user *models.User) {
	t.Helper()
	if user.History == nil {
		user.History = []time.Time{}
	}
	if user.AttendanceLog == nil {
		user.AttendanceLog = []models.AttendanceRecord{}
	}
	if user.Messages == nil {
		user.Messages = []models.Message{}
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
}

func reloadUser(t *testing.T, db *gorm.DB, id uint) models.User {
	t.Helper()
	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		t.Fatalf("reload user %d: %v", id, err)
	}
	return user
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var envelope map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v (body=%s)", err, rec.Body.String())
	}
	return envelope
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d (body=%s)", want, rec.Code, rec.Body.String())
	}
}
