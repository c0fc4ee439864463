package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Faioumy3/FazarahFajr01/models"
)

func adminEngine(db *gorm.DB, now time.Time) *gin.Engine {
	ctrl := NewAdminController(db).WithClock(func() time.Time { return now })
	r := gin.New()
	r.GET("/users", ctrl.ListUsers)
	r.GET("/stats", ctrl.Stats)
	r.POST("/users/:id/reset", ctrl.ResetStreak)
	r.POST("/users/:id/messages", ctrl.SendMessage)
	r.DELETE("/users/:id/messages/:msgID", ctrl.DeleteMessage)
	return r
}

func TestAdministrativeReset(t *testing.T) {
	db := setupTestDB(t)
	now := inWindow(t)
	yesterday := now.AddDate(0, 0, -1)
	user := models.User{
		FullName:      "Test",
		PhoneNumber:   "01000000030",
		PasswordHash:  "x",
		Streak:        12,
		LastCheckIn:   &yesterday,
		History:       []time.Time{yesterday},
		AttendanceLog: []models.AttendanceRecord{{Date: yesterday, Mosque: "m", Imam: "i"}},
		ClaimedReward: true,
		Messages: []models.Message{
			{ID: "m1", Date: yesterday, Sender: models.MessageSenderUser, Content: "سلام"},
		},
	}
	mustCreateUser(t, db, &user)

	rec := performJSON(t, adminEngine(db, now), http.MethodPost, fmt.Sprintf("/users/%d/reset", user.ID),
		map[string]string{"reason": "late"})
	expectStatus(t, rec, http.StatusOK)

	got := reloadUser(t, db, user.ID)
	if got.Streak != 0 {
		t.Fatalf("streak not reset, got %d", got.Streak)
	}
	if got.LastCheckIn != nil {
		t.Fatal("lastCheckIn not cleared")
	}
	if len(got.History) != 0 {
		t.Fatalf("history not cleared, %d entries remain", len(got.History))
	}
	if got.ClaimedReward {
		t.Fatal("claimedReward not cleared")
	}
	// The attendance log stays for the records.
	if len(got.AttendanceLog) != 1 {
		t.Fatalf("attendance log must survive a reset, got %d entries", len(got.AttendanceLog))
	}

	if len(got.Messages) != 2 {
		t.Fatalf("expected warning prepended to one existing message, got %d", len(got.Messages))
	}
	warning := got.Messages[0]
	if warning.Sender != models.MessageSenderAdmin {
		t.Fatalf("warning not tagged as admin message: %+v", warning)
	}
	if !strings.Contains(warning.Content, models.AdminWarningMarker) {
		t.Fatalf("warning missing marker: %q", warning.Content)
	}
	if !strings.Contains(warning.Content, "late") {
		t.Fatalf("warning missing reason: %q", warning.Content)
	}

	// The response carries the refreshed user collection.
	if !strings.Contains(rec.Body.String(), "\"items\"") {
		t.Fatalf("reset must answer with the user list, body=%s", rec.Body.String())
	}
}

func TestResetUnknownUserIsSilentNoop(t *testing.T) {
	db := setupTestDB(t)
	mustCreateUser(t, db, &models.User{FullName: "Other", PhoneNumber: "01000000031", PasswordHash: "x"})

	rec := performJSON(t, adminEngine(db, inWindow(t)), http.MethodPost, "/users/9999/reset",
		map[string]string{"reason": "late"})
	expectStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), "\"items\"") {
		t.Fatalf("expected refreshed list, body=%s", rec.Body.String())
	}
}

func TestResetRequiresReason(t *testing.T) {
	db := setupTestDB(t)
	user := models.User{FullName: "Test", PhoneNumber: "01000000032", PasswordHash: "x", Streak: 3}
	mustCreateUser(t, db, &user)

	rec := performJSON(t, adminEngine(db, inWindow(t)), http.MethodPost, fmt.Sprintf("/users/%d/reset", user.ID),
		map[string]string{"reason": "   "})
	expectStatus(t, rec, http.StatusBadRequest)
	if got := reloadUser(t, db, user.ID); got.Streak != 3 {
		t.Fatal("reset without reason must not mutate state")
	}
}

func TestAdminSendMessagePrepends(t *testing.T) {
	db := setupTestDB(t)
	now := inWindow(t)
	user := models.User{
		FullName:     "Test",
		PhoneNumber:  "01000000033",
		PasswordHash: "x",
		Messages: []models.Message{
			{ID: "m1", Date: now.AddDate(0, 0, -1), Sender: models.MessageSenderUser, Content: "سؤال"},
		},
	}
	mustCreateUser(t, db, &user)

	rec := performJSON(t, adminEngine(db, now), http.MethodPost, fmt.Sprintf("/users/%d/messages", user.ID),
		map[string]string{"content": "تم الرد"})
	expectStatus(t, rec, http.StatusOK)

	got := reloadUser(t, db, user.ID)
	if len(got.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(got.Messages))
	}
	if got.Messages[0].Sender != models.MessageSenderAdmin || !strings.Contains(got.Messages[0].Content, "تم الرد") {
		t.Fatalf("admin reply not prepended: %+v", got.Messages[0])
	}
}

func TestDeleteMessage(t *testing.T) {
	db := setupTestDB(t)
	now := inWindow(t)
	user := models.User{
		FullName:     "Test",
		PhoneNumber:  "01000000034",
		PasswordHash: "x",
		Messages: []models.Message{
			{ID: "m1", Date: now, Sender: models.MessageSenderUser, Content: "a"},
			{ID: "m2", Date: now, Sender: models.MessageSenderAdmin, Content: "b"},
		},
	}
	mustCreateUser(t, db, &user)

	engine := adminEngine(db, now)
	rec := performJSON(t, engine, http.MethodDelete, fmt.Sprintf("/users/%d/messages/m1", user.ID), nil)
	expectStatus(t, rec, http.StatusOK)

	got := reloadUser(t, db, user.ID)
	if len(got.Messages) != 1 || got.Messages[0].ID != "m2" {
		t.Fatalf("expected only m2 to remain, got %+v", got.Messages)
	}

	// Deleting an unknown message id changes nothing and still succeeds.
	rec = performJSON(t, engine, http.MethodDelete, fmt.Sprintf("/users/%d/messages/zzz", user.ID), nil)
	expectStatus(t, rec, http.StatusOK)
	if got := reloadUser(t, db, user.ID); len(got.Messages) != 1 {
		t.Fatalf("unknown message id mutated state: %+v", got.Messages)
	}
}

func TestStats(t *testing.T) {
	db := setupTestDB(t)
	now := inWindow(t)
	today := now
	threeDaysAgo := now.AddDate(0, 0, -3)
	mustCreateUser(t, db, &models.User{FullName: "A", PhoneNumber: "01000000035", PasswordHash: "x", Streak: 5, LastCheckIn: &today})
	mustCreateUser(t, db, &models.User{FullName: "B", PhoneNumber: "01000000036", PasswordHash: "x", Streak: 2, LastCheckIn: &threeDaysAgo, ClaimedReward: true})

	rec := performJSON(t, adminEngine(db, now), http.MethodGet, "/stats", nil)
	expectStatus(t, rec, http.StatusOK)

	body := rec.Body.String()
	for _, want := range []string{"\"user_count\":2", "\"checked_in_today\":1", "\"claimed_rewards\":1", "\"max_streak\":5"} {
		if !strings.Contains(body, want) {
			t.Fatalf("stats missing %s, body=%s", want, body)
		}
	}
}

func TestListUsersPagination(t *testing.T) {
	db := setupTestDB(t)
	for i := 0; i < 3; i++ {
		mustCreateUser(t, db, &models.User{
			FullName:     fmt.Sprintf("U%d", i),
			PhoneNumber:  fmt.Sprintf("0100000004%d", i),
			PasswordHash: "x",
		})
	}

	rec := performJSON(t, adminEngine(db, inWindow(t)), http.MethodGet, "/users?page=1&page_size=2", nil)
	expectStatus(t, rec, http.StatusOK)

	body := rec.Body.String()
	if !strings.Contains(body, "\"total\":3") || !strings.Contains(body, "\"total_pages\":2") {
		t.Fatalf("unexpected pagination, body=%s", body)
	}
}
