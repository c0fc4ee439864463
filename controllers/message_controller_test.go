package controllers

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Faioumy3/FazarahFajr01/models"
)

func messageEngine(db *gorm.DB, userID uint, now time.Time) *gin.Engine {
	ctrl := NewMessageController(db).WithClock(func() time.Time { return now })
	r := gin.New()
	r.POST("/messages", authAs(userID), ctrl.Send)
	return r
}

func TestUserMessageAppends(t *testing.T) {
	db := setupTestDB(t)
	now := inWindow(t)
	user := models.User{
		FullName:     "Test",
		PhoneNumber:  "01000000050",
		PasswordHash: "x",
		Messages: []models.Message{
			{ID: "m1", Date: now.AddDate(0, 0, -1), Sender: models.MessageSenderAdmin, Content: "رد سابق"},
		},
	}
	mustCreateUser(t, db, &user)

	rec := performJSON(t, messageEngine(db, user.ID, now), http.MethodPost, "/messages",
		map[string]string{"content": "هل يمكن تعديل بياناتي؟"})
	expectStatus(t, rec, http.StatusOK)

	got := reloadUser(t, db, user.ID)
	if len(got.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(got.Messages))
	}
	last := got.Messages[1]
	if last.Sender != models.MessageSenderUser {
		t.Fatalf("user message not tagged as user: %+v", last)
	}
	if !strings.Contains(last.Content, "تعديل بياناتي") {
		t.Fatalf("unexpected content: %q", last.Content)
	}
	if last.ID == "" {
		t.Fatal("message id not assigned")
	}
}

func TestUserMessageRejectsEmpty(t *testing.T) {
	db := setupTestDB(t)
	user := models.User{FullName: "Test", PhoneNumber: "01000000051", PasswordHash: "x"}
	mustCreateUser(t, db, &user)

	engine := messageEngine(db, user.ID, inWindow(t))
	for _, content := range []string{"   ", "<script>alert(1)</script>"} {
		rec := performJSON(t, engine, http.MethodPost, "/messages", map[string]string{"content": content})
		expectStatus(t, rec, http.StatusBadRequest)
	}
	if got := reloadUser(t, db, user.ID); len(got.Messages) != 0 {
		t.Fatalf("rejected message mutated state: %+v", got.Messages)
	}
}
