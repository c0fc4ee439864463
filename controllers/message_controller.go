package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Faioumy3/FazarahFajr01/models"
	"github.com/Faioumy3/FazarahFajr01/utils"
)

// MessageController handles the user side of the conversation with the
// administration.
type MessageController struct {
	db  *gorm.DB
	now func() time.Time
}

// NewMessageController creates a new controller instance.
func NewMessageController(db *gorm.DB) *MessageController {
	return &MessageController{db: db, now: utils.CairoNow}
}

// WithClock overrides the controller clock. Test helper.
func (m *MessageController) WithClock(now func() time.Time) *MessageController {
	m.now = now
	return m
}

// Send appends a user-authored message to the user's own conversation.
// User messages keep chronological order; only administration messages are
// prepended.
func (m *MessageController) Send(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	type request struct {
		Content string `json:"content" binding:"required"`
	}
	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40007, "invalid request payload")
		return
	}

	content := strings.TrimSpace(utils.SanitizeText(req.Content))
	if content == "" {
		utils.Error(ctx, http.StatusBadRequest, 40008, "لا يمكن إرسال رسالة فارغة")
		return
	}

	var user models.User
	if err := m.db.First(&user, userID).Error; err != nil {
		storeFailure(ctx, err)
		return
	}

	user.Messages = append(user.Messages, models.Message{
		ID:      uuid.NewString(),
		Date:    m.now(),
		Sender:  models.MessageSenderUser,
		Content: content,
	})

	if err := m.db.Model(&user).Update("messages", user.Messages).Error; err != nil {
		storeFailure(ctx, err)
		return
	}

	utils.InvalidateByPrefix("cache:admin:users")
	utils.SuccessMessage(ctx, "تم إرسال الرسالة", user)
}
