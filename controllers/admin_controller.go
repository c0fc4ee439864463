package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Faioumy3/FazarahFajr01/models"
	"github.com/Faioumy3/FazarahFajr01/utils"
)

const adminUsersCachePrefix = "cache:admin:users"

// AdminController handles the administration endpoints: user listing,
// streak resets, messaging and aggregate statistics. All routes behind it
// require the server-resolved admin claim.
type AdminController struct {
	db  *gorm.DB
	now func() time.Time
}

// NewAdminController creates a new controller instance.
func NewAdminController(db *gorm.DB) *AdminController {
	return &AdminController{db: db, now: utils.CairoNow}
}

// WithClock overrides the controller clock. Test helper.
func (a *AdminController) WithClock(now func() time.Time) *AdminController {
	a.now = now
	return a
}

// ListUsers returns paginated users, cached briefly in Redis. Any admin or
// ledger mutation invalidates the cache by prefix.
func (a *AdminController) ListUsers(ctx *gin.Context) {
	page, pageSize := 1, 20
	if v := strings.TrimSpace(ctx.Query("page")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	if v := strings.TrimSpace(ctx.Query("page_size")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			pageSize = n
		}
	}

	cacheKey := fmt.Sprintf("%s:%d:%d", adminUsersCachePrefix, page, pageSize)
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	var total int64
	if err := a.db.Model(&models.User{}).Count(&total).Error; err != nil {
		storeFailure(ctx, err)
		return
	}

	var users []models.User
	if err := a.db.Order("created_at DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&users).Error; err != nil {
		storeFailure(ctx, err)
		return
	}

	payload := gin.H{
		"items": users,
		"pagination": gin.H{
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": int((total + int64(pageSize) - 1) / int64(pageSize)),
		},
	}
	utils.CacheSetJSON(cacheKey, utils.JSONResponse{Code: 0, Message: "success", Data: payload}, time.Minute)
	utils.Success(ctx, payload)
}

type resetRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// ResetStreak performs the administrative reset: streak and lastCheckIn are
// cleared, history is emptied, the reward flag drops, and a warning message
// carrying the reason lands on top of the user's conversation. One atomic
// row update. The attendance log is kept for the records.
//
// A vanished user id is a silent no-op: the handler answers with the
// refreshed user list either way, so the admin view simply converges.
func (a *AdminController) ResetStreak(ctx *gin.Context) {
	var req resetRequest
	if err := ctx.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Reason) == "" {
		utils.Error(ctx, http.StatusBadRequest, 40009, "سبب التصفير مطلوب")
		return
	}
	reason := strings.TrimSpace(utils.SanitizeText(req.Reason))

	var user models.User
	err := a.db.First(&user, ctx.Param("id")).Error
	switch {
	case err == gorm.ErrRecordNotFound:
		// fall through to the list below
	case err != nil:
		storeFailure(ctx, err)
		return
	default:
		warning := models.Message{
			ID:      uuid.NewString(),
			Date:    a.now(),
			Sender:  models.MessageSenderAdmin,
			Content: fmt.Sprintf("%s: تم تصفير العداد.\nالسبب: %s", models.AdminWarningMarker, reason),
		}

		user.Streak = 0
		user.LastCheckIn = nil
		user.History = []time.Time{}
		user.ClaimedReward = false
		user.Messages = append([]models.Message{warning}, user.Messages...)

		if err := a.db.Model(&user).Updates(map[string]interface{}{
			"streak":         0,
			"last_check_in":  nil,
			"history":        user.History,
			"claimed_reward": false,
			"messages":       user.Messages,
		}).Error; err != nil {
			storeFailure(ctx, err)
			return
		}
		utils.InvalidateByPrefix(adminUsersCachePrefix)
	}

	a.respondWithAllUsers(ctx)
}

// SendMessage prepends an administration reply onto the user's conversation.
func (a *AdminController) SendMessage(ctx *gin.Context) {
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
	err := a.db.First(&user, ctx.Param("id")).Error
	switch {
	case err == gorm.ErrRecordNotFound:
		// silent no-op, answer with the refreshed list
	case err != nil:
		storeFailure(ctx, err)
		return
	default:
		reply := models.Message{
			ID:      uuid.NewString(),
			Date:    a.now(),
			Sender:  models.MessageSenderAdmin,
			Content: fmt.Sprintf("📩 رد من الإدارة:\n%s", content),
		}
		user.Messages = append([]models.Message{reply}, user.Messages...)

		if err := a.db.Model(&user).Update("messages", user.Messages).Error; err != nil {
			storeFailure(ctx, err)
			return
		}
		utils.InvalidateByPrefix(adminUsersCachePrefix)
	}

	a.respondWithAllUsers(ctx)
}

// DeleteMessage removes one message by id from the user's conversation.
// Unknown user or message ids are silent no-ops.
func (a *AdminController) DeleteMessage(ctx *gin.Context) {
	msgID := strings.TrimSpace(ctx.Param("msgID"))

	var user models.User
	err := a.db.First(&user, ctx.Param("id")).Error
	switch {
	case err == gorm.ErrRecordNotFound:
	case err != nil:
		storeFailure(ctx, err)
		return
	default:
		kept := make([]models.Message, 0, len(user.Messages))
		for _, msg := range user.Messages {
			if msg.ID != msgID {
				kept = append(kept, msg)
			}
		}
		if len(kept) != len(user.Messages) {
			user.Messages = kept
			if err := a.db.Model(&user).Update("messages", user.Messages).Error; err != nil {
				storeFailure(ctx, err)
				return
			}
			utils.InvalidateByPrefix(adminUsersCachePrefix)
		}
	}

	a.respondWithAllUsers(ctx)
}

// Stats returns aggregate attendance statistics.
func (a *AdminController) Stats(ctx *gin.Context) {
	var userCount int64
	if err := a.db.Model(&models.User{}).Count(&userCount).Error; err != nil {
		userCount = 0
	}

	// Today's check-ins: lastCheckIn within today's Cairo calendar day.
	now := a.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	var todayCount int64
	if err := a.db.Model(&models.User{}).
		Where("last_check_in >= ? AND last_check_in < ?", dayStart, dayStart.AddDate(0, 0, 1)).
		Count(&todayCount).Error; err != nil {
		todayCount = 0
	}

	var claimedCount int64
	if err := a.db.Model(&models.User{}).Where("claimed_reward = ?", true).Count(&claimedCount).Error; err != nil {
		claimedCount = 0
	}

	var maxStreak int64
	if err := a.db.Model(&models.User{}).Select("COALESCE(MAX(streak),0)").Scan(&maxStreak).Error; err != nil {
		maxStreak = 0
	}

	utils.Success(ctx, gin.H{
		"user_count":       userCount,
		"checked_in_today": todayCount,
		"claimed_rewards":  claimedCount,
		"max_streak":       maxStreak,
	})
}

// respondWithAllUsers answers with the full user collection, the shape the
// admin panel refreshes from after every mutation.
func (a *AdminController) respondWithAllUsers(ctx *gin.Context) {
	var users []models.User
	if err := a.db.Order("created_at DESC").Find(&users).Error; err != nil {
		storeFailure(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"items": users})
}
