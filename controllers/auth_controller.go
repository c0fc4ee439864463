package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Faioumy3/FazarahFajr01/config"
	"github.com/Faioumy3/FazarahFajr01/models"
	"github.com/Faioumy3/FazarahFajr01/utils"
)

const tokenLifetime = 72 * time.Hour

// AuthController handles registration, login and session endpoints.
type AuthController struct {
	db  *gorm.DB
	now func() time.Time
}

// NewAuthController creates an AuthController.
func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{db: db, now: utils.CairoNow}
}

// WithClock overrides the controller clock. Test helper.
func (a *AuthController) WithClock(now func() time.Time) *AuthController {
	a.now = now
	return a
}

// Register creates a new account keyed by phone number. Passwords are
// stored as bcrypt hashes only.
func (a *AuthController) Register(ctx *gin.Context) {
	type request struct {
		FullName string `json:"full_name" binding:"required"`
		Phone    string `json:"phone" binding:"required"`
		Password string `json:"password" binding:"required,min=6,max=64"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	fullName := strings.TrimSpace(req.FullName)
	phone := strings.TrimSpace(req.Phone)
	if fullName == "" {
		utils.Error(ctx, http.StatusBadRequest, 40003, "الاسم الكامل مطلوب")
		return
	}
	if !validPhone(phone) {
		utils.Error(ctx, http.StatusBadRequest, 40004, "رقم الهاتف غير صحيح")
		return
	}

	var existing models.User
	if err := a.db.Where("phone_number = ?", phone).First(&existing).Error; err == nil {
		utils.Error(ctx, http.StatusConflict, 40901, "رقم الهاتف مسجل بالفعل")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50001, "failed to hash password")
		return
	}

	user := models.User{
		FullName:      fullName,
		PhoneNumber:   phone,
		PasswordHash:  hash,
		Streak:        0,
		History:       []time.Time{},
		AttendanceLog: []models.AttendanceRecord{},
		Messages:      []models.Message{},
	}

	if err := a.db.Create(&user).Error; err != nil {
		storeFailure(ctx, err)
		return
	}
	utils.InvalidateByPrefix("cache:admin:users")

	isAdmin := config.IsAdminPhone(user.PhoneNumber)
	token, err := utils.GenerateToken(user.ID, user.PhoneNumber, isAdmin, tokenLifetime)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50003, "failed to generate token")
		return
	}

	utils.SuccessMessage(ctx, "تم التسجيل بنجاح", gin.H{
		"token":    token,
		"user":     user,
		"is_admin": isAdmin,
	})
}

// Login verifies phone/password credentials, refreshes streak validity on
// the stored snapshot, and issues a JWT.
func (a *AuthController) Login(ctx *gin.Context) {
	type request struct {
		Phone    string `json:"phone" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40005, "invalid request payload")
		return
	}

	ip := ctx.ClientIP()
	if utils.LoginIsBanned(ip) {
		utils.Error(ctx, http.StatusTooManyRequests, 42920, "تم حظر المحاولات مؤقتاً، حاول لاحقاً")
		return
	}
	if !utils.LoginCooldownTry(ip) {
		utils.Error(ctx, http.StatusTooManyRequests, 42910, "محاولات كثيرة، انتظر قليلاً")
		return
	}

	var user models.User
	if err := a.db.Where("phone_number = ?", strings.TrimSpace(req.Phone)).First(&user).Error; err != nil {
		a.recordLoginFailure(ip)
		utils.Error(ctx, http.StatusUnauthorized, 40106, "بيانات الدخول غير صحيحة")
		return
	}

	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		a.recordLoginFailure(ip)
		utils.Error(ctx, http.StatusUnauthorized, 40106, "بيانات الدخول غير صحيحة")
		return
	}
	utils.LoginFailReset(ip)

	// An abandoned streak expires silently at login, without requiring a
	// check-in attempt to discover it.
	if err := RefreshStreakValidity(a.db, &user, a.now()); err != nil {
		storeFailure(ctx, err)
		return
	}

	isAdmin := config.IsAdminPhone(user.PhoneNumber)
	token, err := utils.GenerateToken(user.ID, user.PhoneNumber, isAdmin, tokenLifetime)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to generate token")
		return
	}

	utils.SuccessMessage(ctx, "تم تسجيل الدخول", gin.H{
		"token":    token,
		"user":     user,
		"is_admin": isAdmin,
	})
}

func (a *AuthController) recordLoginFailure(ip string) {
	fails := utils.LoginFailRecord(ip)
	if limit := config.Get().LoginFailedMaxPerIPPerHour; limit > 0 && fails >= limit {
		utils.LoginBan(ip)
	}
}

// Me returns the current user's snapshot after streak validity refresh,
// so a resumed session never shows a stale streak.
func (a *AuthController) Me(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var user models.User
	if err := a.db.First(&user, userID).Error; err != nil {
		storeFailure(ctx, err)
		return
	}

	if err := RefreshStreakValidity(a.db, &user, a.now()); err != nil {
		storeFailure(ctx, err)
		return
	}

	utils.Success(ctx, gin.H{
		"user":     user,
		"is_admin": config.IsAdminPhone(user.PhoneNumber),
	})
}

// Logout invalidates the token by blacklisting it until expiration.
func (a *AuthController) Logout(ctx *gin.Context) {
	authHeader := ctx.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		utils.Error(ctx, http.StatusUnauthorized, 40107, "invalid authorization header")
		return
	}

	token := strings.TrimSpace(parts[1])
	claims, err := utils.ParseToken(token)
	if err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
		return
	}

	expiresAt := time.Now().Add(tokenLifetime)
	if claims.RegisteredClaims.ExpiresAt != nil {
		expiresAt = claims.RegisteredClaims.ExpiresAt.Time
	}

	utils.BlacklistToken(token, expiresAt)
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// ChangePassword lets an authenticated user rotate their own password.
func (a *AuthController) ChangePassword(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	type request struct {
		OldPassword string `json:"old_password" binding:"required"`
		NewPassword string `json:"new_password" binding:"required,min=6,max=64"`
	}
	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40006, "invalid request payload")
		return
	}

	var user models.User
	if err := a.db.First(&user, userID).Error; err != nil {
		storeFailure(ctx, err)
		return
	}

	if !utils.CheckPassword(user.PasswordHash, req.OldPassword) {
		utils.Error(ctx, http.StatusUnauthorized, 40111, "كلمة المرور الحالية غير صحيحة")
		return
	}

	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50001, "failed to hash password")
		return
	}

	if err := a.db.Model(&user).Update("password_hash", hash).Error; err != nil {
		storeFailure(ctx, err)
		return
	}

	utils.SuccessMessage(ctx, "تم تغيير كلمة المرور", nil)
}

// validPhone accepts an optional leading '+' followed by 8-15 digits.
func validPhone(s string) bool {
	if strings.HasPrefix(s, "+") {
		s = s[1:]
	}
	if len(s) < 8 || len(s) > 15 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
