package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Faioumy3/FazarahFajr01/models"
	"github.com/Faioumy3/FazarahFajr01/utils"
)

// rewardStreakDays is the milestone after which the reward may be claimed.
const rewardStreakDays = 30

var errAlreadyCheckedIn = errors.New("already checked in today")

// AttendanceController owns the attendance ledger: check-in, streak
// validity recomputation and the reward milestone.
type AttendanceController struct {
	db  *gorm.DB
	now func() time.Time
}

// NewAttendanceController creates a new controller instance.
func NewAttendanceController(db *gorm.DB) *AttendanceController {
	return &AttendanceController{db: db, now: utils.CairoNow}
}

// WithClock overrides the controller clock. Test helper.
func (a *AttendanceController) WithClock(now func() time.Time) *AttendanceController {
	a.now = now
	return a
}

// WindowStatus reports whether the Fajr check-in window is currently open.
// Clients poll this; it is a pure evaluation of the current instant.
func (a *AttendanceController) WindowStatus(ctx *gin.Context) {
	utils.Success(ctx, utils.EvaluateFajrWindow(a.now()))
}

type checkInRequest struct {
	Mosque string `json:"mosque" binding:"required"`
	Imam   string `json:"imam" binding:"required"`
}

// CheckIn records today's Fajr attendance and updates the streak.
//
// The window is enforced here, before the ledger mutation; inside the
// transaction only the per-day idempotency and yesterday-adjacency rules
// apply. The whole update is one row write, so a failure leaves no partial
// state behind.
func (a *AttendanceController) CheckIn(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req checkInRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}
	mosque := strings.TrimSpace(req.Mosque)
	imam := strings.TrimSpace(req.Imam)
	if mosque == "" || imam == "" {
		utils.Error(ctx, http.StatusBadRequest, 40002, "اسم المسجد واسم الإمام مطلوبان")
		return
	}

	if status := utils.EvaluateFajrWindow(a.now()); !status.IsOpen {
		utils.Error(ctx, http.StatusBadRequest, 40030, status.Message)
		return
	}

	var updated models.User
	err := a.db.Transaction(func(tx *gorm.DB) error {
		// Row lock so two devices racing the idempotency check cannot both
		// pass against stale reads. SQLite serializes writes on its own and
		// rejects FOR UPDATE.
		q := tx
		if tx.Dialector.Name() == "mysql" {
			q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var user models.User
		if err := q.First(&user, userID).Error; err != nil {
			return err
		}

		now := a.now()
		if user.LastCheckIn != nil && utils.SameCairoDay(*user.LastCheckIn, now) {
			return errAlreadyCheckedIn
		}

		streak := 1
		if user.LastCheckIn != nil && utils.WasYesterday(*user.LastCheckIn, now) {
			streak = user.Streak + 1
		}

		checkIn := now
		user.Streak = streak
		user.LastCheckIn = &checkIn
		user.History = append(user.History, checkIn)
		user.AttendanceLog = append(user.AttendanceLog, models.AttendanceRecord{
			Date:   checkIn,
			Mosque: mosque,
			Imam:   imam,
		})

		if err := tx.Save(&user).Error; err != nil {
			return err
		}
		updated = user
		return nil
	})

	if err != nil {
		if errors.Is(err, errAlreadyCheckedIn) {
			utils.Error(ctx, http.StatusBadRequest, 40031, "لقد قمت بتسجيل الحضور اليوم بالفعل")
			return
		}
		storeFailure(ctx, err)
		return
	}

	utils.InvalidateByPrefix("cache:admin:users")
	utils.SuccessMessage(ctx, "تقبل الله! تم تسجيل صلاة الفجر", updated)
}

// ClaimReward marks the 30-day milestone reward as claimed. The flag never
// auto-resets; only an administrative reset clears it.
func (a *AttendanceController) ClaimReward(ctx *gin.Context) {
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

	if user.Streak < rewardStreakDays {
		utils.Error(ctx, http.StatusBadRequest, 40032, "لم تكمل 30 يوماً بعد")
		return
	}

	if !user.ClaimedReward {
		if err := a.db.Model(&user).Update("claimed_reward", true).Error; err != nil {
			storeFailure(ctx, err)
			return
		}
		user.ClaimedReward = true
		utils.InvalidateByPrefix("cache:admin:users")
	}

	utils.Success(ctx, user)
}

// RefreshStreakValidity expires an abandoned streak: when the last check-in
// is older than yesterday (Cairo calendar) the streak drops to zero with a
// single-field update. No-op otherwise, and idempotent, so it is safe to run
// on every login and session resume.
func RefreshStreakValidity(db *gorm.DB, user *models.User, now time.Time) error {
	if user.LastCheckIn == nil {
		return nil
	}
	if utils.SameCairoDay(*user.LastCheckIn, now) || utils.WasYesterday(*user.LastCheckIn, now) {
		return nil
	}
	if user.Streak == 0 {
		return nil
	}
	if err := db.Model(&models.User{}).Where("id = ?", user.ID).Update("streak", 0).Error; err != nil {
		return err
	}
	user.Streak = 0
	return nil
}
