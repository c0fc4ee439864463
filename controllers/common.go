package controllers

import (
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Faioumy3/FazarahFajr01/middleware"
	"github.com/Faioumy3/FazarahFajr01/utils"
)

func getUserID(ctx *gin.Context) (uint, bool) {
	value, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		return uint(v), true
	case int64:
		return uint(v), true
	default:
		return 0, false
	}
}

// storeFailure maps persistence errors onto the response envelope. The
// cause category is surfaced where the underlying error permits, otherwise
// a catch-all message is used.
func storeFailure(ctx *gin.Context, err error) {
	if utils.Sugar != nil {
		utils.Sugar.Errorf("store operation failed: %v", err)
	}
	var netErr net.Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		utils.Error(ctx, http.StatusNotFound, 40410, "المستخدم غير موجود")
	case errors.As(err, &netErr):
		utils.Error(ctx, http.StatusServiceUnavailable, 50301, "خطأ في الاتصال بالانترنت أو الخادم.")
	case strings.Contains(err.Error(), "database"):
		utils.Error(ctx, http.StatusServiceUnavailable, 50302, "خطأ: قاعدة البيانات غير مفعلة.")
	default:
		utils.Error(ctx, http.StatusInternalServerError, 50030, "حدث خطأ غير متوقع. حاول مرة أخرى.")
	}
}
