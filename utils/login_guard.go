package utils

import (
	"context"
	"strings"
	"time"

	"github.com/Faioumy3/FazarahFajr01/config"
)

// Per-IP login throttling backed by Redis. Every check fails open so an
// unreachable Redis degrades to no throttling instead of locking users out.

func loginKey(parts ...string) string {
	return "login:" + strings.Join(parts, ":")
}

// LoginCooldownTry enforces a short cooldown between attempts per IP.
func LoginCooldownTry(ip string) bool {
	sec := config.Get().LoginAttemptCooldownSec
	if sec <= 0 {
		return true
	}
	cli := GetRedis()
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	ok, err := cli.SetNX(ctx, loginKey("cooldown", ip), "1", time.Duration(sec)*time.Second).Result()
	if err != nil {
		return true
	}
	return ok
}

// LoginFailRecord increments the hourly failure count for the IP and
// returns the current count.
func LoginFailRecord(ip string) int {
	cli := GetRedis()
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	key := loginKey("failhour", ip, time.Now().Format("2006010215"))
	n, err := cli.Incr(ctx, key).Result()
	if err != nil {
		return 0
	}
	_ = cli.Expire(ctx, key, time.Hour).Err()
	return int(n)
}

// LoginFailReset clears the failure counter after a successful login.
func LoginFailReset(ip string) {
	cli := GetRedis()
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	_ = cli.Del(ctx, loginKey("failhour", ip, time.Now().Format("2006010215"))).Err()
}

// LoginIsBanned checks temporary ban status for the IP.
func LoginIsBanned(ip string) bool {
	cli := GetRedis()
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	exists, err := cli.Exists(ctx, loginKey("ban", ip)).Result()
	if err != nil {
		return false
	}
	return exists > 0
}

// LoginBan sets a temporary ban for the IP.
func LoginBan(ip string) {
	minutes := config.Get().LoginTempBanMinutes
	if minutes <= 0 {
		minutes = 60
	}
	cli := GetRedis()
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	_ = cli.Set(ctx, loginKey("ban", ip), "1", time.Duration(minutes)*time.Minute).Err()
}
