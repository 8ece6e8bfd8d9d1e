package cache

import "fmt"

// Key builders dùng chung giữa service và middleware
func TokenBlacklistKey(tokenID string) string {
	return fmt.Sprintf("token_blacklist:%s", tokenID)
}

func LoginAttemptsKey(email string) string {
	return fmt.Sprintf("login_attempts:%s", email)
}

func LoginLockKey(email string) string {
	return fmt.Sprintf("login_locked:%s", email)
}
