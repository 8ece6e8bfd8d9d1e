package utils

import (
	"github.com/google/uuid"
)

// ParseUUID parse UUID; chuỗi rỗng hoặc sai format trả về false
func ParseUUID(s string) (uuid.UUID, bool) {
	if s == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
