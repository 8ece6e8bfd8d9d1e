package rules

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// IntBetween kiểm tra int / *int nằm trong [min, max].
// Khác validation.Min/Max: giá trị 0 vẫn bị kiểm tra, chỉ nil mới được bỏ qua.
func IntBetween(min, max int) validation.Rule {
	return validation.By(func(value interface{}) error {
		v, isNil := validation.Indirect(value)
		if isNil {
			return nil
		}
		n, ok := v.(int)
		if !ok {
			return fmt.Errorf("must be an integer")
		}
		if n < min || n > max {
			return fmt.Errorf("must be between %d and %d", min, max)
		}
		return nil
	})
}

// ISBN chấp nhận ISBN-10 hoặc ISBN-13, cho phép dấu gạch ngang.
var ISBN = validation.By(func(value interface{}) error {
	v, isNil := validation.Indirect(value)
	if isNil {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		return fmt.Errorf("must be a string")
	}

	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '-':
		default:
			return fmt.Errorf("please provide a valid ISBN")
		}
	}
	if digits != 10 && digits != 13 {
		return fmt.Errorf("please provide a valid ISBN")
	}
	return nil
})

// TrimPtr trim chuỗi trong pointer; chuỗi rỗng sau khi trim thành nil
func TrimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// RequiredUUID: validation.Required không bắt được uuid.Nil
// (Indirect dùng driver.Valuer nên uuid.Nil thành chuỗi khác rỗng)
var RequiredUUID = validation.By(func(value interface{}) error {
	var id uuid.UUID
	switch v := value.(type) {
	case uuid.UUID:
		id = v
	case *uuid.UUID:
		if v == nil {
			return fmt.Errorf("cannot be blank")
		}
		id = *v
	default:
		return fmt.Errorf("must be a valid id")
	}

	if id == uuid.Nil {
		return fmt.Errorf("cannot be blank")
	}
	return nil
})
