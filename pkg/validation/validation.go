package validation

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	MaxQueueNameLength = 200
	MaxItemTextLength  = 1000
	MaxUserNameLength  = 100

	// Positions are stored as 32-bit integers by every backend.
	MinPosition = math.MinInt32
	MaxPosition = math.MaxInt32
)

var (
	// EmailRegex validates email format
	EmailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// ValidateEmail validates email address
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if len(email) > 254 {
		return fmt.Errorf("email is too long (max 254 characters)")
	}
	if !EmailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// ValidateUserName validates the display name given at registration.
func ValidateUserName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("name is required")
	}
	if utf8.RuneCountInString(name) > MaxUserNameLength {
		return fmt.Errorf("name is too long (max %d characters)", MaxUserNameLength)
	}
	return nil
}

// ValidatePassword validates password
func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password is required")
	}
	if len(password) < 6 {
		return fmt.Errorf("password must be at least 6 characters")
	}
	// bcrypt ignores input past 72 bytes
	if len(password) > 72 {
		return fmt.Errorf("password is too long (max 72 bytes)")
	}
	return nil
}

// ValidateQueueName rejects empty (after trimming) or oversized names.
func ValidateQueueName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("Name is required")
	}
	if !utf8.ValidString(name) {
		return fmt.Errorf("Name contains invalid characters")
	}
	if utf8.RuneCountInString(name) > MaxQueueNameLength {
		return fmt.Errorf("Name is too long (max %d characters)", MaxQueueNameLength)
	}
	return nil
}

// ValidateItemText rejects empty (after trimming) or oversized item text.
func ValidateItemText(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("item is required")
	}
	if !utf8.ValidString(text) {
		return fmt.Errorf("item contains invalid characters")
	}
	if utf8.RuneCountInString(text) > MaxItemTextLength {
		return fmt.Errorf("item is too long (max %d characters)", MaxItemTextLength)
	}
	return nil
}

// ValidatePosition requires an explicit position within the 32-bit range.
func ValidatePosition(position *int) error {
	if position == nil {
		return fmt.Errorf("position is required")
	}
	if *position < MinPosition || *position > MaxPosition {
		return fmt.Errorf("position must be between %d and %d", MinPosition, MaxPosition)
	}
	return nil
}

// ParseID parses a positive decimal identifier.
func ParseID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("id is required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}
