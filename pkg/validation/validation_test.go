package validation

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"valid email", "user@example.com", false},
		{"valid email with subdomain", "user@mail.example.com", false},
		{"empty email", "", true},
		{"invalid format", "invalid-email", true},
		{"missing @", "userexample.com", true},
		{"too long", strings.Repeat("a", 250) + "@example.com", true},
		{"valid with plus", "user+tag@example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			assert.Equal(t, tt.wantErr, err != nil, "ValidateEmail(%q) = %v", tt.email, err)
		})
	}
}

func TestValidatePassword(t *testing.T) {
	assert.Error(t, ValidatePassword(""))
	assert.Error(t, ValidatePassword("12345"))
	assert.NoError(t, ValidatePassword("123456"))
	assert.Error(t, ValidatePassword(strings.Repeat("x", 73)))
}

func TestValidateUserName(t *testing.T) {
	assert.Error(t, ValidateUserName("   "))
	assert.NoError(t, ValidateUserName("Ada Lovelace"))
	assert.Error(t, ValidateUserName(strings.Repeat("n", MaxUserNameLength+1)))
}

func TestValidateQueueName(t *testing.T) {
	err := ValidateQueueName("  \t ")
	if assert.Error(t, err) {
		assert.Equal(t, "Name is required", err.Error())
	}
	assert.NoError(t, ValidateQueueName("Front Desk"))
	assert.NoError(t, ValidateQueueName(strings.Repeat("é", MaxQueueNameLength)))
	assert.Error(t, ValidateQueueName(strings.Repeat("q", MaxQueueNameLength+1)))
}

func TestValidateItemText(t *testing.T) {
	err := ValidateItemText("")
	if assert.Error(t, err) {
		assert.Equal(t, "item is required", err.Error())
	}
	assert.NoError(t, ValidateItemText("Alice"))
	assert.Error(t, ValidateItemText(strings.Repeat("t", MaxItemTextLength+1)))
}

func TestValidatePosition(t *testing.T) {
	zero := 0
	assert.Error(t, ValidatePosition(nil))
	assert.NoError(t, ValidatePosition(&zero))

	for _, p := range []int{MinPosition, -1, MaxPosition} {
		assert.NoError(t, ValidatePosition(&p), "position %d", p)
	}
	for _, p := range []int{MaxPosition + 1, MinPosition - 1, math.MaxInt, math.MinInt} {
		err := ValidatePosition(&p)
		if assert.Error(t, err, "position %d", p) {
			assert.Contains(t, err.Error(), "position must be between")
		}
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{"12", 12, false},
		{" 7 ", 7, false},
		{"", 0, true},
		{"abc", 0, true},
		{"0", 0, true},
		{"-3", 0, true},
		{"1.5", 0, true},
		{"99999999999999999999", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseID(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
