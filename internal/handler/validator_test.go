package handler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRequest struct {
	PlayerID string `json:"player_id" validate:"required,entityid"`
	Username string `json:"username" validate:"omitempty,username"`
	Quantity int    `json:"quantity" validate:"min=1,max=10000"`
}

func TestValidator_EntityID(t *testing.T) {
	v := GetValidator()

	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"simple", "player_001", false},
		{"dashes", "guild-abc-123", false},
		{"max length", strings.Repeat("a", 64), false},
		{"too long", strings.Repeat("a", 65), true},
		{"empty", "", true},
		{"spaces", "player 001", true},
		{"path traversal", "../etc", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateStruct(testRequest{PlayerID: tt.id, Quantity: 1})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidator_Username(t *testing.T) {
	v := GetValidator()

	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"valid", "DragonSlayer99", false},
		{"minimum", "abc", false},
		{"maximum", strings.Repeat("x", 20), false},
		{"omitted", "", false},
		{"too short", "ab", true},
		{"too long", strings.Repeat("x", 21), true},
		{"punctuation", "dragon!", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateStruct(testRequest{PlayerID: "p1", Username: tt.username, Quantity: 1})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFormatValidationError_UsesJSONNames(t *testing.T) {
	err := GetValidator().ValidateStruct(testRequest{Quantity: 0})
	require.Error(t, err)

	fields := FormatValidationError(err)
	assert.Equal(t, "This field is required", fields["player_id"])
	assert.Equal(t, "Must be at least 1", fields["quantity"])
}

func TestFormatValidationError_NonValidatorError(t *testing.T) {
	fields := FormatValidationError(assert.AnError)
	assert.Equal(t, "Invalid request format", fields["error"])
	assert.Nil(t, FormatValidationError(nil))
}

func TestValidator_ListingTTL(t *testing.T) {
	v := GetValidator()
	base := CreateListingRequest{ItemID: "iron_sword", Quantity: 1, Price: 10}

	tests := []struct {
		name    string
		hours   int
		wantErr bool
	}{
		{"omitted uses default", 0, false},
		{"one hour", 1, false},
		{"at cap", MaxListingTTLHours, false},
		{"over cap", MaxListingTTLHours + 1, true},
		{"negative", -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			req.TTLHours = tt.hours
			err := v.ValidateStruct(req)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, FormatValidationError(err), "ttl_hours")
		})
	}

	err := v.ValidateStruct(CreateListingRequest{ItemID: "iron_sword", Quantity: 1, Price: 10, TTLHours: MaxListingTTLHours + 1})
	assert.Equal(t, "Must be at most 720 hours", FormatValidationError(err)["ttl_hours"])
}
