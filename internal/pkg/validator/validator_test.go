package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsEmpty(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"", true},
		{"   ", true},
		{"abc", false},
		{" abc ", false},
	}
	for _, c := range cases {
		got := IsEmpty(c.input)
		if got != c.want {
			t.Errorf("IsEmpty(%q) = %v, want %v", c.input, got, c.want)
		}
	}
}

func TestIsValidUUID(t *testing.T) {
	valid := []string{
		"0190f5a4-8c3e-7b1a-9f00-1234567890ab",
		"550e8400-e29b-41d4-a716-446655440000",
	}
	invalid := []string{"", "not-a-uuid", "0190f5a4-8c3e-0b1a-9f00-1234567890ab"}
	for _, id := range valid {
		if !IsValidUUID(id) {
			t.Errorf("IsValidUUID(%q) = false, want true", id)
		}
	}
	for _, id := range invalid {
		if IsValidUUID(id) {
			t.Errorf("IsValidUUID(%q) = true, want false", id)
		}
	}
}

func TestIsValidTimeOfDay(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"08:00", true},
		{"23:59", true},
		{"00:00", true},
		{"24:00", false},
		{"8:00", false},
		{"08:60", false},
		{"", false},
	}
	for _, c := range cases {
		if got := IsValidTimeOfDay(c.input); got != c.want {
			t.Errorf("IsValidTimeOfDay(%q) = %v, want %v", c.input, got, c.want)
		}
	}
}

func TestIsValidTimezone(t *testing.T) {
	assert.True(t, IsValidTimezone("UTC"))
	assert.False(t, IsValidTimezone(""))
	assert.False(t, IsValidTimezone("Mars/Olympus_Mons"))
}

func TestStruct(t *testing.T) {
	type payload struct {
		Name     string   `json:"name" validate:"required"`
		Start    string   `json:"start" validate:"timeofday"`
		Weekdays []int    `json:"weekdays" validate:"min=1,unique,dive,gte=0,lte=6"`
		Zone     string   `json:"zone" validate:"tzname"`
		Lat      *float64 `json:"lat" validate:"omitempty,latitude"`
	}

	t.Run("valid", func(t *testing.T) {
		errs := Struct(payload{Name: "x", Start: "08:00", Weekdays: []int{1, 2}, Zone: "UTC"})
		assert.Empty(t, errs)
		assert.NoError(t, errs.Err())
	})

	t.Run("invalid fields keyed by json name", func(t *testing.T) {
		lat := 123.0
		errs := Struct(payload{Start: "8am", Weekdays: []int{7}, Zone: "nowhere", Lat: &lat})
		require.Error(t, errs.Err())

		m := errs.ToMap()
		assert.Equal(t, "is required", m["name"])
		assert.Equal(t, "must be a HH:MM time", m["start"])
		assert.Equal(t, "must be a valid IANA timezone", m["zone"])
		assert.Equal(t, "must be a valid latitude", m["lat"])
		assert.Contains(t, m, "weekdays[0]")
	})
}
