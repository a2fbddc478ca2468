package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSynthesizeID(t *testing.T) {
	tests := []struct {
		name  string
		email string
		want  string
	}{
		{
			name:  "simple email",
			email: "mechanic@fleet.example",
			want:  "email_mechanic_at_fleet_dot_example",
		},
		{
			name:  "uppercase is folded",
			email: "Driver.One@Fleet.Example",
			want:  "email_driver_dot_one_at_fleet_dot_example",
		},
		{
			name:  "plus addressing survives as underscore",
			email: "ops+alerts@fleet.example",
			want:  "email_ops_alerts_at_fleet_dot_example",
		},
		{
			name:  "hyphen and digits pass through",
			email: "unit-7@depot-2.example",
			want:  "email_unit-7_at_depot-2_dot_example",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SynthesizeID(tt.email))
		})
	}

	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, SynthesizeID("a@b.c"), SynthesizeID("a@b.c"))
	})

	t.Run("unicode collapses to underscores", func(t *testing.T) {
		id := SynthesizeID("dürüm@fleet.example")
		assert.True(t, strings.HasPrefix(id, "email_"))
		assert.NotContains(t, id, "ü")
	})

	t.Run("overlong email is truncated", func(t *testing.T) {
		long := strings.Repeat("a", 300) + "@fleet.example"
		id := SynthesizeID(long)
		assert.LessOrEqual(t, len(id), len(synthesizedIDPrefix)+synthesizedIDMaxLen)
		assert.True(t, strings.HasPrefix(id, "email_"))
	})
}

func TestPlaceholderEmail(t *testing.T) {
	email := PlaceholderEmail("user_2abc")
	assert.Equal(t, "user_2abc@auth.placeholder", email)
	assert.True(t, IsPlaceholderEmail(email))
	assert.False(t, IsPlaceholderEmail("real@fleet.example"))
}

func TestIDShapes(t *testing.T) {
	assert.True(t, isProviderID("user_2abc123"))
	assert.False(t, isProviderID("email_a_at_b_dot_c"))
	assert.True(t, isSynthesizedID("email_a_at_b_dot_c"))
	assert.False(t, isSynthesizedID("user_2abc123"))
}
