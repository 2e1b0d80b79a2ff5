package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextVersion(t *testing.T) {
	tests := []struct {
		name    string
		current string
		want    string
	}{
		{"patch increment", "1.0.0", "1.0.1"},
		{"multi digit patch", "1.0.9", "1.0.10"},
		{"major and minor kept", "3.7.41", "3.7.42"},
		{"two components fall back", "1.0", "1.0.1"},
		{"four components fall back", "1.0.0.1", "1.0.0.1.1"},
		{"non numeric patch falls back", "1.0.x", "1.0.x.1"},
		{"empty patch falls back", "1.0.", "1.0..1"},
		{"single component falls back", "7", "7.1"},
		{"empty string falls back", "", ".1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextVersion(tt.current))
		})
	}
}

func TestNextVersion_Sequence(t *testing.T) {
	v := InitialVersion
	for i := 0; i < 3; i++ {
		v = NextVersion(v)
	}
	assert.Equal(t, "1.0.3", v)
}

func TestIsSignificantChange(t *testing.T) {
	current := &EntryVersion{Title: "A", Body: "x"}

	assert.False(t, IsSignificantChange(current, "A", "x"))
	assert.True(t, IsSignificantChange(current, "B", "x"))
	assert.True(t, IsSignificantChange(current, "A", "y"))
	// byte-exact comparison
	assert.True(t, IsSignificantChange(current, "A ", "x"))
	assert.True(t, IsSignificantChange(current, "a", "x"))
	assert.True(t, IsSignificantChange(nil, "A", "x"))
}
