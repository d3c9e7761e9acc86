package par_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kolkov/parslice/par"
)

func TestGetInfo(t *testing.T) {
	info := par.GetInfo()
	assert.Equal(t, par.Version, info.Version)
	assert.Equal(t, []string{"pointer", "value", "ref"}, info.Tiers)
	assert.NotEmpty(t, info.Checker)
}

func TestCompatible(t *testing.T) {
	tests := []struct {
		required string
		want     bool
	}{
		{"0.1.0", true},
		{"v0.1.0", true},
		{"0.1", true},
		{"v0.0.9", false}, // different minor before 1.0
		{"v0.1.1", false}, // newer patch
		{"v0.2.0", false},
		{"v1.0.0", false},
	}
	for _, tt := range tests {
		t.Run(tt.required, func(t *testing.T) {
			got, err := par.Compatible(tt.required)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompatible_Invalid(t *testing.T) {
	for _, v := range []string{"", "latest", "1.x"} {
		_, err := par.Compatible(v)
		assert.Error(t, err, "Compatible(%q)", v)
	}
}
