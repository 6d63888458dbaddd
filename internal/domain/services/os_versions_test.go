package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdjustOSType(t *testing.T) {
	tests := map[string]string{
		"darwin":      "macos",
		"Darwin":      "macos",
		"osx":         "macos",
		"mac":         "macos",
		"macos":       "macos",
		"ubuntu2204":  "ubuntu22.04",
		"ubuntu20.04": "ubuntu20.04",
		"CentOS7":     "centos7",
		" amzn2 ":     "amzn2",
		"almalinux9":  "almalinux9",
	}

	for in, want := range tests {
		assert.Equal(t, want, AdjustOSType(in), "input %q", in)
	}
}

func TestIsCompatibleOS(t *testing.T) {
	tests := []struct {
		candidate, requested string
		want                 bool
	}{
		{"almalinux8", "almalinux8", true},
		{"almalinux8", "rocky8", true},
		{"centos8", "rhel8", true},
		{"almalinux9", "rhel9", true},
		{"centos7", "almalinux8", false},
		{"amzn2", "almalinux8", false},
		{"ubuntu22.04", "ubuntu20.04", false},
		{"debian12", "debian12", true},
	}

	for _, tt := range tests {
		t.Run(tt.candidate+"_"+tt.requested, func(t *testing.T) {
			assert.Equal(t, tt.want, IsCompatibleOS(tt.candidate, tt.requested))
			assert.Equal(t, tt.want, IsCompatibleOS(tt.requested, tt.candidate))
		})
	}
}

func TestIsMacOS(t *testing.T) {
	assert.True(t, IsMacOS("macos"))
	assert.False(t, IsMacOS("almalinux8"))
	assert.False(t, IsMacOS(""))
}
