package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectMode(t *testing.T) {
	t.Setenv(CIKey, "")
	t.Setenv(UnattendedKey, "")
	assert.Equal(t, Interactive, DetectMode())

	t.Setenv(CIKey, "true")
	assert.Equal(t, Unattended, DetectMode())

	t.Setenv(CIKey, "false")
	assert.Equal(t, Interactive, DetectMode())

	t.Setenv(CIKey, "")
	t.Setenv(UnattendedKey, "1")
	assert.Equal(t, Unattended, DetectMode())
}

func TestEnvBoolLooseValues(t *testing.T) {
	// CI providers disagree on spelling; anything set and not explicitly
	// false counts as true.
	for value, want := range map[string]bool{
		"true": true, "1": true, "yes": true, "on": true,
		"false": false, "0": false, "FALSE": false, "": false,
	} {
		t.Setenv(CIKey, value)
		assert.Equal(t, want, envBool(CIKey), "CI=%q", value)
	}
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "interactive", Interactive.String())
	assert.Equal(t, "unattended", Unattended.String())
}
