package app

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/odyssey-erp/odyssey-pos/internal/testing/guard"
)

func TestInTestModeFollowsEnvironment(t *testing.T) {
	assert.Equal(t, guard.EnvVar, testModeEnv)
	assert.True(t, InTestMode(), "importing guard switches test mode on")

	t.Setenv(guard.EnvVar, "0")
	assert.False(t, InTestMode())

	t.Setenv(guard.EnvVar, "")
	assert.False(t, InTestMode())

	t.Setenv(guard.EnvVar, "1")
	assert.True(t, InTestMode())
}
