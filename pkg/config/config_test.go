package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCSV(t *testing.T) {
	assert.Nil(t, CSV(""))
	assert.Equal(t, []string{"a:9092", "b:9092"}, CSV(" a:9092, ,b:9092 "))
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("CFG_STR", "value")
	t.Setenv("CFG_INT", "42")
	t.Setenv("CFG_BAD_INT", "forty")
	t.Setenv("CFG_DUR", "90s")
	t.Setenv("CFG_NEG_DUR", "-1m")
	t.Setenv("CFG_BOOL", "true")

	assert.Equal(t, "value", EnvDefault("CFG_STR", "def"))
	assert.Equal(t, "def", EnvDefault("CFG_MISSING", "def"))

	assert.Equal(t, 42, EnvIntDefault("CFG_INT", 1))
	assert.Equal(t, 1, EnvIntDefault("CFG_BAD_INT", 1))

	assert.Equal(t, 90*time.Second, EnvDurationDefault("CFG_DUR", time.Minute))
	assert.Equal(t, time.Minute, EnvDurationDefault("CFG_NEG_DUR", time.Minute))
	assert.Equal(t, time.Minute, EnvDurationDefault("CFG_MISSING", time.Minute))

	assert.True(t, EnvBoolDefault("CFG_BOOL", false))
	assert.True(t, EnvBoolDefault("CFG_MISSING", true))
}
