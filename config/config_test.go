package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompileConfigValid(t *testing.T) {
	c := CompileConfig{}
	require.False(t, c.Valid())
	c.DatabaseDir = "/tmp/catalog"
	require.True(t, c.Valid())
}

func TestGetCompileConfigMissing(t *testing.T) {
	t.Setenv(EnvDatabaseDir, "")
	_, err := GetCompileConfig()
	require.Error(t, err)
}

func TestGetCompileConfigPresent(t *testing.T) {
	t.Setenv(EnvDatabaseDir, "/tmp/catalog")
	c, err := GetCompileConfig()
	require.NoError(t, err)
	require.Equal(t, "/tmp/catalog", c.DatabaseDir)
}

func TestGetRuntimeConfigDefaultsToNone(t *testing.T) {
	t.Setenv(EnvPerfMode, "")
	rc, err := GetRuntimeConfig()
	require.NoError(t, err)
	require.Equal(t, ModeNone, rc.Mode)
}

func TestGetRuntimeConfigUnknownMode(t *testing.T) {
	t.Setenv(EnvPerfMode, "bogus")
	_, err := GetRuntimeConfig()
	require.Error(t, err)
}

func TestGetRuntimeConfigRequiresDirWhenActive(t *testing.T) {
	t.Setenv(EnvPerfMode, ModeTime)
	t.Setenv(EnvPerfDir, "")
	_, err := GetRuntimeConfig()
	require.Error(t, err)
}

func TestGetRuntimeConfigInterval(t *testing.T) {
	t.Setenv(EnvPerfMode, ModeTime)
	t.Setenv(EnvPerfDir, "/tmp/pf")
	t.Setenv(EnvPerfInterval, "1000")
	rc, err := GetRuntimeConfig()
	require.NoError(t, err)
	require.Equal(t, 1000, rc.Interval)
}

func TestGetRuntimeConfigBadInterval(t *testing.T) {
	t.Setenv(EnvPerfMode, ModeTime)
	t.Setenv(EnvPerfDir, "/tmp/pf")
	t.Setenv(EnvPerfInterval, "not-a-number")
	_, err := GetRuntimeConfig()
	require.Error(t, err)
}
