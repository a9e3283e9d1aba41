package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmofishsauce/ylink/internal/linker"
)

func TestLoad_Defaults(t *testing.T) {
	opts, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, int32(0), opts.TextStart)
	assert.Equal(t, linker.Executable, opts.LinkObjectType)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ylink.toml")
	contents := `
text_start = "100"
data_start_boundary = "100"
silent = true
wrap_routines = ["foo", "bar"]
link_object_type = "shared-lib"
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	opts, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int32(0x100), opts.TextStart)
	assert.Equal(t, int32(0x100), opts.DataStartBoundary)
	assert.True(t, opts.Silent)
	assert.ElementsMatch(t, []string{"foo", "bar"}, opts.WrapRoutines)
	assert.Equal(t, linker.SharedLib, opts.LinkObjectType)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ylink.toml")
	require.NoError(t, os.WriteFile(path, []byte(`text_start = "100"`+"\n"), 0o644))
	t.Setenv("YLINK_TEXT_START", "200")

	opts, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int32(0x200), opts.TextStart, "env must win over file")
}

func TestLoad_BadHexValue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ylink.toml")
	require.NoError(t, os.WriteFile(path, []byte(`text_start = "zz"`+"\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
