package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmofishsauce/ylink/internal/logging"
)

const linkSampleObj = "LINK\n1 1 0\n.text 0 2 RWP\nfoo 0 1 D\n00 00\n"

func TestParseHex(t *testing.T) {
	v, err := parseHex("1a")
	require.NoError(t, err)
	assert.Equal(t, int32(0x1a), v)

	_, err = parseHex("zz")
	assert.Error(t, err)
}

func TestLinkCmd_ProducesOutputFile(t *testing.T) {
	dir := t.TempDir()
	objPath := filepath.Join(dir, "a.o")
	require.NoError(t, os.WriteFile(objPath, []byte(linkSampleObj), 0o644))
	outPath := filepath.Join(dir, "out.link")

	cmd := newLinkCmd(func() logging.Logger { return logging.Nop{} })
	cmd.SetArgs([]string{"-o", outPath, objPath})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	require.NoError(t, cmd.Execute())

	contents, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(contents), "LINK")
}

func TestLoadLibraries_RejectsMissingPath(t *testing.T) {
	_, err := loadLibraries([]string{filepath.Join(t.TempDir(), "nope")})
	assert.Error(t, err)
}

func TestLoadLibraries_EmptyReturnsEmpty(t *testing.T) {
	libs, err := loadLibraries(nil)
	require.NoError(t, err)
	assert.Empty(t, libs)
}
