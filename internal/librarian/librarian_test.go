package librarian

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmofishsauce/ylink/internal/linker"
	"github.com/gmofishsauce/ylink/internal/objfile"
)

const sampleObj = "LINK\n1 1 0\n.text 0 2 RWP\nfoo 0 1 D\n00 00\n"

func TestBuildDir_ThenList(t *testing.T) {
	base := t.TempDir()
	objPath := filepath.Join(base, "a.o")
	require.NoError(t, os.WriteFile(objPath, []byte(sampleObj), 0o644))

	lb := New(nil)
	require.NoError(t, lb.BuildDir(base, "libfoo", []string{objPath}))

	out, err := List(filepath.Join(base, "libfoo"))
	require.NoError(t, err)
	assert.Contains(t, out, "a.o: foo")
}

func TestBuildFile_ThenList(t *testing.T) {
	base := t.TempDir()
	objPath := filepath.Join(base, "a.o")
	require.NoError(t, os.WriteFile(objPath, []byte(sampleObj), 0o644))

	lb := New(nil)
	require.NoError(t, lb.BuildFile(base, "packed.lib", []string{objPath}))

	out, err := List(filepath.Join(base, "packed.lib"))
	require.NoError(t, err)
	assert.Contains(t, out, "foo")
}

func TestBuildSharedLib(t *testing.T) {
	ld := linker.New(linker.Options{LinkObjectType: linker.SharedLib}, nil)
	mod, err := objfile.Parse(sampleObj)
	require.NoError(t, err)
	require.NoError(t, ld.AddModule("a", mod))
	out, _, err := ld.Link(nil)
	require.NoError(t, err)

	base := t.TempDir()
	lb := New(nil)
	require.NoError(t, lb.BuildSharedLib(base, "libshared", []string{"libother"}, out))

	nameBytes, err := os.ReadFile(filepath.Join(base, "libshared", "LIBRARY_NAME"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(nameBytes), "\n"), "\n")
	assert.Equal(t, []string{"libshared", "libother"}, lines)

	stubBytes, err := os.ReadFile(filepath.Join(base, "libshared", "foo"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(stubBytes), "STUB\n"))
}

func TestBuildSharedLib_RejectsExecutableOutput(t *testing.T) {
	ld := linker.New(linker.Options{}, nil)
	mod, err := objfile.Parse(sampleObj)
	require.NoError(t, err)
	require.NoError(t, ld.AddModule("a", mod))
	out, _, err := ld.Link(nil)
	require.NoError(t, err)

	lb := New(nil)
	err = lb.BuildSharedLib(t.TempDir(), "libshared", nil, out)
	assert.Error(t, err)
}
