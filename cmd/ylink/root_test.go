package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gmofishsauce/ylink/internal/logging"
)

func TestNewRootCmd_HasSubcommands(t *testing.T) {
	root := newRootCmd()

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["link"])
	assert.True(t, names["ar"])

	silent := root.PersistentFlags().Lookup("silent")
	assert.NotNil(t, silent)
	verbose := root.PersistentFlags().Lookup("verbose")
	assert.NotNil(t, verbose)
}

func TestNewArCmd_HasSubcommands(t *testing.T) {
	ar := newArCmd(func() logging.Logger { return logging.Nop{} })

	names := map[string]bool{}
	for _, c := range ar.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["build-dir"])
	assert.True(t, names["build-file"])
	assert.True(t, names["list"])
}

func TestArBuildCmd_RequiresLibName(t *testing.T) {
	cmd := newArBuildCmd(func() logging.Logger { return logging.Nop{} }, "build-dir", "test")
	cmd.SetArgs([]string{"somefile.o"})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	err := cmd.Execute()
	assert.Error(t, err)
}
