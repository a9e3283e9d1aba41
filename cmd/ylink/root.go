package main

import (
	"github.com/spf13/cobra"

	"github.com/gmofishsauce/ylink/internal/logging"
)

func newRootCmd() *cobra.Command {
	var silent, verbose bool

	root := &cobra.Command{
		Use:           "ylink",
		Short:         "ylink links ASCII object files and manages libraries",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&silent, "silent", false, "suppress info/warn logging")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	newLogger := func() logging.Logger {
		return logging.NewLogrus(silent, verbose)
	}

	root.AddCommand(newLinkCmd(newLogger))
	root.AddCommand(newArCmd(newLogger))
	return root
}
