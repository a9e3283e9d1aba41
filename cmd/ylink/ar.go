package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gmofishsauce/ylink/internal/librarian"
	"github.com/gmofishsauce/ylink/internal/logging"
)

func newArCmd(newLogger func() logging.Logger) *cobra.Command {
	ar := &cobra.Command{
		Use:   "ar",
		Short: "build or inspect libraries",
	}
	ar.AddCommand(newArBuildCmd(newLogger, "build-dir", "build a directory library (MAP + one object per member)"))
	ar.AddCommand(newArBuildCmd(newLogger, "build-file", "build a single packed file library"))
	ar.AddCommand(newArListCmd())
	return ar
}

func newArBuildCmd(newLogger func() logging.Logger, use, short string) *cobra.Command {
	var (
		libname string
		outdir  string
	)
	cmd := &cobra.Command{
		Use:   use + " [objects...]",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if libname == "" {
				return fmt.Errorf("--lib is required")
			}
			lb := librarian.New(newLogger())
			switch use {
			case "build-dir":
				return lb.BuildDir(outdir, libname, args)
			case "build-file":
				return lb.BuildFile(outdir, libname, args)
			default:
				return fmt.Errorf("unknown ar subcommand %q", use)
			}
		},
	}
	cmd.Flags().StringVar(&libname, "lib", "", "library name")
	cmd.Flags().StringVar(&outdir, "outdir", ".", "directory to write the library into")
	return cmd
}

func newArListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <path>",
		Short: "list a library's modules and their exported symbols",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := librarian.List(args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(os.Stdout, out)
			return nil
		},
	}
}
