package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gmofishsauce/ylink/internal/config"
	"github.com/gmofishsauce/ylink/internal/library"
	"github.com/gmofishsauce/ylink/internal/linker"
	"github.com/gmofishsauce/ylink/internal/logging"
	"github.com/gmofishsauce/ylink/internal/objfile"
	"github.com/gmofishsauce/ylink/internal/printer"
)

func newLinkCmd(newLogger func() logging.Logger) *cobra.Command {
	var (
		output            string
		staticLibs        []string
		wrapRoutines      []string
		textStart         string
		dataBoundary      string
		bssBoundary       string
		shared            bool
		configPath        string
	)

	cmd := &cobra.Command{
		Use:   "link [objects...]",
		Short: "link ASCII object files into an executable or shared-library image",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("text-start") {
				v, err := parseHex(textStart)
				if err != nil {
					return fmt.Errorf("--text-start: %w", err)
				}
				opts.TextStart = v
			}
			if cmd.Flags().Changed("data-boundary") {
				v, err := parseHex(dataBoundary)
				if err != nil {
					return fmt.Errorf("--data-boundary: %w", err)
				}
				opts.DataStartBoundary = v
			}
			if cmd.Flags().Changed("bss-boundary") {
				v, err := parseHex(bssBoundary)
				if err != nil {
					return fmt.Errorf("--bss-boundary: %w", err)
				}
				opts.BSSStartBoundary = v
			}
			if cmd.Flags().Changed("wrap") {
				opts.WrapRoutines = wrapRoutines
			}
			if cmd.Flags().Changed("static-lib") {
				opts.StaticLibs = staticLibs
			}
			if cmd.Flags().Changed("silent") {
				opts.Silent, _ = cmd.Flags().GetBool("silent")
			}
			if shared {
				opts.LinkObjectType = linker.SharedLib
			}

			logger := newLogger()
			ld := linker.New(opts.ToLinkerOptions(), logger)

			for _, path := range args {
				contents, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("reading %s: %w", path, err)
				}
				mod, err := objfile.Parse(string(contents))
				if err != nil {
					return fmt.Errorf("parsing %s: %w", path, err)
				}
				if err := ld.AddModule(path, mod); err != nil {
					return err
				}
			}

			libs, err := loadLibraries(opts.StaticLibs)
			if err != nil {
				return err
			}

			out, _, err := ld.Link(libs)
			if err != nil {
				return fmt.Errorf("link failed: %w", err)
			}

			text := printer.Print(out)
			if output == "" {
				output = "ylink.out"
			}
			if err := os.WriteFile(output, []byte(text), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", output, err)
			}
			logger.Info("link successful", logging.F("output", output))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "ylink.out", "output file")
	cmd.Flags().StringArrayVar(&staticLibs, "static-lib", nil, "path to a static or stub library (repeatable)")
	cmd.Flags().StringArrayVar(&wrapRoutines, "wrap", nil, "wrap a symbol name (repeatable)")
	cmd.Flags().StringVar(&textStart, "text-start", "0", "text segment start address (hex)")
	cmd.Flags().StringVar(&dataBoundary, "data-boundary", "0", "data segment alignment boundary (hex)")
	cmd.Flags().StringVar(&bssBoundary, "bss-boundary", "0", "bss segment alignment boundary (hex)")
	cmd.Flags().BoolVar(&shared, "shared", false, "build a shared library image instead of an executable")
	cmd.Flags().StringVar(&configPath, "config", os.Getenv("YLINK_CONFIG"), "path to a TOML config file")

	return cmd
}

func parseHex(s string) (int32, error) {
	var v int64
	if _, err := fmt.Sscanf(s, "%x", &v); err != nil {
		return 0, err
	}
	return int32(v), nil
}

// loadLibraries sniffs each path (directory => DirLib or StubLib, regular
// file => FileLib) and wraps it as a library.Library for Phase 2.
func loadLibraries(paths []string) ([]*library.Library, error) {
	libs := make([]*library.Library, 0, len(paths))
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("reading library %s: %w", path, err)
		}
		if info.IsDir() {
			if _, err := os.Stat(filepath.Join(path, "LIBRARY_NAME")); err == nil {
				stub, err := library.ParseStubLib(path)
				if err != nil {
					return nil, err
				}
				libs = append(libs, &library.Library{Kind: library.KindStub, Stub: stub})
				continue
			}
			dir, err := library.ParseDirLib(path)
			if err != nil {
				return nil, err
			}
			libs = append(libs, &library.Library{Kind: library.KindDir, Dir: dir})
			continue
		}
		file, err := library.ParseFileLib(path)
		if err != nil {
			return nil, err
		}
		libs = append(libs, &library.Library{Kind: library.KindFile, File: file})
	}
	return libs, nil
}
