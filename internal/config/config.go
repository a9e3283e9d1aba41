// Package config loads linker options from a TOML file and environment
// variables, in that increasing precedence order; cmd/ylink layers explicit
// flags on top as the final, highest-precedence source. Grounded on
// apache-mynewt-newt's flags-over-defaults convention and on the teacher's
// own constant-then-flag-override idiom in asm/main.go and lang/yld/main.go.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"

	"github.com/gmofishsauce/ylink/internal/linker"
)

// Options mirrors spec.md §6's options record consumed by the linker.
type Options struct {
	TextStart         int32
	DataStartBoundary int32
	BSSStartBoundary  int32
	Silent            bool
	WrapRoutines      []string
	StaticLibs        []string
	LinkObjectType    linker.LinkMode
}

// Defaults returns the compiled-in zero-value defaults (TextStart=0, etc.).
func Defaults() Options {
	return Options{LinkObjectType: linker.Executable}
}

// ToLinkerOptions converts to the linker package's own Options type.
func (o Options) ToLinkerOptions() linker.Options {
	return linker.Options{
		TextStart:         o.TextStart,
		DataStartBoundary: o.DataStartBoundary,
		BSSStartBoundary:  o.BSSStartBoundary,
		Silent:            o.Silent,
		WrapRoutines:      o.WrapRoutines,
		StaticLibs:        o.StaticLibs,
		LinkObjectType:    o.LinkObjectType,
	}
}

// fileConfig is the TOML file shape; fields are pointers so an absent key
// leaves the corresponding Options field untouched rather than zeroing it.
type fileConfig struct {
	TextStart         *string  `toml:"text_start"`
	DataStartBoundary *string  `toml:"data_start_boundary"`
	BSSStartBoundary  *string  `toml:"bss_start_boundary"`
	Silent            *bool    `toml:"silent"`
	WrapRoutines      []string `toml:"wrap_routines"`
	StaticLibs        []string `toml:"static_libs"`
	LinkObjectType    *string  `toml:"link_object_type"`
}

// Load builds Options by layering an optional TOML file and then
// environment variables over the compiled-in defaults. path may be empty,
// meaning no file layer is applied.
func Load(path string) (Options, error) {
	opts := Defaults()

	if path != "" {
		var fc fileConfig
		if _, err := toml.DecodeFile(path, &fc); err != nil {
			return opts, fmt.Errorf("config: reading %s: %w", path, err)
		}
		if err := applyFile(&opts, fc); err != nil {
			return opts, err
		}
	}

	if err := applyEnv(&opts); err != nil {
		return opts, err
	}

	return opts, nil
}

func applyFile(opts *Options, fc fileConfig) error {
	var err error
	if fc.TextStart != nil {
		if opts.TextStart, err = parseHexI32(*fc.TextStart); err != nil {
			return fmt.Errorf("config: text_start: %w", err)
		}
	}
	if fc.DataStartBoundary != nil {
		if opts.DataStartBoundary, err = parseHexI32(*fc.DataStartBoundary); err != nil {
			return fmt.Errorf("config: data_start_boundary: %w", err)
		}
	}
	if fc.BSSStartBoundary != nil {
		if opts.BSSStartBoundary, err = parseHexI32(*fc.BSSStartBoundary); err != nil {
			return fmt.Errorf("config: bss_start_boundary: %w", err)
		}
	}
	if fc.Silent != nil {
		opts.Silent = *fc.Silent
	}
	if len(fc.WrapRoutines) > 0 {
		opts.WrapRoutines = fc.WrapRoutines
	}
	if len(fc.StaticLibs) > 0 {
		opts.StaticLibs = fc.StaticLibs
	}
	if fc.LinkObjectType != nil {
		if opts.LinkObjectType, err = parseLinkMode(*fc.LinkObjectType); err != nil {
			return fmt.Errorf("config: link_object_type: %w", err)
		}
	}
	return nil
}

func applyEnv(opts *Options) error {
	var err error
	if v, ok := os.LookupEnv("YLINK_TEXT_START"); ok {
		if opts.TextStart, err = parseHexI32(v); err != nil {
			return fmt.Errorf("config: YLINK_TEXT_START: %w", err)
		}
	}
	if v, ok := os.LookupEnv("YLINK_DATA_START_BOUNDARY"); ok {
		if opts.DataStartBoundary, err = parseHexI32(v); err != nil {
			return fmt.Errorf("config: YLINK_DATA_START_BOUNDARY: %w", err)
		}
	}
	if v, ok := os.LookupEnv("YLINK_BSS_START_BOUNDARY"); ok {
		if opts.BSSStartBoundary, err = parseHexI32(v); err != nil {
			return fmt.Errorf("config: YLINK_BSS_START_BOUNDARY: %w", err)
		}
	}
	if v, ok := os.LookupEnv("YLINK_SILENT"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: YLINK_SILENT: %w", err)
		}
		opts.Silent = b
	}
	if v, ok := os.LookupEnv("YLINK_LINK_OBJECT_TYPE"); ok {
		if opts.LinkObjectType, err = parseLinkMode(v); err != nil {
			return fmt.Errorf("config: YLINK_LINK_OBJECT_TYPE: %w", err)
		}
	}
	return nil
}

func parseHexI32(s string) (int32, error) {
	v, err := strconv.ParseInt(s, 16, 32)
	if err != nil {
		return 0, err
	}
	return int32(v), nil
}

func parseLinkMode(s string) (linker.LinkMode, error) {
	switch s {
	case "executable", "Executable":
		return linker.Executable, nil
	case "shared-lib", "SharedLib", "shared_lib":
		return linker.SharedLib, nil
	default:
		return linker.Executable, fmt.Errorf("unknown link_object_type %q", s)
	}
}
