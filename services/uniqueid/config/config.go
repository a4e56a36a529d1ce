// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads svgid configuration.
//
// Values are layered: the embedded default.yaml, then an optional project
// file, then command line overrides. The result is checked with Validate.
//
// Thread Safety:
//
//	A loaded *Config is read-only by convention and safe to share.
package config

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/svgid/services/uniqueid/jsx"
)

const (
	// MaxYAMLFileSize is the maximum allowed config file size (1MB).
	MaxYAMLFileSize = 1024 * 1024

	// MaxConcurrency bounds the concurrency setting.
	MaxConcurrency = 256

	// fingerprintVersion changes whenever emitted code changes shape, so
	// cached results from older builds are not reused.
	fingerprintVersion = "svgid/1"
)

var (
	// ErrInvalidConfig indicates a config value failed validation.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrConfigTooLarge indicates a config file over MaxYAMLFileSize.
	ErrConfigTooLarge = errors.New("config file too large")
)

//go:embed default.yaml
var defaultYAML []byte

// Config holds every setting svgid reads.
type Config struct {
	// LibraryName is the module the hook is imported from.
	LibraryName string `yaml:"idGeneratorLibraryName" validate:"required,modulename"`

	// HookName is the hook called per identifier.
	HookName string `yaml:"idGeneratorHookName" validate:"required,jsident"`

	// IDPrefix prefixes runtime tokens minted by the generator package.
	IDPrefix Prefix `yaml:"idPrefix"`

	// Extensions lists the file extensions to rewrite, with leading dot.
	// Each must be one the transformer has a grammar for.
	Extensions []string `yaml:"extensions" validate:"required,min=1,dive,startswith=.,jsxext"`

	// Exclude lists glob patterns of paths to skip.
	Exclude []string `yaml:"exclude" validate:"dive,required"`

	// MaxFileSize is the largest source accepted, in bytes.
	MaxFileSize int64 `yaml:"maxFileSize" validate:"gt=0,lte=104857600"`

	// Concurrency is the number of files transformed in parallel.
	Concurrency int `yaml:"concurrency" validate:"gte=0,lte=256"`

	// CacheDir enables the result cache when non-empty.
	CacheDir string `yaml:"cacheDir"`
}

var (
	jsIdentifier = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		_ = validate.RegisterValidation("jsident", func(fl validator.FieldLevel) bool {
			return jsIdentifier.MatchString(fl.Field().String())
		})
		_ = validate.RegisterValidation("jsxext", func(fl validator.FieldLevel) bool {
			return jsx.Supports("file" + fl.Field().String())
		})
		_ = validate.RegisterValidation("modulename", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return s != "" && !strings.ContainsAny(s, "'\"`\\\n\r") && strings.TrimSpace(s) == s
		})
	})
	return validate
}

// Default returns the embedded defaults.
func Default() *Config {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultYAML, cfg); err != nil {
		// The embedded file is part of the build.
		panic(fmt.Sprintf("config: embedded default.yaml: %v", err))
	}
	return cfg
}

// Load returns the defaults overlaid with the file at path.
//
// Description:
//
//	An empty path loads only the defaults. A path that does not exist is an
//	error because it was asked for explicitly. Unknown keys are rejected so
//	typos do not silently fall back to defaults.
//
// Inputs:
//
//	path - Config file path, or "".
//
// Outputs:
//
//	*Config - The validated configuration.
//	error   - File, YAML or validation errors. Validation failures wrap
//	          ErrInvalidConfig.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if info.Size() > MaxYAMLFileSize {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit %d", ErrConfigTooLarge, path, info.Size(), MaxYAMLFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := cfg.decode(data); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse overlays data on the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := cfg.decode(data); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		var perr *PrefixError
		if errors.As(err, &perr) {
			return perr
		}
		return fmt.Errorf("parse yaml: %w", err)
	}
	return nil
}

// Overrides holds command line values. Zero values leave the config as is.
type Overrides struct {
	HookName    string
	LibraryName string
	CacheDir    string
	Concurrency *int
	MaxFileSize *int64
}

// Apply overlays o on c and validates the result.
func (c *Config) Apply(o Overrides) error {
	if o.HookName != "" {
		c.HookName = o.HookName
	}
	if o.LibraryName != "" {
		c.LibraryName = o.LibraryName
	}
	if o.CacheDir != "" {
		c.CacheDir = o.CacheDir
	}
	if o.Concurrency != nil {
		c.Concurrency = *o.Concurrency
	}
	if o.MaxFileSize != nil {
		c.MaxFileSize = *o.MaxFileSize
	}
	return c.Validate()
}

// Validate checks every field.
func (c *Config) Validate() error {
	err := validatorInstance().Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}

// Fingerprint hashes the settings that change rewrite output. It salts
// cache keys.
func (c *Config) Fingerprint() string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00%d", fingerprintVersion, c.LibraryName, c.HookName, c.MaxFileSize)
	return fmt.Sprintf("%x", h.Sum(nil))
}

// HasExtension reports whether ext is one of the configured extensions.
func (c *Config) HasExtension(ext string) bool {
	for _, e := range c.Extensions {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}
