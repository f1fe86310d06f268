package config

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
)

// ValidateConfig validates the complete configuration structure.
func ValidateConfig(cfg *Config) error {
	validator := newConfigurationValidator(cfg)
	return validator.validate()
}

// configurationValidator coordinates validation across all configuration domains.
type configurationValidator struct {
	config *Config
}

func newConfigurationValidator(config *Config) *configurationValidator {
	return &configurationValidator{config: config}
}

func (cv *configurationValidator) validate() error {
	if err := cv.validateProject(); err != nil {
		return err
	}
	if err := cv.validateExport(); err != nil {
		return err
	}
	if err := cv.validateGenerate(); err != nil {
		return err
	}
	if err := cv.validateActionNames(); err != nil {
		return err
	}
	return cv.validateVersion()
}

func (cv *configurationValidator) validateProject() error {
	re, err := regexp.Compile(cv.config.Project.VersionPattern)
	if err != nil {
		return fmt.Errorf("project.version_pattern: %w", err)
	}
	if re.NumSubexp() < 1 {
		return errors.New("project.version_pattern must contain a capture group for the version")
	}
	return nil
}

func (cv *configurationValidator) validateExport() error {
	for _, name := range sortedKeys(cv.config.Export.Targets) {
		t := cv.config.Export.Targets[name]
		if t.SourceDir == "" {
			return fmt.Errorf("export target %s: source_dir is required", name)
		}
		switch t.Archive {
		case ArchiveZip, ArchiveTarGz:
		default:
			return fmt.Errorf("export target %s: unsupported archive format %q (zip or tar.gz)", name, t.Archive)
		}
		for i, f := range t.Files {
			if f.From == "" {
				return fmt.Errorf("export target %s: files[%d].from is required", name, i)
			}
		}
	}
	for alias, members := range cv.config.Export.Aliases {
		for _, m := range members {
			if _, ok := cv.config.Export.Targets[m]; !ok {
				return fmt.Errorf("export alias %s references unknown target %s", alias, m)
			}
		}
	}
	return nil
}

func (cv *configurationValidator) validateGenerate() error {
	for _, name := range sortedKeys(cv.config.Generate.Targets) {
		t := cv.config.Generate.Targets[name]
		if t.Dir == "" {
			return fmt.Errorf("generate target %s: dir is required", name)
		}
		if t.Assets != nil && t.Assets.Dir == "" {
			return fmt.Errorf("generate target %s: assets.dir is required", name)
		}
	}
	for alias, members := range cv.config.Generate.Aliases {
		for _, m := range members {
			if _, ok := cv.config.Generate.Targets[m]; !ok {
				return fmt.Errorf("generate alias %s references unknown target %s", alias, m)
			}
		}
	}
	return nil
}

// validateActionNames ensures every action resolves to exactly one kind of work.
func (cv *configurationValidator) validateActionNames() error {
	seen := make(map[string]string)
	add := func(name, kind string) error {
		if prev, ok := seen[name]; ok {
			return fmt.Errorf("action %s is defined as both %s and %s", name, prev, kind)
		}
		seen[name] = kind
		return nil
	}
	for name := range cv.config.Export.Targets {
		if err := add(name, "export target"); err != nil {
			return err
		}
	}
	for name := range cv.config.Export.Aliases {
		if err := add(name, "export alias"); err != nil {
			return err
		}
	}
	for name := range cv.config.Generate.Targets {
		if err := add(name, "generate target"); err != nil {
			return err
		}
	}
	for name := range cv.config.Generate.Aliases {
		if err := add(name, "generate alias"); err != nil {
			return err
		}
	}
	return nil
}

func (cv *configurationValidator) validateVersion() error {
	for i, f := range cv.config.Version.Files {
		if f.Path == "" {
			return fmt.Errorf("version.files[%d]: path is required", i)
		}
		switch f.Kind {
		case KindHeader, KindGradle, KindManifest, KindPlist, KindResource, KindDesktop, KindCMake, KindDoxygen:
		default:
			return fmt.Errorf("version.files[%d]: unknown kind %q", i, f.Kind)
		}
	}
	if cv.config.Version.Increment < 0 {
		return errors.New("version.increment cannot be negative")
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
