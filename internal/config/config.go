package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file looked up when no --config flag is given.
const DefaultPath = "relkit.yaml"

// Config represents the relkit project configuration.
type Config struct {
	Project  ProjectConfig  `yaml:"project"`
	Export   ExportConfig   `yaml:"export"`
	Generate GenerateConfig `yaml:"generate"`
	Version  VersionConfig  `yaml:"version"`
	Strip    StripConfig    `yaml:"strip"`
	Slim     SlimConfig     `yaml:"slim"`
	Serve    ServeConfig    `yaml:"serve"`
	History  HistoryConfig  `yaml:"history"`
	Notify   NotifyConfig   `yaml:"notify"`
	Publish  PublishConfig  `yaml:"publish"`
	Retry    RetryConfig    `yaml:"retry"`
}

// ProjectConfig describes the C++ project being packaged.
type ProjectConfig struct {
	Name           string `yaml:"name"`            // lower-case product name, e.g. "thrones"
	VersionFile    string `yaml:"version_file"`    // header holding the version constant
	VersionPattern string `yaml:"version_pattern"` // regex with one capture group for the version
	Readme         string `yaml:"readme"`
	DocDir         string `yaml:"doc_dir"`
}

// ExportConfig holds packaging settings shared by all export targets.
type ExportConfig struct {
	OutputDir     string                  `yaml:"output_dir"`
	ChecksumsFile string                  `yaml:"checksums_file"` // empty disables the manifest
	Targets       map[string]ExportTarget `yaml:"targets"`
	Aliases       map[string][]string     `yaml:"aliases,omitempty"`
}

// ArchiveFormat selects the container written for an export target.
type ArchiveFormat string

const (
	ArchiveZip   ArchiveFormat = "zip"
	ArchiveTarGz ArchiveFormat = "tar.gz"
)

// ExportTarget describes how one platform package is staged and archived.
type ExportTarget struct {
	Suffix       string        `yaml:"suffix"`
	SourceDir    string        `yaml:"source_dir"`
	SkipData     bool          `yaml:"skip_data,omitempty"`     // also keeps the libjpeg mention in the README
	SkipLicenses bool          `yaml:"skip_licenses,omitempty"` // licenses dir not copied
	Files        []FileCopy    `yaml:"files"`
	Remove       []string      `yaml:"remove,omitempty"` // file names deleted anywhere in the staging tree
	Archive      ArchiveFormat `yaml:"archive"`
	Message      string        `yaml:"message,omitempty"` // replaces the README build section
	ReadmeHTML   bool          `yaml:"readme_html,omitempty"`
	CheckHTML    string        `yaml:"check_html,omitempty"` // staged HTML page whose script references are verified
}

// FileCopy copies a file or directory from the target's source dir into the staging dir.
type FileCopy struct {
	From string `yaml:"from"`
	To   string `yaml:"to,omitempty"` // defaults to the base name of From
	// Root resolves From against the project root instead of the source dir.
	Root bool `yaml:"root,omitempty"`
}

// GenerateConfig holds build-directory generation targets.
type GenerateConfig struct {
	Targets map[string]GenerateTarget `yaml:"targets"`
	Aliases map[string][]string       `yaml:"aliases,omitempty"`
}

// GenerateTarget configures a cmake build directory and optionally compiles it.
type GenerateTarget struct {
	Dir         string   `yaml:"dir"`
	Wrapper     string   `yaml:"wrapper,omitempty"` // e.g. emcmake
	CMakeArgs   []string `yaml:"cmake_args,omitempty"`
	Make        bool     `yaml:"make"`
	MakeWrapper string   `yaml:"make_wrapper,omitempty"` // e.g. emmake
	MakeTarget  string   `yaml:"make_target,omitempty"`
	MultiConfig bool     `yaml:"multi_config,omitempty"` // generator ignores CMAKE_BUILD_TYPE
	Assets      *Assets  `yaml:"assets,omitempty"`
}

// Assets is a preliminary native build whose outputs are moved into the main build dir.
type Assets struct {
	Dir        string   `yaml:"dir"`
	CMakeArgs  []string `yaml:"cmake_args,omitempty"`
	MakeTarget string   `yaml:"make_target,omitempty"`
	Moves      []Move   `yaml:"moves"`
}

// Move renames a path relative to the project root.
type Move struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// VersionConfig lists the metadata files patched by the version command.
type VersionConfig struct {
	Files        []VersionFile `yaml:"files"`
	Increment    int           `yaml:"increment"`
	RequireClean bool          `yaml:"require_clean,omitempty"`
}

// VersionFileKind selects the substitution rules applied to a file.
type VersionFileKind string

const (
	KindHeader   VersionFileKind = "header"
	KindGradle   VersionFileKind = "gradle"
	KindManifest VersionFileKind = "manifest"
	KindPlist    VersionFileKind = "plist"
	KindResource VersionFileKind = "resource"
	KindDesktop  VersionFileKind = "desktop"
	KindCMake    VersionFileKind = "cmake"
	KindDoxygen  VersionFileKind = "doxygen"
)

// VersionFile is one file patched by the version command.
type VersionFile struct {
	Path     string          `yaml:"path"`
	Kind     VersionFileKind `yaml:"kind"`
	Optional bool            `yaml:"optional,omitempty"` // skip silently when the file does not exist
}

// StripConfig lists the trees and files cleaned by spacerm.
type StripConfig struct {
	Roots    []StripRoot   `yaml:"roots"`
	Files    []string      `yaml:"files"`
	Debounce time.Duration `yaml:"debounce"`
}

// StripRoot is a directory walked by spacerm with exact-path excludes.
type StripRoot struct {
	Path    string   `yaml:"path"`
	Exclude []string `yaml:"exclude,omitempty"`
}

// SlimConfig holds minifier defaults.
type SlimConfig struct {
	Files []string `yaml:"files,omitempty"`
}

// ServeConfig configures the demonstration static file server.
type ServeConfig struct {
	Port            int           `yaml:"port"`
	Dir             string        `yaml:"dir"`
	Metrics         bool          `yaml:"metrics"`
	MetricsPath     string        `yaml:"metrics_path"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// HistoryConfig configures the local release ledger.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// NotifyConfig configures release announcements over NATS.
type NotifyConfig struct {
	NATSURL       string        `yaml:"nats_url,omitempty"`
	SubjectPrefix string        `yaml:"subject_prefix"`
	Timeout       time.Duration `yaml:"timeout"`
}

// Enabled reports whether announcements are configured.
func (n NotifyConfig) Enabled() bool { return n.NATSURL != "" }

// PublishConfig configures uploads to S3-compatible storage.
type PublishConfig struct {
	Bucket          string `yaml:"bucket,omitempty"`
	Prefix          string `yaml:"prefix,omitempty"`
	Region          string `yaml:"region,omitempty"`
	Endpoint        string `yaml:"endpoint,omitempty"`
	AccessKeyID     string `yaml:"-"`
	SecretAccessKey string `yaml:"-"`
}

// RetryConfig configures backoff for network side effects.
type RetryConfig struct {
	Backoff    RetryBackoffMode `yaml:"backoff"`
	Initial    time.Duration    `yaml:"initial"`
	Max        time.Duration    `yaml:"max"`
	MaxRetries int              `yaml:"max_retries"`
}

// Load reads configuration from configPath for the project at root, after
// loading root's .env file. When the file does not exist and required is
// false, the built-in defaults describing the Thrones layout are used.
func Load(root, configPath string, required bool) (*Config, error) {
	if err := loadEnvFile(root); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	cfg := Default()

	data, err := os.ReadFile(configPath)
	switch {
	case os.IsNotExist(err) && !required:
		slog.Debug("Configuration file not found, using defaults", "path", configPath)
	case err != nil:
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s", configPath)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		// Expand environment variables in the YAML content
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	for _, applier := range defaultAppliers() {
		if err := applier.ApplyDefaults(cfg); err != nil {
			return nil, fmt.Errorf("apply %s defaults: %w", applier.Domain(), err)
		}
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Init writes the default configuration to configPath.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := "# relkit project configuration\n# Paths are relative to the project root.\n\n"
	if err := os.WriteFile(configPath, append([]byte(header), data...), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
