package config

import (
	"path/filepath"
	"time"
)

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

func defaultAppliers() []DefaultApplier {
	return []DefaultApplier{
		&ProjectDefaultApplier{},
		&ExportDefaultApplier{},
		&VersionDefaultApplier{},
		&ServeDefaultApplier{},
		&RuntimeDefaultApplier{},
	}
}

// ProjectDefaultApplier fills project-level paths.
type ProjectDefaultApplier struct{}

func (p *ProjectDefaultApplier) Domain() string { return "project" }

func (p *ProjectDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Project.Name == "" {
		cfg.Project.Name = "thrones"
	}
	if cfg.Project.VersionFile == "" {
		cfg.Project.VersionFile = filepath.Join("src", "server", "server.h")
	}
	if cfg.Project.VersionPattern == "" {
		cfg.Project.VersionPattern = `char\s*commonVersion\[.*\]\s*=\s*"(.*)"`
	}
	if cfg.Project.Readme == "" {
		cfg.Project.Readme = "README.md"
	}
	if cfg.Project.DocDir == "" {
		cfg.Project.DocDir = "doc"
	}
	return nil
}

// ExportDefaultApplier normalizes export targets.
type ExportDefaultApplier struct{}

func (e *ExportDefaultApplier) Domain() string { return "export" }

func (e *ExportDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Export.OutputDir == "" {
		cfg.Export.OutputDir = "."
	}
	for name, t := range cfg.Export.Targets {
		if t.Suffix == "" {
			t.Suffix = name
		}
		if t.Archive == "" {
			t.Archive = ArchiveZip
		}
		cfg.Export.Targets[name] = t
	}
	return nil
}

// VersionDefaultApplier fills the code increment.
type VersionDefaultApplier struct{}

func (v *VersionDefaultApplier) Domain() string { return "version" }

func (v *VersionDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Version.Increment == 0 {
		cfg.Version.Increment = 1
	}
	return nil
}

// ServeDefaultApplier fills server settings.
type ServeDefaultApplier struct{}

func (s *ServeDefaultApplier) Domain() string { return "serve" }

func (s *ServeDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Serve.Port <= 0 || cfg.Serve.Port >= 65536 {
		cfg.Serve.Port = 8080
	}
	if cfg.Serve.Dir == "" {
		cfg.Serve.Dir = "."
	}
	if cfg.Serve.MetricsPath == "" {
		cfg.Serve.MetricsPath = "/metrics"
	}
	if cfg.Serve.ShutdownTimeout <= 0 {
		cfg.Serve.ShutdownTimeout = 5 * time.Second
	}
	return nil
}

// RuntimeDefaultApplier fills history, notify, strip and retry settings.
type RuntimeDefaultApplier struct{}

func (r *RuntimeDefaultApplier) Domain() string { return "runtime" }

func (r *RuntimeDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.History.Path == "" {
		cfg.History.Path = filepath.Join(".relkit", "history.db")
	}
	if cfg.Notify.SubjectPrefix == "" {
		cfg.Notify.SubjectPrefix = "relkit.release"
	}
	if cfg.Notify.Timeout <= 0 {
		cfg.Notify.Timeout = 5 * time.Second
	}
	if cfg.Strip.Debounce <= 0 {
		cfg.Strip.Debounce = 300 * time.Millisecond
	}
	if mode := NormalizeRetryBackoff(string(cfg.Retry.Backoff)); mode != "" {
		cfg.Retry.Backoff = mode
	} else {
		cfg.Retry.Backoff = RetryBackoffExponential
	}
	if cfg.Retry.Initial <= 0 {
		cfg.Retry.Initial = 500 * time.Millisecond
	}
	if cfg.Retry.Max <= 0 {
		cfg.Retry.Max = 10 * time.Second
	}
	if cfg.Retry.MaxRetries < 0 {
		cfg.Retry.MaxRetries = 0
	}
	return nil
}

const (
	vcRedistMessage32 = "To run the program you need to have the Microsoft Visual C++ Redistributable 2019 32-bit installed.  \n"
	vcRedistMessage64 = "To run the program you need to have the Microsoft Visual C++ Redistributable 2019 64-bit installed.  \n"
)

var windowsLibraries = []string{"SDL2", "SDL2_image", "SDL2_ttf", "libpng16-16", "libfreetype-6", "zlib1"}

func windowsTarget(suffix, dir, message string) ExportTarget {
	files := []FileCopy{{From: "Thrones.exe"}, {From: "Server.exe"}}
	for _, lib := range windowsLibraries {
		files = append(files, FileCopy{From: lib + ".dll"})
	}
	return ExportTarget{
		Suffix:    suffix,
		SourceDir: filepath.Join(dir, "bin"),
		Files:     files,
		Archive:   ArchiveZip,
		Message:   message,
	}
}

func linuxTarget(suffix, dir string) ExportTarget {
	return ExportTarget{
		Suffix:    suffix,
		SourceDir: filepath.Join(dir, "bin"),
		Files:     []FileCopy{{From: "thrones"}, {From: "server"}, {From: "thrones.desktop"}},
		Archive:   ArchiveTarGz,
	}
}

// Default returns the configuration describing the Thrones repository layout.
func Default() *Config {
	return &Config{
		Project: ProjectConfig{
			Name:           "thrones",
			VersionFile:    filepath.Join("src", "server", "server.h"),
			VersionPattern: `char\s*commonVersion\[.*\]\s*=\s*"(.*)"`,
			Readme:         "README.md",
			DocDir:         "doc",
		},
		Export: ExportConfig{
			OutputDir:     ".",
			ChecksumsFile: "SHA256SUMS",
			Targets: map[string]ExportTarget{
				"android": {
					Suffix:    "android",
					SourceDir: filepath.Join("android", "app"),
					SkipData:  true,
					Files:     []FileCopy{{From: filepath.Join("release", "app-release.apk"), To: "Thrones.apk"}},
					Archive:   ArchiveZip,
				},
				"linux": linuxTarget("linux64", "build_lnx"),
				"gles":  linuxTarget("gles64", "build_gles"),
				"appimage": {
					Suffix:    "appimage64",
					SourceDir: "build_appimage",
					SkipData:  true,
					Files:     []FileCopy{{From: "Thrones-x86_64.AppImage"}, {From: filepath.Join("bin", "server"), To: "server"}},
					Archive:   ArchiveTarGz,
				},
				"web": {
					Suffix:    "web",
					SourceDir: "build_web",
					SkipData:  true,
					Files: []FileCopy{
						{From: "thrones.html"}, {From: "thrones.js"}, {From: "thrones.wasm"},
						{From: "thrones.data"}, {From: "thrones.png"},
					},
					Archive:   ArchiveZip,
					CheckHTML: "thrones.html",
				},
				"mac": {
					Suffix:       "mac64",
					SourceDir:    "build",
					SkipLicenses: true,
					Files:        []FileCopy{{From: "Thrones.app"}, {From: "server"}},
					Remove:       []string{".DS_Store"},
					Archive:      ArchiveZip,
				},
				"win32": windowsTarget("win32", "build_win32", vcRedistMessage32),
				"win64": windowsTarget("win64", "build_win64", vcRedistMessage64),
			},
			Aliases: map[string][]string{"win": {"win32", "win64"}},
		},
		Generate: GenerateConfig{
			Targets: map[string]GenerateTarget{
				"glinux":    {Dir: "build_lnx", Make: true},
				"ggles":     {Dir: "build_gles", CMakeArgs: []string{"-DOPENGLES=1"}, Make: true},
				"gappimage": {Dir: "build_appimage", CMakeArgs: []string{"-DAPPIMAGE=1"}, Make: true},
				"gweb": {
					Dir:         "build_web",
					Wrapper:     "emcmake",
					Make:        true,
					MakeWrapper: "emmake",
					Assets: &Assets{
						Dir:        "build_wgl",
						CMakeArgs:  []string{"-DOPENGLES=1"},
						MakeTarget: "assets",
						Moves: []Move{
							{From: filepath.Join("build_wgl", "bin", "data"), To: filepath.Join("build_web", "data")},
							{From: filepath.Join("build_wgl", "bin", "licenses"), To: filepath.Join("build_web", "licenses")},
							{From: filepath.Join("build_web", "data", "thrones.png"), To: filepath.Join("build_web", "thrones.png")},
						},
					},
				},
				"gwin32": {Dir: "build_win32", CMakeArgs: []string{"-G", "Visual Studio 16", "-A", "Win32"}, MultiConfig: true},
				"gwin64": {Dir: "build_win64", CMakeArgs: []string{"-G", "Visual Studio 16", "-A", "x64"}, MultiConfig: true},
			},
			Aliases: map[string][]string{"gwin": {"gwin32", "gwin64"}},
		},
		Version: VersionConfig{
			Increment: 1,
			Files: []VersionFile{
				{Path: filepath.Join("src", "server", "server.h"), Kind: KindHeader},
				{Path: filepath.Join("android", "app", "build.gradle"), Kind: KindGradle},
				{Path: filepath.Join("android", "app", "src", "main", "AndroidManifest.xml"), Kind: KindManifest},
				{Path: filepath.Join("rsc", "Info.plist"), Kind: KindPlist},
				{Path: filepath.Join("rsc", "server.rc"), Kind: KindResource},
				{Path: filepath.Join("rsc", "thrones.rc"), Kind: KindResource},
				{Path: filepath.Join("rsc", "thrones.desktop"), Kind: KindDesktop},
				{Path: "CMakeLists.txt", Kind: KindCMake, Optional: true},
				{Path: "Doxyfile", Kind: KindDoxygen, Optional: true},
			},
		},
		Strip: StripConfig{
			Roots: []StripRoot{
				{Path: "doc"},
				{Path: filepath.Join("rsc", "materials")},
				{Path: filepath.Join("rsc", "objects")},
				{Path: filepath.Join("rsc", "shaders")},
				{Path: "src", Exclude: []string{filepath.Join("src", "test", "text.cpp")}},
				{Path: "tools", Exclude: []string{filepath.Join("tools", "export.py"), filepath.Join("tools", "spacerm.py")}},
			},
			Files: []string{
				"CMakeLists.txt",
				filepath.Join("rsc", "Info.plist"),
				filepath.Join("rsc", "server.rc"),
				filepath.Join("rsc", "thrones.desktop"),
				filepath.Join("rsc", "thrones.html"),
				filepath.Join("rsc", "thrones.rc"),
			},
			Debounce: 300 * time.Millisecond,
		},
		Serve: ServeConfig{
			Port:            8080,
			Dir:             ".",
			MetricsPath:     "/metrics",
			ShutdownTimeout: 5 * time.Second,
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    filepath.Join(".relkit", "history.db"),
		},
		Notify: NotifyConfig{
			SubjectPrefix: "relkit.release",
			Timeout:       5 * time.Second,
		},
		Retry: RetryConfig{
			Backoff:    RetryBackoffExponential,
			Initial:    500 * time.Millisecond,
			Max:        10 * time.Second,
			MaxRetries: 3,
		},
	}
}
