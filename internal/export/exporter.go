package export

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"git.home.luguber.info/inful/relkit/internal/archive"
	"git.home.luguber.info/inful/relkit/internal/config"
	rkerrors "git.home.luguber.info/inful/relkit/internal/errors"
	"git.home.luguber.info/inful/relkit/internal/fsutil"
	"git.home.luguber.info/inful/relkit/internal/logfields"
	"git.home.luguber.info/inful/relkit/internal/readme"
)

// Result describes one finished export.
type Result struct {
	Target     string
	Version    string
	StagingDir string
	Archive    archive.Info
	SHA256     string
	Files      []string // staged paths relative to the staging dir
	Duration   time.Duration
}

// Observer is notified after each successful export. Observers must not fail
// the export; problems are theirs to log.
type Observer interface {
	OnExported(ctx context.Context, res *Result)
}

// Exporter stages and archives export targets.
type Exporter struct {
	root      string
	cfg       *config.Config
	observers []Observer
	now       func() time.Time
}

// NewExporter returns an exporter working on the project at root.
func NewExporter(root string, cfg *config.Config, observers ...Observer) *Exporter {
	return &Exporter{root: root, cfg: cfg, observers: observers, now: time.Now}
}

// OutputDir is where staging directories, archives and the checksum manifest are written.
func (e *Exporter) OutputDir() string {
	return e.path(e.cfg.Export.OutputDir)
}

// Version reads the project version from the configured header.
func (e *Exporter) Version() (string, error) {
	v, err := ReadVersion(e.path(e.cfg.Project.VersionFile), e.cfg.Project.VersionPattern)
	if err != nil {
		return "", rkerrors.Wrap(err, rkerrors.CategoryConfig, rkerrors.SeverityFatal, "cannot determine project version").
			WithContext("path", e.cfg.Project.VersionFile)
	}
	return v, nil
}

// ArchivePath returns where the archive of export target name is written for
// the current project version.
func (e *Exporter) ArchivePath(name string) (string, error) {
	t, ok := e.cfg.Export.Targets[name]
	if !ok {
		return "", rkerrors.UnknownAction(name)
	}
	version, err := e.Version()
	if err != nil {
		return "", err
	}
	stagingName := StagingName(ProductName(e.cfg.Project.Name), version, t.Suffix)
	return filepath.Join(e.OutputDir(), stagingName+archive.Extension(t.Archive)), nil
}

// Export runs the export target name and returns what it produced.
func (e *Exporter) Export(ctx context.Context, name string) (*Result, error) {
	target, ok := e.cfg.Export.Targets[name]
	if !ok {
		return nil, rkerrors.UnknownAction(name)
	}
	version, err := e.Version()
	if err != nil {
		return nil, err
	}

	start := e.now()
	res, err := e.export(ctx, name, target, version)
	if err != nil {
		return nil, rkerrors.ExportFailed(name, err)
	}
	res.Duration = e.now().Sub(start)

	slog.Info("Export complete",
		logfields.Target(name),
		logfields.Version(version),
		logfields.Archive(res.Archive.Path),
		logfields.Size(humanize.Bytes(uint64(max(res.Archive.Size, 0)))),
		logfields.DurationMS(float64(res.Duration.Milliseconds())))

	for _, o := range e.observers {
		o.OnExported(ctx, res)
	}
	return res, nil
}

func (e *Exporter) export(ctx context.Context, name string, t config.ExportTarget, version string) (*Result, error) {
	outDir := e.OutputDir()
	stagingName := StagingName(ProductName(e.cfg.Project.Name), version, t.Suffix)
	staging := filepath.Join(outDir, stagingName)
	srcDir := e.path(t.SourceDir)

	if fsutil.Exists(staging) {
		slog.Debug("Removing previous staging directory", logfields.Dir(staging))
		if err := os.RemoveAll(staging); err != nil {
			return nil, fmt.Errorf("clean staging dir: %w", err)
		}
	}
	if err := os.MkdirAll(staging, 0o750); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	slog.Info("Staging export", logfields.Target(name), logfields.Dir(staging))

	if err := e.stageCommon(t, srcDir, staging); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, f := range t.Files {
		from := filepath.Join(srcDir, f.From)
		if f.Root {
			from = e.path(f.From)
		}
		to := f.To
		if to == "" {
			to = filepath.Base(f.From)
		}
		if err := fsutil.Copy(from, filepath.Join(staging, to)); err != nil {
			return nil, fmt.Errorf("copy %s: %w", f.From, err)
		}
		slog.Debug("Staged file", logfields.File(to))
	}

	if len(t.Remove) > 0 {
		removed, err := fsutil.RemoveNamed(staging, t.Remove...)
		if err != nil {
			return nil, fmt.Errorf("remove %v: %w", t.Remove, err)
		}
		slog.Debug("Removed unwanted files", "count", len(removed))
	}

	if t.CheckHTML != "" {
		e.checkPage(filepath.Join(staging, t.CheckHTML))
	}

	files, err := listFiles(staging)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dst := filepath.Join(outDir, stagingName+archive.Extension(t.Archive))
	info, err := archive.Write(t.Archive, dst, staging)
	if err != nil {
		return nil, fmt.Errorf("write archive: %w", err)
	}

	res := &Result{Target: name, Version: version, StagingDir: staging, Archive: info, Files: files}

	if e.cfg.Export.ChecksumsFile != "" {
		sums, err := archive.UpdateChecksums(filepath.Join(outDir, e.cfg.Export.ChecksumsFile), dst)
		if err != nil {
			return nil, fmt.Errorf("update checksums: %w", err)
		}
		res.SHA256 = sums[dst]
	} else if res.SHA256, err = archive.SHA256File(dst); err != nil {
		return nil, fmt.Errorf("checksum archive: %w", err)
	}
	return res, nil
}

// stageCommon copies data, licenses and docs and writes the patched README.
func (e *Exporter) stageCommon(t config.ExportTarget, srcDir, staging string) error {
	if !t.SkipData {
		if err := fsutil.CopyDir(filepath.Join(srcDir, "data"), filepath.Join(staging, "data")); err != nil {
			return fmt.Errorf("copy data: %w", err)
		}
	}
	if !t.SkipLicenses {
		if err := fsutil.CopyDir(filepath.Join(srcDir, "licenses"), filepath.Join(staging, "licenses")); err != nil {
			return fmt.Errorf("copy licenses: %w", err)
		}
	}
	if err := fsutil.CopyDir(e.path(e.cfg.Project.DocDir), filepath.Join(staging, "doc")); err != nil {
		return fmt.Errorf("copy docs: %w", err)
	}

	opts := readme.Options{Message: t.Message, DropLibjpeg: !t.SkipData}
	patched, err := readme.PatchFile(e.path(e.cfg.Project.Readme), filepath.Join(staging, "README.md"), opts)
	if err != nil {
		return err
	}
	for _, link := range readme.MissingLinks(patched, staging) {
		slog.Warn("README links to a file missing from the package", logfields.Path(link))
	}
	if t.ReadmeHTML {
		page, err := readme.RenderHTML(patched, ProductName(e.cfg.Project.Name))
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(staging, "README.html"), page, 0o644); err != nil { // #nosec G306 -- shipped in the package
			return fmt.Errorf("write README.html: %w", err)
		}
	}
	return nil
}

func (e *Exporter) checkPage(page string) {
	check, err := CheckScripts(page)
	if err != nil {
		slog.Warn("Cannot inspect staged page", logfields.File(page), logfields.Error(err))
		return
	}
	if len(check.Scripts) == 0 {
		slog.Warn("Staged page references no local script", logfields.File(page))
	}
	for _, m := range check.Missing {
		slog.Warn("Staged page references a missing script", logfields.File(page), logfields.Path(m))
	}
}

func (e *Exporter) path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(e.root, p)
}

func listFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return files, err
}
