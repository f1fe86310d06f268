package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"git.home.luguber.info/inful/relkit/internal/config"
	rkerrors "git.home.luguber.info/inful/relkit/internal/errors"
	"git.home.luguber.info/inful/relkit/internal/export"
	"git.home.luguber.info/inful/relkit/internal/fsutil"
	"git.home.luguber.info/inful/relkit/internal/publish"
	"git.home.luguber.info/inful/relkit/internal/retry"
)

// PublishCmd implements the 'publish' command.
type PublishCmd struct {
	Actions []string `arg:"" help:"Export targets or aliases whose archives are uploaded"`
	Bucket  string   `help:"Override publish.bucket"`
	Prefix  string   `help:"Override publish.prefix"`
}

// newPutter builds the S3 client; replaced in tests.
var newPutter = func(ctx context.Context, pc config.PublishConfig) (publish.ObjectPutter, error) {
	return publish.NewClient(ctx, pc)
}

func (p *PublishCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	pc := cfg.Publish
	if p.Bucket != "" {
		pc.Bucket = p.Bucket
	}
	if p.Prefix != "" {
		pc.Prefix = p.Prefix
	}

	exporter := export.NewExporter(root.Root, cfg)
	version, err := exporter.Version()
	if err != nil {
		return err
	}

	var files []string
	for _, name := range p.Actions {
		plan, err := export.Resolve(cfg, name)
		if err != nil {
			return err
		}
		if plan.Kind != export.KindExport {
			return rkerrors.ValidationFailed("action", fmt.Sprintf("%s is a generate target and has nothing to publish", name))
		}
		for _, target := range plan.Targets {
			path, err := exporter.ArchivePath(target)
			if err != nil {
				return err
			}
			if !fsutil.Exists(path) {
				return rkerrors.ValidationFailed("archive",
					fmt.Sprintf("%s not found; run relkit export %s first", filepath.Base(path), target))
			}
			files = append(files, path)
		}
	}
	if cfg.Export.ChecksumsFile != "" {
		sums := filepath.Join(exporter.OutputDir(), cfg.Export.ChecksumsFile)
		if fsutil.Exists(sums) {
			files = append(files, sums)
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	client, err := newPutter(ctx, pc)
	if err != nil {
		if _, ok := rkerrors.As(err); ok {
			return err
		}
		return rkerrors.NetworkError(pc.Endpoint, err)
	}
	uploader, err := publish.NewUploader(client, pc, retry.FromConfig(cfg.Retry))
	if err != nil {
		return err
	}
	objects, err := uploader.Upload(ctx, version, files...)
	if err != nil {
		return err
	}
	for _, o := range objects {
		_, _ = fmt.Fprintln(g.Out, o.URI())
	}
	return nil
}
