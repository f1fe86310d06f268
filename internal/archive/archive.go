// Package archive writes the distributable containers for export targets:
// deflate zip files, gzip-compressed tarballs and a SHA-256 checksum manifest.
package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"

	"git.home.luguber.info/inful/relkit/internal/config"
)

// Info describes a written archive.
type Info struct {
	Path    string
	Format  config.ArchiveFormat
	Entries int
	Size    int64
}

// Extension returns the file extension for format, including the leading dot.
func Extension(format config.ArchiveFormat) string {
	if format == config.ArchiveTarGz {
		return ".tar.gz"
	}
	return ".zip"
}

// Write packs the staging directory dir into dst using format. Entry names
// start with the base name of dir, so extracting the archive recreates the
// staging directory.
func Write(format config.ArchiveFormat, dst, dir string) (Info, error) {
	switch format {
	case config.ArchiveZip:
		return WriteZip(dst, dir)
	case config.ArchiveTarGz:
		return WriteTarGz(dst, dir)
	default:
		return Info{}, fmt.Errorf("unsupported archive format %q", format)
	}
}

// WriteZip writes every file below dir into a deflate zip archive.
func WriteZip(dst, dir string) (info Info, err error) {
	info = Info{Path: dst, Format: config.ArchiveZip}

	f, err := os.Create(dst)
	if err != nil {
		return info, err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	zw := zip.NewWriter(f)
	err = walkEntries(dir, func(name, path string, fi fs.FileInfo) error {
		if fi.IsDir() {
			return nil
		}
		hdr, err := zip.FileInfoHeader(fi)
		if err != nil {
			return err
		}
		hdr.Name = name
		hdr.Method = zip.Deflate

		w, err := zw.CreateHeader(hdr)
		if err != nil {
			return fmt.Errorf("adding %s: %w", name, err)
		}
		info.Entries++

		if fi.Mode()&os.ModeSymlink != 0 {
			target, err := os.Readlink(path)
			if err != nil {
				return err
			}
			_, err = io.WriteString(w, filepath.ToSlash(target))
			return err
		}
		return copyFrom(w, path)
	})
	if err != nil {
		_ = zw.Close()
		return info, err
	}
	if err := zw.Close(); err != nil {
		return info, err
	}
	return finish(info, f)
}

// WriteTarGz writes the tree below dir, directories included, into a
// gzip-compressed tarball.
func WriteTarGz(dst, dir string) (info Info, err error) {
	info = Info{Path: dst, Format: config.ArchiveTarGz}

	f, err := os.Create(dst)
	if err != nil {
		return info, err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	gz, err := gzip.NewWriterLevel(f, gzip.BestCompression)
	if err != nil {
		return info, err
	}
	tw := tar.NewWriter(gz)

	err = walkEntries(dir, func(name, path string, fi fs.FileInfo) error {
		var link string
		if fi.Mode()&os.ModeSymlink != 0 {
			target, rerr := os.Readlink(path)
			if rerr != nil {
				return rerr
			}
			link = target
		}
		hdr, err := tar.FileInfoHeader(fi, link)
		if err != nil {
			return err
		}
		hdr.Name = name
		if fi.IsDir() {
			hdr.Name += "/"
		}
		// owner names from the build machine are meaningless to users
		hdr.Uid, hdr.Gid, hdr.Uname, hdr.Gname = 0, 0, "", ""

		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("adding %s: %w", name, err)
		}
		info.Entries++
		if !fi.Mode().IsRegular() {
			return nil
		}
		return copyFrom(tw, path)
	})
	if err != nil {
		_ = tw.Close()
		_ = gz.Close()
		return info, err
	}
	if err := tw.Close(); err != nil {
		return info, err
	}
	if err := gz.Close(); err != nil {
		return info, err
	}
	return finish(info, f)
}

// walkEntries visits dir and everything below it in lexical order, passing
// slash-separated names rooted at the base name of dir.
func walkEntries(dir string, fn func(name, path string, fi fs.FileInfo) error) error {
	dir = filepath.Clean(dir)
	base := filepath.Base(dir)
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		name := base
		if rel != "." {
			name = base + "/" + filepath.ToSlash(rel)
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		return fn(strings.TrimPrefix(name, "/"), path, fi)
	})
}

func copyFrom(w io.Writer, path string) error {
	r, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		_ = r.Close()
	}()
	_, err = io.Copy(w, r)
	return err
}

func finish(info Info, f *os.File) (Info, error) {
	st, err := f.Stat()
	if err != nil {
		return info, err
	}
	info.Size = st.Size()
	return info, nil
}
