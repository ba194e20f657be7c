// Package archive packs directories into zip files for single-file upload.
package archive

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Archiver abstracts zip creation so the uploader can be tested without touching disk.
type Archiver interface {
	Zip(ctx context.Context, dir string) (string, error)
}

// ZipArchiver writes real zip files next to the source directory.
type ZipArchiver struct{}

var _ Archiver = ZipArchiver{}

// ArchivePath returns the path of the archive created for dir.
func ArchivePath(dir string) string {
	return filepath.Clean(dir) + ".zip"
}

// Zip archives the contents of dir into <dir>.zip. Entry names are relative
// to dir, so the archive root holds dir's children. An existing archive at
// that path is replaced.
func (ZipArchiver) Zip(ctx context.Context, dir string) (string, error) {
	dir = filepath.Clean(dir)
	info, err := os.Stat(dir)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", dir)
	}

	zipPath := ArchivePath(dir)
	tmpPath := zipPath + ".partial"

	out, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("failed to create archive: %w", err)
	}

	if err := writeZip(ctx, out, dir); err != nil {
		out.Close()
		os.Remove(tmpPath)
		return "", err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to close archive: %w", err)
	}

	if err := os.Rename(tmpPath, zipPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to finalize archive: %w", err)
	}

	return zipPath, nil
}

func writeZip(ctx context.Context, w io.Writer, dir string) error {
	zw := zip.NewWriter(w)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path == dir {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)

		info, err := d.Info()
		if err != nil {
			return err
		}
		if d.Type()&fs.ModeSymlink != 0 {
			// file symlinks are stored as their target's content; links to
			// directories and dangling links are skipped
			info, err = os.Stat(path)
			if err != nil || !info.Mode().IsRegular() {
				return nil
			}
		}

		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}

		if d.IsDir() {
			header.Name = name + "/"
			header.Method = zip.Store
			_, err := zw.CreateHeader(header)
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		header.Name = name
		header.Method = zip.Deflate

		entry, err := zw.CreateHeader(header)
		if err != nil {
			return err
		}
		return copyFile(entry, path)
	})
	if err != nil {
		zw.Close()
		return fmt.Errorf("failed to archive %s: %w", dir, err)
	}

	return zw.Close()
}

func copyFile(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(w, f)
	return err
}

// List returns the file entries of a zip archive, skipping directory entries.
func List(zipPath string) ([]string, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var names []string
	for _, f := range r.File {
		if strings.HasSuffix(f.Name, "/") {
			continue
		}
		names = append(names, f.Name)
	}
	return names, nil
}
