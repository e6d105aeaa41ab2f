package fetch

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/zerr"
)

// extractTarball unpacks a gzipped tarball into dest, stripping the single
// top-level directory that github archives carry.
func extractTarball(data []byte, dest string) error {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return zerr.Wrap(err, "failed to open gzip stream")
	}
	defer gz.Close() //nolint:errcheck // Best effort close in defer

	if err := os.MkdirAll(dest, 0o750); err != nil {
		return zerr.Wrap(err, "failed to create extraction directory")
	}

	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return zerr.Wrap(err, "failed to read tar entry")
		}

		name := stripRoot(header.Name)
		if name == "" {
			continue
		}

		target, err := securePath(dest, name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o750); err != nil {
				return zerr.Wrap(err, "failed to create directory")
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
				return zerr.Wrap(err, "failed to create parent directory")
			}
			if err := writeFile(target, tr); err != nil {
				return err
			}
		default:
			// Symlinks and special entries are skipped; the descriptor
			// consumers only read regular files.
		}
	}
}

func writeFile(target string, r io.Reader) error {
	//nolint:gosec // Target is confined to the cache directory by securePath
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o640)
	if err != nil {
		return zerr.Wrap(err, "failed to create file")
	}
	//nolint:gosec // Tarballs come from the pinned source; size is bounded by the download
	if _, err := io.Copy(out, r); err != nil {
		_ = out.Close()
		return zerr.Wrap(err, "failed to write file")
	}
	return out.Close()
}

// stripRoot removes the leading path component of a tar entry name.
func stripRoot(name string) string {
	name = strings.TrimPrefix(name, "./")
	_, rest, found := strings.Cut(name, "/")
	if !found {
		return ""
	}
	return rest
}

// securePath joins name onto dest and rejects entries escaping it.
func securePath(dest, name string) (string, error) {
	target := filepath.Join(dest, filepath.FromSlash(name))
	if !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) {
		return "", zerr.With(zerr.New("tar entry escapes extraction directory"), "entry", name)
	}
	return target, nil
}

// hashDir computes a deterministic digest over a directory tree: file paths
// and contents, walked in sorted order.
func hashDir(root string) (string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return "", zerr.Wrap(err, "failed to walk directory")
	}
	sort.Strings(paths)

	hasher := xxhash.New()
	for _, path := range paths {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return "", zerr.Wrap(err, "failed to relativize path")
		}
		_, _ = hasher.WriteString(filepath.ToSlash(rel))
		_, _ = hasher.Write([]byte{0}) // Separator

		f, err := os.Open(path) //nolint:gosec // Path comes from the walked root
		if err != nil {
			return "", zerr.Wrap(err, "failed to open file")
		}
		if _, err := io.Copy(hasher, f); err != nil {
			_ = f.Close()
			return "", zerr.Wrap(err, "failed to hash file content")
		}
		_ = f.Close()
		_, _ = hasher.Write([]byte{0})
	}

	return fmt.Sprintf("%016x", hasher.Sum64()), nil
}
