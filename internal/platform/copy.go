package platform

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/platkit-labs/platkit/internal/errkind"
)

// excludedNames are never copied out of a plugin or web directory.
var excludedNames = map[string]bool{
	"node_modules": true,
	".git":         true,
	".DS_Store":    true,
}

// CopyPath copies src to dst. A directory is merged recursively into dst;
// existing files not present in src are left alone. It returns the
// destination files that existed with different content and were replaced.
// A missing src is errkind.ErrNotFound.
func CopyPath(src, dst string) ([]string, error) {
	info, err := os.Stat(src)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", errkind.ErrNotFound, src)
		}
		return nil, err
	}

	var replaced []string
	if info.IsDir() {
		err = copyDir(src, dst, &replaced)
	} else {
		err = copyFile(src, dst, info.Mode(), &replaced)
	}
	if err != nil {
		return replaced, fmt.Errorf("copying %s to %s: %w", src, dst, err)
	}
	return replaced, nil
}

// CopyContents copies every entry of srcDir into dstDir, the equivalent of
// cp -rf srcDir/* dstDir.
func CopyContents(srcDir, dstDir string) ([]string, error) {
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", errkind.ErrNotFound, srcDir)
		}
		return nil, err
	}
	if err := os.MkdirAll(dstDir, 0755); err != nil {
		return nil, err
	}

	var replaced []string
	for _, entry := range entries {
		if excludedNames[entry.Name()] {
			continue
		}
		r, err := CopyPath(filepath.Join(srcDir, entry.Name()), filepath.Join(dstDir, entry.Name()))
		replaced = append(replaced, r...)
		if err != nil {
			return replaced, err
		}
	}
	return replaced, nil
}

func copyDir(src, dst string, replaced *[]string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dst, srcInfo.Mode().Perm()|0700); err != nil {
		return err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if excludedNames[entry.Name()] {
			continue
		}

		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		if entry.IsDir() {
			if err := copyDir(srcPath, dstPath, replaced); err != nil {
				return err
			}
		} else if entry.Type().IsRegular() {
			info, err := entry.Info()
			if err != nil {
				return err
			}
			if err := copyFile(srcPath, dstPath, info.Mode(), replaced); err != nil {
				return err
			}
		}
		// Symlinks and special files are skipped.
	}

	return nil
}

// copyFile copies one file, preserving permissions. An identical target is
// left untouched.
func copyFile(src, dst string, mode os.FileMode, replaced *[]string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}

	existing, err := os.ReadFile(dst)
	switch {
	case err == nil && bytes.Equal(existing, data):
		return nil
	case err == nil:
		*replaced = append(*replaced, dst)
	case !os.IsNotExist(err):
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(dst, data, mode.Perm()); err != nil {
		return err
	}
	return Chmod(dst, mode.Perm())
}
