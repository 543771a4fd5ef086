package fsys

import (
	"io/fs"
	"os"

	"github.com/spf13/afero"
)

type aferoFS struct {
	fs afero.Fs
}

// NewAfero wraps an afero.Fs (typically afero.NewMemMapFs()) as an FS, for
// tests that must never touch the real filesystem.
func NewAfero(fs afero.Fs) FS {
	return &aferoFS{fs: fs}
}

func (a *aferoFS) Stat(name string) (fs.FileInfo, error) { return a.fs.Stat(name) }

// Lstat is only meaningful on the real OsFs; MemMapFs has no symlinks, so
// plain Stat is used and symlink-as-file-content (see Symlink below) stands
// in for link semantics in tests.
func (a *aferoFS) Lstat(name string) (fs.FileInfo, error) { return a.fs.Stat(name) }

func (a *aferoFS) ReadFile(name string) ([]byte, error) {
	info, err := a.fs.Stat(name)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrInvalid}
	}
	return afero.ReadFile(a.fs, name)
}

func (a *aferoFS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	return afero.WriteFile(a.fs, name, data, perm)
}

func (a *aferoFS) MkdirAll(path string, perm fs.FileMode) error { return a.fs.MkdirAll(path, perm) }

// Symlink simulates a link on backends without real symlink support by
// writing the target path as the file's content with the symlink mode bit
// set; Readlink reverses this.
func (a *aferoFS) Symlink(oldname, newname string) error {
	return afero.WriteFile(a.fs, newname, []byte(oldname), 0o777|os.ModeSymlink)
}

func (a *aferoFS) Readlink(name string) (string, error) {
	content, err := afero.ReadFile(a.fs, name)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

func (a *aferoFS) Remove(name string) error             { return a.fs.Remove(name) }
func (a *aferoFS) RemoveAll(path string) error          { return a.fs.RemoveAll(path) }
func (a *aferoFS) Rename(oldpath, newpath string) error { return a.fs.Rename(oldpath, newpath) }

func (a *aferoFS) ReadDir(name string) ([]fs.DirEntry, error) {
	entries, err := afero.ReadDir(a.fs, name)
	if err != nil {
		return nil, err
	}
	dirEntries := make([]fs.DirEntry, len(entries))
	for i, entry := range entries {
		dirEntries[i] = fs.FileInfoToDirEntry(entry)
	}
	return dirEntries, nil
}
