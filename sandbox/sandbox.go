// Package sandbox implements the file façade every daemon's `read` and
// the host's bootstrap manifest loading go through: every operation
// resolves its argument relative to one root directory and refuses to
// escape it.
package sandbox

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrOutsideSandbox is returned when a resolved path would escape Root.
var ErrOutsideSandbox = errors.New("sandbox: path outside sandbox root")

// Root bounds every file operation to one directory. The zero value is
// not usable; construct with New.
type Root struct {
	dir string
}

// New returns a Root bounding operations to dir. dir is resolved to an
// absolute, symlink-free path once up front so every later containment
// check compares against a stable prefix.
func New(dir string) (*Root, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, err
	}
	return &Root{dir: resolved}, nil
}

// resolve normalizes name (which may contain ../ segments) and checks the
// result still falls under r.dir, per spec.md §6: "No directory traversal
// escaping .. is allowed, and the implementation must normalise paths
// before the sandbox check."
func (r *Root) resolve(name string) (string, error) {
	clean := filepath.Clean(filepath.Join(r.dir, name))
	rel, err := filepath.Rel(r.dir, clean)
	if err != nil {
		return "", ErrOutsideSandbox
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrOutsideSandbox
	}
	return clean, nil
}

// ReadAll reads name's entire contents, validating the bytes as UTF-8 (a
// leading byte order mark is passed through unchanged) so a non-UTF-8
// daemon script or manifest fails here with a clear sandbox error instead
// of reaching lisp.Reader as raw garbage.
func (r *Root) ReadAll(name string) ([]byte, error) {
	path, err := r.resolve(name)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return validateUTF8(raw)
}

func validateUTF8(raw []byte) ([]byte, error) {
	if !utf8.Valid(raw) {
		return nil, errors.New("sandbox: file is not valid UTF-8")
	}
	out, _, err := transform.Bytes(unicode.UTF8.NewDecoder(), raw)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// WriteAll truncates name to exactly data, creating it if absent.
func (r *Root) WriteAll(name string, data []byte) error {
	path, err := r.resolve(name)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Append appends data to name, creating it if absent.
func (r *Root) Append(name string, data []byte) error {
	path, err := r.resolve(name)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(data)
	return err
}

// Create makes an empty file at name, failing if it already exists.
func (r *Root) Create(name string) error {
	path, err := r.resolve(name)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	return f.Close()
}

// Delete removes name.
func (r *Root) Delete(name string) error {
	path, err := r.resolve(name)
	if err != nil {
		return err
	}
	return os.Remove(path)
}

// Alias hard-links newName to oldName, both resolved inside the sandbox.
// The platform-specific implementation lives in sandbox_unix.go /
// sandbox_other.go, mirroring the teacher's own per-OS file variants.
func (r *Root) Alias(oldName, newName string) error {
	oldPath, err := r.resolve(oldName)
	if err != nil {
		return err
	}
	newPath, err := r.resolve(newName)
	if err != nil {
		return err
	}
	return alias(oldPath, newPath)
}
