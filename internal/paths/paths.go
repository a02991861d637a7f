// Package paths resolves user-supplied filesystem paths and locates the
// per-user limsync state directory.
package paths

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/limsync/limsync/internal/constants"
)

// Resolver handles home expansion and absolute path resolution.
type Resolver struct {
	homeDir string
}

// NewResolver creates a Resolver for the current user's home directory.
func NewResolver() (*Resolver, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return &Resolver{homeDir: homeDir}, nil
}

// NewResolverWithHome creates a Resolver rooted at an explicit home directory.
func NewResolverWithHome(homeDir string) *Resolver {
	return &Resolver{homeDir: homeDir}
}

// HomeDir returns the home directory used for "~" expansion.
func (r *Resolver) HomeDir() string {
	return r.homeDir
}

// StateDir returns the per-user state directory.
// Returns: ~/.limsync
func (r *Resolver) StateDir() string {
	return filepath.Join(r.homeDir, constants.StateDirName)
}

// EnsureStateDir creates the per-user state directory and any missing parents.
// It is safe to call concurrently and when the directory already exists.
func (r *Resolver) EnsureStateDir() (string, error) {
	dir := r.StateDir()
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return "", fmt.Errorf("failed to create state directory: %w", err)
	}
	return dir, nil
}

// Expand replaces a leading "~" or "~name" with the matching home directory.
// Paths without a leading tilde are returned unchanged.
func (r *Resolver) Expand(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	name, rest, _ := strings.Cut(path[1:], string(filepath.Separator))
	home := r.homeDir
	if name != "" {
		u, err := user.Lookup(name)
		if err != nil {
			return "", fmt.Errorf("failed to expand %q: %w", path, err)
		}
		home = u.HomeDir
	}

	if rest == "" {
		return home, nil
	}
	return filepath.Join(home, rest), nil
}

// Resolve expands the home directory, makes the path absolute against the
// working directory and resolves symlinks. Components that do not exist yet
// are kept as written below the deepest existing ancestor.
func (r *Resolver) Resolve(path string) (string, error) {
	expanded, err := r.Expand(path)
	if err != nil {
		return "", err
	}

	absPath, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	resolved, err := evalSymlinks(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", absPath, err)
	}
	return resolved, nil
}

// maxSymlinkHops bounds how many dangling links evalSymlinks follows.
const maxSymlinkHops = 255

func evalSymlinks(path string) (string, error) {
	return evalSymlinksHops(path, 0)
}

// evalSymlinksHops resolves the deepest existing ancestor of path, then
// follows any symlink among the missing components, including dangling ones.
func evalSymlinksHops(path string, hops int) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err == nil {
		return resolved, nil
	}
	if !errors.Is(err, fs.ErrNotExist) && !errors.Is(err, syscall.ENOTDIR) {
		return "", err
	}

	parent := filepath.Dir(path)
	if parent == path {
		return path, nil
	}

	resolvedParent, err := evalSymlinksHops(parent, hops)
	if err != nil {
		return "", err
	}

	candidate := filepath.Join(resolvedParent, filepath.Base(path))
	target, err := os.Readlink(candidate)
	if err != nil {
		// Missing or not a link.
		return candidate, nil
	}

	if hops >= maxSymlinkHops {
		return "", fmt.Errorf("too many levels of symbolic links: %s", path)
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(resolvedParent, target)
	}
	return evalSymlinksHops(target, hops+1)
}
