package paths

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/limsync/limsync/internal/constants"
)

// realTempDir returns a temp dir with symlinks resolved (macOS /var -> /private/var).
func realTempDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("EvalSymlinks() error = %v", err)
	}
	return dir
}

func TestNewResolver_UsesHomeEnv(t *testing.T) {
	home := realTempDir(t)
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	resolver, err := NewResolver()
	if err != nil {
		t.Fatalf("NewResolver() error = %v", err)
	}

	if got := resolver.HomeDir(); got != home {
		t.Errorf("HomeDir() = %v, want %v", got, home)
	}
}

func TestResolver_StateDir(t *testing.T) {
	resolver := NewResolverWithHome("/home/alice")

	expected := filepath.Join("/home/alice", constants.StateDirName)
	if got := resolver.StateDir(); got != expected {
		t.Errorf("StateDir() = %v, want %v", got, expected)
	}
}

func TestResolver_Expand(t *testing.T) {
	resolver := NewResolverWithHome("/home/alice")

	tests := []struct {
		in   string
		want string
	}{
		{"~", "/home/alice"},
		{"~/docs", filepath.Join("/home/alice", "docs")},
		{"~/a/b/", filepath.Join("/home/alice", "a/b")},
		{"/abs/path", "/abs/path"},
		{"relative/~", "relative/~"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := resolver.Expand(tt.in)
			if err != nil {
				t.Fatalf("Expand(%v) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Expand(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestResolver_Expand_UnknownUser(t *testing.T) {
	resolver := NewResolverWithHome("/home/alice")

	if _, err := resolver.Expand("~no-such-user-limsync-test/x"); err == nil {
		t.Error("Expand() expected error for unknown user, got nil")
	}
}

func TestResolver_Resolve_Relative(t *testing.T) {
	dir := realTempDir(t)
	testChdir(t, dir)

	resolver := NewResolverWithHome(dir)
	got, err := resolver.Resolve("./myrepo")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	expected := filepath.Join(dir, "myrepo")
	if got != expected {
		t.Errorf("Resolve() = %v, want %v", got, expected)
	}
}

func TestResolver_Resolve_Home(t *testing.T) {
	home := realTempDir(t)
	resolver := NewResolverWithHome(home)

	got, err := resolver.Resolve("~/docs")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	expected := filepath.Join(home, "docs")
	if got != expected {
		t.Errorf("Resolve() = %v, want %v", got, expected)
	}
}

func TestResolver_Resolve_Symlink(t *testing.T) {
	dir := realTempDir(t)
	target := filepath.Join(dir, "target")
	if err := os.Mkdir(target, 0755); err != nil {
		t.Fatalf("Failed to create target dir: %v", err)
	}
	link := filepath.Join(dir, "link")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	resolver := NewResolverWithHome(dir)

	got, err := resolver.Resolve(link)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != target {
		t.Errorf("Resolve(%v) = %v, want %v", link, got, target)
	}

	// Missing components below a symlinked ancestor keep their names.
	got, err = resolver.Resolve(filepath.Join(link, "not", "yet"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	expected := filepath.Join(target, "not", "yet")
	if got != expected {
		t.Errorf("Resolve() = %v, want %v", got, expected)
	}
}

func TestResolver_Resolve_DanglingSymlink(t *testing.T) {
	dir := realTempDir(t)
	target := filepath.Join(dir, "target")
	link := filepath.Join(dir, "link")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	resolver := NewResolverWithHome(dir)

	got, err := resolver.Resolve(link)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != target {
		t.Errorf("Resolve(%v) = %v, want %v", link, got, target)
	}

	got, err = resolver.Resolve(filepath.Join(link, "child"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	expected := filepath.Join(target, "child")
	if got != expected {
		t.Errorf("Resolve() = %v, want %v", got, expected)
	}
}

func TestResolver_Resolve_DanglingRelativeChain(t *testing.T) {
	dir := realTempDir(t)
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0755); err != nil {
		t.Fatalf("Failed to create sub dir: %v", err)
	}
	// first -> sub/second -> ../gone, all relative and dangling.
	if err := os.Symlink("../gone", filepath.Join(dir, "sub", "second")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	if err := os.Symlink(filepath.Join("sub", "second"), filepath.Join(dir, "first")); err != nil {
		t.Fatalf("Failed to create symlink: %v", err)
	}

	got, err := NewResolverWithHome(dir).Resolve(filepath.Join(dir, "first"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	expected := filepath.Join(dir, "gone")
	if got != expected {
		t.Errorf("Resolve() = %v, want %v", got, expected)
	}
}

func TestResolver_Resolve_CleansDots(t *testing.T) {
	dir := realTempDir(t)
	resolver := NewResolverWithHome(dir)

	got, err := resolver.Resolve(filepath.Join(dir, "a", "..", "b", "."))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	expected := filepath.Join(dir, "b")
	if got != expected {
		t.Errorf("Resolve() = %v, want %v", got, expected)
	}
}

func TestResolver_EnsureStateDir(t *testing.T) {
	home := filepath.Join(realTempDir(t), "missing", "home")
	resolver := NewResolverWithHome(home)

	dir, err := resolver.EnsureStateDir()
	if err != nil {
		t.Fatalf("EnsureStateDir() error = %v", err)
	}
	if dir != resolver.StateDir() {
		t.Errorf("EnsureStateDir() = %v, want %v", dir, resolver.StateDir())
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("EnsureStateDir() did not create %v", dir)
	}

	// Second call is a no-op.
	if _, err := resolver.EnsureStateDir(); err != nil {
		t.Errorf("EnsureStateDir() second call error = %v", err)
	}
}

func TestResolver_EnsureStateDir_Concurrent(t *testing.T) {
	resolver := NewResolverWithHome(realTempDir(t))

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := resolver.EnsureStateDir()
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("EnsureStateDir() concurrent error = %v", err)
		}
	}
}

func TestResolver_EnsureStateDir_BlockedByFile(t *testing.T) {
	home := realTempDir(t)
	if err := os.WriteFile(filepath.Join(home, constants.StateDirName), []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to create blocking file: %v", err)
	}

	if _, err := NewResolverWithHome(home).EnsureStateDir(); err == nil {
		t.Error("EnsureStateDir() expected error, got nil")
	}
}
