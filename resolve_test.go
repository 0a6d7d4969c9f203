package zipp

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	chdir(t, t.TempDir())

	// my-dir/a.txt
	// my-dir/path/b.txt
	// my-dir/another/path/c.txt
	// d.txt
	for _, name := range []string{"my-dir/a.txt", "my-dir/path/b.txt", "my-dir/another/path/c.txt", "d.txt"} {
		require.NoError(t, fill(name, []byte(name)))
	}

	tests := []struct {
		name      string
		specs     []string
		recursive bool
		want      []string
	}{
		{
			name:  "files",
			specs: []string{"d.txt", "my-dir/a.txt"},
			want:  []string{"d.txt", filepath.FromSlash("my-dir/a.txt")},
		},
		{
			name:  "non-recursive skips directories",
			specs: []string{"my-dir", "d.txt"},
			want:  []string{"d.txt"},
		},
		{
			name:      "recursive",
			specs:     []string{"my-dir"},
			recursive: true,
			want: []string{
				filepath.FromSlash("my-dir/a.txt"),
				filepath.FromSlash("my-dir/another/path/c.txt"),
				filepath.FromSlash("my-dir/path/b.txt"),
			},
		},
		{
			name:      "duplicates collapse",
			specs:     []string{"d.txt", "./d.txt", "my-dir/../d.txt", "my-dir/a.txt", "my-dir"},
			recursive: true,
			want: []string{
				"d.txt",
				filepath.FromSlash("my-dir/a.txt"),
				filepath.FromSlash("my-dir/another/path/c.txt"),
				filepath.FromSlash("my-dir/path/b.txt"),
			},
		},
		{
			name:      "missing is skipped",
			specs:     []string{"missing.txt", "my-dir/missing", "d.txt"},
			recursive: true,
			want:      []string{"d.txt"},
		},
		{
			name:  "empty",
			specs: nil,
			want:  nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(context.Background(), tt.specs, tt.recursive)
			assert.NoErrorf(t, err, "Resolve(%v) error = %v", tt.specs, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_Symlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symbolic links require privileges on windows")
	}

	chdir(t, t.TempDir())
	require.NoError(t, fill("target/a.txt", []byte("a")))
	require.NoError(t, fill("root/b.txt", []byte("b")))
	require.NoError(t, os.Symlink("../target", "root/link"))

	got, err := Resolve(context.Background(), []string{"root"}, true)
	assert.NoError(t, err)
	assert.Equal(t, []string{filepath.FromSlash("root/b.txt"), filepath.FromSlash("root/link/a.txt")}, got)

	// a link back to an ancestor is a loop.
	require.NoError(t, os.Symlink(".", "target/self"))
	_, err = Resolve(context.Background(), []string{"target"}, true)

	var te *TraversalError
	if assert.ErrorAs(t, err, &te) {
		assert.ErrorIs(t, err, ErrSymlinkLoop)
		assert.Equal(t, filepath.FromSlash("target/self"), te.Dir)
	}
}

func TestResolve_DanglingSymlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symbolic links require privileges on windows")
	}

	chdir(t, t.TempDir())
	require.NoError(t, fill("root/b.txt", []byte("b")))
	require.NoError(t, os.Symlink("nowhere", "root/dangling"))

	// as an argument, a dangling link is skipped.
	got, err := Resolve(context.Background(), []string{"root/dangling"}, true)
	assert.NoError(t, err)
	assert.Empty(t, got)

	// during traversal, it fails the traversal of its directory.
	_, err = Resolve(context.Background(), []string{"root"}, true)

	var te *TraversalError
	if assert.ErrorAs(t, err, &te) {
		assert.Equal(t, "root", te.Dir)
	}
}

func TestResolve_Unreadable(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permissions are not enforced")
	}

	chdir(t, t.TempDir())
	require.NoError(t, fill("root/locked/a.txt", []byte("a")))
	require.NoError(t, os.Chmod("root/locked", 0))
	t.Cleanup(func() {
		_ = os.Chmod("root/locked", 0755)
	})

	_, err := Resolve(context.Background(), []string{"root"}, true)

	var te *TraversalError
	if assert.ErrorAs(t, err, &te) {
		assert.Equal(t, filepath.FromSlash("root/locked"), te.Dir)
	}
}

func TestResolve_Cancelled(t *testing.T) {
	chdir(t, t.TempDir())
	require.NoError(t, fill("root/a.txt", []byte("a")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Resolve(ctx, []string{"root"}, true)
	assert.ErrorIs(t, err, context.Canceled)
}

// chdir changes the working directory for the duration of the test.
func chdir(t *testing.T, dir string) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		_ = os.Chdir(wd)
	})
}

func fill(name string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(name), 0777); err != nil {
		return err
	}

	return os.WriteFile(name, data, 0666)
}
