package zipfs

import (
	"archive/zip"
	"bytes"
	"crypto/rand"
	"fmt"
	"io"
	"io/fs"
	"log"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFS_CreateAndClose(t *testing.T) {
	name := filepath.Join(t.TempDir(), "test.zip")

	f, err := Open(name)
	require.NoErrorf(t, err, "Open(%s) error = %v", name, err)

	text := bytes.Repeat([]byte("hello, world! "), 1000)
	assert.NoError(t, f.MkdirAll("my-dir/path"))
	assert.NoError(t, write(f, "my-dir/path/a.txt", text))
	assert.NoError(t, write(f, "b.txt", []byte("b")))

	assert.Equal(t, []string{"b.txt", "my-dir/", "my-dir/path/", "my-dir/path/a.txt"}, f.Entries())
	assert.NoError(t, f.Close())

	assert.Equal(t, map[string][]byte{
		"my-dir/":           nil,
		"my-dir/path/":      nil,
		"my-dir/path/a.txt": text,
		"b.txt":             []byte("b"),
	}, readAll(t, name))
}

func TestFS_Stat(t *testing.T) {
	f, err := Open(filepath.Join(t.TempDir(), "test.zip"))
	require.NoError(t, err)
	defer f.Close()

	// highly compressible data is deflated.
	text := bytes.Repeat([]byte("a"), 4096)
	require.NoError(t, write(f, "text.txt", text))
	fi, err := f.Stat("text.txt")
	assert.NoError(t, err)
	assert.Equal(t, uint16(zip.Deflate), fi.Method)
	assert.Equal(t, uint64(len(text)), fi.Size)
	assert.Less(t, fi.CompressedSize, fi.Size)

	// random data is stored.
	data := make([]byte, 4096)
	_, _ = io.ReadFull(rand.Reader, data)
	require.NoError(t, write(f, "random.bin", data))
	fi, err = f.Stat("random.bin")
	assert.NoError(t, err)
	assert.Equal(t, uint16(zip.Store), fi.Method)
	assert.Equal(t, fi.Size, fi.CompressedSize)

	// empty file is stored.
	require.NoError(t, write(f, "empty.txt", nil))
	fi, err = f.Stat("empty.txt")
	assert.NoError(t, err)
	assert.Equal(t, uint16(zip.Store), fi.Method)
	assert.Equal(t, uint64(0), fi.Size)

	_, err = f.Stat("missing.txt")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestFS_Replace(t *testing.T) {
	name := filepath.Join(t.TempDir(), "test.zip")
	f, err := Open(name)
	require.NoError(t, err)

	require.NoError(t, write(f, "a.txt", []byte("first")))
	assert.True(t, f.Exists("a.txt"))
	require.NoError(t, f.Remove("a.txt"))
	assert.False(t, f.Exists("a.txt"))
	assert.ErrorIs(t, f.Remove("a.txt"), fs.ErrNotExist)

	require.NoError(t, write(f, "a.txt", []byte("second")))
	// replace without Remove also works.
	require.NoError(t, write(f, "a.txt", []byte("third")))
	require.NoError(t, f.Close())

	assert.Equal(t, map[string][]byte{"a.txt": []byte("third")}, readAll(t, name))
}

func TestFS_Reopen(t *testing.T) {
	name := filepath.Join(t.TempDir(), "test.zip")
	f, err := Open(name)
	require.NoError(t, err)
	require.NoError(t, f.MkdirAll("dir"))
	require.NoError(t, write(f, "dir/a.txt", bytes.Repeat([]byte("a"), 1000)))
	require.NoError(t, write(f, "b.txt", []byte("b")))
	require.NoError(t, f.Close())

	f, err = Open(name)
	require.NoError(t, err)
	assert.Equal(t, []string{"b.txt", "dir/", "dir/a.txt"}, f.Entries())
	require.NoError(t, write(f, "b.txt", []byte("updated")))
	require.NoError(t, write(f, "c.txt", []byte("c")))
	require.NoError(t, f.Close())

	assert.Equal(t, map[string][]byte{
		"dir/":      nil,
		"dir/a.txt": bytes.Repeat([]byte("a"), 1000),
		"b.txt":     []byte("updated"),
		"c.txt":     []byte("c"),
	}, readAll(t, name))
}

func TestFS_MkdirAll(t *testing.T) {
	f, err := Open(filepath.Join(t.TempDir(), "test.zip"))
	require.NoError(t, err)
	defer f.Close()

	assert.NoError(t, f.MkdirAll("."))
	assert.NoError(t, f.MkdirAll(""))
	assert.NoError(t, f.MkdirAll("a/b/c"))
	assert.NoError(t, f.MkdirAll("a/b/c"))
	assert.NoError(t, f.MkdirAll("a/b/d/"))
	assert.Equal(t, []string{"a/", "a/b/", "a/b/c/", "a/b/d/"}, f.Entries())

	require.NoError(t, write(f, "a/file", nil))
	assert.ErrorIs(t, f.MkdirAll("a/file/x"), ErrNotDir)
	assert.ErrorIs(t, f.MkdirAll("../x"), ErrInvalidName)

	_, err = f.Create("a/b", nil)
	assert.ErrorIs(t, err, ErrIsDir)
	assert.ErrorIs(t, f.Remove("a/b"), ErrIsDir)
}

func TestFS_Abort(t *testing.T) {
	f, err := Open(filepath.Join(t.TempDir(), "test.zip"))
	require.NoError(t, err)
	defer f.Close()

	w, err := f.Create("a.txt", nil)
	require.NoError(t, err)
	_, err = w.Write([]byte("partial"))
	assert.NoError(t, err)
	w.Abort()

	assert.False(t, f.Exists("a.txt"))
	assert.ErrorIs(t, w.Close(), fs.ErrClosed)
}

func TestFS_Concurrent(t *testing.T) {
	name := filepath.Join(t.TempDir(), "test.zip")
	f, err := Open(name)
	require.NoError(t, err)

	want := make(map[string][]byte)
	var wg sync.WaitGroup
	var mu sync.Mutex
	for i := range 100 {
		dir := fmt.Sprintf("root/dir-%d/sub", i%5)
		file := fmt.Sprintf("%s/file-%d.txt", dir, i)
		data := bytes.Repeat([]byte(file), 100)
		want[file] = data

		wg.Add(1)
		go func() {
			defer wg.Done()

			err := f.MkdirAll(dir)
			if err == nil {
				err = write(f, file, data)
			}

			mu.Lock()
			defer mu.Unlock()
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	require.NoError(t, f.Close())

	want["root/"] = nil
	for i := range 5 {
		want[fmt.Sprintf("root/dir-%d/", i)] = nil
		want[fmt.Sprintf("root/dir-%d/sub/", i)] = nil
	}
	assert.Equal(t, want, readAll(t, name))
}

func TestFS_Closed(t *testing.T) {
	f, err := Open(filepath.Join(t.TempDir(), "test.zip"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	assert.ErrorIs(t, f.Close(), ErrClosed)
	assert.ErrorIs(t, f.MkdirAll("a"), ErrClosed)
	_, err = f.Create("a", nil)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = f.Stat("a")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestFS_CloseProgress(t *testing.T) {
	tests := []struct {
		name     string
		interval time.Duration
		wantLogs bool
	}{
		{
			name:     "quick close is silent",
			interval: DefaultProgressInterval,
		},
		{
			name:     "slow close logs progress",
			interval: time.Nanosecond,
			wantLogs: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			f, err := Open(filepath.Join(t.TempDir(), "test.zip"), func(options *Options) {
				options.Logger = log.New(&buf, "", 0)
				options.ProgressInterval = tt.interval
			})
			require.NoError(t, err)
			require.NoError(t, write(f, "a.txt", []byte("a")))
			require.NoError(t, f.Close())

			if tt.wantLogs {
				assert.Contains(t, buf.String(), "wrote 1 B / 1 B so far")
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestOpen_Invalid(t *testing.T) {
	dir := t.TempDir()

	_, err := Open(dir)
	assert.Error(t, err, "opening a directory as archive should fail")

	_, err = Open(filepath.Join(dir, "missing", "test.zip"))
	assert.Error(t, err, "opening an archive in a missing directory should fail")

	_, err = Open(filepath.Join(dir, "test.zip"), func(options *Options) {
		options.Level = 42
	})
	assert.Error(t, err, "invalid compression level should fail")
}

func TestEntryName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{path: "a.txt", want: "a.txt"},
		{path: "dir/a.txt", want: "dir/a.txt"},
		{path: "/home/user/a.txt", want: "home/user/a.txt"},
		{path: "../x/./b.txt", want: "x/b.txt"},
		{path: "a/../../b.txt", want: "b.txt"},
		{path: `C:\Users\a.txt`, want: "Users/a.txt"},
		{path: "/", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, EntryName(tt.path))
		})
	}
}

func TestTimeToMsDosTime(t *testing.T) {
	fh := fileHeader("a.txt", nil)
	assert.Equal(t, fh.Modified.Year(), int(fh.ModifiedDate>>9)+1980)
	assert.Equal(t, int(fh.Modified.Month()), int(fh.ModifiedDate>>5&0xf))
	assert.Equal(t, fh.Modified.Day(), int(fh.ModifiedDate&0x1f))
	assert.Equal(t, fh.Modified.Hour(), int(fh.ModifiedTime>>11))
	assert.Equal(t, fh.Modified.Minute(), int(fh.ModifiedTime>>5&0x3f))
}

func write(f *FS, name string, data []byte) error {
	w, err := f.Create(name, nil)
	if err != nil {
		return err
	}

	if _, err = w.Write(data); err != nil {
		w.Abort()
		return err
	}

	return w.Close()
}

// readAll reads the archive with archive/zip; directories map to nil.
func readAll(t *testing.T, name string) map[string][]byte {
	r, err := zip.OpenReader(name)
	require.NoErrorf(t, err, "zip.OpenReader(%s) error = %v", name, err)
	defer r.Close()

	m := make(map[string][]byte)
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			m[f.Name] = nil
			continue
		}

		rc, err := f.Open()
		require.NoErrorf(t, err, "open %s error = %v", f.Name, err)

		var buf bytes.Buffer
		_, err = buf.ReadFrom(rc)
		_ = rc.Close()
		require.NoErrorf(t, err, "read %s error = %v", f.Name, err)

		m[f.Name] = buf.Bytes()
	}

	return m
}
