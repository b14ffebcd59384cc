package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeFile(t *testing.T, area LocalArea, name, content string) {
	t.Helper()
	path, err := area.GetPath(name)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o666))
}

func readStream(t *testing.T, area Area, name string) string {
	t.Helper()
	reader, err := OpenStream(context.Background(), area, name)
	require.NoError(t, err)
	defer reader.Close()
	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	return string(data)
}

func TestLocalStoreLayout(t *testing.T) {
	root := t.TempDir()
	store := NewLocalStore(root)
	ctx := context.Background()

	writeFile(t, store.Temp(), "C1/M1/original", "payload")
	require.NoError(t, store.CopyTempToMain(ctx, "C1/M1/original", "C1/M1/original.jpg"))
	require.NoError(t, store.CopyTempToLocal(ctx, "C1/M1/original", "C1/M1/copy"))
	require.NoError(t, store.CopyMainToTemp(ctx, "C1/M1/original.jpg", "C1/M1/back"))
	require.NoError(t, store.CopyLocalToMain(ctx, "C1/M1/copy", "C1/M1/copy"))
	require.NoError(t, store.CopyMainToLocal(ctx, "C1/M1/copy", "C1/M1/copy2"))
	require.NoError(t, store.CopyLocalToTemp(ctx, "C1/M1/copy2", "C1/M1/copy3"))

	for _, file := range []string{
		"temp/C1/M1/original",
		"main/C1/M1/original.jpg",
		"local/C1/M1/copy",
		"temp/C1/M1/back",
		"main/C1/M1/copy",
		"local/C1/M1/copy2",
		"temp/C1/M1/copy3",
	} {
		data, err := os.ReadFile(filepath.Join(root, file))
		require.NoError(t, err, file)
		assert.Equal(t, "payload", string(data), file)
	}
	assert.Equal(t, "payload", readStream(t, store.Main(), "C1/M1/original.jpg"))
}

func TestStoreDelete(t *testing.T) {
	root := t.TempDir()
	store := NewLocalStore(root)
	ctx := context.Background()

	writeFile(t, store.Temp(), "C1/M1/original", "a")
	writeFile(t, store.Local(), "C1/M1/sized150.jpg", "b")
	writeFile(t, store.Main().(LocalArea), "C1/M1/original.jpg", "c")
	writeFile(t, store.Main().(LocalArea), "C1/M2/original.jpg", "d")

	require.NoError(t, store.Delete(ctx, "C1/M1"))
	for _, area := range []string{AreaTemp, AreaLocal, AreaMain} {
		_, err := os.Stat(filepath.Join(root, area, "C1", "M1"))
		assert.True(t, os.IsNotExist(err), area)
	}
	_, err := os.Stat(filepath.Join(root, AreaMain, "C1", "M2", "original.jpg"))
	assert.NoError(t, err)

	// The area is usable again after a delete
	writeFile(t, store.Temp(), "C1/M1/original", "again")

	require.NoError(t, store.Delete(ctx, ""))
	entries, err := os.ReadDir(filepath.Join(root, AreaMain))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestInvalidPaths(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	_, err := store.Temp().GetPath("../escape")
	assert.ErrorIs(t, err, ErrInvalidPath)
	_, err = NewInnerFileStore(store, "C1/../..")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestInnerFileStore(t *testing.T) {
	root := t.TempDir()
	outer := NewLocalStore(root)
	ctx := context.Background()

	inner, err := NewInnerFileStore(outer, "C1/M1")
	require.NoError(t, err)
	other, err := NewInnerFileStore(outer, "C1/M2")
	require.NoError(t, err)

	writeFile(t, inner.Temp(), "original", "one")
	writeFile(t, other.Temp(), "original", "two")
	require.NoError(t, inner.CopyTempToMain(ctx, "original", "original.png"))
	require.NoError(t, other.CopyTempToMain(ctx, "original", "original.png"))

	path, err := inner.Main().(LocalArea).GetPath("original.png")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, AreaMain, "C1", "M1", "original.png"), path)
	assert.Equal(t, "one", readStream(t, inner.Main(), "original.png"))
	assert.Equal(t, "two", readStream(t, other.Main(), "original.png"))

	require.NoError(t, inner.Delete(ctx, ""))
	_, err = os.Stat(filepath.Join(root, AreaMain, "C1", "M1"))
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, "two", readStream(t, other.Main(), "original.png"))
}

func TestLocalAreaSaveAndMove(t *testing.T) {
	root := t.TempDir()
	inner, err := NewInnerFileStore(NewLocalStore(root), "C1/M1")
	require.NoError(t, err)
	temp := inner.Temp()

	n, err := temp.Save("upload-1", strings.NewReader("payload"))
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	assert.Equal(t, int64(7), temp.GetSize("upload-1"))
	assert.Equal(t, int64(-1), temp.GetSize("missing"))

	writeFile(t, temp, "original", "older")
	require.NoError(t, temp.Move("upload-1", "original"))
	assert.Equal(t, "payload", readStream(t, temp, "original"))
	assert.Equal(t, int64(-1), temp.GetSize("upload-1"))
	assert.FileExists(t, filepath.Join(root, AreaTemp, "C1", "M1", "original"))

	_, err = temp.Save("../escape", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrInvalidPath)
	assert.Error(t, temp.Move("missing", "original"))
}

type memoryBackend struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (m *memoryBackend) Upload(_ context.Context, key, localPath string) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memoryBackend) Open(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, os.ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memoryBackend) SignedURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	return "https://objects.test/" + key + "?ttl=" + ttl.String(), nil
}

func (m *memoryBackend) DeletePrefix(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.objects {
		if matchesPrefix(k, key) {
			delete(m.objects, k)
		}
	}
	return nil
}

func (m *memoryBackend) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []string
	for k := range m.objects {
		result = append(result, k)
	}
	sort.Strings(result)
	return result
}

func TestRemoteMain(t *testing.T) {
	backend := &memoryBackend{objects: map[string][]byte{}}
	main, err := NewRemoteArea(backend, "prefix", 0)
	require.NoError(t, err)
	outer := NewStore(t.TempDir(), main)
	inner, err := NewInnerFileStore(outer, "C1/M1")
	require.NoError(t, err)
	ctx := context.Background()

	writeFile(t, inner.Temp(), "original", "remote")
	require.NoError(t, inner.CopyTempToMain(ctx, "original", "original.jpg"))
	assert.Equal(t, []string{"prefix/C1/M1/original.jpg"}, backend.keys())

	urlArea, ok := inner.Main().(URLArea)
	require.True(t, ok, "remote main must vend URLs")
	_, isLocal := inner.Main().(LocalArea)
	assert.False(t, isLocal)
	url, err := urlArea.GetURL(ctx, "original.jpg")
	require.NoError(t, err)
	assert.Equal(t, "https://objects.test/prefix/C1/M1/original.jpg?ttl=1h0m0s", url)
	assert.Equal(t, "remote", readStream(t, inner.Main(), "original.jpg"))

	require.NoError(t, inner.CopyMainToLocal(ctx, "original.jpg", "downloaded"))
	assert.Equal(t, "remote", readStream(t, inner.Local(), "downloaded"))

	backend.objects["prefix/C1/M10/original.jpg"] = []byte("other media")
	require.NoError(t, inner.Delete(ctx, ""))
	assert.Equal(t, []string{"prefix/C1/M10/original.jpg"}, backend.keys())
}

func TestMatchesPrefix(t *testing.T) {
	tests := []struct {
		key, prefix string
		want        bool
	}{
		{"a/b/c", "a/b", true},
		{"a/b", "a/b", true},
		{"a/bc", "a/b", false},
		{"a/b/c", "", true},
	}
	for _, tt := range tests {
		if got := matchesPrefix(tt.key, tt.prefix); got != tt.want {
			t.Errorf("matchesPrefix(%q, %q) = %v, want %v", tt.key, tt.prefix, got, tt.want)
		}
	}
}

func TestDescriptor(t *testing.T) {
	server := Descriptor{Type: TypeServer}
	payload, err := server.Payload()
	require.NoError(t, err)
	assert.Empty(t, payload)
	parsed, err := ParseDescriptor(TypeServer, payload)
	require.NoError(t, err)
	assert.Equal(t, server, parsed)

	b2 := Descriptor{Type: TypeBackblaze, KeyID: "id", Key: "secret", Bucket: "media", Path: "cat"}
	payload, err = b2.Payload()
	require.NoError(t, err)
	assert.True(t, strings.Contains(payload, `"bucket":"media"`))
	parsed, err = ParseDescriptor(TypeBackblaze, payload)
	require.NoError(t, err)
	assert.Equal(t, b2, parsed)

	invalid := []Descriptor{
		{Type: "ftp"},
		{Type: TypeServer, Bucket: "x"},
		{Type: TypeBackblaze, KeyID: "id", Key: "secret"},
		{Type: TypeBackblaze, KeyID: "id", Key: "secret", Bucket: "b", Region: "us-east-1"},
		{Type: TypeS3, KeyID: "id", Key: "secret", Bucket: "b"},
		{Type: TypeS3, KeyID: "id", Key: "secret", Bucket: "b", Region: "r", Path: "../up"},
	}
	for _, d := range invalid {
		assert.Error(t, d.Validate(), "%+v", d)
	}
}

func TestRegistryCachesStores(t *testing.T) {
	registry := NewRegistry(t.TempDir(), time.Hour, zap.NewNop())
	first, err := registry.Open(context.Background(), Descriptor{Type: TypeServer})
	require.NoError(t, err)
	second, err := registry.Open(context.Background(), Descriptor{Type: TypeServer})
	require.NoError(t, err)
	assert.Same(t, first, second)
}
