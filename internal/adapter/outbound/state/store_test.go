package state

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feastflow/storefront/internal/port/outbound"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openStore(t *testing.T) (*FileStateStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.json")
	return NewFileStateStore(path, quietLogger()), path
}

func readDoc(t *testing.T, path string) AppState {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var st AppState
	require.NoError(t, json.Unmarshal(raw, &st))
	return st
}

func TestLoadWithoutFile(t *testing.T) {
	s, path := openStore(t)

	st, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, st.Version)
	assert.NotNil(t, st.Entries)
	assert.Empty(t, st.Entries)
	assert.False(t, st.CreatedAt.IsZero())

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "Load must not create the file")
}

func TestLoadRejectsGarbage(t *testing.T) {
	s, path := openStore(t)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := s.Load()
	assert.Error(t, err)
}

func TestStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _ := openStore(t)

	_, err := s.Get(ctx, outbound.KeyCredential)
	assert.ErrorIs(t, err, outbound.ErrNotFound)

	require.NoError(t, s.Set(ctx, outbound.KeyCredential, []byte("tok-123")))
	require.NoError(t, s.Set(ctx, outbound.KeyCart, []byte(`{"version":1}`)))

	got, err := s.Get(ctx, outbound.KeyCredential)
	require.NoError(t, err)
	assert.Equal(t, "tok-123", string(got))

	require.NoError(t, s.Delete(ctx, outbound.KeyCredential))
	_, err = s.Get(ctx, outbound.KeyCredential)
	assert.ErrorIs(t, err, outbound.ErrNotFound)

	cart, err := s.Get(ctx, outbound.KeyCart)
	require.NoError(t, err)
	assert.Equal(t, `{"version":1}`, string(cart), "other keys untouched")
}

func TestValuesVisibleToSecondStore(t *testing.T) {
	ctx := context.Background()
	s, path := openStore(t)
	require.NoError(t, s.Set(ctx, "k", []byte("v")))

	got, err := NewFileStateStore(path, quietLogger()).Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))
}

func TestSetReplacesCorruptFile(t *testing.T) {
	ctx := context.Background()
	s, path := openStore(t)
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o600))

	require.NoError(t, s.Set(ctx, "k", []byte("v")))

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))

	bak, err := os.ReadFile(path + ".bak")
	require.NoError(t, err)
	assert.Equal(t, "garbage", string(bak))
}

func TestBackupHoldsPreviousWrite(t *testing.T) {
	ctx := context.Background()
	s, path := openStore(t)

	require.NoError(t, s.Set(ctx, "token", []byte("original")))
	require.NoError(t, s.Set(ctx, "token", []byte("updated")))

	assert.Equal(t, "original", readDoc(t, path+".bak").Entries["token"])
	assert.Equal(t, "updated", readDoc(t, path).Entries["token"])
}

func TestSaveWritesPrivateFile(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("no unix permission bits")
	}
	s, path := openStore(t)
	require.NoError(t, os.WriteFile(path, []byte(`{"version":"1"}`), 0o644))

	require.NoError(t, s.Save(s.DefaultState()))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file left behind")
}

func TestSaveStampsDocument(t *testing.T) {
	s, path := openStore(t)
	old := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	st := &AppState{Entries: map[string]string{"a": "1"}, CreatedAt: old, UpdatedAt: old}

	require.NoError(t, s.Save(st))

	doc := readDoc(t, path)
	assert.Equal(t, SchemaVersion, doc.Version)
	assert.True(t, doc.UpdatedAt.After(old))
	assert.True(t, doc.CreatedAt.Equal(old))
}

func TestSetCreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "state.json")
	s := NewFileStateStore(path, quietLogger())

	require.NoError(t, s.Set(context.Background(), "k", []byte("v")))
	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestConcurrentSetsKeepEveryKey(t *testing.T) {
	ctx := context.Background()
	s, path := openStore(t)

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.Set(ctx, fmt.Sprintf("key-%d", i), []byte("v"))
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Len(t, readDoc(t, path).Entries, n)
}

func TestLoadWarnsOnOpenPermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("no unix permission bits")
	}
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":"1","entries":{"token":"abc"}}`), 0o644))

	var logs bytes.Buffer
	s := NewFileStateStore(path, slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelWarn})))

	st, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "abc", st.Entries["token"])
	assert.Contains(t, logs.String(), "readable by other users")
}
