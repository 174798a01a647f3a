package storage_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weiawesome/wes-io-live/thumbnail-service/pkg/storage"
)

func newLocal(t *testing.T) *storage.LocalStorage {
	t.Helper()
	st, err := storage.NewLocalStorage(storage.LocalConfig{BasePath: t.TempDir()})
	require.NoError(t, err)
	return st
}

func TestLocalStorage_WriteThenRead(t *testing.T) {
	st := newLocal(t)
	ctx := context.Background()

	err := st.Write(ctx, "thumbs-bucket", "thumbs/photo.png", strings.NewReader("jpeg-bytes"), 10, "image/jpeg")
	require.NoError(t, err)

	rc, err := st.Read(ctx, "thumbs-bucket", "thumbs/photo.png")
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))

	// Bucket is a directory under the base path.
	_, err = os.Stat(filepath.Join(st.BasePath(), "thumbs-bucket", "thumbs", "photo.png"))
	assert.NoError(t, err)
}

func TestLocalStorage_WriteOverwrites(t *testing.T) {
	st := newLocal(t)
	ctx := context.Background()

	require.NoError(t, st.Write(ctx, "b", "k", strings.NewReader("first"), -1, ""))
	require.NoError(t, st.Write(ctx, "b", "k", strings.NewReader("second"), -1, ""))

	rc, err := st.Read(ctx, "b", "k")
	require.NoError(t, err)
	defer rc.Close()

	data, _ := io.ReadAll(rc)
	assert.Equal(t, "second", string(data))
}

func TestLocalStorage_ReadMissing(t *testing.T) {
	st := newLocal(t)

	_, err := st.Read(context.Background(), "b", "nope.png")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestLocalStorage_KeysStayInsideBucket(t *testing.T) {
	st := newLocal(t)
	ctx := context.Background()

	require.NoError(t, st.Write(ctx, "b", "../../escape.txt", strings.NewReader("x"), 1, ""))

	_, err := os.Stat(filepath.Join(st.BasePath(), "b", "escape.txt"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(filepath.Dir(st.BasePath()), "escape.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalStorage_RejectsBadBucket(t *testing.T) {
	st := newLocal(t)
	ctx := context.Background()

	for _, bucket := range []string{"", "..", "a/b"} {
		err := st.Write(ctx, bucket, "k", strings.NewReader("x"), 1, "")
		assert.Error(t, err, bucket)
	}
}

func TestNew_UnknownType(t *testing.T) {
	_, err := storage.New(context.Background(), storage.Config{Type: "ftp"})
	assert.Error(t, err)
}

func TestNew_Local(t *testing.T) {
	st, err := storage.New(context.Background(), storage.Config{
		Type:  "local",
		Local: storage.LocalConfig{BasePath: t.TempDir()},
	})
	require.NoError(t, err)
	assert.IsType(t, &storage.LocalStorage{}, st)
	assert.NoError(t, st.Close())
}
