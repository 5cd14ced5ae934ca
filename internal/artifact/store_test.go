package artifact

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenworks/sage/internal/genai"
)

type fakeFetcher struct {
	data []byte
	err  error
}

func (f *fakeFetcher) DownloadVideo(context.Context, string) ([]byte, error) {
	return f.data, f.err
}

func TestMaterializeAndRelease(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "videos")
	s, err := NewStore(dir, &fakeFetcher{data: []byte("mp4-bytes")})
	require.NoError(t, err)

	path, err := s.Materialize(context.Background(), "01JOB", "https://files.example/v")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "01JOB.mp4"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("mp4-bytes"), data)

	require.NoError(t, s.Release(path))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Releasing twice is fine.
	require.NoError(t, s.Release(path))
}

func TestMaterializeDownloadFailure(t *testing.T) {
	s, err := NewStore(t.TempDir(), &fakeFetcher{err: genai.ErrDownloadFailed})
	require.NoError(t, err)

	_, err = s.Materialize(context.Background(), "01JOB", "u")
	assert.ErrorIs(t, err, genai.ErrDownloadFailed)
}
