package cli

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenworks/sage/internal/artifact"
	"github.com/lumenworks/sage/internal/convo"
)

type staticFetcher struct{}

func (staticFetcher) DownloadVideo(context.Context, string) ([]byte, error) {
	return []byte("mp4"), nil
}

func TestReleaseConversationVideos(t *testing.T) {
	store, err := artifact.NewStore(t.TempDir(), staticFetcher{})
	require.NoError(t, err)

	done, err := store.Materialize(context.Background(), "job-done", "https://files.example/a")
	require.NoError(t, err)
	kept, err := store.Materialize(context.Background(), "job-generating", "https://files.example/b")
	require.NoError(t, err)

	turns := []convo.Turn{
		{Sender: convo.SenderUser, Text: "q"},
		{Sender: convo.SenderAgent, VideoStatus: convo.VideoDone, VideoHandle: done},
		{Sender: convo.SenderAgent, VideoStatus: convo.VideoGenerating, VideoHandle: kept},
		{Sender: convo.SenderAgent, VideoStatus: convo.VideoError},
	}

	releaseConversationVideos(store, turns)

	_, err = os.Stat(done)
	assert.True(t, os.IsNotExist(err), "finished video must be removed when the conversation is left")
	_, err = os.Stat(kept)
	assert.NoError(t, err, "a still-generating turn's file is not touched")
}

func TestReleaseConversationVideosNilStore(t *testing.T) {
	assert.NotPanics(t, func() {
		releaseConversationVideos(nil, []convo.Turn{{VideoStatus: convo.VideoDone, VideoHandle: "x"}})
	})
}
