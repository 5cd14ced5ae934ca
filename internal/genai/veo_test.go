package genai

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flattenJSON(t *testing.T, raw string) Operation {
	t.Helper()
	var op veoOperation
	require.NoError(t, json.Unmarshal([]byte(raw), &op))
	return op.flatten()
}

func TestFlattenPendingOperation(t *testing.T) {
	op := flattenJSON(t, `{"name":"operations/abc","done":false}`)
	assert.Equal(t, "operations/abc", op.Name)
	assert.False(t, op.Done)
	assert.Empty(t, op.VideoURI)
}

func TestFlattenGeneratedSamples(t *testing.T) {
	op := flattenJSON(t, `{
		"name": "operations/abc",
		"done": true,
		"response": {
			"generateVideoResponse": {
				"generatedSamples": [{"video": {"uri": "https://files.example/v.mp4"}}]
			}
		}
	}`)
	assert.True(t, op.Done)
	assert.Equal(t, "https://files.example/v.mp4", op.VideoURI)
}

func TestFlattenGeneratedVideosFallback(t *testing.T) {
	op := flattenJSON(t, `{
		"name": "operations/abc",
		"done": true,
		"response": {
			"generatedVideos": [{"video": {"uri": "https://files.example/v2.mp4"}}]
		}
	}`)
	assert.Equal(t, "https://files.example/v2.mp4", op.VideoURI)
}

func TestFlattenProviderError(t *testing.T) {
	op := flattenJSON(t, `{
		"name": "operations/abc",
		"done": true,
		"error": {"code": 3, "message": "prompt rejected"}
	}`)
	assert.True(t, op.Done)
	assert.Equal(t, "prompt rejected", op.ErrMessage)
	assert.Empty(t, op.VideoURI)
}
