package directive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantClean  string
		wantPrompt string
		wantOK     bool
	}{
		{
			name:       "prompt at end of reply",
			raw:        "Light bends near mass.<VIDEO_PROMPT>\nA glowing orb warps a grid of light.\n</VIDEO_PROMPT>",
			wantClean:  "Light bends near mass.",
			wantPrompt: "A glowing orb warps a grid of light.",
			wantOK:     true,
		},
		{
			name:       "prompt in the middle",
			raw:        "Before.<VIDEO_PROMPT>a scene</VIDEO_PROMPT>After.",
			wantClean:  "Before.After.",
			wantPrompt: "a scene",
			wantOK:     true,
		},
		{
			name:       "multiline prompt content",
			raw:        "Reply.\n<VIDEO_PROMPT>\nline one\nline two\n</VIDEO_PROMPT>\n",
			wantClean:  "Reply.",
			wantPrompt: "line one\nline two",
			wantOK:     true,
		},
		{
			name:      "no tags",
			raw:       "  Just an ordinary answer.  ",
			wantClean: "Just an ordinary answer.",
		},
		{
			name:      "unterminated open tag",
			raw:       "Answer.<VIDEO_PROMPT>half a prompt",
			wantClean: "Answer.<VIDEO_PROMPT>half a prompt",
		},
		{
			name:      "close tag without open",
			raw:       "Answer.</VIDEO_PROMPT>",
			wantClean: "Answer.</VIDEO_PROMPT>",
		},
		{
			name:      "lowercase tags are not recognized",
			raw:       "Answer.<video_prompt>x</video_prompt>",
			wantClean: "Answer.<video_prompt>x</video_prompt>",
		},
		{
			name:       "only the first well-formed region is extracted",
			raw:        "A<VIDEO_PROMPT>one</VIDEO_PROMPT>B<VIDEO_PROMPT>two</VIDEO_PROMPT>",
			wantClean:  "AB<VIDEO_PROMPT>two</VIDEO_PROMPT>",
			wantPrompt: "one",
			wantOK:     true,
		},
		{
			name:       "entire reply is a prompt",
			raw:        "<VIDEO_PROMPT>just a scene</VIDEO_PROMPT>",
			wantClean:  "",
			wantPrompt: "just a scene",
			wantOK:     true,
		},
		{
			name:      "empty input",
			raw:       "",
			wantClean: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clean, prompt, ok := Extract(tt.raw)
			assert.Equal(t, tt.wantClean, clean)
			assert.Equal(t, tt.wantPrompt, prompt)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}
