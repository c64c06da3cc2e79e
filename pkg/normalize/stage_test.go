package normalize

import (
	"context"
	"strings"
	"testing"

	"github.com/foliolegal/enrichcore/pkg/job"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStage_BuildsCanonicalTextFromScratch(t *testing.T) {
	stage := NewStage(Config{})
	j := job.New("job-1", job.Input{Content: "", Format: job.FormatText})
	j.Result.Metadata.Scratch.RawText = "Hello   world.\n\n\nThis is   a test."

	_, err := stage.Execute(context.Background(), j)
	require.NoError(t, err)

	assert.NotContains(t, j.Result.CanonicalText.FullText, "   ")
	require.Len(t, j.Result.CanonicalText.Chunks, 1)
	assert.Equal(t, j.Result.CanonicalText.FullText, j.Result.CanonicalText.Chunks[0].Text)
}

func TestStage_ChunksLongTextWithSentences(t *testing.T) {
	stage := NewStage(Config{MaxChars: 40, OverlapChars: 10})
	sentence := "This is a sentence about a contract. "
	raw := strings.Repeat(sentence, 10)

	j := job.New("job-2", job.Input{Content: "", Format: job.FormatText})
	j.Result.Metadata.Scratch.RawText = raw

	_, err := stage.Execute(context.Background(), j)
	require.NoError(t, err)
	assert.Greater(t, len(j.Result.CanonicalText.Chunks), 1)
	for _, c := range j.Result.CanonicalText.Chunks {
		assert.NotEmpty(t, c.Sentences)
	}
}
