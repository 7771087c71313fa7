package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	output string
	err    error
}

func (s *stubGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	return s.output, s.err
}

func TestAdapter_DecodesFencedDecision(t *testing.T) {
	adapter := NewAdapter(&stubGenerator{output: "```json\n{\"mentioned\":\"yes\",\"path\":\"metadata.summary\",\"reason\":\"stated\"}\n```"})
	d, err := adapter.GenerateDecision(context.Background(), "sys", "prompt")
	require.NoError(t, err)
	assert.Equal(t, "yes", d.Mentioned)
	assert.Equal(t, "metadata.summary", d.Path)
}

func TestAdapter_RejectsInvalidMention(t *testing.T) {
	adapter := NewAdapter(&stubGenerator{output: `{"mentioned":"maybe"}`})
	_, err := adapter.GenerateDecision(context.Background(), "sys", "prompt")
	require.Error(t, err)
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.False(t, IsTransient(err))
}

func TestAdapter_RejectsNonJSON(t *testing.T) {
	adapter := NewAdapter(&stubGenerator{output: "I think the summary should mention Go."})
	_, err := adapter.GenerateDecision(context.Background(), "sys", "prompt")
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
}

func TestAdapter_DecodesDocumentDraft(t *testing.T) {
	adapter := NewAdapter(&stubGenerator{output: `{"fields":[{"path":"metadata.summary","text":"Engineer.","evidenceIds":["c1"]}],"removeSkills":["Cobol"]}`})
	d, err := adapter.GenerateDraft(context.Background(), "sys", "prompt")
	require.NoError(t, err)
	require.Len(t, d.Fields, 1)
	assert.Equal(t, "metadata.summary", d.Fields[0].Path)
	assert.Equal(t, []string{"c1"}, d.Fields[0].EvidenceIDs)
	assert.Equal(t, []string{"Cobol"}, d.RemoveSkills)
}

func TestAdapter_RejectsEmptyDraft(t *testing.T) {
	adapter := NewAdapter(&stubGenerator{output: `{"fields":[]}`})
	_, err := adapter.GenerateDraft(context.Background(), "sys", "prompt")
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)

	adapter = NewAdapter(&stubGenerator{output: `{"fields":[{"path":" ","text":"x"}]}`})
	_, err = adapter.GenerateDraft(context.Background(), "sys", "prompt")
	require.ErrorAs(t, err, &schemaErr)
}

func TestAdapter_PropagatesProviderErrors(t *testing.T) {
	adapter := NewAdapter(&stubGenerator{err: &CallError{StatusCode: 503, Message: "unavailable"}})
	_, err := adapter.GenerateDecision(context.Background(), "sys", "prompt")
	require.Error(t, err)
	assert.True(t, IsTransient(err))
}
