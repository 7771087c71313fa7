// Package llm wraps the external text-generation collaborator behind a small
// adapter: provider backends produce raw text, the adapter decodes it into one
// of two structured draft schemas and classifies failures as transient or
// permanent for the repair loops.
package llm

import (
	"context"
	"encoding/json"
	"strings"
)

// Decision is the single-decision schema returned in per-requirement mode.
// Exactly one of the three shapes is intended per draft: already mentioned at
// a path, an edit proposal for a path, or no feasible resolution.
type Decision struct {
	Mentioned    string   `json:"mentioned"` // yes | implied | none
	Path         string   `json:"path,omitempty"`
	ProposedText string   `json:"proposedText,omitempty"`
	EvidenceIDs  []string `json:"evidenceIds,omitempty"`
	Reason       string   `json:"reason,omitempty"`
}

// FieldDraft is one field's value in a whole-document draft, with the claim
// identifiers the generator grounded it on.
type FieldDraft struct {
	Path        string   `json:"path"`
	Text        string   `json:"text"`
	EvidenceIDs []string `json:"evidenceIds,omitempty"`
}

// DocumentDraft is the full-draft schema returned in whole-document mode.
type DocumentDraft struct {
	Fields       []FieldDraft `json:"fields"`
	RemoveSkills []string     `json:"removeSkills,omitempty"`
	Notes        string       `json:"notes,omitempty"`
}

// Generator is a provider backend: one synchronous text generation call.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// Client is what the repair loops call. Both methods return either a draft
// matching the expected schema or an error classifiable via IsTransient.
type Client interface {
	GenerateDecision(ctx context.Context, system, prompt string) (*Decision, error)
	GenerateDraft(ctx context.Context, system, prompt string) (*DocumentDraft, error)
}

// Adapter turns any Generator into a Client by decoding its text output
// against the requested schema. Decode failures surface as SchemaError, which
// classification treats as permanent.
type Adapter struct {
	gen Generator
}

func NewAdapter(gen Generator) *Adapter {
	return &Adapter{gen: gen}
}

func (a *Adapter) GenerateDecision(ctx context.Context, system, prompt string) (*Decision, error) {
	raw, err := a.gen.Generate(ctx, system, prompt)
	if err != nil {
		return nil, err
	}
	var d Decision
	if err := decodeDraft(raw, &d); err != nil {
		return nil, err
	}
	switch d.Mentioned {
	case "yes", "implied", "none":
	default:
		return nil, &SchemaError{Detail: "mentioned must be yes, implied, or none, got " + quote(d.Mentioned)}
	}
	return &d, nil
}

func (a *Adapter) GenerateDraft(ctx context.Context, system, prompt string) (*DocumentDraft, error) {
	raw, err := a.gen.Generate(ctx, system, prompt)
	if err != nil {
		return nil, err
	}
	var d DocumentDraft
	if err := decodeDraft(raw, &d); err != nil {
		return nil, err
	}
	if len(d.Fields) == 0 {
		return nil, &SchemaError{Detail: "draft contains no fields"}
	}
	for _, f := range d.Fields {
		if strings.TrimSpace(f.Path) == "" {
			return nil, &SchemaError{Detail: "draft field without a path"}
		}
	}
	return &d, nil
}

func decodeDraft(raw string, out any) error {
	cleaned := cleanJSONOutput(raw)
	if cleaned == "" {
		return &SchemaError{Detail: "empty response"}
	}
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return &SchemaError{Detail: err.Error()}
	}
	return nil
}

// cleanJSONOutput strips the markdown code fences providers like to wrap
// structured output in.
func cleanJSONOutput(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimSuffix(text, "```")
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
	}
	return strings.TrimSpace(text)
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
