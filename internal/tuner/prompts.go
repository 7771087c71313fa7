package tuner

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"tailor/internal/resume"
)

// PromptBuilder constructs the prompts for the two generation modes.
type PromptBuilder struct{}

const truthfulnessInstruction = "\n**TRUTHFULNESS**: Never invent employers, titles, credentials, dates, tools, or metrics. Every statement must be supportable by the provided document or the allowed claim catalogue.\n"

const decisionSystemPrompt = "Role: Resume Editor. Task: Decide how one job requirement maps onto the candidate's document. Respond with a single JSON object matching the requested schema, and nothing else."

const tuningSystemPrompt = "Role: Resume Editor. Task: Rewrite the candidate's document fields to target a specific job posting without fabricating anything. Respond with a single JSON object matching the requested schema, and nothing else."

func (pb *PromptBuilder) DecisionSystem() string { return decisionSystemPrompt }
func (pb *PromptBuilder) TuningSystem() string   { return tuningSystemPrompt }

// BuildDecisionPrompt composes the per-requirement prompt: the requirement,
// its edit-lock flag, the ordered eligible candidates with their budgets, and
// any repair feedback from the previous attempt.
func (pb *PromptBuilder) BuildDecisionPrompt(req Requirement, locked bool, candidates []CandidateElement, feedback string) string {
	var sb strings.Builder
	sb.WriteString("Decide whether the requirement below is already mentioned in the document, can be worked into one field, or cannot be resolved.\n")
	sb.WriteString(truthfulnessInstruction)

	sb.WriteString("\n### REQUIREMENT\n")
	fmt.Fprintf(&sb, "- id: %s\n- type: %s\n- text: %s\n- mustHave: %t\n", req.ID, req.Type, req.Text, req.MustHave)
	if len(req.Aliases) > 0 {
		fmt.Fprintf(&sb, "- aliases: %s\n", strings.Join(req.Aliases, ", "))
	}
	if len(req.Evidence) > 0 {
		sb.WriteString("- supporting evidence from the candidate's background:\n")
		for _, ev := range req.Evidence {
			fmt.Fprintf(&sb, "  - %s\n", ev)
		}
	}
	if locked {
		sb.WriteString("\n**LOCKED**: This requirement states a credential or tenure fact. You may only report it as already mentioned (mentioned=yes with the path) or as unresolvable. Do not propose any edit.\n")
	}

	sb.WriteString("\n### ELIGIBLE FIELDS (in precedence order)\n")
	for _, c := range candidates {
		fmt.Fprintf(&sb, "- path: %s | maxLines: %d | maxCharsPerLine: %d | maxCharsTotal: %d\n  current: %s\n",
			c.Path, c.MaxLines, c.MaxCharsPerLine, c.MaxCharsTotal, c.Text)
	}

	sb.WriteString("\n### OUTPUT SCHEMA\n")
	sb.WriteString("{\"mentioned\": \"yes|implied|none\", \"path\": \"<field path or empty>\", \"proposedText\": \"<full replacement text or empty>\", \"reason\": \"<short justification>\"}\n")
	sb.WriteString("Rules:\n")
	sb.WriteString("- mentioned=yes requires the path of the field that already covers the requirement; leave proposedText empty.\n")
	sb.WriteString("- To edit, set the path of exactly one eligible field and proposedText to its complete replacement within the stated budgets.\n")
	sb.WriteString("- If nothing fits, set mentioned accordingly and leave path and proposedText empty.\n")

	if strings.TrimSpace(feedback) != "" {
		sb.WriteString("\n### FEEDBACK ON YOUR PREVIOUS ATTEMPT\n")
		sb.WriteString(feedback)
		sb.WriteString("\n")
	}
	return sb.String()
}

// TuningInputs is everything the whole-document prompt is built from.
type TuningInputs struct {
	JobText             string
	MaxResumePages      int
	MaxCoverLetterPages int
	KeywordHints        []string
	ClaimCatalogue      map[string]string // claim id -> claim text
	Document            *resume.Document
	EditableFields      []CandidateElement
	AllowSkillDeletions bool
}

// BuildTuningPrompt composes the single large whole-document prompt: job text,
// page controls, style metrics, keyword hints, the allow-listed claim
// catalogue, and the current snapshot.
func (pb *PromptBuilder) BuildTuningPrompt(in TuningInputs, feedback string) string {
	var sb strings.Builder
	sb.WriteString("Rewrite the document fields below so the resume targets the job posting while staying within the page limits.\n")
	sb.WriteString(truthfulnessInstruction)

	sb.WriteString("\n### JOB POSTING\n")
	sb.WriteString(strings.TrimSpace(in.JobText))
	sb.WriteString("\n")

	sb.WriteString("\n### LIMITS\n")
	fmt.Fprintf(&sb, "- maxResumePages: %d\n", in.MaxResumePages)
	if in.MaxCoverLetterPages > 0 {
		fmt.Fprintf(&sb, "- maxCoverLetterPages: %d\n", in.MaxCoverLetterPages)
	}
	fmt.Fprintf(&sb, "- fontSizePt: %.1f, lineHeight: %.2f\n", in.Document.Layout.FontSizePt, in.Document.Layout.LineHeight)

	if len(in.KeywordHints) > 0 {
		sb.WriteString("\n### KEYWORDS WORTH COVERING\n")
		sb.WriteString(strings.Join(in.KeywordHints, ", "))
		sb.WriteString("\n")
	}

	sb.WriteString("\n### ALLOWED CLAIMS\n")
	sb.WriteString("Each rewritten field must cite the ids of the claims it is grounded on. Only these ids are valid:\n")
	for _, id := range sortedClaimIDs(in.ClaimCatalogue) {
		fmt.Fprintf(&sb, "- %s: %s\n", id, in.ClaimCatalogue[id])
	}

	sb.WriteString("\n### EDITABLE FIELDS\n")
	for _, c := range in.EditableFields {
		fmt.Fprintf(&sb, "- path: %s | maxLines: %d | maxCharsPerLine: %d | maxCharsTotal: %d\n  current: %s\n",
			c.Path, c.MaxLines, c.MaxCharsPerLine, c.MaxCharsTotal, c.Text)
	}

	sb.WriteString("\n### DOCUMENT SNAPSHOT\n")
	if snapshot, err := json.MarshalIndent(in.Document, "", "  "); err == nil {
		sb.Write(snapshot)
		sb.WriteString("\n")
	}

	sb.WriteString("\n### OUTPUT SCHEMA\n")
	sb.WriteString("{\"fields\": [{\"path\": \"<field path>\", \"text\": \"<full replacement>\", \"evidenceIds\": [\"<claim id>\"]}]")
	if in.AllowSkillDeletions {
		sb.WriteString(", \"removeSkills\": [\"<skill name>\"]")
	}
	sb.WriteString("}\n")
	sb.WriteString("Include only fields you actually change. Keep every number from the original text intact.\n")

	if strings.TrimSpace(feedback) != "" {
		sb.WriteString("\n### FEEDBACK ON YOUR PREVIOUS ATTEMPT\n")
		sb.WriteString(feedback)
		sb.WriteString("\n")
	}
	return sb.String()
}

func sortedClaimIDs(catalogue map[string]string) []string {
	ids := make([]string, 0, len(catalogue))
	for id := range catalogue {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
