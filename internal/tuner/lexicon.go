package tuner

import (
	"sort"
	"strings"

	"tailor/internal/resume"
)

// techLexicon is the fixed set of tool and technology names the vocabulary
// validator guards. A replacement may only use one of these tokens when the
// original document (or an explicit permission) already carries it.
var techLexicon = map[string]bool{
	"go": true, "golang": true, "python": true, "java": true, "javascript": true,
	"typescript": true, "rust": true, "ruby": true, "kotlin": true, "swift": true,
	"scala": true, "php": true, "cpp": true, "csharp": true,
	"react": true, "angular": true, "vue": true, "svelte": true, "nextjs": true,
	"node": true, "nodejs": true, "django": true, "flask": true, "rails": true,
	"spring": true, "dotnet": true, "graphql": true, "grpc": true, "rest": true,
	"sql": true, "postgresql": true, "postgres": true, "mysql": true,
	"sqlite": true, "mongodb": true, "redis": true, "elasticsearch": true,
	"kafka": true, "rabbitmq": true, "cassandra": true, "dynamodb": true,
	"aws": true, "azure": true, "gcp": true, "kubernetes": true, "docker": true,
	"terraform": true, "ansible": true, "jenkins": true, "helm": true,
	"prometheus": true, "grafana": true, "datadog": true, "splunk": true,
	"git": true, "github": true, "gitlab": true, "linux": true, "bash": true,
	"airflow": true, "spark": true, "hadoop": true, "snowflake": true,
	"databricks": true, "tableau": true, "pandas": true, "numpy": true,
	"pytorch": true, "tensorflow": true, "sklearn": true, "opencv": true,
	"figma": true, "jira": true, "confluence": true, "salesforce": true,
	"sap": true, "excel": true, "powerbi": true,
}

// tokenize extracts the lower-cased alphanumeric tokens of a text.
func tokenize(text string) []string {
	lower := strings.ToLower(text)
	tokens := strings.FieldsFunc(lower, func(r rune) bool {
		return !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'))
	})
	return tokens
}

// BuildVocabularyAllowlist collects every token of the original document plus
// explicitly permitted additions. The vocabulary validator rejects lexicon
// tokens outside this set, so the generator cannot slip in tools the candidate
// never claimed.
func BuildVocabularyAllowlist(doc *resume.Document, permitted []string) map[string]bool {
	allow := make(map[string]bool)
	add := func(text string) {
		for _, tok := range tokenize(text) {
			allow[tok] = true
		}
	}

	add(doc.Metadata.Name)
	add(doc.Metadata.Subtitle)
	add(doc.Metadata.Summary)
	for _, exp := range doc.Experience {
		add(exp.Company)
		add(exp.Title)
		for _, b := range exp.Bullets {
			add(b)
		}
	}
	for _, prj := range doc.Projects {
		add(prj.Name)
		for _, b := range prj.Bullets {
			add(b)
		}
	}
	for _, edu := range doc.Education {
		add(edu.School)
		add(edu.Degree)
	}
	for _, sk := range doc.Skills {
		add(sk.Name)
		add(sk.Category)
	}
	add(doc.CoverLetter.Body)
	for _, p := range permitted {
		add(p)
	}
	return allow
}

// ExtractKeywordHints pulls the lexicon tokens present in a job posting,
// ordered by frequency then first appearance. They seed the tuning prompt and
// the diff builder's keyword coverage.
func ExtractKeywordHints(jobText string, limit int) []string {
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, tok := range tokenize(jobText) {
		if !techLexicon[tok] {
			continue
		}
		if counts[tok] == 0 {
			order = append(order, tok)
		}
		counts[tok]++
	}
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	if limit > 0 && len(order) > limit {
		order = order[:limit]
	}
	return order
}
