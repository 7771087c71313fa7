// Package resume defines the document snapshot model shared by the tuning
// pipeline: the nested resume/cover-letter structure, stable field paths into
// it, and the measured layout profiles supplied per field by the caller.
package resume

// Contact holds the contact block rendered under the name line.
type Contact struct {
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Location string `json:"location,omitempty"`
	Website  string `json:"website,omitempty"`
}

// Metadata is the document header: identity plus the summary paragraph.
type Metadata struct {
	Name     string  `json:"name"`
	Subtitle string  `json:"subtitle,omitempty"`
	Summary  string  `json:"summary,omitempty"`
	Contact  Contact `json:"contact"`
}

// Experience is one role with an ordered bullet list.
type Experience struct {
	Company   string   `json:"company"`
	Title     string   `json:"title"`
	StartDate string   `json:"startDate,omitempty"`
	EndDate   string   `json:"endDate,omitempty"`
	Bullets   []string `json:"bullets"`
}

// Project is one portfolio entry with an ordered bullet list.
type Project struct {
	Name    string   `json:"name"`
	Link    string   `json:"link,omitempty"`
	Bullets []string `json:"bullets"`
}

// Education is one degree entry. Education fields are never edited by the
// tuner; they only participate in layout estimation.
type Education struct {
	School string `json:"school"`
	Degree string `json:"degree"`
	Year   string `json:"year,omitempty"`
}

// Skill is a named skill with its display category.
type Skill struct {
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
}

// CoverLetter is the optional letter attached to the resume.
type CoverLetter struct {
	Date           string `json:"date,omitempty"`
	HiringManager  string `json:"hiringManager,omitempty"`
	CompanyAddress string `json:"companyAddress,omitempty"`
	Body           string `json:"body,omitempty"`
	Sendoff        string `json:"sendoff,omitempty"`
}

// SectionVisibility marks which sections are rendered, and therefore which
// fields are eligible for editing and counted during page estimation.
type SectionVisibility struct {
	Summary     bool `json:"summary"`
	Experience  bool `json:"experience"`
	Projects    bool `json:"projects"`
	Education   bool `json:"education"`
	Skills      bool `json:"skills"`
	CoverLetter bool `json:"coverLetter"`
}

// LayoutPrefs carries the page and font preferences the layout estimator
// converts into line heights and page capacity.
type LayoutPrefs struct {
	FontSizePt          float64 `json:"fontSizePt"`
	LineHeight          float64 `json:"lineHeight"`
	MaxResumePages      int     `json:"maxResumePages"`
	MaxCoverLetterPages int     `json:"maxCoverLetterPages"`
}

// Document is the full snapshot exchanged with the tuner. It is a value to the
// orchestrator: created fresh per request and never retained across requests.
type Document struct {
	Metadata          Metadata          `json:"metadata"`
	Experience        []Experience      `json:"experience"`
	Projects          []Project         `json:"projects"`
	Education         []Education       `json:"education"`
	Skills            []Skill           `json:"skills"`
	CoverLetter       CoverLetter       `json:"coverLetter"`
	SectionVisibility SectionVisibility `json:"sectionVisibility"`
	Layout            LayoutPrefs       `json:"layout"`
}

// FieldProfile is the measured layout budget for a single field path,
// produced by the caller's layout-measurement pass.
type FieldProfile struct {
	MaxLines        int `json:"maxLines"`
	MaxCharsPerLine int `json:"maxCharsPerLine"`
	MaxCharsTotal   int `json:"maxCharsTotal"`
	CharCount       int `json:"charCount,omitempty"`
	WordCount       int `json:"wordCount,omitempty"`
}

// Clone returns a deep copy of the document. The tuner edits copies only; the
// caller's snapshot is never mutated in place.
func (d *Document) Clone() *Document {
	out := *d
	out.Experience = make([]Experience, len(d.Experience))
	for i, e := range d.Experience {
		e.Bullets = append([]string(nil), e.Bullets...)
		out.Experience[i] = e
	}
	out.Projects = make([]Project, len(d.Projects))
	for i, p := range d.Projects {
		p.Bullets = append([]string(nil), p.Bullets...)
		out.Projects[i] = p
	}
	out.Education = append([]Education(nil), d.Education...)
	out.Skills = append([]Skill(nil), d.Skills...)
	return &out
}
