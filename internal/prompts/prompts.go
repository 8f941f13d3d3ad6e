// Package prompts holds the prompt templates each pipeline stage renders
// before calling the generation service. Templates are parsed once and
// never change afterwards; stages receive them at construction.
package prompts

import (
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

const defaultExtraction = `From the following transcript, identify and list:
1. Career Goals mentioned by the participants.
2. Action Items that the participants decided to take.

Format the output clearly with headings for "Career Goals" and "Action Items".

Transcript:
{{.Transcript}}
`

const defaultSummary = `Summarize the following conversation between two people:

{{.Transcript}}`

const defaultFollowUp = `You are a career counselor writing a follow-up email to a student after a counseling session.

Write a friendly, personalized email that:
- Acknowledges the session and thanks the student
- Summarizes key points discussed
- Lists specific action items and deadlines
- Offers encouragement and support
- Provides next steps
- Maintains a warm, professional tone

The email should be:
- Personalized to the student
- Action-oriented
- Encouraging and supportive
- Clear about next steps
- Professional but friendly

Keep it concise (2-3 paragraphs) but comprehensive.

Student Name: {{.StudentName}}
Student Email: {{.StudentEmail}}
Session Summary: {{.SessionSummary}}
Key Action Items: {{.ActionItems}}

Generate a follow-up email.`

// Sources is the raw template text for each stage. Empty fields fall back
// to the built-in wording.
type Sources struct {
	Extraction string `yaml:"extraction"`
	Summary    string `yaml:"summary"`
	FollowUp   string `yaml:"follow_up"`
}

// ExtractionData feeds the extraction template.
type ExtractionData struct {
	Transcript string
}

// SummaryData feeds the summary template.
type SummaryData struct {
	Transcript  string
	StudentName string
	SessionDate string
}

// FollowUpData feeds the follow-up template. ActionItems is already
// rendered as a bulleted list.
type FollowUpData struct {
	StudentName    string
	StudentEmail   string
	SessionSummary string
	ActionItems    string
}

// Templates is the parsed, read-only set of stage prompts.
type Templates struct {
	extraction *template.Template
	summary    *template.Template
	followUp   *template.Template
}

var defaults = mustParse(Sources{})

// Default returns the built-in templates.
func Default() *Templates {
	return defaults
}

// Parse compiles src, using the built-in wording for any empty field.
func Parse(src Sources) (*Templates, error) {
	if strings.TrimSpace(src.Extraction) == "" {
		src.Extraction = defaultExtraction
	}
	if strings.TrimSpace(src.Summary) == "" {
		src.Summary = defaultSummary
	}
	if strings.TrimSpace(src.FollowUp) == "" {
		src.FollowUp = defaultFollowUp
	}

	var t Templates
	var err error
	if t.extraction, err = parseOne("extraction", src.Extraction); err != nil {
		return nil, err
	}
	if t.summary, err = parseOne("summary", src.Summary); err != nil {
		return nil, err
	}
	if t.followUp, err = parseOne("follow_up", src.FollowUp); err != nil {
		return nil, err
	}
	return &t, nil
}

// Load reads template overrides from a YAML file with the keys
// extraction, summary and follow_up. An empty path yields the defaults.
func Load(path string) (*Templates, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompts file: %w", err)
	}
	var src Sources
	if err := yaml.Unmarshal(data, &src); err != nil {
		return nil, fmt.Errorf("parse prompts file %s: %w", path, err)
	}
	return Parse(src)
}

func (t *Templates) Extraction(d ExtractionData) (string, error) {
	return render(t.extraction, d)
}

func (t *Templates) Summary(d SummaryData) (string, error) {
	return render(t.summary, d)
}

func (t *Templates) FollowUp(d FollowUpData) (string, error) {
	return render(t.followUp, d)
}

func parseOne(name, text string) (*template.Template, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse %s prompt: %w", name, err)
	}
	return tmpl, nil
}

func render(tmpl *template.Template, data any) (string, error) {
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", tmpl.Name(), err)
	}
	return b.String(), nil
}

func mustParse(src Sources) *Templates {
	t, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return t
}
