package extract

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/admitkit/docverify/internal/enquiry"
)

const classifyTemplate = `You are a document classifier for a student admissions service.
Look at the attached document and decide which single category it belongs to.

Answer with exactly one of these category names and nothing else:
{{range .Categories}}- {{.}}
{{end}}
Use "Other" when the document fits none of the categories.`

const extractTemplate = `You are extracting structured data from a document classified as "{{.Category}}".

Return a single JSON object with exactly these keys:
{{range .Fields}}- "{{.}}"
{{end}}{{if .WantExperiences}}- "work_experiences": an array of objects with keys "company", "title", "duration"
{{end}}
Every key above must be present. A key whose value cannot be found in the
document must be set to null. Every non-null value is an object of the form:

  {"value": <string or number>, "confidence_score": <integer 0-100>, "bounding_box": {"page_number": <int>, "x": <percent>, "y": <percent>, "width": <percent>, "height": <percent>}}

confidence_score states how certain you are that the value was read correctly.
bounding_box locates the source text on the page, each coordinate a percentage
of the page dimension. Omit bounding_box only when the location is unknown.

Respond with the JSON object only, no prose and no markdown fences.`

// renderTemplate renders a prompt template with the provided data.
func renderTemplate(tmpl string, data any) (string, error) {
	tpl, err := template.New("prompt").Parse(tmpl)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func classifyPrompt() (string, error) {
	cats := []string{
		string(enquiry.CategoryResume),
		string(enquiry.CategoryTranscript),
		string(enquiry.CategoryCOE),
		string(enquiry.CategoryLanguageTest),
		string(enquiry.CategoryOther),
	}
	return renderTemplate(classifyTemplate, map[string]any{"Categories": cats})
}

func extractPrompt(c enquiry.Category) (string, error) {
	data := map[string]any{
		"Category":        string(c),
		"Fields":          enquiry.FieldsForCategory(c),
		"WantExperiences": enquiry.HasExperiences(c),
	}
	return renderTemplate(extractTemplate, data)
}

// parseCategoryReply maps a raw classifier answer to a category. Anything that
// is not an exact category name, after trimming, counts as Other.
func parseCategoryReply(s string) enquiry.Category {
	return enquiry.ParseCategory(strings.Trim(strings.TrimSpace(s), `"`))
}
