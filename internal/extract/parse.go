package extract

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/admitkit/docverify/internal/enquiry"
)

// extractJSON returns the substring from the first '{' to the last '}' in the input.
// This is a pragmatic approach to handle model outputs that wrap JSON in text or markdown.
func extractJSON(s string) string {
	first := strings.Index(s, "{")
	last := strings.LastIndex(s, "}")
	if first == -1 || last == -1 || last < first {
		return ""
	}
	return s[first : last+1]
}

// parseDraft extracts a JSON object from arbitrary model output and unmarshals
// it into a draft.
func parseDraft(s string) (*enquiry.Draft, error) {
	if strings.TrimSpace(s) == "" {
		return nil, errors.New("empty response")
	}

	j := extractJSON(s)
	if j == "" {
		return nil, errors.New("no JSON object found in response")
	}

	d := enquiry.NewDraft()
	if err := json.Unmarshal([]byte(j), d); err != nil {
		return nil, err
	}
	return d, nil
}

// shapeDraft forces a draft into its category's schema shape: every schema
// field present (missing ones become null), fields outside the schema dropped,
// and the experience list non-nil for categories that carry one.
func shapeDraft(cat enquiry.Category, d *enquiry.Draft) *enquiry.Draft {
	out := enquiry.NewDraft()
	for _, f := range enquiry.FieldsForCategory(cat) {
		if c, ok := d.Fields[f]; ok {
			out.Fields[f] = c
		} else {
			out.Fields[f] = enquiry.NullConfidence()
		}
	}
	if enquiry.HasExperiences(cat) {
		out.Experiences = make([]enquiry.WorkExperience, len(d.Experiences))
		copy(out.Experiences, d.Experiences)
	}
	return out
}

// emptyDraft is the shaped draft with every field null; used when the model
// output cannot be parsed at all.
func emptyDraft(cat enquiry.Category) *enquiry.Draft {
	return shapeDraft(cat, enquiry.NewDraft())
}
