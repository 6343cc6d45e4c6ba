package enquiry

import (
	"encoding/json"
)

// Semantic field names shared by extraction drafts and verified fields.
const (
	FieldFirstName  = "first_name"
	FieldLastName   = "last_name"
	FieldEmail      = "email"
	FieldPhone      = "phone_with_country_code"
	FieldGender     = "gender"
	FieldAddress    = "address"
	FieldEduLevel   = "level_of_education"
	FieldDegree     = "degree"
	FieldCourse     = "course"
	FieldInstitute  = "institution"
	FieldEduPeriod  = "edu_duration"
	FieldGPA        = "gpa_or_percentage"
	FieldEduYear    = "year_of_completion"
	FieldTestType   = "test_type"
	FieldListening  = "listening_score"
	FieldReading    = "reading_score"
	FieldWriting    = "writing_score"
	FieldSpeaking   = "speaking_score"
	FieldOverall    = "overall_score"
	FieldCourseFrom = "course_start_date"
	FieldCourseTo   = "course_end_date"
	FieldInitialFee = "initial_tuition_fee"
	FieldTotalFee   = "total_tuition_fee"
)

const fieldWorkExperiences = "work_experiences"

// categoryFields gives the scalar schema shape each category extracts. The
// four schemas are disjoint; only Resume carries the work experience sequence.
var categoryFields = map[Category][]string{
	CategoryResume: {
		FieldFirstName, FieldLastName, FieldEmail, FieldPhone, FieldGender, FieldAddress,
	},
	CategoryTranscript: {
		FieldEduLevel, FieldDegree, FieldCourse, FieldInstitute, FieldEduPeriod, FieldGPA, FieldEduYear,
	},
	CategoryLanguageTest: {
		FieldTestType, FieldListening, FieldReading, FieldWriting, FieldSpeaking, FieldOverall,
	},
	CategoryCOE: {
		FieldCourseFrom, FieldCourseTo, FieldInitialFee, FieldTotalFee,
	},
}

// FieldsForCategory returns the scalar field names a category's extraction
// schema requests, in schema order.
func FieldsForCategory(c Category) []string {
	fs := categoryFields[c]
	out := make([]string, len(fs))
	copy(out, fs)
	return out
}

// HasExperiences reports whether a category's schema includes the work
// experience sequence.
func HasExperiences(c Category) bool { return c == CategoryResume }

// WorkExperience is one employment record extracted from a resume.
type WorkExperience struct {
	Company  Confidence `json:"company"`
	Title    Confidence `json:"title"`
	Duration Confidence `json:"duration"`
}

// BlankExperience is a reviewer-added record with no machine confidence.
func BlankExperience() WorkExperience {
	blank := Confidence{Value: StringValue(""), Score: 0, Label: LabelRed}
	return WorkExperience{Company: blank, Title: blank, Duration: blank}
}

// Draft is the extracted data of one document (or the merged working copy of
// a verification session). A field absent from Fields means "not extracted",
// which is distinct from a field present with a null value.
type Draft struct {
	Fields      map[string]Confidence
	Experiences []WorkExperience
}

func NewDraft() *Draft {
	return &Draft{Fields: make(map[string]Confidence)}
}

// Merge folds another draft into this one: scalars are last-write-wins per
// field, the experience sequence is append-only. Merging the same document
// twice therefore doubles its experience entries; that is the defined
// behavior, surfacing every extraction pass for review.
func (d *Draft) Merge(other *Draft) {
	if other == nil {
		return
	}
	for k, v := range other.Fields {
		d.Fields[k] = v
	}
	d.Experiences = append(d.Experiences, other.Experiences...)
}

func (d *Draft) Clone() *Draft {
	cp := NewDraft()
	cp.Merge(d)
	return cp
}

// draft wire form: a flat object keyed by field name plus work_experiences.

func (d *Draft) MarshalJSON() ([]byte, error) {
	obj := make(map[string]any, len(d.Fields)+1)
	for k, v := range d.Fields {
		obj[k] = v
	}
	if d.Experiences != nil {
		obj[fieldWorkExperiences] = d.Experiences
	}
	return json.Marshal(obj)
}

func (d *Draft) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := NewDraft()
	for k, v := range raw {
		if k == fieldWorkExperiences {
			if err := json.Unmarshal(v, &out.Experiences); err != nil {
				return err
			}
			for i := range out.Experiences {
				normalizeExperience(&out.Experiences[i])
			}
			continue
		}
		if string(v) == "null" {
			out.Fields[k] = NullConfidence()
			continue
		}
		var c Confidence
		if err := json.Unmarshal(v, &c); err != nil {
			return err
		}
		out.Fields[k] = c
	}
	*d = *out
	return nil
}

// normalizeExperience fills columns the wire object omitted; an absent key
// means "not found", the same as an explicit null.
func normalizeExperience(e *WorkExperience) {
	for _, c := range []*Confidence{&e.Company, &e.Title, &e.Duration} {
		if c.Label == "" {
			*c = NullConfidence()
		}
	}
}
