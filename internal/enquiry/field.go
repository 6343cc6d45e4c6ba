package enquiry

import (
	"encoding/json"
	"fmt"
)

// Label is the traffic-light reliability band for an extracted value.
type Label string

const (
	LabelGreen  Label = "Green"
	LabelYellow Label = "Yellow"
	LabelRed    Label = "Red"
)

// LabelForScore derives the label from a 0-100 confidence score.
// The label is always recomputed from the score; upstream extraction may emit
// inconsistent label/score pairs and the score wins.
func LabelForScore(score int) Label {
	switch {
	case score >= 80:
		return LabelGreen
	case score >= 50:
		return LabelYellow
	default:
		return LabelRed
	}
}

// BoundingBox locates a field's source text on a rendered page. Coordinates
// are percentages (0-100) of the page's width/height. Boxes that exceed the
// page bounds are kept as-is; consumers must tolerate them.
type BoundingBox struct {
	Page   int     `json:"page_number"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// InBounds reports whether the box lies fully within the page.
func (b BoundingBox) InBounds() bool {
	return b.X >= 0 && b.Y >= 0 && b.X+b.Width <= 100 && b.Y+b.Height <= 100
}

type valueKind int

const (
	kindNull valueKind = iota
	kindString
	kindNumber
)

// Value is a scalar extracted from a document: a string, a number, or null.
// Every known extraction schema only ever produces scalars for leaf fields.
type Value struct {
	kind valueKind
	str  string
	num  float64
}

func StringValue(s string) Value  { return Value{kind: kindString, str: s} }
func NumberValue(n float64) Value { return Value{kind: kindNumber, num: n} }
func NullValue() Value            { return Value{} }

func (v Value) IsNull() bool { return v.kind == kindNull }

// String returns the textual form of the value; null renders as "".
func (v Value) String() string {
	switch v.kind {
	case kindString:
		return v.str
	case kindNumber:
		b, _ := json.Marshal(v.num)
		return string(b)
	default:
		return ""
	}
}

// Number returns the numeric form and whether the value is a number.
func (v Value) Number() (float64, bool) {
	return v.num, v.kind == kindNumber
}

func (v Value) Equal(o Value) bool {
	return v.kind == o.kind && v.str == o.str && v.num == o.num
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case kindString:
		return json.Marshal(v.str)
	case kindNumber:
		return json.Marshal(v.num)
	default:
		return []byte("null"), nil
	}
}

func (v *Value) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch t := raw.(type) {
	case nil:
		*v = NullValue()
	case string:
		*v = StringValue(t)
	case float64:
		*v = NumberValue(t)
	case bool:
		// booleans never appear in the known schemas; keep the text form
		*v = StringValue(fmt.Sprintf("%t", t))
	default:
		return fmt.Errorf("field value must be a scalar, got %T", raw)
	}
	return nil
}

// Confidence is one extracted value with its machine-estimated reliability
// and optional source location.
type Confidence struct {
	Value Value        `json:"value"`
	Score int          `json:"confidence_score"`
	Label Label        `json:"confidence_label"`
	Box   *BoundingBox `json:"bounding_box,omitempty"`
}

// NullConfidence is the fully shaped "not found" field: null value, score 0.
func NullConfidence() Confidence {
	return Confidence{Value: NullValue(), Score: 0, Label: LabelRed}
}

func (c *Confidence) UnmarshalJSON(b []byte) error {
	type alias Confidence
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	if a.Score < 0 {
		a.Score = 0
	}
	if a.Score > 100 {
		a.Score = 100
	}
	// never trust the label the model emitted
	a.Label = LabelForScore(a.Score)
	*c = Confidence(a)
	return nil
}
