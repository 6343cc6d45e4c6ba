package viewer

import "github.com/admitkit/docverify/internal/enquiry"

// Style is the stroke/fill color pair for a highlight rectangle.
type Style struct {
	Stroke string
	Fill   string
}

// fixed color pairs per confidence label; fill carries the alpha suffix
var labelStyles = map[enquiry.Label]Style{
	enquiry.LabelGreen:  {Stroke: "#10b981", Fill: "#10b98133"},
	enquiry.LabelYellow: {Stroke: "#f59e0b", Fill: "#f59e0b33"},
	enquiry.LabelRed:    {Stroke: "#ef4444", Fill: "#ef444433"},
}

// neutralStyle marks informational highlights with no confidence label,
// distinct from all three confidence colors.
var neutralStyle = Style{Stroke: "#2563eb", Fill: "#2563eb33"}

// StyleForLabel selects the highlight style for a confidence label.
func StyleForLabel(l enquiry.Label) Style {
	if s, ok := labelStyles[l]; ok {
		return s
	}
	return neutralStyle
}
