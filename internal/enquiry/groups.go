package enquiry

// Group is one of the four human review buckets. Each group is fed by exactly
// one document category.
type Group string

const (
	GroupPersonalWork Group = "Personal & Professional History"
	GroupEducation    Group = "Educational Background"
	GroupLanguage     Group = "Language Test"
	GroupCOE          Group = "COE"
)

// Groups lists all verification groups in display order.
var Groups = []Group{GroupPersonalWork, GroupEducation, GroupLanguage, GroupCOE}

// Static lookup tables consulted by both the lifecycle and the session
// controller; the mapping is one-to-one in both directions.
var groupCategory = map[Group]Category{
	GroupPersonalWork: CategoryResume,
	GroupEducation:    CategoryTranscript,
	GroupLanguage:     CategoryLanguageTest,
	GroupCOE:          CategoryCOE,
}

var categoryGroup = func() map[Category]Group {
	m := make(map[Category]Group, len(groupCategory))
	for g, c := range groupCategory {
		m[c] = g
	}
	return m
}()

// CategoryForGroup returns the document category a group reviews.
func CategoryForGroup(g Group) (Category, bool) {
	c, ok := groupCategory[g]
	return c, ok
}

// GroupForCategory returns the review group fed by a category. Other belongs
// to no group.
func GroupForCategory(c Category) (Group, bool) {
	g, ok := categoryGroup[c]
	return g, ok
}

// ParseGroup validates a group name received over the wire.
func ParseGroup(s string) (Group, bool) {
	g := Group(s)
	_, ok := groupCategory[g]
	return g, ok
}
