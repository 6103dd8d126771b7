package apartment

// Tag describes a searchable listing attribute
type Tag struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

var supportedTags = []Tag{
	{1, "balcony"},
	{2, "parking"},
	{3, "elevator"},
	{4, "air conditioning"},
	{5, "furnished"},
	{6, "renovated"},
	{7, "pets allowed"},
	{8, "smoking allowed"},
	{9, "accessible"},
	{10, "storage"},
}

// SupportedTags returns the full tag catalog
func SupportedTags() []Tag {
	out := make([]Tag, len(supportedTags))
	copy(out, supportedTags)
	return out
}

// IsSupportedTagID reports whether id names a known tag
func IsSupportedTagID(id int) bool {
	for _, t := range supportedTags {
		if t.ID == id {
			return true
		}
	}
	return false
}
