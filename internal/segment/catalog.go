package segment

// Catalog is the ordered list of all segments for one loaded document, with
// global indices spanning pages. It is assembled once and replaced wholesale
// when a new document is loaded; it is never edited in place.
type Catalog struct {
	segments []Segment
}

// NewCatalog concatenates per-page segment slices, preserving page order.
// Global indices are assigned by position in the concatenation.
func NewCatalog(pages [][]Segment) *Catalog {
	var all []Segment
	for _, page := range pages {
		all = append(all, page...)
	}
	return &Catalog{segments: all}
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.segments)
}

// At returns the segment at the global index, reporting whether it exists.
func (c *Catalog) At(index int) (Segment, bool) {
	if c == nil || index < 0 || index >= len(c.segments) {
		return Segment{}, false
	}
	return c.segments[index], true
}

// Segments returns the ordered segment list. Callers must not mutate it.
func (c *Catalog) Segments() []Segment {
	if c == nil {
		return nil
	}
	return c.segments
}
