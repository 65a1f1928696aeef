package segment

import (
	"strings"

	"github.com/google/uuid"
)

// Fragment is one positioned run of raw text from a page, as delivered by the
// fragment stream adapter. The ID is opaque to the engine; it only has to be
// stable and unique within the page.
type Fragment struct {
	ID       string
	Text     string
	EndsLine bool
}

// Fraction is the exact substring of one fragment that belongs to one segment.
// A fragment that straddles a sentence boundary contributes a fraction to each
// side, which is what lets the renderer split a single on-screen span.
type Fraction struct {
	FragmentID string
	Text       string
}

// Segment is a sentence-level unit of speakable text.
type Segment struct {
	ID          string
	Text        string
	PageNumber  int
	FragmentIDs []string
	Fractions   []Fraction
}

// Separator tags mark synthetic characters in the flattened stream. They keep
// boundary arithmetic intact while being excluded from fraction attribution.
const (
	tagSpace   = "\x00space"
	tagNewline = "\x00newline"
)

func isSentinel(tag string) bool {
	return tag == tagSpace || tag == tagNewline
}

// Normalize flattens one page of fragments into sentence segments, each
// carrying the fragment fractions it was built from. Fragments ending in a
// hyphen are merged with the following fragment and the hyphen is dropped, so
// words split across a line break read as one word. A boundary is declared
// after '.', '!' or '?', and at end of stream; abbreviations and decimals are
// deliberately not special-cased.
func Normalize(fragments []Fragment, pageNumber int) []Segment {
	var chars []rune
	var tags []string

	for _, frag := range fragments {
		if frag.Text == "" {
			continue
		}

		runes := []rune(frag.Text)
		hyphenated := runes[len(runes)-1] == '-'
		if hyphenated {
			runes = runes[:len(runes)-1]
		}
		for _, r := range runes {
			chars = append(chars, r)
			tags = append(tags, frag.ID)
		}

		// A hyphenated fragment joins directly onto the next one. Otherwise
		// exactly one separator is inserted so adjacent fragments never
		// concatenate into a single word.
		if hyphenated {
			continue
		}
		if frag.EndsLine {
			chars = append(chars, '\n')
			tags = append(tags, tagNewline)
		} else {
			chars = append(chars, ' ')
			tags = append(tags, tagSpace)
		}
	}

	var segments []Segment
	start := 0

	flush := func(end int) {
		if end <= start {
			return
		}
		if seg, ok := materialize(chars, tags, start, end, pageNumber); ok {
			segments = append(segments, seg)
		}
		start = end
	}

	for i, ch := range chars {
		switch ch {
		case '.', '!', '?':
			flush(i + 1)
		}
	}
	flush(len(chars))

	return segments
}

// materialize builds one segment from the half-open stream range [start, end).
// The collapsed text is derived first; the raw range is then walked a second
// time so fractions keep the original per-fragment characters.
func materialize(chars []rune, tags []string, start, end, pageNumber int) (Segment, bool) {
	raw := string(chars[start:end])
	text := strings.Join(strings.Fields(raw), " ")
	if text == "" {
		return Segment{}, false
	}

	var fractions []Fraction
	var fragmentIDs []string
	seen := make(map[string]bool)

	current := ""
	var buffer strings.Builder
	for i := start; i < end; i++ {
		tag := tags[i]
		if isSentinel(tag) {
			continue
		}
		if !seen[tag] {
			seen[tag] = true
			fragmentIDs = append(fragmentIDs, tag)
		}
		if tag != current {
			if current != "" && buffer.Len() > 0 {
				fractions = append(fractions, Fraction{FragmentID: current, Text: buffer.String()})
			}
			current = tag
			buffer.Reset()
		}
		buffer.WriteRune(chars[i])
	}
	if current != "" && buffer.Len() > 0 {
		fractions = append(fractions, Fraction{FragmentID: current, Text: buffer.String()})
	}

	return Segment{
		ID:          uuid.NewString(),
		Text:        text,
		PageNumber:  pageNumber,
		FragmentIDs: fragmentIDs,
		Fractions:   fractions,
	}, true
}
