package segment

import (
	"reflect"
	"strings"
	"testing"
)

func frag(id, text string, eol bool) Fragment {
	return Fragment{ID: id, Text: text, EndsLine: eol}
}

func texts(segments []Segment) []string {
	var out []string
	for _, s := range segments {
		out = append(out, s.Text)
	}
	return out
}

func TestSentenceBoundaries(t *testing.T) {
	fragments := []Fragment{
		frag("page-1-fragment-0", "Hello world.", false),
		frag("page-1-fragment-1", "How are you?", false),
	}
	segments := Normalize(fragments, 1)
	want := []string{"Hello world.", "How are you?"}
	if !reflect.DeepEqual(texts(segments), want) {
		t.Fatalf("expected %v, got %v", want, texts(segments))
	}
	for _, s := range segments {
		if s.PageNumber != 1 {
			t.Fatalf("expected page 1, got %d", s.PageNumber)
		}
	}
}

func TestHyphenationMerge(t *testing.T) {
	fragments := []Fragment{
		frag("page-1-fragment-0", "amaz-", true),
		frag("page-1-fragment-1", "ing", false),
	}
	segments := Normalize(fragments, 1)
	if len(segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segments))
	}
	seg := segments[0]
	if seg.Text != "amazing" {
		t.Fatalf("expected merged word, got %q", seg.Text)
	}
	if strings.Contains(seg.Text, "-") {
		t.Fatalf("hyphen leaked into text: %q", seg.Text)
	}
	wantFractions := []Fraction{
		{FragmentID: "page-1-fragment-0", Text: "amaz"},
		{FragmentID: "page-1-fragment-1", Text: "ing"},
	}
	if !reflect.DeepEqual(seg.Fractions, wantFractions) {
		t.Fatalf("expected fractions %v, got %v", wantFractions, seg.Fractions)
	}
}

func TestMissingSpaceIsSynthesized(t *testing.T) {
	fragments := []Fragment{
		frag("f0", "Hello", false),
		frag("f1", "world.", false),
	}
	segments := Normalize(fragments, 1)
	if len(segments) != 1 || segments[0].Text != "Hello world." {
		t.Fatalf("expected synthetic space between fragments, got %v", texts(segments))
	}
}

func TestEmptyFragmentSkipped(t *testing.T) {
	fragments := []Fragment{
		frag("f0", "One sentence.", false),
		frag("f1", "", true),
		frag("f2", "Another one.", false),
	}
	segments := Normalize(fragments, 1)
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segments))
	}
	for _, seg := range segments {
		for _, id := range seg.FragmentIDs {
			if id == "f1" {
				t.Fatalf("empty fragment appeared in segment %q", seg.Text)
			}
		}
		for _, fr := range seg.Fractions {
			if fr.FragmentID == "f1" {
				t.Fatalf("empty fragment produced a fraction in %q", seg.Text)
			}
		}
	}
}

func TestPageWithoutPunctuation(t *testing.T) {
	fragments := []Fragment{
		frag("f0", "no terminal", true),
		frag("f1", "punctuation here", false),
	}
	segments := Normalize(fragments, 3)
	if len(segments) != 1 {
		t.Fatalf("expected single trailing segment, got %d", len(segments))
	}
	if segments[0].Text != "no terminal punctuation here" {
		t.Fatalf("unexpected text %q", segments[0].Text)
	}
}

func TestFragmentStraddlingBoundary(t *testing.T) {
	fragments := []Fragment{
		frag("f0", "First ends here. Second", false),
		frag("f1", "continues!", false),
	}
	segments := Normalize(fragments, 1)
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segments))
	}
	if segments[0].Text != "First ends here." {
		t.Fatalf("unexpected first segment %q", segments[0].Text)
	}
	if segments[1].Text != "Second continues!" {
		t.Fatalf("unexpected second segment %q", segments[1].Text)
	}
	// f0 straddles the boundary: a fraction on each side.
	if segments[0].Fractions[0].FragmentID != "f0" {
		t.Fatalf("expected f0 in first segment, got %v", segments[0].Fractions)
	}
	if segments[1].Fractions[0].FragmentID != "f0" || strings.TrimSpace(segments[1].Fractions[0].Text) != "Second" {
		t.Fatalf("expected f0 remainder in second segment, got %v", segments[1].Fractions)
	}
}

func TestRoundTripCoverage(t *testing.T) {
	fragments := []Fragment{
		frag("f0", "The quick brown", true),
		frag("f1", "fox jumps. Over the", false),
		frag("f2", "la-", true),
		frag("f3", "zy dog!", false),
	}
	segments := Normalize(fragments, 2)
	// Separators synthesized between fragments belong to no fragment, so the
	// fractions cover the segment text only up to whitespace.
	strip := func(s string) string { return strings.Join(strings.Fields(s), "") }
	for _, seg := range segments {
		var joined strings.Builder
		for _, fr := range seg.Fractions {
			joined.WriteString(fr.Text)
		}
		if strip(joined.String()) != strip(seg.Text) {
			t.Fatalf("fractions %q do not cover text %q", joined.String(), seg.Text)
		}
		if len(seg.Fractions) == 0 {
			t.Fatalf("segment %q has no fractions", seg.Text)
		}
	}
}

func TestFractionsOmitSyntheticSeparators(t *testing.T) {
	fragments := []Fragment{
		frag("f0", "The quick brown", true),
		frag("f1", "fox jumps.", false),
	}
	segments := Normalize(fragments, 1)
	if len(segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segments))
	}
	seg := segments[0]
	if seg.Text != "The quick brown fox jumps." {
		t.Fatalf("unexpected text %q", seg.Text)
	}
	want := []Fraction{
		{FragmentID: "f0", Text: "The quick brown"},
		{FragmentID: "f1", Text: "fox jumps."},
	}
	if !reflect.DeepEqual(seg.Fractions, want) {
		t.Fatalf("expected fractions %v, got %v", want, seg.Fractions)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	fragments := []Fragment{
		frag("f0", "Alpha beta. Gamma", false),
		frag("f1", "delta?", true),
		frag("f2", "Trailing tail", false),
	}
	first := Normalize(fragments, 1)
	second := Normalize(fragments, 1)
	if len(first) != len(second) {
		t.Fatalf("segment counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Text != second[i].Text {
			t.Fatalf("text differs at %d: %q vs %q", i, first[i].Text, second[i].Text)
		}
		if !reflect.DeepEqual(first[i].Fractions, second[i].Fractions) {
			t.Fatalf("fractions differ at %d", i)
		}
		if !reflect.DeepEqual(first[i].FragmentIDs, second[i].FragmentIDs) {
			t.Fatalf("fragment ids differ at %d", i)
		}
	}
}

func TestNormalizeEmptyInput(t *testing.T) {
	if segments := Normalize(nil, 1); len(segments) != 0 {
		t.Fatalf("expected no segments, got %d", len(segments))
	}
	whitespace := []Fragment{frag("f0", "   ", true)}
	if segments := Normalize(whitespace, 1); len(segments) != 0 {
		t.Fatalf("expected whitespace-only page to yield nothing, got %d", len(segments))
	}
}
