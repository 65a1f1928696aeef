package reader

import (
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/imranpollob/document-echo/internal/protocol"
)

func newTestService() *Service {
	log := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewService(nil, nil, log)
}

func page(doc string, number int, final bool, texts ...string) protocol.PageFragments {
	var fragments []protocol.Fragment
	for i, text := range texts {
		fragments = append(fragments, protocol.Fragment{ID: fmt.Sprintf("p%d-f%d", number, i), Text: text})
	}
	return protocol.PageFragments{DocumentID: doc, PageNumber: number, Fragments: fragments, Final: final}
}

func TestIngestAccumulatesUntilFinal(t *testing.T) {
	s := newTestService()

	if _, ready := s.ingest(page("doc-a", 1, false, "First page.")); ready {
		t.Fatal("document finished before its final page")
	}
	pages, ready := s.ingest(page("doc-a", 2, true, "Second page."))
	if !ready {
		t.Fatal("final page did not finish the document")
	}
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages))
	}

	s.mu.Lock()
	leftover := s.current != "" || s.pages != nil
	s.mu.Unlock()
	if leftover {
		t.Fatal("finished document left state behind")
	}
}

func TestNewDocumentReplacesInProgress(t *testing.T) {
	s := newTestService()
	s.ingest(page("doc-a", 1, false, "Abandoned."))
	s.ingest(page("doc-b", 1, false, "Fresh start."))

	s.mu.Lock()
	current, retained := s.current, len(s.pages)
	s.mu.Unlock()
	if current != "doc-b" || retained != 1 {
		t.Fatalf("expected only doc-b retained, got %q with %d pages", current, retained)
	}

	// A straggler final page for the abandoned document must not resurrect
	// its earlier pages.
	pages, ready := s.ingest(page("doc-a", 2, true, "Straggler."))
	if !ready {
		t.Fatal("final page did not finish the document")
	}
	if len(pages) != 1 {
		t.Fatalf("abandoned pages resurrected: got %d pages", len(pages))
	}
	if _, ok := pages[1]; ok {
		t.Fatal("page from the discarded session survived")
	}
}

func TestIngestSameDocumentAfterFinishStartsFresh(t *testing.T) {
	s := newTestService()
	if _, ready := s.ingest(page("doc-a", 1, true, "Only page.")); !ready {
		t.Fatal("single final page did not finish the document")
	}

	// Re-sending the same document starts a new accumulation.
	if _, ready := s.ingest(page("doc-a", 1, false, "New run.")); ready {
		t.Fatal("fresh run finished without a final page")
	}
	pages, ready := s.ingest(page("doc-a", 2, true, "New run end."))
	if !ready || len(pages) != 2 {
		t.Fatalf("expected finished 2-page rerun, ready=%v pages=%d", ready, len(pages))
	}
}
