package reader

import (
	"encoding/json"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/imranpollob/document-echo/internal/bus"
	"github.com/imranpollob/document-echo/internal/player"
	"github.com/imranpollob/document-echo/internal/protocol"
	"github.com/imranpollob/document-echo/internal/segment"
	"github.com/nats-io/nats.go"
)

// Service turns the fragment stream into the segment catalog. Pages arrive
// over the bus in any order; once the final page lands, the whole document is
// normalized page by page and handed to the orchestrator in one replace. Only
// one document accumulates at a time: a page for a new document discards the
// in-progress one wholesale.
type Service struct {
	bus    *bus.Client
	orch   *player.Orchestrator
	logger *slog.Logger
	sub    *nats.Subscription

	mu      sync.Mutex
	current string
	pages   map[int][]segment.Fragment
}

func NewService(busClient *bus.Client, orch *player.Orchestrator, log *slog.Logger) *Service {
	return &Service{
		bus:    busClient,
		orch:   orch,
		logger: log.With(slog.String("component", "reader-service")),
	}
}

func (s *Service) Start() error {
	sub, err := s.bus.Conn().Subscribe(protocol.SubjectPageFragments, s.handlePage)
	if err != nil {
		return err
	}
	s.sub = sub
	return nil
}

func (s *Service) Close() {
	if s.sub != nil {
		_ = s.sub.Drain()
	}
}

func (s *Service) Healthy() bool { return s.sub != nil }

func (s *Service) handlePage(msg *nats.Msg) {
	var page protocol.PageFragments
	if err := json.Unmarshal(msg.Data, &page); err != nil {
		s.logger.Warn("failed to decode page fragments", slogError(err))
		return
	}
	if page.DocumentID == "" {
		s.logger.Warn("page fragments missing document id")
		return
	}

	pages, ready := s.ingest(page)
	if !ready {
		return
	}
	s.assemble(page.DocumentID, pages)
}

// ingest folds one page into the in-progress document. A page for a different
// document drops the in-progress one; the accumulated pages are detached and
// the slot cleared once the final page lands.
func (s *Service) ingest(page protocol.PageFragments) (map[int][]segment.Fragment, bool) {
	fragments := make([]segment.Fragment, 0, len(page.Fragments))
	for _, f := range page.Fragments {
		fragments = append(fragments, segment.Fragment{ID: f.ID, Text: f.Text, EndsLine: f.EndsLine})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if page.DocumentID != s.current {
		if s.current != "" {
			s.logger.Info("discarding in-progress document",
				slog.String("document", s.current),
				slog.String("replacement", page.DocumentID))
		}
		s.current = page.DocumentID
		s.pages = make(map[int][]segment.Fragment)
	}
	s.pages[page.PageNumber] = fragments
	if !page.Final {
		return nil, false
	}
	pages := s.pages
	s.current = ""
	s.pages = nil
	return pages, true
}

func (s *Service) assemble(documentID string, pages map[int][]segment.Fragment) {
	numbers := make([]int, 0, len(pages))
	for n := range pages {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	var perPage [][]segment.Segment
	for _, n := range numbers {
		perPage = append(perPage, segment.Normalize(pages[n], n))
	}
	catalog := segment.NewCatalog(perPage)

	s.orch.LoadSegments(catalog)
	s.publishLoaded(documentID, len(numbers), catalog)

	s.logger.Info("document assembled",
		slog.String("document", documentID),
		slog.Int("pages", len(numbers)),
		slog.Int("segments", catalog.Len()))
}

func (s *Service) publishLoaded(documentID string, pages int, catalog *segment.Catalog) {
	infos := make([]protocol.SegmentInfo, 0, catalog.Len())
	for i, seg := range catalog.Segments() {
		fractions := make([]protocol.FragmentFraction, 0, len(seg.Fractions))
		for _, fr := range seg.Fractions {
			fractions = append(fractions, protocol.FragmentFraction{FragmentID: fr.FragmentID, Text: fr.Text})
		}
		infos = append(infos, protocol.SegmentInfo{
			Index:       i,
			ID:          seg.ID,
			Text:        seg.Text,
			PageNumber:  seg.PageNumber,
			FragmentIDs: seg.FragmentIDs,
			Fractions:   fractions,
		})
	}

	loaded := protocol.DocumentLoaded{
		DocumentID: documentID,
		Pages:      pages,
		Segments:   infos,
		Timestamp:  time.Now().UTC(),
	}
	data, err := json.Marshal(loaded)
	if err != nil {
		s.logger.Warn("failed to marshal document loaded", slogError(err))
		return
	}
	if err := s.bus.Conn().Publish(protocol.SubjectDocumentLoaded, data); err != nil {
		s.logger.Warn("failed to publish document loaded", slogError(err))
	}
}

func slogError(err error) slog.Attr {
	return slog.String("error", err.Error())
}
