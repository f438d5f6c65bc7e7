package donations

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"donorbot-backend/lib/scrapers/forum"
	"donorbot-backend/lib/timezone"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/donations")

type Options struct {
	// CacheTTL is how long a scraped record set stays fresh.
	CacheTTL time.Duration
	// MaxPages caps how many thread pages one cycle fetches. Zero
	// means no cap.
	MaxPages int
	// ParallelFetch scrapes pages 2..N concurrently. The default is
	// sequential, which lets the client's inter-request delay pace the
	// forum; results are sorted after the merge either way.
	ParallelFetch bool
}

// Service owns the donation record cache. A scrape cycle replaces the
// cache wholesale on success and leaves it untouched on failure; reads
// during a cycle see the previous value.
type Service struct {
	client *forum.Client
	opts   Options

	mu        sync.Mutex
	records   []forum.DonationRecord
	fetchedAt time.Time
}

func NewService(client *forum.Client, opts Options) *Service {
	if opts.CacheTTL == 0 {
		opts.CacheTTL = 10 * time.Minute
	}
	return &Service{
		client: client,
		opts:   opts,
	}
}

// FetchOptions carries per-request overrides for one scrape cycle.
type FetchOptions struct {
	// PageCap overrides Options.MaxPages when > 0. It only matters on a
	// cache miss: a fresh cache is served as-is regardless of the cap.
	PageCap int
}

// Donations returns the full ordered record set, scraping the forum
// only when the cache is missing or older than the TTL.
func (s *Service) Donations(ctx context.Context, fetchOpts FetchOptions) ([]forum.DonationRecord, error) {
	ctx, span := tracer.Start(ctx, "service:Donations")
	defer span.End()

	s.mu.Lock()
	if !s.fetchedAt.IsZero() && timezone.Now().Sub(s.fetchedAt) < s.opts.CacheTTL {
		records := s.records
		s.mu.Unlock()
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return records, nil
	}
	s.mu.Unlock()

	span.SetAttributes(attribute.Bool("cache_hit", false))

	records, err := s.scrape(ctx, fetchOpts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "scrape cycle failed")
		return nil, err
	}

	s.mu.Lock()
	s.records = records
	s.fetchedAt = timezone.Now()
	s.mu.Unlock()

	return records, nil
}

func (s *Service) scrape(ctx context.Context, fetchOpts FetchOptions) ([]forum.DonationRecord, error) {
	ctx, span := tracer.Start(ctx, "service:scrape")
	defer span.End()

	first, err := s.client.FetchPage(ctx, 1)
	if err != nil {
		return nil, err
	}

	pages := forum.ResolvePageCount(first, s.client.OffsetParam(), s.client.PageSize())
	pageCap := s.opts.MaxPages
	if fetchOpts.PageCap > 0 {
		pageCap = fetchOpts.PageCap
	}
	if pageCap > 0 && pages > pageCap {
		pages = pageCap
	}
	slog.InfoContext(ctx, "scraping donation thread", "pages", pages, "parallel", s.opts.ParallelFetch)

	records := forum.ExtractDonations(first)

	if pages > 1 {
		var rest []forum.DonationRecord
		if s.opts.ParallelFetch {
			rest, err = s.fetchParallel(ctx, 2, pages)
		} else {
			rest, err = s.fetchSequential(ctx, 2, pages)
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rest...)
	}

	slices.SortStableFunc(records, func(a, b forum.DonationRecord) int {
		return a.DateTime.Compare(b.DateTime)
	})

	span.SetAttributes(attribute.Int("records", len(records)))
	return records, nil
}

func (s *Service) fetchSequential(ctx context.Context, from, to int) ([]forum.DonationRecord, error) {
	var records []forum.DonationRecord
	for page := from; page <= to; page++ {
		doc, err := s.client.FetchPage(ctx, page)
		if err != nil {
			// fail fast, the previous cache stays intact
			return nil, err
		}
		records = append(records, forum.ExtractDonations(doc)...)
	}
	return records, nil
}

func (s *Service) fetchParallel(ctx context.Context, from, to int) ([]forum.DonationRecord, error) {
	var records []forum.DonationRecord
	var errList []error
	var mu sync.Mutex
	var wg sync.WaitGroup

	for page := from; page <= to; page++ {
		page := page
		wg.Add(1)
		go func() {
			defer wg.Done()

			doc, err := s.client.FetchPage(ctx, page)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errList = append(errList, err)
				return
			}
			records = append(records, forum.ExtractDonations(doc)...)
		}()
	}
	wg.Wait()

	if len(errList) > 0 {
		return nil, errors.Join(errList...)
	}
	return records, nil
}

// FilterByKeywords keeps the records whose comment contains any of the
// terms, case-insensitively. No terms means no filter; a record without
// a comment never matches a term.
func FilterByKeywords(records []forum.DonationRecord, terms []string) []forum.DonationRecord {
	if len(terms) == 0 {
		return records
	}

	lowered := make([]string, 0, len(terms))
	for _, term := range terms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term != "" {
			lowered = append(lowered, term)
		}
	}
	if len(lowered) == 0 {
		return records
	}

	var out []forum.DonationRecord
	for _, record := range records {
		if record.Comment == "" {
			continue
		}
		comment := strings.ToLower(record.Comment)
		for _, term := range lowered {
			if strings.Contains(comment, term) {
				out = append(out, record)
				break
			}
		}
	}
	return out
}

// ParseKeywords splits a raw comma-separated keyword string into usable
// terms. An empty or all-whitespace string yields nil, which
// FilterByKeywords treats as "no filter".
func ParseKeywords(raw string) []string {
	var terms []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		terms = append(terms, part)
	}
	return terms
}

// Totals is derived from a record sequence, never stored.
type Totals struct {
	Count int
	Gross float64
	Tax   float64
	Net   float64
}

func ComputeTotals(records []forum.DonationRecord) Totals {
	var t Totals
	for _, record := range records {
		t.Count++
		t.Gross += record.GrossAmount
		t.Tax += record.Tax
		t.Net += record.NetAmount
	}
	return t
}

// LatestDate reports the newest record date-time of the given set,
// ok=false when the set is empty. Callers building reports pass the
// full unfiltered set here on purpose: the date context reflects the
// whole known dataset even when the report body is filtered.
func LatestDate(records []forum.DonationRecord) (time.Time, bool) {
	var latest time.Time
	for _, record := range records {
		if record.DateTime.After(latest) {
			latest = record.DateTime
		}
	}
	return latest, !latest.IsZero()
}
