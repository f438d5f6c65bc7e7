package reports

import (
	"context"

	"donorbot-backend/lib/taskq"
	"donorbot-backend/lib/timezone"
	"donorbot-backend/services/donations"

	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/reports")

// Request is one external report call: the raw comma-separated keyword
// string and per-request options.
type Request struct {
	Keywords string
	// PageCap bounds the scrape for this request; 0 uses the
	// orchestrator's configured cap.
	PageCap int
}

type Result struct {
	Summary  string
	Workbook *excelize.File
	Filename string
	Matched  int
}

// Service runs the whole scrape -> filter -> build cycle. Every call
// goes through one FIFO queue, so concurrent requests never run
// overlapping scrape cycles against the shared cache.
type Service struct {
	donations *donations.Service
	queue     *taskq.Queue[Result]
}

// NewService starts the serializer; it lives until ctx is cancelled.
func NewService(ctx context.Context, donationsSvc *donations.Service) *Service {
	return &Service{
		donations: donationsSvc,
		queue:     taskq.New[Result](ctx, 32),
	}
}

func (s *Service) Generate(ctx context.Context, req Request) (Result, error) {
	return s.queue.Submit(ctx, func(ctx context.Context) (Result, error) {
		return s.generate(ctx, req)
	})
}

func (s *Service) generate(ctx context.Context, req Request) (Result, error) {
	ctx, span := tracer.Start(ctx, "service:generate")
	defer span.End()
	span.SetAttributes(attribute.String("keywords", req.Keywords))

	all, err := s.donations.Donations(ctx, donations.FetchOptions{PageCap: req.PageCap})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get donation records")
		return Result{}, err
	}

	terms := donations.ParseKeywords(req.Keywords)
	filtered := donations.FilterByKeywords(all, terms)
	totals := donations.ComputeTotals(filtered)
	latest, haveLatest := donations.LatestDate(all)

	workbook, err := BuildWorkbook(filtered)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to build workbook")
		return Result{}, err
	}

	span.SetAttributes(attribute.Int("matched", len(filtered)))
	return Result{
		Summary:  Summary(terms, len(filtered), latest, haveLatest, totals),
		Workbook: workbook,
		Filename: Filename(req.Keywords, timezone.Now()),
		Matched:  len(filtered),
	}, nil
}
