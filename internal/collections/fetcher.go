package collections

import (
	"context"
	"log/slog"
	"net/url"
	"sync"

	"github.com/collectdesk/collectdesk/internal/shared"
	"github.com/collectdesk/collectdesk/internal/upstream"
)

// ListClient is the slice of the upstream client the fetcher needs.
type ListClient interface {
	ListCollections(ctx context.Context, token string, query url.Values) (*upstream.ListResponse, error)
}

// Fetcher issues listing queries and caches the page currently on
// screen. Only the most recently issued fetch may update that cache:
// each call takes a monotonically increasing generation number, and a
// response whose generation has been superseded is discarded so a slow
// stale round-trip can never overwrite newer data.
type Fetcher struct {
	client ListClient
	logger *slog.Logger

	mu      sync.Mutex
	gen     uint64
	closed  bool
	current *Page
}

// NewFetcher constructs a Fetcher.
func NewFetcher(client ListClient, logger *slog.Logger) *Fetcher {
	return &Fetcher{client: client, logger: logger}
}

// Fetch runs one listing query for the given criteria. It returns
// shared.ErrStaleResponse when a newer fetch was issued while this one
// was in flight, or when the fetcher was closed during the round-trip.
func (f *Fetcher) Fetch(ctx context.Context, token string, id shared.Identity, c Criteria) (*Page, error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil, shared.ErrStaleResponse
	}
	f.gen++
	myGen := f.gen
	f.mu.Unlock()

	resp, err := f.client.ListCollections(ctx, token, BuildQuery(c, id))

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || myGen != f.gen {
		return nil, shared.ErrStaleResponse
	}
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(resp.Data))
	for _, raw := range resp.Data {
		rec := NormalizeRecord(raw)
		if rec.DataQualityIssue() {
			f.logger.Warn("payment date after ingestion",
				slog.String("record", rec.ID),
				slog.Time("payment_date", rec.PaymentDate),
				slog.Time("created_at", rec.CreatedAt))
		}
		records = append(records, rec)
	}

	pagination := shared.NewPagination(c.Page, c.PageSize, resp.Total)
	if resp.TotalPages != nil {
		pagination.TotalPages = *resp.TotalPages
	}

	page := &Page{Records: records, Pagination: pagination}
	f.current = page
	return page, nil
}

// Current returns the cached page, or nil before the first fetch.
func (f *Fetcher) Current() *Page {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// TotalPages reports the last known page count, zero when unknown.
func (f *Fetcher) TotalPages() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current == nil {
		return 0
	}
	return f.current.Pagination.TotalPages
}

// MarkApproved patches the cached record in place after the upstream
// confirmed the approval. Called only post-confirmation; a failed
// approval leaves the record visibly pending.
func (f *Fetcher) MarkApproved(recordID, approvedBy, bankDate, bankUTR string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current == nil {
		return false
	}
	for i := range f.current.Records {
		if f.current.Records[i].ID != recordID {
			continue
		}
		f.current.Records[i].Approved = true
		f.current.Records[i].ApprovedBy = approvedBy
		f.current.Records[i].BankDate = bankDate
		f.current.Records[i].BankUTR = bankUTR
		return true
	}
	return false
}

// Close invalidates every in-flight fetch so nothing mutates state
// after the consumer is gone.
func (f *Fetcher) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.current = nil
}
