package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/collectdesk/collectdesk/internal/collections"
	"github.com/collectdesk/collectdesk/internal/shared"
)

// Job exports every record matching a criteria snapshot. It re-queries
// the upstream for the entire filtered set: the page on screen is never
// assumed to be the whole result, since pagination may hide matching
// rows.
type Job struct {
	client collections.ListClient
	logger *slog.Logger
}

// NewJob builds Job instance.
func NewJob(client collections.ListClient, logger *slog.Logger) *Job {
	return &Job{client: client, logger: logger}
}

// FileName derives the export file name from the fixed template.
func FileName(partner string, at time.Time) string {
	partner = strings.ToLower(strings.TrimSpace(partner))
	if partner == "" {
		partner = "all"
	}
	return fmt.Sprintf("collections_%s_%s.csv", partner, at.Format("20060102"))
}

// Run probes the filtered set, then streams the full export as CSV.
// Returns shared.ErrNothingToExport without touching the writer when
// nothing matches, so the caller can surface the advisory notice before
// any response bytes are committed.
func (j *Job) Run(ctx context.Context, token string, id shared.Identity, criteria collections.Criteria, w io.Writer) (int, error) {
	probe, err := j.client.ListCollections(ctx, token, collections.BuildQuery(criteria.WithPage(1), id))
	if err != nil {
		return 0, err
	}
	if probe.Total == 0 {
		return 0, shared.ErrNothingToExport
	}

	full, err := j.client.ListCollections(ctx, token, collections.BuildQuery(criteria.WithFullSize(probe.Total), id))
	if err != nil {
		return 0, err
	}
	if len(full.Data) == 0 {
		return 0, shared.ErrNothingToExport
	}

	columns := ExportableColumns()
	streamer := newCSVStreamer(w)

	if err := streamer.writeComment(fmt.Sprintf("# Collections export | Partner: %s | Generated: %s",
		id.Partner, time.Now().Format(time.RFC3339))); err != nil {
		return 0, err
	}
	if err := streamer.writeComment("# Filters: " + describeCriteria(criteria)); err != nil {
		return 0, err
	}

	headers := make([]string, len(columns))
	for i, col := range columns {
		headers[i] = col.Header
	}
	if err := streamer.writeRow(headers); err != nil {
		return 0, err
	}

	written := 0
	row := make([]string, len(columns))
	for _, raw := range full.Data {
		record := collections.NormalizeRecord(raw)
		for i, col := range columns {
			row[i] = col.Format(record)
		}
		if err := streamer.writeRow(row); err != nil {
			return written, err
		}
		written++
	}
	if err := streamer.Close(); err != nil {
		return written, err
	}

	j.logger.Info("export complete",
		slog.String("partner", id.Partner),
		slog.Int("rows", written))
	return written, nil
}

func describeCriteria(c collections.Criteria) string {
	parts := []string{"approved=" + string(c.Approved)}
	if c.CustomerName != "" {
		parts = append(parts, "customerName="+c.CustomerName)
	}
	if len(c.CollectedBy) > 0 {
		parts = append(parts, "collectedBy="+strings.Join(c.CollectedBy, "|"))
	}
	if c.StartDate != "" {
		parts = append(parts, "from="+c.StartDate)
	}
	if c.EndDate != "" {
		parts = append(parts, "to="+c.EndDate)
	}
	return strings.Join(parts, " ")
}
