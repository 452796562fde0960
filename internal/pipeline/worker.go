package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/readaloud/internal/library"
	"github.com/dgallion1/readaloud/internal/parser"
)

// Worker extracts a single uploaded file into the library.
type Worker struct {
	lib       *library.Library
	stats     *ExtractStats
	log       *slog.Logger
	parseOpts parser.Options
}

func NewWorker(lib *library.Library, stats *ExtractStats, log *slog.Logger, parseOpts parser.Options) *Worker {
	return &Worker{
		lib:       lib,
		stats:     stats,
		log:       log,
		parseOpts: parseOpts,
	}
}

// Process runs extraction for a job: parse, dedup against the library by
// content hash, then register the new document.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	if err := ctx.Err(); err != nil {
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "cancelled")
		return
	}

	job.SetStatus(StatusExtracting, "extracting")
	start := time.Now()
	doc, err := parser.Parse(bytes.NewReader(job.FileData()), job.Filename, w.parseOpts)
	took := time.Since(start)
	if err != nil {
		log.Error("extraction failed", "error", err)
		job.AddError(fmt.Sprintf("extract: %s", err))
		job.SetStatus(StatusFailed, "extracting")
		w.stats.RecordFailure()
		return
	}
	w.stats.Record(took, doc.PageCount())
	if job.Title != "" {
		doc.Title = job.Title
	}

	if existing, ok := w.lib.FindByHash(doc.ContentHash); ok {
		log.Info("duplicate document, skipping", "existing_doc_id", existing.ID)
		job.SetResult(existing.ID, existing.PageCount(), existing.WordCount(), existing.ContentHash, took)
		job.SetStatus(StatusDuplicate, "dedup")
		return
	}

	doc.ID = NewID()
	doc.CreatedAt = job.CreatedAt
	if err := w.lib.Put(doc); err != nil {
		log.Error("library put failed", "error", err)
		job.AddError(fmt.Sprintf("library: %s", err))
		job.SetStatus(StatusFailed, "storing")
		return
	}

	job.SetResult(doc.ID, doc.PageCount(), doc.WordCount(), doc.ContentHash, took)
	job.SetStatus(StatusReady, "done")
	log.Info("document ready",
		"doc_id", doc.ID,
		"pages", doc.PageCount(),
		"duration_ms", took.Milliseconds(),
	)
}
