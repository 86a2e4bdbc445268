package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/dgallion1/docblocks/internal/export"
)

// Worker processes a single export job.
type Worker struct {
	stats *Stats
	log   *slog.Logger
}

func NewWorker(stats *Stats, log *slog.Logger) *Worker {
	return &Worker{stats: stats, log: log}
}

// Process renders the job's captured document with the requested exporter.
// Failures are recorded on the job only.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "session_id", job.SessionID, "format", job.Meta.Format)

	job.SetStatus(StatusRendering, "rendering")
	exp, err := export.ForFormat(job.Meta.Format)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.Fail("rendering", err.Error())
		return
	}

	start := time.Now()
	data, err := exp.Export(ctx, job.Document(), job.Meta)
	elapsed := time.Since(start)
	if w.stats != nil {
		w.stats.Record(string(job.Meta.Format), elapsed.Milliseconds(), err != nil)
	}
	if err != nil {
		log.Error("export failed", "error", err)
		job.Fail("rendering", err.Error())
		return
	}

	job.Complete(data, exp.ContentType(), export.Filename(job.Meta, exp))
	log.Info("export complete", "bytes", len(data), "duration_ms", elapsed.Milliseconds())
}
