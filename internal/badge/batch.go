package badge

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"

	"checkin/internal/registrant"
)

// DefaultChunkSize bounds how many rows a batch holds in memory at once.
const DefaultChunkSize = 200

// Source feeds the batch from the registrant store.
type Source interface {
	CountBadgeRows(ctx context.Context, ids []int64) (int, error)
	BadgeRows(ctx context.Context, afterID int64, limit int, ids []int64) ([]registrant.BadgeRow, error)
}

// Report summarizes a badge generation run.
type Report struct {
	RunID     string
	Generated int
	Failed    int
}

// Runner generates badges for the whole roster, or an explicit id subset, in
// keyset-paginated chunks. A failed registrant is counted and skipped; only
// environment problems abort the run.
type Runner struct {
	src       Source
	renderer  *Renderer
	ChunkSize int
}

// NewRunner creates a batch runner.
func NewRunner(src Source, renderer *Renderer) *Runner {
	return &Runner{src: src, renderer: renderer, ChunkSize: DefaultChunkSize}
}

// Run generates one badge per selected registrant under baseDir.
func (r *Runner) Run(ctx context.Context, baseDir string, ids []int64) (Report, error) {
	report := Report{RunID: uuid.NewString()}

	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return report, fmt.Errorf("create base folder %s: %w", baseDir, err)
	}

	ids = registrant.DedupIDs(ids)
	total, err := r.src.CountBadgeRows(ctx, ids)
	if err != nil {
		return report, fmt.Errorf("count registrants: %w", err)
	}
	if total == 0 {
		log.Printf("badge run %s: no registrants to process", report.RunID)
		return report, nil
	}
	log.Printf("badge run %s: generating badges for %d registrants", report.RunID, total)

	chunk := r.ChunkSize
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}

	var after int64
	for {
		rows, err := r.src.BadgeRows(ctx, after, chunk, ids)
		if err != nil {
			return report, fmt.Errorf("load registrants after id %d: %w", after, err)
		}
		if len(rows) == 0 {
			break
		}
		for _, row := range rows {
			if _, err := r.renderer.Generate(baseDir, row); err != nil {
				log.Printf("badge run %s: id %d failed: %v", report.RunID, row.ID, err)
				report.Failed++
				continue
			}
			report.Generated++
		}
		after = rows[len(rows)-1].ID
		log.Printf("badge run %s: %d/%d done", report.RunID, report.Generated+report.Failed, total)
		if len(rows) < chunk {
			break
		}
	}

	log.Printf("badge run %s: generated %d, failed %d", report.RunID, report.Generated, report.Failed)
	return report, nil
}
