package exportlog

import (
	"context"
	"time"

	"github.com/danthegoodman1/tablekit/export"
	"github.com/danthegoodman1/tablekit/gologger"
	"github.com/danthegoodman1/tablekit/utils"
)

var (
	logger = gologger.NewLogger()

	// ErrRunNotFound is permanent so lookups miss without burning retries.
	ErrRunNotFound error = utils.PermError("export run not found")
)

type (
	// ExportLog records export runs and the files they produced.
	ExportLog interface {
		// CreateRun records a run and its files atomically.
		CreateRun(ctx context.Context, run Run, files []export.ExportedFile) error

		// GetRun fetches one run and its files, ErrRunNotFound when the id
		// is unknown.
		GetRun(ctx context.Context, id string) (*Run, []export.ExportedFile, error)

		// ListRuns returns the most recent runs, newest first.
		ListRuns(ctx context.Context, limit int64) ([]Run, error)

		Shutdown(ctx context.Context) error
	}

	Run struct {
		ID           string
		TableName    string
		NumRows      int64
		NumFiles     int64
		BytesWritten int64
		TimeMS       int64
		CreatedAt    time.Time
	}
)

// NewRun stamps a fresh run id over a finished export's stats. CreatedAt is
// left for the store to fill.
func NewRun(tableName string, stats *export.Stats) Run {
	return Run{
		ID:           utils.GenKSortedID("run_"),
		TableName:    tableName,
		NumRows:      stats.NumRows,
		NumFiles:     stats.NumFiles,
		BytesWritten: stats.BytesWritten,
		TimeMS:       stats.TimeMS,
	}
}
