package exportlog

import (
	"context"
	"errors"
	"fmt"

	"github.com/danthegoodman1/tablekit/crdb"
	"github.com/danthegoodman1/tablekit/export"
	"github.com/danthegoodman1/tablekit/utils"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

type PGExportLog struct {
	pool *pgxpool.Pool
}

func NewPGExportLog(pool *pgxpool.Pool) *PGExportLog {
	return &PGExportLog{pool: pool}
}

func (el *PGExportLog) CreateRun(ctx context.Context, run Run, files []export.ExportedFile) error {
	err := utils.ReliableExecInTx(ctx, el.pool, crdb.StandardContextTimeout, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `INSERT INTO export_runs (id, table_name, num_rows, num_files, bytes_written, time_ms)
			VALUES ($1, $2, $3, $4, $5, $6)`, run.ID, run.TableName, run.NumRows, run.NumFiles, run.BytesWritten, run.TimeMS)
		if err != nil {
			return fmt.Errorf("error inserting run: %w", err)
		}
		for _, f := range files {
			_, err := tx.Exec(ctx, `INSERT INTO export_files (run_id, key, partition_path, num_rows, num_bytes)
				VALUES ($1, $2, $3, $4, $5)`, run.ID, f.Key, f.Partition, f.Rows, f.Bytes)
			if err != nil {
				return fmt.Errorf("error inserting file %s: %w", f.Key, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("error in ReliableExecInTx: %w", err)
	}
	logger.Debug().Str("runID", run.ID).Int64("numFiles", run.NumFiles).Msg("recorded export run")
	return nil
}

func (el *PGExportLog) GetRun(ctx context.Context, id string) (*Run, []export.ExportedFile, error) {
	var (
		run   Run
		files []export.ExportedFile
	)
	err := utils.ReliableExec(ctx, el.pool, crdb.StandardContextTimeout, func(ctx context.Context, conn *pgxpool.Conn) error {
		err := conn.QueryRow(ctx, `SELECT id, table_name, num_rows, num_files, bytes_written, time_ms, created_at
			FROM export_runs WHERE id = $1`, id).
			Scan(&run.ID, &run.TableName, &run.NumRows, &run.NumFiles, &run.BytesWritten, &run.TimeMS, &run.CreatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrRunNotFound
		}
		if err != nil {
			return fmt.Errorf("error selecting run: %w", err)
		}

		// ksuid file names sort in creation order
		rows, err := conn.Query(ctx, `SELECT key, partition_path, num_rows, num_bytes
			FROM export_files WHERE run_id = $1 ORDER BY key`, id)
		if err != nil {
			return fmt.Errorf("error selecting files: %w", err)
		}
		defer rows.Close()
		files = files[:0]
		for rows.Next() {
			var f export.ExportedFile
			if err := rows.Scan(&f.Key, &f.Partition, &f.Rows, &f.Bytes); err != nil {
				return fmt.Errorf("error scanning file row: %w", err)
			}
			files = append(files, f)
		}
		return rows.Err()
	})
	if err != nil {
		if errors.Is(err, ErrRunNotFound) {
			return nil, nil, ErrRunNotFound
		}
		return nil, nil, fmt.Errorf("error in ReliableExec: %w", err)
	}
	return &run, files, nil
}

func (el *PGExportLog) ListRuns(ctx context.Context, limit int64) ([]Run, error) {
	if limit < 1 {
		limit = 100
	}
	var runs []Run
	err := utils.ReliableExec(ctx, el.pool, crdb.StandardContextTimeout, func(ctx context.Context, conn *pgxpool.Conn) error {
		rows, err := conn.Query(ctx, `SELECT id, table_name, num_rows, num_files, bytes_written, time_ms, created_at
			FROM export_runs ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
		if err != nil {
			return fmt.Errorf("error selecting runs: %w", err)
		}
		defer rows.Close()
		runs = runs[:0]
		for rows.Next() {
			var run Run
			if err := rows.Scan(&run.ID, &run.TableName, &run.NumRows, &run.NumFiles, &run.BytesWritten, &run.TimeMS, &run.CreatedAt); err != nil {
				return fmt.Errorf("error scanning run row: %w", err)
			}
			runs = append(runs, run)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("error in ReliableExec: %w", err)
	}
	return runs, nil
}

func (el *PGExportLog) Shutdown(ctx context.Context) error {
	el.pool.Close()
	return nil
}
