package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/danthegoodman1/tablekit/filestore"
	"github.com/danthegoodman1/tablekit/gologger"
	"github.com/danthegoodman1/tablekit/partitioner"
	"github.com/danthegoodman1/tablekit/tables"
	"github.com/danthegoodman1/tablekit/utils"
	"github.com/xitongsys/parquet-go/writer"
)

var logger = gologger.NewLogger()

type (
	// Options controls a single export run.
	Options struct {
		// Partition plans evaluated per row. Column args use the exposed
		// column names of the table. Empty means a single unpartitioned
		// group.
		Partition []partitioner.PartitionPlan

		// Upload writes each file to the store under Prefix. When false the
		// files are still encoded so the stats are real, but nothing leaves
		// the process.
		Upload bool

		// Store receives the files, filestore.FromEnv() when nil.
		Store filestore.FileStore

		// Prefix is the object key prefix, utils.EXPORT_PREFIX when empty.
		Prefix string
	}

	// Stats summarizes what an export run produced.
	Stats struct {
		NumRows      int64
		NumFiles     int64
		BytesWritten int64
		TimeMS       int64
		Files        []ExportedFile
	}

	ExportedFile struct {
		Key       string
		Partition string
		Rows      int64
		Bytes     int64
	}

	partitionGroup struct {
		Accumulator *SchemaAccumulator
		Rows        []tables.Row
	}
)

// Export encodes the table's current rows as one parquet file per partition
// and optionally uploads them. Rows are keyed by the exposed names of the
// visible columns, in declaration order, so the files match what a reader of
// the table sees.
func Export(ctx context.Context, t *tables.Table, opts Options) (*Stats, error) {
	start := time.Now()

	visible := t.Columns().Visible()
	exposed := make([]string, len(visible))
	for i, bc := range visible {
		exposed[i] = bc.Name()
	}

	plans := resolvePlans(t, opts.Partition)

	groups := make(map[string]*partitionGroup)
	var order []string
	for _, row := range t.Rows().All() {
		data := row.Data()

		// partition on the full snapshot row so hidden columns can still
		// drive partitioning
		part, err := partitioner.RowPartition(data, plans)
		if err != nil {
			return nil, fmt.Errorf("error in RowPartition: %w", err)
		}

		group, exists := groups[part]
		if !exists {
			group = &partitionGroup{
				Accumulator: NewSchemaAccumulator(exposed...),
			}
			groups[part] = group
			order = append(order, part)
		}

		out := make(tables.Row, len(visible))
		for _, bc := range visible {
			out[bc.Name()] = data[bc.DeclaredName()]
		}
		group.Rows = append(group.Rows, out)
		group.Accumulator.WriteRow(out)
	}

	prefix := opts.Prefix
	if prefix == "" {
		prefix = utils.EXPORT_PREFIX
	}
	store := opts.Store
	if store == nil {
		store = filestore.FromEnv()
	}

	stats := &Stats{}
	for _, part := range order {
		group := groups[part]
		if len(group.Accumulator.TypedColumnNames()) == 0 {
			logger.Warn().Str("table", t.Name()).Str("partition", part).Int("rows", len(group.Rows)).Msg("no typed columns in partition, skipping")
			continue
		}

		schema, err := group.Accumulator.SchemaString()
		if err != nil {
			return nil, fmt.Errorf("error in SchemaString: %w", err)
		}

		var b bytes.Buffer
		pw, err := writer.NewJSONWriterFromWriter(schema, &b, 4)
		if err != nil {
			return nil, fmt.Errorf("error in NewJSONWriterFromWriter: %w", err)
		}
		for _, row := range group.Rows {
			rowBytes, err := json.Marshal(row)
			if err != nil {
				return nil, fmt.Errorf("error in json.Marshal of row: %w", err)
			}
			if err := pw.Write(rowBytes); err != nil {
				return nil, fmt.Errorf("error in pw.Write for row %s: %w", string(rowBytes), err)
			}
		}
		if err := pw.WriteStop(); err != nil {
			return nil, fmt.Errorf("error in pw.WriteStop: %w", err)
		}

		byteLen := int64(b.Len())
		key := fileKey(prefix, t.Name(), part)
		if opts.Upload {
			if err := store.WriteFile(ctx, key, &b); err != nil {
				return nil, fmt.Errorf("error in WriteFile: %w", err)
			}
		}

		stats.NumRows += int64(len(group.Rows))
		stats.NumFiles++
		stats.BytesWritten += byteLen
		stats.Files = append(stats.Files, ExportedFile{
			Key:       key,
			Partition: part,
			Rows:      int64(len(group.Rows)),
			Bytes:     byteLen,
		})
	}

	stats.TimeMS = time.Since(start).Milliseconds()
	logger.Debug().Str("table", t.Name()).Int64("numRows", stats.NumRows).Int64("numFiles", stats.NumFiles).Int64("bytesWritten", stats.BytesWritten).Int64("timeMS", stats.TimeMS).Msg("exported table")
	return stats, nil
}

// resolvePlans maps each plan's column arg from the exposed name to the
// declared name, since snapshot rows are keyed by declared names. Names the
// table does not know pass through untouched, the partitioner reports them
// as missing if the rows really lack them.
func resolvePlans(t *tables.Table, plans []partitioner.PartitionPlan) []partitioner.PartitionPlan {
	out := make([]partitioner.PartitionPlan, len(plans))
	for i, plan := range plans {
		resolved := plan
		if len(plan.Args) > 0 && plan.Args[0] != partitioner.NowLiteral {
			if bc, err := t.Columns().Get(plan.Args[0]); err == nil {
				resolved.Args = append([]string{bc.DeclaredName()}, plan.Args[1:]...)
			}
		}
		out[i] = resolved
	}
	return out
}

func fileKey(prefix, tableName, partition string) string {
	segments := []string{prefix, fmt.Sprintf("table=%s", tableName)}
	if partition != "" {
		segments = append(segments, partition)
	}
	segments = append(segments, fmt.Sprintf("%s.parquet", utils.GenKSortedID("f_")))
	return strings.Join(segments, "/")
}
