package http_server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"reflect"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go/aws/awserr"
	awss3 "github.com/aws/aws-sdk-go/service/s3"
	"github.com/danthegoodman1/tablekit/export"
	"github.com/danthegoodman1/tablekit/exportlog"
	"github.com/danthegoodman1/tablekit/filestore"
	"github.com/danthegoodman1/tablekit/partitioner"
	"github.com/danthegoodman1/tablekit/s3"
	"github.com/danthegoodman1/tablekit/utils"
	"github.com/rs/zerolog"
	"github.com/xitongsys/parquet-go-source/local"
	s3_pq "github.com/xitongsys/parquet-go-source/s3"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/source"
)

type (
	ExportReqBody struct {
		// Partitioner plans are applied per row. Column args use exposed
		// column names.
		Partitioner []partitioner.PartitionPlan

		// Upload writes the files to S3. False still encodes everything, a
		// dry run.
		Upload bool

		// Prefix is the object key prefix.
		//
		// Default `exports`.
		Prefix *string

		// OrderBy is a comma-joined sort spec applied before exporting.
		OrderBy *string
	}

	ExportResponse struct {
		// RunID is set when the run was recorded in the export log.
		RunID string
		export.Stats
	}

	GetExportRunResponse struct {
		Run   exportlog.Run
		Files []export.ExportedFile
	}

	ReadExportFileResponse struct {
		Key     string
		NumRows int64
		Rows    []map[string]any
	}
)

func (s *HTTPServer) ExportTableHandler(c *CustomContext) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), time.Second*60)
	defer cancel()

	var reqBody ExportReqBody
	if err := ValidateRequest(c, &reqBody); err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}

	def, ok := lookupTable(c.Param("name"))
	if !ok {
		return c.NotFound("table not found")
	}
	if !def.AllowExport {
		return c.String(http.StatusForbidden, "export not allowed for this table")
	}
	t, err := def.build(ctx)
	if err != nil {
		return c.InternalError(err, "error building table")
	}
	if reqBody.OrderBy != nil {
		t.SetOrderBy(*reqBody.OrderBy)
	}

	stats, err := export.Export(ctx, t, export.Options{
		Partition: reqBody.Partitioner,
		Upload:    reqBody.Upload,
		Prefix:    utils.Deref(reqBody.Prefix, ""),
		Store:     s.Store,
	})
	if err != nil {
		if isPartitionUserError(err) {
			return c.String(http.StatusBadRequest, err.Error())
		}
		return c.InternalError(err, "error exporting table")
	}

	res := ExportResponse{Stats: *stats}
	if s.ExportLog != nil && reqBody.Upload {
		run := exportlog.NewRun(t.Name(), stats)
		if err := s.ExportLog.CreateRun(ctx, run, stats.Files); err != nil {
			return c.InternalError(err, "error recording export run")
		}
		res.RunID = run.ID
	}
	return c.JSON(http.StatusOK, res)
}

// isPartitionUserError separates bad plans from real failures.
func isPartitionUserError(err error) bool {
	return errors.Is(err, partitioner.ErrFuncNotFound) ||
		errors.Is(err, partitioner.ErrMissingArgs) ||
		errors.Is(err, partitioner.ErrMissingColumns) ||
		errors.Is(err, partitioner.ErrInvalidColumnType)
}

func (s *HTTPServer) ListExportRunsHandler(c *CustomContext) error {
	limit := int64(100)
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return c.String(http.StatusBadRequest, "limit must be an integer")
		}
		limit = n
	}
	runs, err := s.ExportLog.ListRuns(c.Request().Context(), limit)
	if err != nil {
		return c.InternalError(err, "error listing export runs")
	}
	return c.JSON(http.StatusOK, utils.ArrayOrEmpty(runs))
}

func (s *HTTPServer) GetExportRunHandler(c *CustomContext) error {
	run, files, err := s.ExportLog.GetRun(c.Request().Context(), c.Param("id"))
	if errors.Is(err, exportlog.ErrRunNotFound) {
		return c.NotFound("export run not found")
	}
	if err != nil {
		return c.InternalError(err, "error getting export run")
	}
	return c.JSON(http.StatusOK, GetExportRunResponse{
		Run:   *run,
		Files: utils.ArrayOrEmpty(files),
	})
}

func (s *HTTPServer) DownloadExportFileHandler(c *CustomContext) error {
	key := c.QueryParam("key")
	if key == "" {
		return c.String(http.StatusBadRequest, "key is required")
	}

	data, err := s.Store.ReadFile(c.Request().Context(), key)
	if err != nil {
		if errors.Is(err, filestore.ErrNotFound) {
			return c.NotFound("no file at key")
		}
		return c.InternalError(err, "error reading exported file")
	}
	return c.Blob(http.StatusOK, "application/octet-stream", data)
}

// ReadExportFileHandler reads an exported parquet file straight out of the
// store and returns its rows as JSON, for spot checks without a warehouse.
func (s *HTTPServer) ReadExportFileHandler(c *CustomContext) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), time.Second*60)
	defer cancel()

	logger := zerolog.Ctx(ctx)

	key := c.QueryParam("key")
	if key == "" {
		return c.String(http.StatusBadRequest, "key is required")
	}
	limit := 1000
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return c.String(http.StatusBadRequest, "limit must be an integer")
		}
		limit = n
	}

	var r source.ParquetFile
	switch st := s.Store.(type) {
	case *filestore.DiskFileStore:
		fr, err := local.NewLocalFileReader(st.Path(key))
		if err != nil {
			if os.IsNotExist(err) {
				return c.NotFound("no file at key")
			}
			return c.InternalError(err, "error opening exported file")
		}
		r = fr
	default:
		sess, err := s3.NewSession()
		if err != nil {
			return c.InternalError(err, "error making new aws session")
		}
		s3Client := awss3.New(sess)

		sr, err := s3_pq.NewS3FileReaderWithParams(ctx, s3_pq.S3FileReaderParams{
			Bucket:   utils.S3_BUCKET_NAME,
			Key:      key,
			S3Client: s3Client,
		})
		if err != nil {
			var aerr awserr.Error
			if errors.As(err, &aerr) && aerr.Code() == awss3.ErrCodeNoSuchKey {
				return c.NotFound("no file at key")
			}
			return c.InternalError(err, "error creating new s3 file reader")
		}
		r = sr
	}
	defer r.Close()

	pr, err := reader.NewParquetReader(r, nil, 4)
	if err != nil {
		return c.InternalError(err, "error creating parquet reader for "+key)
	}
	defer pr.ReadStop()

	numRows := pr.GetNumRows()
	readCount := int(numRows)
	if readCount > limit {
		readCount = limit
	}
	logger.Debug().Str("key", key).Int64("numRows", numRows).Int("reading", readCount).Msg("reading exported file")

	raw, err := pr.ReadByNumber(readCount)
	if err != nil {
		return c.InternalError(err, "error reading rows for "+key)
	}

	// rows come back as generated structs, field names in parquet-go's
	// exported-struct casing
	rows := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		rowMap := make(map[string]any)
		v := reflect.ValueOf(item)
		typeOf := v.Type()
		for i := 0; i < v.NumField(); i++ {
			rowMap[typeOf.Field(i).Name] = v.Field(i).Interface()
		}
		rows = append(rows, rowMap)
	}

	return c.JSON(http.StatusOK, ReadExportFileResponse{
		Key:     key,
		NumRows: numRows,
		Rows:    rows,
	})
}
