package exportlog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/danthegoodman1/tablekit/export"
	"github.com/danthegoodman1/tablekit/utils"
	"github.com/go-redis/redis/v8"
)

const redisRunsKey = "export_runs"

type (
	RedisExportLog struct {
		client *redis.Client
	}
)

func NewRedisExportLog(ctx context.Context) (*RedisExportLog, error) {
	logger.Debug().Msg("connecting to redis export log")
	el := &RedisExportLog{
		client: redis.NewClient(&redis.Options{
			Addr:        utils.REDIS_ADDR,
			Password:    utils.REDIS_PASSWORD,
			DB:          0,
			DialTimeout: time.Second * 3,
		}),
	}

	// Ping test first to ensure valid connection
	if os.Getenv("REDIS_PING_TEST") == "1" {
		logger.Debug().Msg("running redis ping test")
		s := time.Now()
		_, err := el.client.Ping(ctx).Result()
		if err != nil {
			el.client.Close()
			return nil, fmt.Errorf("error pinging redis: %w", err)
		}
		logger.Debug().Msgf("redis ping test successful in %s", time.Since(s))
	}

	return el, nil
}

func redisRunFilesKey(id string) string {
	return "export_run_" + id + "_files"
}

func (el *RedisExportLog) CreateRun(ctx context.Context, run Run, files []export.ExportedFile) error {
	run.CreatedAt = time.Now().UTC()
	runJSON, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("error in json.Marshal(run): %w", err)
	}

	pipe := el.client.TxPipeline()
	pipe.HSet(ctx, redisRunsKey, run.ID, string(runJSON))

	if len(files) > 0 {
		// Build a single HSet of all files
		filesHash := make([]any, 0, len(files)*2)
		for _, f := range files {
			jsonBytes, err := json.Marshal(f)
			if err != nil {
				return fmt.Errorf("error in json.Marshal(file): %w", err)
			}
			filesHash = append(filesHash, f.Key, string(jsonBytes))
		}
		pipe.HSet(ctx, redisRunFilesKey(run.ID), filesHash...)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("error in redis pipeline exec: %w", err)
	}
	logger.Debug().Str("runID", run.ID).Int64("numFiles", run.NumFiles).Msg("recorded export run")
	return nil
}

func (el *RedisExportLog) GetRun(ctx context.Context, id string) (*Run, []export.ExportedFile, error) {
	rawRun, err := el.client.HGet(ctx, redisRunsKey, id).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil, ErrRunNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("error in redis HGET: %w", err)
	}
	run := Run{}
	if err := json.Unmarshal([]byte(rawRun), &run); err != nil {
		return nil, nil, fmt.Errorf("error in json.Unmarshal(run): %w", err)
	}

	rawFiles, err := el.client.HGetAll(ctx, redisRunFilesKey(id)).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("error in redis HGETALL: %w", err)
	}
	files := make([]export.ExportedFile, 0, len(rawFiles))
	for fileKey, rawJSON := range rawFiles {
		f := export.ExportedFile{}
		if err := json.Unmarshal([]byte(rawJSON), &f); err != nil {
			return nil, nil, fmt.Errorf("error unmarshalling file '%s' under run '%s': %w", fileKey, id, err)
		}
		files = append(files, f)
	}
	// ksuid file names sort in creation order
	sort.Slice(files, func(i, j int) bool {
		return files[i].Key < files[j].Key
	})

	return &run, files, nil
}

func (el *RedisExportLog) ListRuns(ctx context.Context, limit int64) ([]Run, error) {
	if limit < 1 {
		limit = 100
	}

	var cursorPos uint64 = 0
	var returnedCursor uint64 = 1
	runs := make([]Run, 0)

	// Loop until we have all the results
	for returnedCursor != 0 {
		logger.Debug().Msgf("running redis HSCAN with cursor %d", cursorPos)
		rawRuns, newCursor, err := el.client.HScan(ctx, redisRunsKey, cursorPos, "", 0).Result()
		if err != nil {
			return nil, fmt.Errorf("error in redis HSCAN: %w", err)
		}

		// HSCAN returns alternating field, value pairs
		for i := 0; i+1 < len(rawRuns); i += 2 {
			run := Run{}
			if err := json.Unmarshal([]byte(rawRuns[i+1]), &run); err != nil {
				return nil, fmt.Errorf("error unmarshalling run '%s': %w", rawRuns[i], err)
			}
			runs = append(runs, run)
		}

		returnedCursor = newCursor
		cursorPos = newCursor
	}

	sortRunsNewestFirst(runs)
	if int64(len(runs)) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func sortRunsNewestFirst(runs []Run) {
	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].CreatedAt.Equal(runs[j].CreatedAt) {
			return runs[i].CreatedAt.After(runs[j].CreatedAt)
		}
		return runs[i].ID > runs[j].ID
	})
}

func (el *RedisExportLog) Shutdown(_ context.Context) error {
	err := el.client.Close()
	if err != nil {
		return fmt.Errorf("error closing redis client: %w", err)
	}
	return nil
}
