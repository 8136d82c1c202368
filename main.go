package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danthegoodman1/tablekit/crdb"
	"github.com/danthegoodman1/tablekit/exportlog"
	"github.com/danthegoodman1/tablekit/gologger"
	"github.com/danthegoodman1/tablekit/http_server"
	"github.com/danthegoodman1/tablekit/migrations"
	"github.com/danthegoodman1/tablekit/partitioner"
	"github.com/danthegoodman1/tablekit/pgsource"
	"github.com/danthegoodman1/tablekit/utils"
)

var logger = gologger.NewLogger()

func main() {
	logger.Debug().Msg("starting tablekit api")

	partitioner.RegisterFunctions()

	var el exportlog.ExportLog

	if utils.PG_DSN != "" {
		if err := crdb.ConnectToDB(); err != nil {
			logger.Error().Err(err).Msg("error connecting to PG")
			os.Exit(1)
		}

		if os.Getenv("RUN_MIGRATIONS") == "1" {
			n, err := migrations.RunMigrations(utils.PG_DSN)
			if err != nil {
				logger.Error().Err(err).Msg("error running migrations")
				os.Exit(1)
			}
			logger.Info().Msgf("applied %d migrations", n)
		} else if err := migrations.CheckMigrations(utils.PG_DSN); err != nil {
			logger.Error().Err(err).Msg("error checking migrations")
			os.Exit(1)
		}

		el = exportlog.NewPGExportLog(crdb.PGPool)

		// the run log is itself served as a table
		err := http_server.RegisterTable(http_server.Definition{
			Name:           "_export_runs",
			Source:         pgsource.New(crdb.PGPool, `SELECT id, table_name, num_rows, num_files, bytes_written, time_ms, created_at FROM export_runs`),
			DefaultOrderBy: []string{"-created_at"},
			DefaultPerPage: 50,
		})
		if err != nil {
			logger.Error().Err(err).Msg("error registering export runs table")
			os.Exit(1)
		}
	} else if utils.REDIS_ADDR != "" {
		rel, err := exportlog.NewRedisExportLog(context.Background())
		if err != nil {
			logger.Error().Err(err).Msg("error connecting to redis")
			os.Exit(1)
		}
		el = rel
	}

	if utils.TABLES_CONFIG != "" {
		if utils.PG_DSN == "" {
			logger.Error().Msg("TABLES_CONFIG requires PG_DSN, exiting")
			os.Exit(1)
		}
		configs, err := loadTablesConfig(utils.TABLES_CONFIG)
		if err != nil {
			logger.Error().Err(err).Msg("error loading TABLES_CONFIG")
			os.Exit(1)
		}
		if err := registerConfiguredTables(crdb.PGPool, configs); err != nil {
			logger.Error().Err(err).Msg("error registering configured tables")
			os.Exit(1)
		}
	}

	httpServer := http_server.StartHTTPServer(el)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	logger.Warn().Msg("received shutdown signal!")

	// For AWS ALB needing some time to de-register pod
	// Convert the time to seconds
	sleepTime := utils.GetEnvOrDefaultInt("SHUTDOWN_SLEEP_SEC", 0)
	logger.Info().Msg(fmt.Sprintf("sleeping for %ds before exiting", sleepTime))

	time.Sleep(time.Second * time.Duration(sleepTime))
	logger.Info().Msg(fmt.Sprintf("slept for %ds, exiting", sleepTime))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown HTTP server")
	} else {
		logger.Info().Msg("successfully shutdown HTTP server")
	}

	if el != nil {
		if err := el.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown export log")
		}
	}
	crdb.Shutdown()
}
