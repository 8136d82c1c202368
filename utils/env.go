package utils

import "os"

var (
	PG_DSN = os.Getenv("PG_DSN")

	REDIS_ADDR     = os.Getenv("REDIS_ADDR")
	REDIS_PASSWORD = os.Getenv("REDIS_PASSWORD")

	AWS_ACCESS_KEY_ID     = os.Getenv("AWS_ACCESS_KEY_ID")
	AWS_SECRET_ACCESS_KEY = os.Getenv("AWS_SECRET_ACCESS_KEY")
	AWS_DEFAULT_REGION    = GetEnvOrDefault("AWS_DEFAULT_REGION", "us-east-1")

	S3_BUCKET_NAME = os.Getenv("S3_BUCKET_NAME")
	S3_ENDPOINT    = os.Getenv("S3_ENDPOINT")

	EXPORT_PREFIX = GetEnvOrDefault("EXPORT_PREFIX", "exports")
	// EXPORT_DISK_PATH redirects export files to a local directory instead
	// of S3, for dev setups without a bucket.
	EXPORT_DISK_PATH = os.Getenv("EXPORT_DISK_PATH")

	TABLES_CONFIG = os.Getenv("TABLES_CONFIG")
)
