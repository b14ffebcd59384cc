package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

var (
	TLS_DOMAINS       = ""   // e.g. "example.com,example2.com"
	MYSQL_DSN         = ""   // MySQL will be used if this is set
	SQLITE_FILE       = ""   // SQLite file, defaults to <DATA_PATH>/mediacat.db when MYSQL_DSN is empty
	BIND_ADDRESS      = "0.0.0.0:8080"
	DEBUG_MODE        = true
	TEST_MODE         = false // Ingest tasks run synchronously on the caller's goroutine
	SESSION_KEY       = "this is a long key"
	WORKERS           = runtime.NumCPU() // Ingest worker pool size
	MIN_FREE_SPACE_MB = 512              // Uploads are refused when the temp area has less free space
	SWEEP_SCHEDULE    = "@every 10m"     // Re-enqueue unfinished ingest work
	URL_TTL_SECONDS   = 3600             // Lifetime of signed download URLs

	// Keyed sections, read from the config file and/or environment
	DATA_PATH           = "./data"
	BACKBLAZE_KEY_ID    = ""
	BACKBLAZE_KEY       = ""
	BACKBLAZE_BUCKET    = ""
	BACKBLAZE_BUCKET_ID = ""
	BACKBLAZE_PATH      = ""
	S3_KEY_ID           = ""
	S3_KEY              = ""
	S3_BUCKET           = ""
	S3_REGION           = ""
	S3_ENDPOINT         = ""
	S3_PATH             = ""
)

func init() {
	readConfigFile()
	readEnvString("TLS_DOMAINS", &TLS_DOMAINS)
	readEnvString("MYSQL_DSN", &MYSQL_DSN)
	readEnvString("SQLITE_FILE", &SQLITE_FILE)
	readEnvString("BIND_ADDRESS", &BIND_ADDRESS)
	readEnvBool("DEBUG_MODE", &DEBUG_MODE)
	readEnvBool("TEST_MODE", &TEST_MODE)
	readEnvString("SESSION_KEY", &SESSION_KEY)
	readEnvInt("WORKERS", &WORKERS)
	readEnvInt("MIN_FREE_SPACE_MB", &MIN_FREE_SPACE_MB)
	readEnvString("SWEEP_SCHEDULE", &SWEEP_SCHEDULE)
	readEnvInt("URL_TTL_SECONDS", &URL_TTL_SECONDS)
	readEnvString("PATH_DATA", &DATA_PATH)
	readEnvString("BACKBLAZE_KEY_ID", &BACKBLAZE_KEY_ID)
	readEnvString("BACKBLAZE_KEY", &BACKBLAZE_KEY)
	readEnvString("BACKBLAZE_BUCKET", &BACKBLAZE_BUCKET)
	readEnvString("BACKBLAZE_BUCKET_ID", &BACKBLAZE_BUCKET_ID)
	readEnvString("BACKBLAZE_PATH", &BACKBLAZE_PATH)
	readEnvString("S3_KEY_ID", &S3_KEY_ID)
	readEnvString("S3_KEY", &S3_KEY)
	readEnvString("S3_BUCKET", &S3_BUCKET)
	readEnvString("S3_REGION", &S3_REGION)
	readEnvString("S3_ENDPOINT", &S3_ENDPOINT)
	readEnvString("S3_PATH", &S3_PATH)
	if WORKERS <= 0 {
		WORKERS = 1
	}
}

// readConfigFile loads the optional "mediacat" config file. Keys use the
// section.name form, e.g. path.data or backblaze.key_id.
func readConfigFile() {
	vp := viper.New()
	if file := os.Getenv("CONFIG_FILE"); file != "" {
		vp.SetConfigFile(file)
	} else {
		vp.SetConfigName("mediacat")
		vp.AddConfigPath(".")
		vp.AddConfigPath("/etc/mediacat")
	}
	if err := vp.ReadInConfig(); err != nil {
		return
	}
	applyConfig(vp)
}

func applyConfig(vp *viper.Viper) {
	readViperString(vp, "path.data", &DATA_PATH)
	readViperString(vp, "backblaze.key_id", &BACKBLAZE_KEY_ID)
	readViperString(vp, "backblaze.key", &BACKBLAZE_KEY)
	readViperString(vp, "backblaze.bucket", &BACKBLAZE_BUCKET)
	readViperString(vp, "backblaze.bucket_id", &BACKBLAZE_BUCKET_ID)
	readViperString(vp, "backblaze.path", &BACKBLAZE_PATH)
	readViperString(vp, "s3.key_id", &S3_KEY_ID)
	readViperString(vp, "s3.key", &S3_KEY)
	readViperString(vp, "s3.bucket", &S3_BUCKET)
	readViperString(vp, "s3.region", &S3_REGION)
	readViperString(vp, "s3.endpoint", &S3_ENDPOINT)
	readViperString(vp, "s3.path", &S3_PATH)
	readViperString(vp, "database.mysql_dsn", &MYSQL_DSN)
	readViperString(vp, "database.sqlite_file", &SQLITE_FILE)
}

// StoragePath returns the root of the local storage areas
func StoragePath() string {
	return filepath.Join(DATA_PATH, "storage")
}

func GetSQLiteFile() string {
	if SQLITE_FILE != "" {
		return SQLITE_FILE
	}
	return filepath.Join(DATA_PATH, "mediacat.db")
}

func readViperString(vp *viper.Viper, key string, value *string) {
	if v := vp.GetString(key); v != "" {
		*value = v
	}
}

func readEnvString(name string, value *string) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	*value = v
}

func readEnvBool(name string, value *bool) {
	v := strings.ToLower(os.Getenv(name))
	if v == "true" || v == "1" || v == "yes" || v == "on" {
		*value = true
	} else if v == "false" || v == "0" || v == "no" || v == "off" {
		*value = false
	}
}

func readEnvInt(name string, value *int) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	f, err := strconv.Atoi(v)
	if err != nil {
		return
	}
	*value = f
}
