// Package bootstrap wires infrastructure clients from configuration. It is
// shared by the API server and the migrate CLI.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/journalkeep/journal-backend/internal/config"
	"github.com/journalkeep/journal-backend/internal/service"
	pkges "github.com/journalkeep/journal-backend/pkg/elasticsearch"
	pkglogger "github.com/journalkeep/journal-backend/pkg/logger"
	pkgstorage "github.com/journalkeep/journal-backend/pkg/storage"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// OpenDB MySQL 연결 초기화 (UTC 세션, utf8mb4, 커넥션 풀)
func OpenDB(cfg *config.Config, logLevel gormlogger.LogLevel) (*gorm.DB, error) {
	mysqlCfg, err := mysqldriver.ParseDSN(cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}
	if mysqlCfg.Params == nil {
		mysqlCfg.Params = map[string]string{}
	}
	mysqlCfg.Params["time_zone"] = "'+00:00'"
	mysqlCfg.ParseTime = true
	mysqlCfg.Loc = time.UTC

	db, err := gorm.Open(mysql.Open(mysqlCfg.FormatDSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	return db, nil
}

// NewObjectStore returns the S3 client, or nil when storage is disabled or
// fails to initialize.
func NewObjectStore(cfg *config.Config) *pkgstorage.S3Client {
	if !cfg.Storage.Enabled || cfg.Storage.Bucket == "" {
		return nil
	}
	client, err := pkgstorage.NewS3Client(pkgstorage.S3Config{
		Endpoint:        cfg.Storage.Endpoint,
		Region:          cfg.Storage.Region,
		AccessKeyID:     cfg.Storage.AccessKeyID,
		SecretAccessKey: cfg.Storage.SecretAccessKey,
		Bucket:          cfg.Storage.Bucket,
		PublicURL:       cfg.Storage.PublicURL,
		PresignExpiry:   cfg.Storage.PresignExpiry,
		ForcePathStyle:  cfg.Storage.ForcePathStyle,
	})
	if err != nil {
		pkglogger.GetLogger().Warn().Err(err).Msg("S3 storage init failed, continuing without media storage")
		return nil
	}
	return client
}

// NewEntryIndexer connects to Elasticsearch and ensures the entry index.
// Returns nil when search is disabled or unreachable.
func NewEntryIndexer(ctx context.Context, cfg *config.Config) *service.ESEntryIndexer {
	if !cfg.Elasticsearch.Enabled || len(cfg.Elasticsearch.Addresses) == 0 {
		return nil
	}
	client, err := pkges.NewClient(cfg.Elasticsearch.Addresses, cfg.Elasticsearch.Username, cfg.Elasticsearch.Password)
	if err != nil {
		pkglogger.GetLogger().Warn().Err(err).Msg("Elasticsearch connection failed, continuing without search")
		return nil
	}
	indexer := service.NewESEntryIndexer(client, cfg.Elasticsearch.Index)
	if err := indexer.EnsureIndex(ctx); err != nil {
		pkglogger.GetLogger().Warn().Err(err).Str("index", cfg.Elasticsearch.Index).Msg("failed to ensure search index")
	}
	return indexer
}

// NewRetentionService builds the purge service with whichever side stores
// are configured.
func NewRetentionService(db *gorm.DB, cfg *config.Config, store *pkgstorage.S3Client, indexer *service.ESEntryIndexer) *service.RetentionService {
	retention := service.NewRetentionService(db, cfg.Retention.Window())
	if store != nil {
		retention.SetObjectRemover(store)
	}
	if indexer != nil {
		retention.SetIndexer(indexer)
	}
	return retention
}
