package collector

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spacesedan/tokharvest/config"
	"github.com/spacesedan/tokharvest/internal/clients"
	"github.com/spacesedan/tokharvest/internal/clients/kafka_client"
	"github.com/spacesedan/tokharvest/internal/credentials"
	"github.com/spacesedan/tokharvest/internal/dataset"
	"github.com/spacesedan/tokharvest/internal/db"
	"github.com/spacesedan/tokharvest/internal/lock"
	"github.com/spacesedan/tokharvest/internal/processing"
	"github.com/spacesedan/tokharvest/internal/storage"
)

const (
	LOCAL_TABLE_FILE     = "tiktok_data.parquet"
	LOCAL_THUMBNAILS_DIR = "thumbnails"
)

// Built holds a ready Runner plus the resources that must be closed after the run.
type Built struct {
	Runner  *Runner
	Table   dataset.TableStore
	closers []func()
}

func (b *Built) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// Build wires every collaborator described by cfg. Missing session tokens fail
// here, before anything is collected.
func Build(ctx context.Context, cfg config.Config) (*Built, error) {
	tokens, err := credentials.Source{CookiesFile: cfg.CookiesFile}.Load()
	if err != nil {
		return nil, err
	}
	tiktok, err := clients.NewTikTokClient(tokens, cfg.MaxSessions)
	if err != nil {
		return nil, err
	}

	b := &Built{}
	var aws *clients.AWSClients
	awsClients := func() (*clients.AWSClients, error) {
		if aws != nil {
			return aws, nil
		}
		var err error
		aws, err = clients.NewAWSClients(ctx, clients.AWSOptions{Region: cfg.AWSRegion, Endpoint: cfg.AWSEndpoint})
		return aws, err
	}

	var thumbs processing.ThumbnailStore
	switch cfg.Sink {
	case config.SinkS3:
		a, err := awsClients()
		if err != nil {
			return nil, err
		}
		s3Client := a.S3()
		b.Table = dataset.NewS3TableStore(s3Client, cfg.S3Bucket, cfg.S3DataKey)
		thumbs = storage.NewS3ThumbnailStore(s3Client, cfg.S3Bucket, cfg.S3ThumbnailsPrefix)
	default:
		b.Table = dataset.NewLocalTableStore(filepath.Join(cfg.OutDir, LOCAL_TABLE_FILE))
		local, err := storage.NewLocalThumbnailStore(filepath.Join(cfg.OutDir, LOCAL_THUMBNAILS_DIR))
		if err != nil {
			return nil, err
		}
		thumbs = local
	}

	deps := Dependencies{
		Table:      b.Table,
		Thumbnails: thumbs,
		Feed:       tiktok,
		Comments:   tiktok,
		Images:     clients.NewImageFetcher(),
	}

	if cfg.RunsTableName != "" {
		a, err := awsClients()
		if err != nil {
			return nil, err
		}
		deps.Ledger = db.NewRunLedger(a.DynamoDB(), cfg.RunsTableName)
	}

	if cfg.ValkeyAddress != "" {
		vk, err := clients.NewValkeyClient(ctx, clients.ValkeyOptions{
			InitAddress: cfg.ValkeyAddress,
			Password:    cfg.ValkeyPassword,
			UseTLS:      cfg.ValkeyTLS,
		})
		if err != nil {
			b.Close()
			return nil, err
		}
		b.closers = append(b.closers, vk.Close)
		deps.Lock = lock.NewRunLock(vk, b.Table.Location(), cfg.RunLockTTL)
	}

	if cfg.KafkaBroker != "" {
		kcfg := kafka_client.GetKafkaConfig()
		kcfg.Broker = cfg.KafkaBroker
		producer, err := kafka_client.NewRowProducer(ctx, kcfg)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.closers = append(b.closers, producer.Close)
		deps.Publisher = producer
	}

	settings, err := SettingsFromConfig(cfg)
	if err != nil {
		b.Close()
		return nil, err
	}

	b.Runner = NewRunner(settings, deps)
	slog.Info("[Collector] Dependencies ready",
		slog.String("sink", string(cfg.Sink)),
		slog.String("table", b.Table.Location()),
		slog.Bool("run_lock", deps.Lock != nil),
		slog.Bool("ledger", deps.Ledger != nil),
		slog.Bool("publisher", deps.Publisher != nil))
	return b, nil
}

func SettingsFromConfig(cfg config.Config) (Settings, error) {
	mode, err := processing.ParseRecencyMode(cfg.RecencyMode)
	if err != nil {
		return Settings{}, fmt.Errorf("[Collector] %w", err)
	}
	return Settings{
		Walker: processing.WalkerConfig{
			Terms:         cfg.SearchTerms,
			AttemptCap:    cfg.RequestCap,
			PerTermTarget: cfg.VideosPerTag,
			FeedOverfetch: cfg.FeedOverfetch,
			Pacing: processing.PacingConfig{
				MinDelay:   cfg.MinDelay,
				MaxDelay:   cfg.MaxDelay,
				PauseEvery: cfg.PauseEvery,
				LongPause:  cfg.LongPause,
			},
		},
		Recency: processing.RecencyPolicy{Window: cfg.RecencyWindow, Mode: mode},
		Enricher: processing.EnricherConfig{
			ThumbnailTimeout: cfg.ThumbnailTimeout,
			CommentPageSize:  cfg.CommentPageSize,
			TopComments:      cfg.TopComments,
		},
		Budget:    cfg.MaxExecutionTime,
		BatchSize: cfg.BatchSize,
	}, nil
}

// OpenTable returns the table store for cfg without requiring session tokens.
func OpenTable(ctx context.Context, cfg config.Config) (dataset.TableStore, error) {
	if cfg.Sink == config.SinkS3 {
		a, err := clients.NewAWSClients(ctx, clients.AWSOptions{Region: cfg.AWSRegion, Endpoint: cfg.AWSEndpoint})
		if err != nil {
			return nil, err
		}
		return dataset.NewS3TableStore(a.S3(), cfg.S3Bucket, cfg.S3DataKey), nil
	}
	return dataset.NewLocalTableStore(filepath.Join(cfg.OutDir, LOCAL_TABLE_FILE)), nil
}
