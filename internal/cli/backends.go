package cli

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/erazemk/fixitforward/internal/catalog"
	"github.com/erazemk/fixitforward/internal/config"
	"github.com/erazemk/fixitforward/internal/imaging"
	"github.com/erazemk/fixitforward/internal/negotiation"
	"github.com/erazemk/fixitforward/internal/store"
	"github.com/erazemk/fixitforward/internal/store/memory"
	"github.com/erazemk/fixitforward/internal/store/mongodb"
	"github.com/erazemk/fixitforward/internal/store/redisdb"
	"github.com/erazemk/fixitforward/internal/store/s3"
)

// backends are the repositories chosen by the storage config.
type backends struct {
	items   catalog.Repository
	threads negotiation.Repository
	images  imaging.Store
	closers []func()
}

func (b *backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// openBackends connects every configured store. On error the stores that
// were already opened are closed.
func openBackends(ctx context.Context, cfg *config.Config, database *sql.DB, log *zap.Logger) (_ *backends, err error) {
	b := &backends{}
	defer func() {
		if err != nil {
			b.Close()
		}
	}()

	switch cfg.Storage.Items {
	case config.BackendMemory:
		b.items = memory.NewItems()
	case config.BackendMongo:
		connectCtx, cancel := context.WithTimeout(ctx, cfg.Mongo.ConnectTimeout)
		defer cancel()
		client, err := mongodb.Connect(connectCtx, cfg.Mongo.URI)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() { _ = client.Disconnect(context.Background()) })
		items := mongodb.NewItems(client.Database(cfg.Mongo.Database))
		if err := items.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		b.items = items
	default:
		b.items = store.NewItems(database)
	}
	log.Info("item store ready", zap.String("backend", cfg.Storage.Items))

	switch cfg.Storage.Chat {
	case config.BackendMemory:
		b.threads = memory.NewThreads()
	case config.BackendRedis:
		client, err := redisdb.Connect(ctx, redisdb.Options{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() { _ = client.Close() })
		b.threads = redisdb.NewThreads(client, cfg.Redis.Prefix)
	default:
		b.threads = store.NewThreads(database)
	}
	log.Info("chat store ready", zap.String("backend", cfg.Storage.Chat))

	switch cfg.Storage.Images {
	case config.BackendMinIO:
		images, err := s3.NewImages(ctx, s3.Options{
			Endpoint:  cfg.MinIO.Endpoint,
			AccessKey: cfg.MinIO.AccessKey,
			SecretKey: cfg.MinIO.SecretKey,
			Bucket:    cfg.MinIO.Bucket,
			UseSSL:    cfg.MinIO.UseSSL,
		}, log)
		if err != nil {
			return nil, err
		}
		b.images = images
	default:
		b.images = store.NewImages(database)
	}
	log.Info("image store ready", zap.String("backend", cfg.Storage.Images))

	return b, nil
}
