package service

import (
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/nOngMolZ/esaraban-sub000/internal/compositor"
	"github.com/nOngMolZ/esaraban-sub000/internal/config"
	"github.com/nOngMolZ/esaraban-sub000/internal/notify"
	"github.com/nOngMolZ/esaraban-sub000/internal/repository"
	"github.com/nOngMolZ/esaraban-sub000/internal/storage"
)

// Services 服务集合
type Services struct {
	Workflow *WorkflowService
	Registry *RegistryService
	Store    storage.Store
}

// NewServices 创建服务集合
//
// 配置了 MinIO 时文件走对象存储，否则落本地磁盘；
// 配置了 Redis 时通知发布到频道，否则仅写日志。
func NewServices(db *gorm.DB, repos *repository.Repositories, rdb *redis.Client, cfg *config.Config, log *zap.Logger) *Services {
	var store storage.Store
	if cfg.MinIO.Endpoint != "" {
		minioClient, err := minio.New(cfg.MinIO.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
			Secure: cfg.MinIO.UseSSL,
		})
		if err != nil {
			log.Warn("MinIO初始化失败，回退到本地存储", zap.Error(err))
			store = storage.NewLocalStore(cfg.Storage.BaseDir)
		} else {
			store = storage.NewMinIOStore(minioClient, cfg.MinIO.Bucket)
		}
	} else {
		store = storage.NewLocalStore(cfg.Storage.BaseDir)
	}

	var sink notify.Sink
	if rdb != nil {
		sink = notify.NewRedisSink(rdb, cfg.Redis.NotifyChannel)
	} else {
		sink = notify.NewZapSink(log)
	}

	comp := compositor.New(store, log)

	return &Services{
		Workflow: NewWorkflowService(db, repos, comp, store, sink, log),
		Registry: NewRegistryService(repos),
		Store:    store,
	}
}
