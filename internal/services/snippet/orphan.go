package snippet

import (
	"context"
	"time"

	"github.com/3Eeeecho/securevoice/internal/pkg/logger"
	"github.com/3Eeeecho/securevoice/internal/pkg/storage"
	"github.com/3Eeeecho/securevoice/internal/repositories"
	"go.uber.org/zap"
)

// SweepResult 一次清理的统计
type SweepResult struct {
	Scanned  int
	Resolved int
	Failed   int
}

// SweepOrphans 重试删除未清理的孤儿对象，每次最多处理 limit 条
func SweepOrphans(ctx context.Context, orphanRepo repositories.OrphanBlobRepository, store storage.StorageService, limit int) (SweepResult, error) {
	var result SweepResult

	orphans, err := orphanRepo.ListUnresolved(ctx, limit)
	if err != nil {
		return result, err
	}
	result.Scanned = len(orphans)

	for _, o := range orphans {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if err := store.RemoveObject(ctx, o.BlobKey); err != nil {
			result.Failed++
			logger.Warn("SweepOrphans: 删除对象仍然失败",
				zap.Uint64("orphanID", o.ID),
				zap.String("blobKey", o.BlobKey),
				zap.Int("attempts", o.Attempts+1),
				zap.Error(err))
			if rerr := orphanRepo.RecordAttempt(ctx, o.ID, err.Error()); rerr != nil {
				logger.Error("SweepOrphans: 更新重试次数失败", zap.Uint64("orphanID", o.ID), zap.Error(rerr))
			}
			continue
		}

		if err := orphanRepo.MarkResolved(ctx, o.ID, time.Now()); err != nil {
			// 对象已删除，下次重试删除不存在的对象也是成功的
			result.Failed++
			logger.Error("SweepOrphans: 标记已清理失败", zap.Uint64("orphanID", o.ID), zap.Error(err))
			continue
		}
		result.Resolved++
		logger.Info("SweepOrphans: 孤儿对象已清理", zap.Uint64("orphanID", o.ID), zap.String("blobKey", o.BlobKey))
	}
	return result, nil
}
