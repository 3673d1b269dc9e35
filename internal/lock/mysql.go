package lock

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// MysqlLocker 基于 MySQL GET_LOCK 的分布式锁
type MysqlLocker struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewMysqlLocker(db *sql.DB, logger *zap.Logger) *MysqlLocker {
	return &MysqlLocker{db: db, logger: logger}
}

func (l *MysqlLocker) WithLock(ctx context.Context, name string, atMost, atLeast time.Duration, fn func(ctx context.Context) error) error {
	acquired, err := l.tryLock(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to acquire lock %s: %w", name, err)
	}
	if !acquired {
		return ErrNotAcquired
	}
	acquiredAt := time.Now()

	defer func() {
		holdAtLeast(ctx, acquiredAt, atLeast)
		if err := l.unlock(context.Background(), name); err != nil {
			l.logger.Error("failed to release lock",
				zap.String("lock_name", name),
				zap.Error(err))
		}
	}()

	// atMost 同时作为任务执行的上限
	runCtx, cancel := context.WithTimeout(ctx, atMost)
	defer cancel()
	return fn(runCtx)
}

func (l *MysqlLocker) tryLock(ctx context.Context, name string) (bool, error) {
	// GET_LOCK 返回值: 1-成功, 0-超时, NULL-错误
	var result sql.NullInt64
	err := l.db.QueryRowContext(ctx, "SELECT GET_LOCK(?, 0)", name).Scan(&result)
	if err != nil {
		return false, err
	}
	if !result.Valid {
		return false, fmt.Errorf("lock query returned NULL")
	}
	return result.Int64 == 1, nil
}

func (l *MysqlLocker) unlock(ctx context.Context, name string) error {
	var result sql.NullInt64
	err := l.db.QueryRowContext(ctx, "SELECT RELEASE_LOCK(?)", name).Scan(&result)
	if err != nil {
		return err
	}
	if !result.Valid {
		return fmt.Errorf("release lock query returned NULL")
	}
	if result.Int64 != 1 {
		return fmt.Errorf("failed to release lock: not owner or lock does not exist")
	}
	return nil
}
