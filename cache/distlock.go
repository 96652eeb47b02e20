package cache

import (
	"log"
	"time"

	"github.com/go-redsync/redsync/v4"
	goredis "github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

// LockService 分布式锁服务。多实例部署时，自动结束定时器用它保证同一个
// 投票只被一个实例关闭。
type LockService struct {
	rs *redsync.Redsync
}

// NewLockService 基于已有的Redis客户端创建分布式锁服务。
func NewLockService(client *redis.Client) *LockService {
	if client == nil {
		return nil
	}
	pool := goredis.NewPool(client)
	return &LockService{rs: redsync.New(pool)}
}

// TryLock 尝试获取锁，不重试。获取失败说明其他实例持有锁，调用方应跳过本轮。
func (s *LockService) TryLock(name string, expiry time.Duration) (*redsync.Mutex, bool) {
	mutex := s.rs.NewMutex(name,
		redsync.WithExpiry(expiry),
		redsync.WithTries(1),
		redsync.WithDriftFactor(0.01),
	)
	if err := mutex.Lock(); err != nil {
		return nil, false
	}
	return mutex, true
}

// Unlock 释放锁，失败只记录日志（锁超时后会自动过期）。
func (s *LockService) Unlock(mutex *redsync.Mutex) {
	if _, err := mutex.Unlock(); err != nil {
		log.Printf("释放分布式锁失败: %v", err)
	}
}
