package cache

import (
	"context"
	"log"
	"sync"
	"time"

	"classroom-poll-backend/config"

	"github.com/redis/go-redis/v9"
)

// 全局Redis客户端
var (
	redisClient *redis.Client
	initOnce    sync.Once
)

// InitRedis 初始化Redis连接。Redis在这里是可选依赖：连接失败时自动结束
// 定时器退回到进程内实现，服务照常启动。
func InitRedis() error {
	var initErr error

	initOnce.Do(func() {
		addr := config.Get("REDIS_ADDR", "localhost:6379")
		password := config.Get("REDIS_PASSWORD", "")
		db := config.GetInt("REDIS_DB", 0)

		client := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		if err := client.Ping(ctx).Err(); err != nil {
			initErr = err
			_ = client.Close()
			log.Printf("Redis连接失败 (%s): %v", addr, err)
			return
		}

		redisClient = client
		log.Printf("Redis连接成功: %s", addr)
	})

	return initErr
}

// Client 返回全局Redis客户端，未初始化或连接失败时为nil。
func Client() *redis.Client {
	return redisClient
}

// CloseRedis 关闭Redis连接
func CloseRedis() {
	if redisClient == nil {
		return
	}
	if err := redisClient.Close(); err != nil {
		log.Printf("关闭Redis连接失败: %v", err)
		return
	}
	log.Println("Redis连接已关闭")
}
