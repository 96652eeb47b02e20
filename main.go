package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"classroom-poll-backend/cache"
	"classroom-poll-backend/config"
	"classroom-poll-backend/database"
	"classroom-poll-backend/handlers"
	"classroom-poll-backend/realtime"
	"classroom-poll-backend/routes"
	"classroom-poll-backend/scheduler"
	"classroom-poll-backend/service"
)

func main() {
	// 加载环境变量配置
	config.Load()

	// 初始化数据库连接
	err := database.InitDB()
	if err != nil {
		log.Fatalf("无法初始化数据库: %v", err)
	}
	log.Println("数据库连接初始化成功")

	// 初始化Redis连接（可选依赖，失败时退化为内存模式）
	err = cache.InitRedis()
	if err != nil {
		log.Printf("警告: Redis初始化失败: %v", err)
	} else {
		log.Println("Redis连接初始化成功")
	}

	// 初始化WebSocket Hub
	hub := realtime.NewHub()
	go hub.Run()

	// 初始化自动结束调度队列（自动选择Redis延迟队列或内存定时器）
	locks := cache.NewLockService(cache.Client())
	queue := scheduler.NewQueue(cache.Client(), locks)

	// 初始化业务服务并注册调度处理函数
	svc := service.New(hub, queue)
	queue.Start(svc.AutoEndPoll)

	// 启动过期轮询兜底检查器
	sweeperStop := make(chan struct{})
	go svc.RunExpirySweeper(30*time.Second, sweeperStop)

	// 将业务服务传递给处理程序
	handlers.InitHandler(svc)

	// 设置路由
	router := routes.SetupRouter(hub)
	log.Println("路由设置完成")

	// 启动服务器
	srv := routes.StartServer(router)
	log.Println("服务器启动成功")

	// 等待中断信号以优雅地关闭服务器
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("关闭服务器...")

	// 创建一个5秒超时的上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 不接受新请求并等待现有请求完成
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("服务器强制关闭: %v", err)
	}

	// 停止后台组件并关闭连接
	close(sweeperStop)
	queue.Stop()
	database.CloseDB()
	cache.CloseRedis()

	log.Println("服务器优雅关闭")
}
