package routes

import (
	"log"
	"net/http"
	"os"
	"time"

	"classroom-poll-backend/handlers"
	"classroom-poll-backend/realtime"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Server 是HTTP服务器的封装
type Server struct {
	*http.Server
}

// SetupRouter 设置和配置Gin路由
func SetupRouter(hub *realtime.Hub) *gin.Engine {
	// 创建Gin路由器
	router := gin.Default()

	// 配置CORS中间件
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"}, // 生产环境中应限制为前端域名
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// 初始化限流器
	handlers.InitRateLimiters()

	// 定义API路由
	api := router.Group("/api")
	{
		// 全局API限流中间件
		api.Use(handlers.RateLimitMiddleware())

		// 健康检查和状态端点
		api.GET("/health", handlers.HealthCheck)
		api.GET("/status", handlers.SystemStatus)
		api.GET("/ratelimit/stats", handlers.GetRateLimiterStats)

		// 用户端点
		api.POST("/users", handlers.CreateUser)
		api.GET("/users", handlers.GetUser)

		// 轮询问题管理端点
		polls := api.Group("/polls")
		{
			polls.POST("", handlers.CreatePoll)
			polls.GET("", handlers.GetPolls)
			polls.GET("/:id", handlers.GetPoll)
			polls.POST("/:id/start", handlers.StartPoll)
			polls.POST("/:id/end", handlers.EndPoll)
			polls.POST("/:id/vote", handlers.SubmitVote)
			polls.GET("/:id/results", handlers.GetLiveResults)
			polls.GET("/:id/votes", handlers.GetPollVotes)
			polls.GET("/:id/has-voted", handlers.HasVoted)
		}

		// 这些端点不放在 /polls 组里，避免与 /polls/:id 通配路由冲突
		api.GET("/active-poll", handlers.GetActivePoll)
		api.GET("/can-start", handlers.CanStartNewPoll)
		api.GET("/next-poll", handlers.GetNextPoll)

		// 教师侧视图端点
		api.GET("/participants", handlers.GetParticipants)
		api.GET("/dashboard", handlers.GetDashboard)
		api.GET("/progress", handlers.GetStudentProgress)
	}

	// WebSocket端点
	router.GET("/ws", realtime.HandleWebSocket(hub))

	return router
}

// StartServer 启动HTTP服务器
func StartServer(router *gin.Engine) *Server {
	// 从环境变量获取端口，默认为8090
	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8090" // 默认端口
	}

	addr := ":" + port

	srv := &Server{
		&http.Server{
			Addr:    addr,
			Handler: router,
		},
	}

	// 在单独的goroutine中启动服务器
	go func() {
		log.Printf("服务器启动在 %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("服务器启动失败: %v", err)
		}
	}()

	return srv
}
