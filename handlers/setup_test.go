package handlers

import (
	"log"
	"testing"

	"classroom-poll-backend/database"
	"classroom-poll-backend/models"
	"classroom-poll-backend/realtime"
	"classroom-poll-backend/scheduler"
	"classroom-poll-backend/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestEnvironment sets up the Gin router and in-memory SQLite database for testing.
func SetupTestEnvironment(t *testing.T) (*gin.Engine, *gorm.DB) {
	testing.Init()
	gin.SetMode(gin.TestMode)

	// Use in-memory SQLite for testing
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		// Silence GORM logger for tests unless needed
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		log.Fatalf("Failed to connect to in-memory database: %v", err)
	}

	// A single connection keeps concurrent writers queued instead of
	// failing with SQLITE_BUSY.
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to access underlying sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	// Assign the test database to the global DB variable
	database.DB = db

	// Migrate the schema
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Wire the realtime hub and an in-memory auto-end queue
	hub := realtime.NewHub()
	go hub.Run()

	queue := scheduler.NewQueue(nil, nil)
	s := service.New(hub, queue)
	queue.Start(s.AutoEndPoll)
	InitHandler(s)

	// Clean up function to close DB connection after tests
	t.Cleanup(func() {
		queue.Stop()
		sqlDB, _ := database.DB.DB()
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	})

	// Setup Router
	router := gin.Default()
	// CORS Middleware (might not be strictly needed for unit tests but good for consistency)
	config := cors.DefaultConfig()
	config.AllowOrigins = []string{"*"}
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	router.Use(cors.New(config))

	// Setup Routes (same as in routes.SetupRouter)
	api := router.Group("/api")
	{
		api.GET("/health", HealthCheck)
		api.GET("/status", SystemStatus)

		api.POST("/users", CreateUser)
		api.GET("/users", GetUser)

		polls := api.Group("/polls")
		{
			polls.POST("", CreatePoll)
			polls.GET("", GetPolls)
			polls.GET("/:id", GetPoll)
			polls.POST("/:id/start", StartPoll)
			polls.POST("/:id/end", EndPoll)
			polls.POST("/:id/vote", SubmitVote)
			polls.GET("/:id/results", GetLiveResults)
			polls.GET("/:id/votes", GetPollVotes)
			polls.GET("/:id/has-voted", HasVoted)
		}

		api.GET("/active-poll", GetActivePoll)
		api.GET("/can-start", CanStartNewPoll)
		api.GET("/next-poll", GetNextPoll)

		api.GET("/participants", GetParticipants)
		api.GET("/dashboard", GetDashboard)
		api.GET("/progress", GetStudentProgress)
	}

	return router, db
}

// Helper function to clear tables between tests if needed
func ClearTables(db *gorm.DB) {
	// Order matters due to foreign key constraints. Unscoped so the
	// unique indexes do not keep matching soft-deleted rows.
	db.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(&models.Vote{})
	db.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(&models.PollOption{})
	db.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(&models.Poll{})
	db.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(&models.User{})
}
