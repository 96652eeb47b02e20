package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"classroom-poll-backend/config"
	"classroom-poll-backend/models"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB 是全局数据库连接
var DB *gorm.DB

// InitDB opens the configured database and migrates the schema.
//
// DB_DRIVER selects mysql (default) or sqlite. TranslateError is required:
// the vote ledger relies on gorm.ErrDuplicatedKey to detect the unique-index
// rejection of a duplicate vote across both drivers.
func InitDB() error {
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	gormCfg := &gorm.Config{
		Logger:         newLogger,
		TranslateError: true,
	}

	var err error
	switch driver := config.Get("DB_DRIVER", "mysql"); driver {
	case "sqlite":
		path := config.Get("DB_PATH", "classpoll.db")
		log.Printf("使用SQLite数据库: %s", path)
		DB, err = gorm.Open(sqlite.Open(path), gormCfg)
	default:
		dbUser := config.Get("DB_USER", "polluser")
		dbPassword := config.Get("DB_PASSWORD", "pollpassword")
		dbHost := config.Get("DB_HOST", "mysql")
		dbPort := config.Get("DB_PORT", "3306")
		dbName := config.Get("DB_NAME", "classpolldb")

		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			dbUser, dbPassword, dbHost, dbPort, dbName)

		log.Println("使用MySQL数据库")
		DB, err = gorm.Open(mysql.Open(dsn), gormCfg)
	}
	if err != nil {
		return fmt.Errorf("连接数据库失败: %v", err)
	}

	if err := Migrate(DB); err != nil {
		return fmt.Errorf("迁移模型失败: %v", err)
	}

	log.Println("数据库连接和迁移成功")
	return nil
}

// Migrate applies the schema for all models.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Poll{},
		&models.PollOption{},
		&models.Vote{},
	)
}

// CloseDB 关闭数据库连接
func CloseDB() {
	if DB == nil {
		return
	}
	sqlDB, err := DB.DB()
	if err != nil {
		log.Printf("获取数据库连接失败: %v", err)
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Printf("关闭数据库连接失败: %v", err)
		return
	}
	log.Println("数据库连接已关闭")
}
