package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/user/yamdb/internal/config"
	"github.com/user/yamdb/internal/logger"
	"github.com/user/yamdb/internal/model"
)

// InitDB 初始化数据库连接，driver 支持 postgres / mysql / sqlite
func InitDB(driver, dsn string, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("不支持的数据库驱动: %s", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.NewGormLogger(log, gormlogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("无法连接数据库: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}

	// 测试连接
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库 ping 失败: %w", err)
	}

	// 设置连接池，sqlite 只允许单连接写入
	if driver == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
		if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return nil, fmt.Errorf("启用外键失败: %w", err)
		}
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
	}

	log.Info("数据库连接成功", zap.String("driver", driver))
	return db, nil
}

// Open 按配置连接数据库并迁移表结构
func Open(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	db, err := InitDB(cfg.DB.Driver, cfg.DatabaseDSN(), log)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}
	return db, nil
}

// Migrate 自动迁移表结构
func Migrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&model.Title{}, "Genres", &model.GenreTitle{}); err != nil {
		return fmt.Errorf("配置关联表失败: %w", err)
	}
	return db.AutoMigrate(
		&model.User{},
		&model.Category{},
		&model.Genre{},
		&model.Title{},
		&model.GenreTitle{},
		&model.Review{},
		&model.Comment{},
	)
}

// Repositories 仓库集合
type Repositories struct {
	db       *gorm.DB
	User     UserRepository
	Category TaxonomyRepository[model.Category]
	Genre    TaxonomyRepository[model.Genre]
	Title    TitleRepository
	Review   ReviewRepository
	Comment  CommentRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		db:       db,
		User:     NewUserRepository(db),
		Category: NewCategoryRepository(db),
		Genre:    NewGenreRepository(db),
		Title:    NewTitleRepository(db),
		Review:   NewReviewRepository(db),
		Comment:  NewCommentRepository(db),
	}
}

// DB 底层连接
func (r *Repositories) DB() *gorm.DB {
	return r.db
}

// Transaction 在同一事务中执行 fn，fn 收到绑定事务的仓库集合
func (r *Repositories) Transaction(ctx context.Context, fn func(tx *Repositories) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}
