package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"tasknest/internal/api/auth"
	"tasknest/internal/api/middleware"
	"tasknest/internal/config"
	"tasknest/internal/model"
	"tasknest/internal/pkg/metrics"
	"tasknest/internal/pkg/revoke"
	"tasknest/internal/pkg/token"
	"tasknest/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Server 封装了 API 服务所需的依赖和路由处理。
//
// 它持有 MongoDB 持久层、Redis 客户端、令牌服务以及 Gin 路由引擎。
type Server struct {
	cfg      *config.Config
	logger   *slog.Logger
	db       *store.Store
	rdb      *redis.Client
	router   *gin.Engine
	auth     *auth.Handler
	tasks    TaskStore
	subtasks SubtaskStore
}

// TaskStore 是任务生命周期所需的持久层操作。
type TaskStore interface {
	CreateTask(ctx context.Context, t *model.Task) error
	TasksByOwner(ctx context.Context, owner primitive.ObjectID) ([]model.Task, error)
	TaskByID(ctx context.Context, owner, id primitive.ObjectID) (*model.Task, error)
	UpdateTaskFields(ctx context.Context, owner, id primitive.ObjectID, fields map[string]interface{}) (*model.Task, error)
	SoftDeleteTask(ctx context.Context, owner, id primitive.ObjectID) error
	AppendSubtaskRef(ctx context.Context, owner, id, subtaskID primitive.ObjectID) error
	SetSubtaskRefs(ctx context.Context, owner, id primitive.ObjectID, refs []primitive.ObjectID) error
}

// SubtaskStore 是子任务生命周期所需的持久层操作。
type SubtaskStore interface {
	CreateSubtask(ctx context.Context, st *model.Subtask) error
	CreateSubtasks(ctx context.Context, sts []model.Subtask) error
	SubtasksByTask(ctx context.Context, taskID primitive.ObjectID) ([]model.Subtask, error)
	SoftDeleteSubtasksByTask(ctx context.Context, taskID primitive.ObjectID) error
}

// NewServer 初始化 API 服务器。
//
// 它负责：
// 1. 连接 MongoDB 并创建索引
// 2. 连接 Redis
// 3. 初始化令牌服务与 Gin 路由引擎
//
// 参数:
//
//	ctx: 上下文
//	cfg: 配置对象
//	logger: 日志记录器
//
// 返回值:
//
//	*Server: 初始化完成的服务器实例
//	error: 初始化失败返回错误
func NewServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := store.Open(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		return nil, err
	}
	if err := db.EnsureIndexes(ctx); err != nil {
		return nil, err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       0,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	tokens := token.NewService(cfg.Security.JWTSecret, cfg.Security.TokenTTL)
	revoked := revoke.NewStore(rdb)

	metrics.InitMetrics()

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		rdb:      rdb,
		router:   r,
		auth:     auth.NewHandler(db, tokens, revoked, logger),
		tasks:    db,
		subtasks: db,
	}
	s.registerRoutes(tokens, revoked)
	return s, nil
}

// Router 返回 HTTP 路由处理器。
func (s *Server) Router() http.Handler {
	return s.router
}

// Close 关闭数据库与缓存连接。
func (s *Server) Close(ctx context.Context) error {
	var firstErr error
	if s.rdb != nil {
		if err := s.rdb.Close(); err != nil {
			firstErr = err
		}
	}
	if s.db != nil {
		if err := s.db.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// registerRoutes 注册所有的 API 路由。
func (s *Server) registerRoutes(tokens *token.Service, revoked *revoke.Store) {
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.router.GET("/healthz", s.handleHealthz)

	s.router.POST("/register", s.auth.Register)
	s.router.POST("/login", s.auth.Login)

	authed := s.router.Group("/")
	authed.Use(middleware.AuthMiddleware(tokens, revoked))
	authed.Use(middleware.ActivityMiddleware(s.rdb, s.cfg.App.ActivityTTL))
	authed.POST("/logout", s.auth.Logout)
	authed.GET("/tasks", s.handleListTasks)
	authed.POST("/tasks", s.handleCreateTask)
	authed.PUT("/tasks/:id", s.handleUpdateTask)
	authed.DELETE("/tasks/:id", s.handleDeleteTask)
	authed.GET("/tasks/:id/subtasks", s.handleListSubtasks)
	authed.POST("/tasks/:id/subtasks", s.handleCreateSubtask)
	authed.PUT("/tasks/:id/subtasks", s.handleReplaceSubtasks)
}

func (s *Server) handleHealthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if s.db == nil || s.rdb == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error"})
		return
	}

	if err := s.db.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error"})
		return
	}
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// getOwnerID 从上下文取出属主 ID（由 AuthMiddleware 写入）。
func getOwnerID(c *gin.Context) (primitive.ObjectID, bool) {
	raw := c.GetString(middleware.CtxUserID)
	if raw == "" {
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}
