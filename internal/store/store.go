package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound 表示目标文档不存在，或不满足"活跃 + 属主"条件。
// 两种情况刻意不作区分，避免向非属主泄露存在性。
var ErrNotFound = errors.New("not found")

// ErrDuplicateEmail 表示注册邮箱已被占用。
var ErrDuplicateEmail = errors.New("email already exists")

// Store 封装 MongoDB 持久层。
//
// 所有写操作都是单文档条件更新（条件匹配 + $set），不使用多文档事务；
// 跨多步的操作（级联删除、批量替换）的部分失败窗口由上层读路径的
// 活跃过滤兜底。
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Open 连接 MongoDB 并返回 Store。
//
// 参数:
//
//	ctx: 上下文
//	uri: 连接串（如 "mongodb://localhost:27017"）
//	database: 数据库名
//
// 返回值:
//
//	*Store: 初始化完成的持久层实例
//	error: 连接或探活失败返回错误
func Open(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return &Store{client: client, db: client.Database(database)}, nil
}

// EnsureIndexes 创建集合索引（邮箱唯一索引、属主/父任务查询索引）。
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.users().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}
	_, err = s.tasks().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdBy", Value: 1}, {Key: "isDeleted", Value: 1}},
	})
	if err != nil {
		return err
	}
	_, err = s.subtasks().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "taskId", Value: 1}, {Key: "isDeleted", Value: 1}},
	})
	return err
}

// Ping 探活数据库连接。
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close 断开数据库连接。
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) users() *mongo.Collection    { return s.db.Collection("users") }
func (s *Store) tasks() *mongo.Collection    { return s.db.Collection("tasks") }
func (s *Store) subtasks() *mongo.Collection { return s.db.Collection("subtasks") }
