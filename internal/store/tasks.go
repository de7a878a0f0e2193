package store

import (
	"context"
	"errors"
	"time"

	"tasknest/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// activeTaskFilter 构造"活跃 + 属主"条件。
// 所有任务读写都必须经过该过滤器。
func activeTaskFilter(owner, id primitive.ObjectID) bson.M {
	return bson.M{"_id": id, "createdBy": owner, "isDeleted": false}
}

// CreateTask 插入新任务。调用方负责预先生成 ID 与时间戳。
func (s *Store) CreateTask(ctx context.Context, t *model.Task) error {
	_, err := s.tasks().InsertOne(ctx, t)
	return err
}

// TasksByOwner 返回属主的全部活跃任务（不保证顺序）。
func (s *Store) TasksByOwner(ctx context.Context, owner primitive.ObjectID) ([]model.Task, error) {
	cur, err := s.tasks().Find(ctx, bson.M{"createdBy": owner, "isDeleted": false})
	if err != nil {
		return nil, err
	}
	tasks := []model.Task{}
	if err := cur.All(ctx, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// TaskByID 按 ID 查找属主的活跃任务。
func (s *Store) TaskByID(ctx context.Context, owner, id primitive.ObjectID) (*model.Task, error) {
	var t model.Task
	err := s.tasks().FindOne(ctx, activeTaskFilter(owner, id)).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTaskFields 对活跃任务执行部分更新并刷新更新时间。
//
// fields 只包含调用方显式提供的字段；未提供的字段保持不变。
// 条件不匹配（不存在 / 已删除 / 非属主）返回 ErrNotFound。
func (s *Store) UpdateTaskFields(ctx context.Context, owner, id primitive.ObjectID, fields map[string]interface{}) (*model.Task, error) {
	set := bson.M{"updatedAt": time.Now()}
	for k, v := range fields {
		set[k] = v
	}
	var t model.Task
	err := s.tasks().FindOneAndUpdate(
		ctx,
		activeTaskFilter(owner, id),
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// SoftDeleteTask 软删除活跃任务。
//
// 条件更新保证了幂等语义：对已删除任务重复调用会因条件不匹配
// 返回 ErrNotFound，而不是第二次成功。
func (s *Store) SoftDeleteTask(ctx context.Context, owner, id primitive.ObjectID) error {
	res, err := s.tasks().UpdateOne(
		ctx,
		activeTaskFilter(owner, id),
		bson.M{"$set": bson.M{"isDeleted": true, "updatedAt": time.Now()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendSubtaskRef 将子任务 ID 追加到活跃任务的引用列表。
func (s *Store) AppendSubtaskRef(ctx context.Context, owner, id, subtaskID primitive.ObjectID) error {
	res, err := s.tasks().UpdateOne(
		ctx,
		activeTaskFilter(owner, id),
		bson.M{
			"$push": bson.M{"subtasks": subtaskID},
			"$set":  bson.M{"updatedAt": time.Now()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetSubtaskRefs 整体替换活跃任务的子任务引用列表。
func (s *Store) SetSubtaskRefs(ctx context.Context, owner, id primitive.ObjectID, refs []primitive.ObjectID) error {
	if refs == nil {
		refs = []primitive.ObjectID{}
	}
	res, err := s.tasks().UpdateOne(
		ctx,
		activeTaskFilter(owner, id),
		bson.M{"$set": bson.M{"subtasks": refs, "updatedAt": time.Now()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
