package store

import (
	"context"
	"time"

	"tasknest/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CreateSubtask 插入单个子任务。
func (s *Store) CreateSubtask(ctx context.Context, st *model.Subtask) error {
	_, err := s.subtasks().InsertOne(ctx, st)
	return err
}

// CreateSubtasks 批量插入子任务（批量替换的写入步骤）。
func (s *Store) CreateSubtasks(ctx context.Context, sts []model.Subtask) error {
	if len(sts) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(sts))
	for i := range sts {
		docs = append(docs, sts[i])
	}
	_, err := s.subtasks().InsertMany(ctx, docs)
	return err
}

// SubtasksByTask 返回父任务下的全部活跃子任务。
// 过滤发生在查询本身：已删除的子任务不会出现在结果中。
func (s *Store) SubtasksByTask(ctx context.Context, taskID primitive.ObjectID) ([]model.Subtask, error) {
	cur, err := s.subtasks().Find(ctx, bson.M{"taskId": taskID, "isDeleted": false})
	if err != nil {
		return nil, err
	}
	subtasks := []model.Subtask{}
	if err := cur.All(ctx, &subtasks); err != nil {
		return nil, err
	}
	return subtasks, nil
}

// SoftDeleteSubtasksByTask 软删除父任务下的全部子任务。
//
// 不限定当前标记状态（幂等），级联删除重放不会报错。
func (s *Store) SoftDeleteSubtasksByTask(ctx context.Context, taskID primitive.ObjectID) error {
	_, err := s.subtasks().UpdateMany(
		ctx,
		bson.M{"taskId": taskID},
		bson.M{"$set": bson.M{"isDeleted": true, "updatedAt": time.Now()}},
	)
	return err
}
