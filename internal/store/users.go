package store

import (
	"context"
	"errors"

	"tasknest/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// CreateUser 插入新用户。
//
// 邮箱冲突（唯一索引或并发写入）返回 ErrDuplicateEmail。
func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	count, err := s.users().CountDocuments(ctx, bson.M{"email": u.Email})
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicateEmail
	}
	_, err = s.users().InsertOne(ctx, u)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateEmail
	}
	return err
}

// UserByEmail 按邮箱查找活跃用户。
func (s *Store) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := s.users().FindOne(ctx, bson.M{"email": email, "isDeleted": false}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
