package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User 表示系统用户。
type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name     string             `bson:"name" json:"name"`
	Email    string             `bson:"email" json:"email"` // 邮箱（唯一）
	Password string             `bson:"password" json:"-"`  // bcrypt 哈希

	IsDeleted bool      `bson:"isDeleted" json:"-"` // 软删除标记（用户永不硬删）
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
