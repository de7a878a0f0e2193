package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Status 表示任务/子任务的执行状态。
type Status string

const (
	StatusPending    Status = "pending"     // 待处理
	StatusInProgress Status = "in-progress" // 进行中
	StatusCompleted  Status = "completed"   // 已完成
)

// Statuses 返回所有合法状态值，用于校验错误提示。
func Statuses() []Status {
	return []Status{StatusPending, StatusInProgress, StatusCompleted}
}

// Valid 判断状态值是否在枚举范围内。
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Task 表示一个用户创建的任务。
//
// 任务归属于唯一的用户（CreatedBy），并通过 Subtasks 持有子任务的引用列表。
// 删除采用软删除：IsDeleted 置位后任务对所有读路径不可见。
type Task struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"` // 任务唯一标识
	Subject   string             `bson:"subject" json:"subject"`  // 任务主题（非空）
	Deadline  time.Time          `bson:"deadline" json:"deadline"`
	Status    Status             `bson:"status" json:"status"` // pending / in-progress / completed
	CreatedBy primitive.ObjectID `bson:"createdBy" json:"createdBy"`

	Subtasks []primitive.ObjectID `bson:"subtasks" json:"subtaskIds"` // 子任务引用列表

	IsDeleted bool      `bson:"isDeleted" json:"-"` // 软删除标记
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Subtask 表示任务下的子任务。
//
// 子任务归属于唯一的父任务（TaskID），不直接归属用户；
// 只有父任务满足"活跃 + 属主"条件时才可达。
type Subtask struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Subject  string             `bson:"subject" json:"subject"`
	Deadline time.Time          `bson:"deadline" json:"deadline"`
	Status   Status             `bson:"status" json:"status"`
	TaskID   primitive.ObjectID `bson:"taskId" json:"taskId"` // 父任务 ID

	IsDeleted bool      `bson:"isDeleted" json:"-"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
