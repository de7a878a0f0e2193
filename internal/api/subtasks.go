package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"tasknest/internal/model"
	"tasknest/internal/pkg/metrics"
	"tasknest/internal/store"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// subtaskSpec 创建/批量替换子任务的请求条目。
type subtaskSpec struct {
	Subject  string `json:"subject"`
	Deadline string `json:"deadline"`
	Status   string `json:"status"`
}

// replaceSubtasksRequest 批量替换子任务的请求体。
type replaceSubtasksRequest struct {
	Subtasks []subtaskSpec `json:"subtasks"`
}

// validateSubtaskSpec 校验单个子任务条目，返回可落库的字段。
// 状态可选，缺省为 pending。
func validateSubtaskSpec(spec subtaskSpec) (subject string, deadline time.Time, status model.Status, msg string) {
	subject = strings.TrimSpace(spec.Subject)
	if subject == "" {
		return "", time.Time{}, "", "Subject is required"
	}
	deadline, msg = parseDeadline(spec.Deadline)
	if msg != "" {
		return "", time.Time{}, "", msg
	}
	status, msg = parseStatus(spec.Status, false)
	if msg != "" {
		return "", time.Time{}, "", msg
	}
	return subject, deadline, status, ""
}

// parentTask 解析路径中的任务 ID 并校验"活跃 + 属主"条件。
func (s *Server) parentTask(c *gin.Context, owner primitive.ObjectID) (*model.Task, bool) {
	taskID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return nil, false
	}
	task, err := s.tasks.TaskByID(c.Request.Context(), owner, taskID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return nil, false
	}
	if err != nil {
		s.logger.Error("load task failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load task failed"})
		return nil, false
	}
	return task, true
}

// handleListSubtasks 返回父任务下的全部活跃子任务。
//
// GET /tasks/:id/subtasks
func (s *Server) handleListSubtasks(c *gin.Context) {
	owner, ok := getOwnerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	task, ok := s.parentTask(c, owner)
	if !ok {
		return
	}

	subtasks, err := s.subtasks.SubtasksByTask(c.Request.Context(), task.ID)
	if err != nil {
		s.logger.Error("list subtasks failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list subtasks failed"})
		return
	}
	c.JSON(http.StatusOK, subtasks)
}

// handleCreateSubtask 在父任务下创建子任务。
//
// POST /tasks/:id/subtasks
//
// 先写子任务，再把 ID 追加到父任务的引用列表；追加失败只记日志，
// 按父任务 ID 直查的读路径依然能找到该子任务。
func (s *Server) handleCreateSubtask(c *gin.Context) {
	owner, ok := getOwnerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	task, ok := s.parentTask(c, owner)
	if !ok {
		return
	}

	var spec subtaskSpec
	if err := c.ShouldBindJSON(&spec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	subject, deadline, status, msg := validateSubtaskSpec(spec)
	if msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	now := time.Now()
	subtask := model.Subtask{
		ID:        primitive.NewObjectID(),
		Subject:   subject,
		Deadline:  deadline,
		Status:    status,
		TaskID:    task.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.subtasks.CreateSubtask(c.Request.Context(), &subtask); err != nil {
		s.logger.Error("create subtask failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create subtask failed"})
		return
	}

	if err := s.tasks.AppendSubtaskRef(c.Request.Context(), owner, task.ID, subtask.ID); err != nil {
		s.logger.Warn("append subtask ref failed",
			slog.String("task_id", task.ID.Hex()),
			slog.String("subtask_id", subtask.ID.Hex()),
			slog.String("error", err.Error()))
	}

	metrics.SubtasksCreatedTotal.Inc()
	c.JSON(http.StatusCreated, subtask)
}

// handleReplaceSubtasks 整体替换父任务的活跃子任务集合。
//
// PUT /tasks/:id/subtasks
//
// 先校验全部条目，任一失败则整体拒绝、不触碰任何数据；
// 校验通过后：软删除现有活跃子任务 → 批量插入新子任务（全新 ID）
// → 整体替换父任务的引用列表。
func (s *Server) handleReplaceSubtasks(c *gin.Context) {
	owner, ok := getOwnerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	task, ok := s.parentTask(c, owner)
	if !ok {
		return
	}

	var req replaceSubtasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now := time.Now()
	subtasks := make([]model.Subtask, 0, len(req.Subtasks))
	refs := make([]primitive.ObjectID, 0, len(req.Subtasks))
	for i, spec := range req.Subtasks {
		subject, deadline, status, msg := validateSubtaskSpec(spec)
		if msg != "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("subtasks[%d]: %s", i, msg)})
			return
		}
		st := model.Subtask{
			ID:        primitive.NewObjectID(),
			Subject:   subject,
			Deadline:  deadline,
			Status:    status,
			TaskID:    task.ID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		subtasks = append(subtasks, st)
		refs = append(refs, st.ID)
	}

	if err := s.subtasks.SoftDeleteSubtasksByTask(c.Request.Context(), task.ID); err != nil {
		s.logger.Error("replace subtasks failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "replace subtasks failed"})
		return
	}
	if err := s.subtasks.CreateSubtasks(c.Request.Context(), subtasks); err != nil {
		s.logger.Error("replace subtasks failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "replace subtasks failed"})
		return
	}
	if err := s.tasks.SetSubtaskRefs(c.Request.Context(), owner, task.ID, refs); err != nil {
		s.logger.Error("replace subtask refs failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "replace subtasks failed"})
		return
	}

	metrics.SubtasksReplacedTotal.Inc()
	c.JSON(http.StatusOK, subtasks)
}
