package api

import (
	"errors"
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

// createTaskRequest 创建任务的请求参数。
type createTaskRequest struct {
	Subject  string `json:"subject"`
	Deadline string `json:"deadline"`
	Status   string `json:"status"`
}

// updateTaskRequest 部分更新任务的请求参数。
//
// 指针字段区分"未提供"与"提供了空值"：未提供的字段保持不变，
// 提供了空主题/非法状态/非未来截止时间则校验失败。
type updateTaskRequest struct {
	Subject  *string `json:"subject"`
	Deadline *string `json:"deadline"`
	Status   *string `json:"status"`
}

// taskResponse 对外返回的任务结构，嵌入活跃子任务列表。
type taskResponse struct {
	ID        string          `json:"id"`
	Subject   string          `json:"subject"`
	Deadline  time.Time       `json:"deadline"`
	Status    model.Status    `json:"status"`
	CreatedBy string          `json:"createdBy"`
	Subtasks  []model.Subtask `json:"subtasks"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func newTaskResponse(t *model.Task, subtasks []model.Subtask) taskResponse {
	if subtasks == nil {
		subtasks = []model.Subtask{}
	}
	return taskResponse{
		ID:        t.ID.Hex(),
		Subject:   t.Subject,
		Deadline:  t.Deadline,
		Status:    t.Status,
		CreatedBy: t.CreatedBy.Hex(),
		Subtasks:  subtasks,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

// handleListTasks 返回属主的全部活跃任务，附带各自的活跃子任务。
//
// GET /tasks
func (s *Server) handleListTasks(c *gin.Context) {
	owner, ok := getOwnerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	tasks, err := s.tasks.TasksByOwner(c.Request.Context(), owner)
	if err != nil {
		s.logger.Error("list tasks failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list tasks failed"})
		return
	}

	resp := []taskResponse{}
	for i := range tasks {
		subtasks, err := s.subtasks.SubtasksByTask(c.Request.Context(), tasks[i].ID)
		if err != nil {
			s.logger.Error("list subtasks failed", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "list tasks failed"})
			return
		}
		resp = append(resp, newTaskResponse(&tasks[i], subtasks))
	}
	c.JSON(http.StatusOK, resp)
}

// handleCreateTask 处理创建任务的请求。
//
// POST /tasks
func (s *Server) handleCreateTask(c *gin.Context) {
	owner, ok := getOwnerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Subject is required"})
		return
	}
	deadline, msg := parseDeadline(req.Deadline)
	if msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	status, msg := parseStatus(req.Status, true)
	if msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	now := time.Now()
	task := model.Task{
		ID:        primitive.NewObjectID(),
		Subject:   subject,
		Deadline:  deadline,
		Status:    status,
		CreatedBy: owner,
		Subtasks:  []primitive.ObjectID{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.tasks.CreateTask(c.Request.Context(), &task); err != nil {
		s.logger.Error("create task failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create task failed"})
		return
	}

	metrics.TasksCreatedTotal.Inc()
	c.JSON(http.StatusCreated, newTaskResponse(&task, nil))
}

// handleUpdateTask 处理部分更新任务的请求。
//
// PUT /tasks/:id
func (s *Server) handleUpdateTask(c *gin.Context) {
	owner, ok := getOwnerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	taskID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}

	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fields := map[string]interface{}{}
	if req.Subject != nil {
		subject := strings.TrimSpace(*req.Subject)
		if subject == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Subject is required"})
			return
		}
		fields["subject"] = subject
	}
	if req.Deadline != nil {
		deadline, msg := parseDeadline(*req.Deadline)
		if msg != "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": msg})
			return
		}
		fields["deadline"] = deadline
	}
	if req.Status != nil {
		status, msg := parseStatus(*req.Status, true)
		if msg != "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": msg})
			return
		}
		fields["status"] = status
	}

	if len(fields) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no updates"})
		return
	}

	task, err := s.tasks.UpdateTaskFields(c.Request.Context(), owner, taskID, fields)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}
	if err != nil {
		s.logger.Error("update task failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update task failed"})
		return
	}

	subtasks, err := s.subtasks.SubtasksByTask(c.Request.Context(), task.ID)
	if err != nil {
		s.logger.Error("list subtasks failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update task failed"})
		return
	}
	c.JSON(http.StatusOK, newTaskResponse(task, subtasks))
}

// handleDeleteTask 软删除任务并级联软删除其全部子任务。
//
// DELETE /tasks/:id
//
// 两步写入不在同一事务中：任务标记成功而子任务标记失败时，
// 读路径的父任务活跃过滤仍保证残留子任务对外不可见。
func (s *Server) handleDeleteTask(c *gin.Context) {
	owner, ok := getOwnerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	taskID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}

	err = s.tasks.SoftDeleteTask(c.Request.Context(), owner, taskID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}
	if err != nil {
		s.logger.Error("delete task failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete task failed"})
		return
	}

	if err := s.subtasks.SoftDeleteSubtasksByTask(c.Request.Context(), taskID); err != nil {
		s.logger.Warn("cascade delete subtasks failed",
			slog.String("task_id", taskID.Hex()),
			slog.String("error", err.Error()))
	}

	metrics.TasksDeletedTotal.Inc()
	c.JSON(http.StatusOK, gin.H{"message": "task deleted"})
}
