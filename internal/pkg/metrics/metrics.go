package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TasksCreatedTotal 任务创建总数。
	TasksCreatedTotal prometheus.Counter
	// TasksDeletedTotal 任务（级联）删除总数。
	TasksDeletedTotal prometheus.Counter
	// SubtasksCreatedTotal 子任务创建总数（含批量替换写入）。
	SubtasksCreatedTotal prometheus.Counter
	// SubtasksReplacedTotal 批量替换操作总数。
	SubtasksReplacedTotal prometheus.Counter
)

var initOnce sync.Once

// InitMetrics 注册 Prometheus 指标。重复调用是安全的（测试会多次初始化）。
func InitMetrics() {
	initOnce.Do(func() {
		TasksCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
			Name: "tasknest_tasks_created_total",
			Help: "Total number of tasks created.",
		})
		TasksDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
			Name: "tasknest_tasks_deleted_total",
			Help: "Total number of tasks soft-deleted.",
		})
		SubtasksCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
			Name: "tasknest_subtasks_created_total",
			Help: "Total number of subtasks created.",
		})
		SubtasksReplacedTotal = promauto.NewCounter(prometheus.CounterOpts{
			Name: "tasknest_subtasks_replaced_total",
			Help: "Total number of bulk subtask replace operations.",
		})
	})
}
