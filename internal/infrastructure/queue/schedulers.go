package queue

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"storyforge-backend/internal/config"
	"storyforge-backend/internal/shared"
	"storyforge-backend/pkg/logger"
)

type Scheduler struct {
	scheduler *asynq.Scheduler
	exportCfg config.ExportConfig
}

func NewScheduler(redis asynq.RedisClientOpt, exportCfg config.ExportConfig) *Scheduler {
	scheduler := asynq.NewScheduler(
		redis,
		&asynq.SchedulerOpts{
			Location: time.UTC,
			LogLevel: asynq.InfoLevel,
		},
	)

	return &Scheduler{
		scheduler: scheduler,
		exportCfg: exportCfg,
	}
}

func (s *Scheduler) RegisterJobs() error {
	return s.registerRequeueStaleExportsJob()
}

// ================================================
// JOB: Requeue Stale Exports (default every 5 minutes)
// ================================================
// Export còn pending lâu hơn StaleAfter nghĩa là task đã mất (Redis flush,
// hết retry). Job này enqueue lại để export không kẹt vĩnh viễn.
func (s *Scheduler) registerRequeueStaleExportsJob() error {
	payload, err := json.Marshal(shared.RequeueStaleExportsPayload{
		OlderThanSeconds: int(s.exportCfg.StaleAfter.Seconds()),
		Limit:            100,
	})
	if err != nil {
		return err
	}

	task := asynq.NewTask(shared.TypeRequeueStaleExports, payload)

	_, err = s.scheduler.Register(
		s.exportCfg.RequeueCron,
		task,
		asynq.Queue(shared.QueueDefault),
		asynq.MaxRetry(1),
		asynq.Timeout(2*time.Minute),
	)
	if err != nil {
		logger.Error("Failed to register RequeueStaleExports job", err)
		return err
	}

	logger.Info("✓ Registered RequeueStaleExports", map[string]interface{}{
		"cron": s.exportCfg.RequeueCron,
	})
	return nil
}

// Start chạy scheduler ở background, không tự bắt signal (worker main lo shutdown)
func (s *Scheduler) Start() error {
	return s.scheduler.Start()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
