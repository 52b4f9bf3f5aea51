package main

import (
	"github.com/hibiken/asynq"

	exportJob "storyforge-backend/internal/domains/export/job"
	"storyforge-backend/internal/infrastructure/email"
	emailjob "storyforge-backend/internal/infrastructure/email/job"
	"storyforge-backend/internal/shared"
	"storyforge-backend/pkg/container"
)

// HandlerRegistry holds all job handlers
type HandlerRegistry struct {
	// Export handlers
	generateExport *exportJob.GenerateExportHandler
	requeueStale   *exportJob.RequeueStaleHandler

	// Email handlers
	resetPassword *emailjob.ResetPasswordEmailHandler
}

// initializeHandlers creates all job handlers with their dependencies
func initializeHandlers(c *container.Container) *HandlerRegistry {
	// Initialize services
	smtpCfg := c.Config.SMTP
	emailSvc := email.NewSMTPService(smtpCfg.Host, smtpCfg.Port, smtpCfg.From)

	return &HandlerRegistry{
		generateExport: exportJob.NewGenerateExportHandler(c.ExportProcessor),
		requeueStale:   exportJob.NewRequeueStaleHandler(c.ExportProcessor),
		resetPassword:  emailjob.NewResetPasswordEmailHandler(emailSvc),
	}
}

// RegisterHandlers registers all handlers with the mux
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	// Export tasks
	mux.HandleFunc(shared.TypeGenerateExport, h.generateExport.ProcessTask)

	// Maintenance tasks
	mux.HandleFunc(shared.TypeRequeueStaleExports, h.requeueStale.ProcessTask)

	// Email tasks
	mux.HandleFunc(shared.TypeSendResetEmail, h.resetPassword.ProcessTask)
}
