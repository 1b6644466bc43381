package jobs

import (
	"fmt"
	"time"

	"garment_portal_gateway/internal/config"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Sweeper evicts expired client sessions and reports how many remain.
type Sweeper interface {
	Sweep() int
}

// SessionSweepJob periodically evicts idle client sessions.
type SessionSweepJob struct {
	sessions      Sweeper
	logger        *zap.Logger
	cfg           *config.Config
	cronScheduler *cron.Cron
}

// NewSessionSweepJob creates a new SessionSweepJob.
func NewSessionSweepJob(sessions Sweeper, logger *zap.Logger, cfg *config.Config) *SessionSweepJob {
	scheduler := cron.New(
		cron.WithLogger(NewCronLogger(logger.Named("cron"))),
		cron.WithChain(cron.SkipIfStillRunning(NewCronLogger(logger.Named("cron")))),
	)
	return &SessionSweepJob{
		sessions:      sessions,
		logger:        logger.Named("SessionSweepJob"),
		cfg:           cfg,
		cronScheduler: scheduler,
	}
}

// SetupAndStart schedules and starts the cron job.
func (j *SessionSweepJob) SetupAndStart() error {
	jobSpec := j.cfg.SessionSweepSchedule
	if jobSpec == "" {
		j.logger.Warn("Session sweep schedule not defined (SESSION_SWEEP_SCHEDULE). Idle sessions will only expire lazily.")
		return nil
	}

	jobID, err := j.cronScheduler.AddFunc(jobSpec, j.Run)
	if err != nil {
		j.logger.Error("Failed to schedule session sweep job", zap.String("spec", jobSpec), zap.Error(err))
		return err
	}

	j.logger.Info("Session sweep job scheduled", zap.String("spec", jobSpec), zap.Any("jobID", jobID))
	j.cronScheduler.Start()
	return nil
}

// Run performs one sweep.
func (j *SessionSweepJob) Run() {
	remaining := j.sessions.Sweep()
	j.logger.Debug("Session sweep completed", zap.Int("sessions_remaining", remaining))
}

// Stop gracefully stops the cron scheduler.
func (j *SessionSweepJob) Stop() {
	if j.cronScheduler == nil {
		return
	}
	j.logger.Info("Stopping session sweep job scheduler...")
	stopCtx := j.cronScheduler.Stop()
	select {
	case <-stopCtx.Done():
		j.logger.Info("Session sweep job scheduler stopped gracefully.")
	case <-time.After(10 * time.Second):
		j.logger.Warn("Session sweep job scheduler stop timed out.")
	}
}

// cronLogger adapts zap.Logger to cron.Logger interface.
type cronLogger struct {
	zl *zap.Logger
}

// NewCronLogger creates a new cronLogger.
func NewCronLogger(zl *zap.Logger) cron.Logger {
	return &cronLogger{zl: zl}
}

// Info logs routine messages from cron. They are noisy, so they go to debug.
func (cl *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	cl.zl.Debug(msg, cl.parseKeysAndValues(keysAndValues...)...)
}

// Error logs error messages from cron.
func (cl *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := cl.parseKeysAndValues(keysAndValues...)
	fields = append(fields, zap.Error(err))
	cl.zl.Error(msg, fields...)
}

func (cl *cronLogger) parseKeysAndValues(keysAndValues ...interface{}) []zap.Field {
	var fields []zap.Field
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 < len(keysAndValues) {
			fields = append(fields, zap.Any(fmt.Sprintf("%v", keysAndValues[i]), keysAndValues[i+1]))
		} else {
			fields = append(fields, zap.Any(fmt.Sprintf("%v", keysAndValues[i]), "MISSING_VALUE"))
		}
	}
	return fields
}
