package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// SessionCloser is implemented by the attendance service.
type SessionCloser interface {
	AutoCloseExpired(ctx context.Context, now time.Time) (int, error)
}

type cronLogger struct{ log *zap.Logger }

func (l cronLogger) Info(msg string, kv ...any) {
	l.log.Debug(msg, zap.Any("kv", kv))
}

func (l cronLogger) Error(err error, msg string, kv ...any) {
	l.log.Error(msg, zap.Error(err), zap.Any("kv", kv))
}

// RunOnce closes expired sessions with a bounded context.
func RunOnce(closer SessionCloser, timeout time.Duration, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	n, err := closer.AutoCloseExpired(ctx, time.Now().UTC())
	if err != nil {
		log.Error("[SESSION-REAPER] gagal menutup sesi", zap.Error(err))
		return
	}
	if n > 0 {
		log.Info("[SESSION-REAPER] sesi ditutup", zap.Int("count", n))
	}
}

// StartSessionAutoClose registers the job and starts the cron runner. The
// caller stops it on shutdown. An empty spec disables the job.
func StartSessionAutoClose(closer SessionCloser, spec string, log *zap.Logger) (*cron.Cron, error) {
	if log == nil {
		log = zap.NewNop()
	}
	cl := cronLogger{log: log.Named("cron")}
	c := cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))
	if spec == "" {
		log.Warn("[SESSION-REAPER] dinonaktifkan (ATTENDANCE_AUTOCLOSE_CRON=off)")
		return c, nil
	}
	if _, err := c.AddFunc(spec, func() { RunOnce(closer, 30*time.Second, log) }); err != nil {
		return nil, err
	}
	log.Info("[SESSION-REAPER] started", zap.String("schedule", spec))
	c.Start()
	return c, nil
}
