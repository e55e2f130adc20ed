// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package watch converts new packing lists dropped into an inbox directory
// on a cron schedule.
package watch

import (
	"context"
	"fmt"
	"io"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/pdiddy/cmr-converter/internal/convert"
)

// DirConverter converts every document in a directory.
type DirConverter interface {
	ConvertDir(ctx context.Context, dir string, w io.Writer) (convert.BatchResult, error)
}

// Run scans dir once immediately and then on every tick of schedule until
// ctx is cancelled. A tick that arrives while a scan is still running is
// dropped, so documents are never processed concurrently.
func Run(ctx context.Context, schedule string, conv DirConverter, dir string, w io.Writer, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	cl := cronLogger{log.Sugar()}

	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	scan := func() {
		if ctx.Err() != nil {
			return
		}
		result, err := conv.ConvertDir(ctx, dir, w)
		if err != nil {
			log.Error("scan failed", zap.String("dir", dir), zap.Error(err))
			return
		}
		if result.Total() > 0 {
			log.Info("scan finished",
				zap.Int("converted", result.Converted),
				zap.Int("skipped", result.Skipped),
				zap.Int("failed", result.Failed))
		}
	}

	if _, err := c.AddFunc(schedule, scan); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	log.Info("watching", zap.String("dir", dir), zap.String("schedule", schedule))
	scan()

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	log.Info("watch stopped", zap.String("dir", dir))
	return nil
}

// cronLogger routes cron's logging through zap.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
