package command

import (
	"context"
	"time"

	"github.com/frantjc/goapk"
	"github.com/frantjc/goapk/adb"
)

// tailLogcat streams the launched app's log until the app exits,
// mirroring what a developer would do by hand after `run`.
func tailLogcat(ctx context.Context, bridge adb.Command, serial, pkg string) error {
	var (
		log     = goapk.LoggerFrom(ctx)
		waiting = false
		pid     string
	)

	for {
		var err error
		if pid, err = bridge.Pidof(ctx, serial, pkg); err == nil {
			break
		} else if !waiting {
			waiting = true
			log.Info("waiting for the app to start")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Millisecond * 250):
		}
	}

	logcat, err := bridge.Logcat(ctx, serial, pid)
	if err != nil {
		return err
	}
	defer func() {
		_ = logcat.Process.Kill()
		_ = logcat.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}

		if _, err := bridge.Pidof(ctx, serial, pkg); err != nil {
			return nil
		}
	}
}
