package reload

import (
	"context"
	"os"
	"time"

	"github.com/yanun0323/logs"
)

const DefaultPollInterval = time.Second

// PollFiles watches file modification times and feeds the trigger.
// It is one possible notification source; the trigger does not care
// which one is in front of it. Missing files are tolerated and start
// reporting once they appear.
func PollFiles(ctx context.Context, trigger *Trigger, interval time.Duration, paths ...string) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastMod := make(map[string]time.Time, len(paths))
	for _, path := range paths {
		if info, err := os.Stat(path); err == nil {
			lastMod[path] = info.ModTime()
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, path := range paths {
				info, err := os.Stat(path)
				if err != nil {
					continue
				}
				if info.ModTime().After(lastMod[path]) {
					lastMod[path] = info.ModTime()
					logs.Infof("config file changed: %s", path)
					trigger.Notify()
				}
			}
		}
	}
}
