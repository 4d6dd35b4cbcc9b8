package hadevice

import (
	"context"
	"time"
)

// Delays are the pauses a Device takes to let Home Assistant catch up. Zero durations do not wait.
type Delays struct {
	// Discovery is waited after every PublishDiscovery so entities exist before state is published.
	Discovery time.Duration `yaml:"discovery"`
	// OnlineBefore and OnlineAfter bracket the availability publish in Online.
	OnlineBefore time.Duration `yaml:"online_before"`
	OnlineAfter  time.Duration `yaml:"online_after"`
}

// DefaultDelays are used by NewDevice unless WithDelays is provided.
var DefaultDelays = Delays{
	Discovery:    2 * time.Second,
	OnlineBefore: time.Second,
	OnlineAfter:  time.Second,
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the default SleepFunc. It returns the cause of ctx if ctx is done before d elapses.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return context.Cause(ctx)
	}
}
