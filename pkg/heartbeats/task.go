package heartbeats

import (
	"context"
	"dancavallaro.com/deckuart/pkg/sched"
	"time"
)

const (
	DefaultInterval = 2000 * time.Millisecond
	DefaultMessage  = "Hello World!"
)

type Logger interface {
	Println(v ...interface{})
	Printf(format string, v ...interface{})
}

// Publisher reports a heartbeat for a device somewhere outside the process.
type Publisher interface {
	PublishHeartbeat(ctx context.Context, device string) error
}

// Task logs a fixed line every Interval, forever.
type Task struct {
	Interval   time.Duration
	Message    string
	Device     string
	Logger     Logger
	Publishers []Publisher
}

func (task Task) Spec() sched.TaskSpec {
	return sched.TaskSpec{Name: "HEARTBEAT", StackSize: 128, Priority: 1}
}

func (task Task) Run(ctx context.Context) error {
	interval := task.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	message := task.Message
	if message == "" {
		message = DefaultMessage
	}

	task.Logger.Println("Waiting for activation ...")
	for {
		if err := sched.Sleep(ctx, interval); err != nil {
			return err
		}
		task.Logger.Println(message)
		for _, pub := range task.Publishers {
			if err := pub.PublishHeartbeat(ctx, task.Device); err != nil {
				task.Logger.Printf("Failed to publish heartbeat for device %s: %v\n", task.Device, err)
			}
		}
	}
}
