package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTicketNotify emails the customer about a ticket status change.
	TaskTicketNotify = "ticket:notify"
	// TaskDrawerSweep flags cash drawers left open overnight.
	TaskDrawerSweep = "drawer:sweep"
)

// TicketNotifyPayload describes a status-change notification.
type TicketNotifyPayload struct {
	Email        string `json:"email"`
	TicketNumber string `json:"ticket_number"`
	FromStatus   string `json:"from_status"`
	ToStatus     string `json:"to_status"`
}

// NewTicketNotifyTask constructs an Asynq task for a status notification.
func NewTicketNotifyTask(payload TicketNotifyPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTicketNotify, body, asynq.Queue(QueueDefault)), nil
}

// DrawerSweepPayload carries scheduling metadata for the nightly sweep.
type DrawerSweepPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
	OlderThan    string    `json:"older_than"`
}

// NewDrawerSweepTask constructs the nightly drawer sweep task.
func NewDrawerSweepTask(at time.Time, olderThan time.Duration) (*asynq.Task, error) {
	payload := DrawerSweepPayload{ScheduledFor: at, OlderThan: olderThan.String()}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDrawerSweep, body, asynq.Queue(QueueDefault)), nil
}
