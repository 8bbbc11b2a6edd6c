package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/fixpoint-app/fixpoint/internal/jobs"
	"github.com/fixpoint-app/fixpoint/internal/notify"
)

// TicketNotifyJob renders and delivers status-change emails.
type TicketNotifyJob struct {
	Mailer  notify.Mailer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewTicketNotifyJob initialises the notification handler.
func NewTicketNotifyJob(mailer notify.Mailer, logger *slog.Logger, metrics *jobmetrics.Metrics) *TicketNotifyJob {
	return &TicketNotifyJob{Mailer: mailer, Logger: logger, Metrics: metrics}
}

// Handle processes one TaskTicketNotify task.
func (j *TicketNotifyJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Mailer == nil {
		return errors.New("ticket notify: handler not configured")
	}
	var payload TicketNotifyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Email == "" || payload.TicketNumber == "" {
		return asynq.SkipRetry
	}

	tracker := j.Metrics.Track(TaskTicketNotify)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	subject := fmt.Sprintf("Repair %s update: %s", payload.TicketNumber, payload.ToStatus)
	body := fmt.Sprintf(
		"Your repair %s moved from %s to %s. Reply to this email if you have questions.",
		payload.TicketNumber, payload.FromStatus, payload.ToStatus)

	if err := j.Mailer.Send(ctx, payload.Email, subject, body); err != nil {
		resultErr = err
		j.logger().Error("send notification", slog.Any("error", err), slog.String("ticket", payload.TicketNumber))
		return resultErr
	}
	j.logger().Info("notification sent",
		slog.String("ticket", payload.TicketNumber),
		slog.String("to_status", payload.ToStatus))
	return resultErr
}

func (j *TicketNotifyJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskTicketNotify))
	}
	return slog.Default().With(slog.String("job", TaskTicketNotify))
}
