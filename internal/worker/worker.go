package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pranaflow/backend/internal/emaillogs"
	"github.com/pranaflow/backend/internal/models"
	"github.com/pranaflow/backend/internal/video"
	"github.com/pranaflow/backend/pkg/queue"
)

// EmailProcessor consumes video notification jobs: resolve the owning
// teacher from the asset id, send the email, record the attempt.
type EmailProcessor struct {
	videoRepo *video.Repository
	logRepo   *emaillogs.Repository
	mailer    Mailer
	queue     *queue.Queue
	logger    *zap.Logger
}

// NewEmailProcessor creates a notification email processor.
func NewEmailProcessor(videoRepo *video.Repository, logRepo *emaillogs.Repository, mailer Mailer, q *queue.Queue, logger *zap.Logger) *EmailProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailProcessor{videoRepo: videoRepo, logRepo: logRepo, mailer: mailer, queue: q, logger: logger}
}

// Process executes one video email job.
func (p *EmailProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeVideoEmail {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.VideoEmailPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	notif, err := p.videoRepo.FindNotificationByAssetID(ctx, payload.AssetID)
	if err != nil {
		return fmt.Errorf("resolve recipient: %w", err)
	}
	if notif == nil {
		// Class deleted between webhook and send; nothing to notify.
		p.logger.Info("no class for asset, dropping email job", zap.String("asset_id", payload.AssetID))
		return nil
	}

	var emailType, subject, body string
	switch payload.Event {
	case video.EventAssetReady:
		emailType = "video_ready"
		subject = fmt.Sprintf("Your class %q is ready to watch", notif.ClassTitle)
		body = fmt.Sprintf("Hi %s,\n\nThe video for %q (course %q) finished processing and is now playable.\n",
			notif.TeacherName, notif.ClassTitle, notif.CourseTitle)
	case video.EventAssetErrored:
		emailType = "video_errored"
		subject = fmt.Sprintf("Video processing failed for %q", notif.ClassTitle)
		body = fmt.Sprintf("Hi %s,\n\nThe video for %q (course %q) could not be processed. Please try uploading it again.\n",
			notif.TeacherName, notif.ClassTitle, notif.CourseTitle)
	default:
		return fmt.Errorf("unknown email event: %s", payload.Event)
	}

	entry := &models.EmailLog{
		EmailType:      emailType,
		RecipientEmail: notif.TeacherEmail,
		Subject:        subject,
		Status:         models.EmailStatusSent,
	}
	if err := p.mailer.Send(notif.TeacherEmail, subject, body); err != nil {
		entry.Status = models.EmailStatusFailed
		entry.ErrorDetail = err.Error()
		if logErr := p.logRepo.Record(ctx, entry); logErr != nil {
			p.logger.Error("record email log failed", zap.Error(logErr))
		}
		return fmt.Errorf("send email: %w", err)
	}
	if err := p.logRepo.Record(ctx, entry); err != nil {
		p.logger.Error("record email log failed", zap.Error(err))
	}

	p.logger.Info("notification email sent",
		zap.String("type", emailType),
		zap.String("recipient", notif.TeacherEmail),
		zap.String("asset_id", payload.AssetID),
	)
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *EmailProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("email worker stopping")
			return
		default:
		}

		job, _, err := p.queue.Dequeue(ctx)
		if err != nil {
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
			continue
		}
	}
}
