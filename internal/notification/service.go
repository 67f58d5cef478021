package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"net/smtp"
	"time"

	"github.com/redis/go-redis/v9"

	"studyon/internal/logger"
	"studyon/internal/metrics"
)

const (
	queueKey  = "studyon:emails"
	failedKey = "studyon:emails:failed"

	maxTries = 3
)

type EmailJob struct {
	To      string    `json:"to"`
	Type    string    `json:"type"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	Tries   int       `json:"tries"`
	Created time.Time `json:"created"`
}

type Service struct {
	redis    *redis.Client
	from     string
	fromName string
	smtpHost string
	smtpPort string
	smtpUser string
	smtpPass string
}

func New(fromEmail, fromName, smtpHost, smtpPort, smtpUser, smtpPass string, rdb *redis.Client) *Service {
	return &Service{
		redis:    rdb,
		from:     fromEmail,
		fromName: fromName,
		smtpHost: smtpHost,
		smtpPort: smtpPort,
		smtpUser: smtpUser,
		smtpPass: smtpPass,
	}
}

func (s *Service) enqueue(ctx context.Context, to, emailType, subject, body string) error {
	job := EmailJob{
		To:      to,
		Type:    emailType,
		Subject: subject,
		Body:    body,
		Tries:   0,
		Created: time.Now(),
	}

	data, err := json.Marshal(job)
	if err != nil {
		logger.Errorf("Failed to marshal email job: %v", err)
		return err
	}

	if err := s.redis.LPush(ctx, queueKey, data).Err(); err != nil {
		logger.Errorf("Failed to queue email to %s: %v", to, err)
		return err
	}

	metrics.RecordEmail(emailType, "queued")
	logger.Infof("Email queued: %s to %s", subject, to)
	return nil
}

// Start drains the queue until ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	logger.Info("Notification service started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("Notification service stopped")
			return
		default:
			s.processNext(ctx)
		}
	}
}

func (s *Service) processNext(ctx context.Context) {
	result, err := s.redis.BRPop(ctx, 2*time.Second, queueKey).Result()
	if err != nil {
		return
	}

	var job EmailJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		logger.Errorf("Bad email data: %v", err)
		return
	}

	job.Tries++
	logger.Infof("Sending email to %s (attempt %d)", job.To, job.Tries)
	if err := s.sendNow(job); err != nil {
		logger.Errorf("Failed to send email to %s: %v", job.To, err)

		if job.Tries < maxTries {
			time.Sleep(5 * time.Second)
			data, _ := json.Marshal(job)
			s.redis.LPush(context.Background(), queueKey, data)
			logger.Infof("Retrying email to %s (attempt %d)", job.To, job.Tries+1)
		} else {
			logger.Errorf("Email to %s failed after %d attempts", job.To, maxTries)
			metrics.RecordEmail(job.Type, "failed")
			s.saveFailed(job, err)
		}
		return
	}

	metrics.RecordEmail(job.Type, "sent")
	logger.Infof("Email sent successfully to %s", job.To)
}

func (s *Service) sendNow(job EmailJob) error {
	message := fmt.Sprintf("From: %s <%s>\r\n", s.fromName, s.from)
	message += fmt.Sprintf("To: %s\r\n", job.To)
	message += fmt.Sprintf("Subject: %s\r\n", job.Subject)
	message += "\r\n" + job.Body

	var auth smtp.Auth
	if s.smtpUser != "" && s.smtpPass != "" {
		auth = smtp.PlainAuth("", s.smtpUser, s.smtpPass, s.smtpHost)
	}

	addr := s.smtpHost + ":" + s.smtpPort
	return smtp.SendMail(addr, auth, s.from, []string{job.To}, []byte(message))
}

func (s *Service) saveFailed(job EmailJob, err error) {
	failed := map[string]interface{}{
		"job":   job,
		"error": err.Error(),
		"time":  time.Now(),
	}
	data, _ := json.Marshal(failed)
	s.redis.LPush(context.Background(), failedKey, data)
	logger.Errorf("Email moved to failed queue: %s", job.To)
}

func (s *Service) QueueLength(ctx context.Context) int64 {
	length, _ := s.redis.LLen(ctx, queueKey).Result()
	metrics.EmailQueueLength.Set(float64(length))
	return length
}

func (s *Service) SendWelcome(ctx context.Context, email string) error {
	subject := "Welcome to StudyOn"
	body := fmt.Sprintf(`Hi,

Your account %s is ready. Browse the catalog and start learning.

- StudyOn Team`, email)

	return s.enqueue(ctx, email, "welcome", subject, body)
}

func (s *Service) SendPurchaseConfirmation(ctx context.Context, email, courseTitle, courseType string, expiresAt *time.Time) error {
	subject := "Course access granted - " + courseTitle

	access := "You now own this course."
	if courseType == "rent" && expiresAt != nil {
		access = "Your rental is active until " + expiresAt.Format("Jan 2, 2006 at 3:04 PM") + "."
	}
	if courseType == "free" {
		access = "The course is free, enjoy."
	}

	body := fmt.Sprintf(`Hi,

Payment for "%s" went through. %s

- StudyOn Team`, courseTitle, access)

	return s.enqueue(ctx, email, "purchase", subject, body)
}
