package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/leobar37/welllink-sub003/internal/logger"
	"github.com/leobar37/welllink-sub003/internal/metrics"
)

const (
	queueKey  = "notifications"
	failedKey = "notifications:failed"

	maxTries   = 3
	retryDelay = 5 * time.Second
)

// Job is one WhatsApp message waiting in the redis queue.
type Job struct {
	Phone   string    `json:"phone"`
	Name    string    `json:"name"`
	Type    string    `json:"type"`
	Message string    `json:"message"`
	Tries   int       `json:"tries"`
	Created time.Time `json:"created"`
}

type gatewayPayload struct {
	Sender  string `json:"sender"`
	To      string `json:"to"`
	Message string `json:"message"`
}

type Service struct {
	redis      *redis.Client
	gatewayURL string
	sender     string
	httpClient *http.Client
}

func New(redisAddr, gatewayURL, sender string) *Service {
	return &Service{
		redis: redis.NewClient(&redis.Options{
			Addr: redisAddr,
		}),
		gatewayURL: gatewayURL,
		sender:     sender,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// NewWithClient is used by tests to inject a mocked redis client.
func NewWithClient(client *redis.Client, gatewayURL, sender string) *Service {
	return &Service{
		redis:      client,
		gatewayURL: gatewayURL,
		sender:     sender,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *Service) Send(ctx context.Context, phone, name, notificationType, message string) error {
	job := Job{
		Phone:   phone,
		Name:    name,
		Type:    notificationType,
		Message: message,
		Tries:   0,
		Created: time.Now(),
	}

	data, err := json.Marshal(job)
	if err != nil {
		logger.Errorf("Failed to marshal notification job: %v", err)
		return err
	}

	if err := s.redis.LPush(ctx, queueKey, data).Err(); err != nil {
		logger.Errorf("Failed to queue notification to %s: %v", phone, err)
		metrics.RecordNotification(notificationType, "queue_error")
		return err
	}

	metrics.RecordNotification(notificationType, "queued")
	metrics.NotificationQueueLength.Set(float64(s.QueueLength(ctx)))
	logger.Infof("Notification queued: %s to %s", notificationType, phone)
	return nil
}

func (s *Service) Start(ctx context.Context) {
	logger.Info("Notification worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("Notification worker stopped")
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

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		logger.Errorf("Bad notification data: %v", err)
		return
	}

	job.Tries++
	logger.Infof("Sending notification to %s (attempt %d)", job.Phone, job.Tries)
	if err := s.dispatch(ctx, job); err != nil {
		logger.Errorf("Failed to send notification to %s: %v", job.Phone, err)

		if job.Tries < maxTries {
			time.Sleep(retryDelay)
			data, _ := json.Marshal(job)
			s.redis.LPush(context.Background(), queueKey, data)
			logger.Infof("Retrying notification to %s (attempt %d)", job.Phone, job.Tries+1)
		} else {
			logger.Errorf("Notification to %s failed after %d attempts", job.Phone, maxTries)
			metrics.RecordNotification(job.Type, "failed")
			s.saveFailed(job, err)
		}
		return
	}

	metrics.RecordNotification(job.Type, "sent")
	metrics.NotificationQueueLength.Set(float64(s.QueueLength(ctx)))
	logger.Infof("Notification sent successfully to %s", job.Phone)
}

func (s *Service) dispatch(ctx context.Context, job Job) error {
	payload, err := json.Marshal(gatewayPayload{
		Sender:  s.sender,
		To:      job.Phone,
		Message: job.Message,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.gatewayURL+"/messages", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	return nil
}

func (s *Service) saveFailed(job Job, err error) {
	failed := map[string]interface{}{
		"job":   job,
		"error": err.Error(),
		"time":  time.Now(),
	}
	data, _ := json.Marshal(failed)
	s.redis.LPush(context.Background(), failedKey, data)
	logger.Errorf("Notification moved to failed queue: %s", job.Phone)
}

func (s *Service) QueueLength(ctx context.Context) int64 {
	length, _ := s.redis.LLen(ctx, queueKey).Result()
	return length
}

func (s *Service) Close() error {
	return s.redis.Close()
}

func (s *Service) ReservationReceived(ctx context.Context, advisorPhone, patientName string, requestedTime time.Time, reference string) error {
	message := fmt.Sprintf(`New reservation request from %s.

Requested time: %s
Reference: %s

Open your dashboard to approve or reject it before it expires.`,
		patientName, requestedTime.Format("Jan 2, 2006 at 3:04 PM"), reference)

	return s.Send(ctx, advisorPhone, patientName, "reservation_received", message)
}

func (s *Service) ReservationApproved(ctx context.Context, patientPhone, patientName string, requestedTime time.Time) error {
	message := fmt.Sprintf(`Hi %s, your appointment is confirmed!

Time: %s

See you then.`, patientName, requestedTime.Format("Jan 2, 2006 at 3:04 PM"))

	return s.Send(ctx, patientPhone, patientName, "reservation_approved", message)
}

func (s *Service) ReservationRejected(ctx context.Context, patientPhone, patientName, reason string) error {
	message := fmt.Sprintf("Hi %s, unfortunately your appointment request could not be confirmed.", patientName)
	if reason != "" {
		message += "\n\nReason: " + reason
	}
	message += "\n\nPlease pick another available time."

	return s.Send(ctx, patientPhone, patientName, "reservation_rejected", message)
}
