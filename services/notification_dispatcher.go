package services

import (
	"context"
	"sync"
	"time"

	"habitsAPI/internal/logger"
	"habitsAPI/internal/metrics"
	"habitsAPI/internal/types/notification"
)

type PushNotificationProvider interface {
	SendPush(ctx context.Context, tokens []notification.DeviceToken, title, body string, data map[string]any) error
}

// NotificationDispatcher delivers stored notifications to devices on a small worker pool.
type NotificationDispatcher struct {
	pushProvider PushNotificationProvider
	workers      int
	jobQueue     chan *DispatchJob
	stopChan     chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
	mu           sync.RWMutex
}

type DispatchJob struct {
	Notification *notification.Notification
	Tokens       []notification.DeviceToken
}

func NewNotificationDispatcher(workers, queueSize int) *NotificationDispatcher {
	if workers <= 0 {
		workers = 5
	}
	if queueSize <= 0 {
		queueSize = 100
	}

	d := &NotificationDispatcher{
		workers:  workers,
		jobQueue: make(chan *DispatchJob, queueSize),
		stopChan: make(chan struct{}),
	}
	d.startWorkers()
	return d
}

// SetPushProvider injects the FCM provider from main.go.
func (d *NotificationDispatcher) SetPushProvider(provider PushNotificationProvider) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pushProvider = provider
}

func (d *NotificationDispatcher) provider() PushNotificationProvider {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.pushProvider
}

func (d *NotificationDispatcher) startWorkers() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
}

func (d *NotificationDispatcher) worker(id int) {
	defer d.wg.Done()
	for {
		select {
		case job := <-d.jobQueue:
			d.processJob(job)
		case <-d.stopChan:
			// drain what was queued before Stop
			for {
				select {
				case job := <-d.jobQueue:
					d.processJob(job)
				default:
					return
				}
			}
		}
	}
}

func (d *NotificationDispatcher) processJob(job *DispatchJob) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	n := job.Notification
	provider := d.provider()

	if provider == nil || len(job.Tokens) == 0 {
		logger.Debug("skipping push", "notification_id", n.ID, "tokens", len(job.Tokens), "provider_set", provider != nil)
		metrics.NotificationsPushed.WithLabelValues("skipped").Inc()
		return
	}

	if err := provider.SendPush(ctx, job.Tokens, n.Title, n.Message, n.Data); err != nil {
		logger.Warn("push failed", "user_id", n.UserID, "notification_id", n.ID, "err", err)
		metrics.NotificationsPushed.WithLabelValues("failed").Inc()
		return
	}
	metrics.NotificationsPushed.WithLabelValues("sent").Inc()
}

// Dispatch queues a notification for delivery. It gives up when the queue stays full.
func (d *NotificationDispatcher) Dispatch(n *notification.Notification, tokens []notification.DeviceToken) bool {
	job := &DispatchJob{Notification: n, Tokens: tokens}

	select {
	case <-d.stopChan:
		logger.Warn("dispatcher stopped, dropping notification", "notification_id", n.ID)
		return false
	default:
	}

	select {
	case d.jobQueue <- job:
		logger.Debug("notification queued for dispatch", "notification_id", n.ID)
		return true
	case <-time.After(5 * time.Second):
		logger.Warn("failed to queue notification: queue full", "notification_id", n.ID)
		metrics.NotificationsPushed.WithLabelValues("dropped").Inc()
		return false
	}
}

// Stop delivers anything already queued and waits for the workers to exit.
func (d *NotificationDispatcher) Stop() {
	d.stopOnce.Do(func() {
		logger.Info("stopping notification dispatcher")
		close(d.stopChan)
		d.wg.Wait()
		logger.Info("notification dispatcher stopped")
	})
}
