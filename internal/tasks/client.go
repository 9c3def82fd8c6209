package tasks

import (
	"context"

	"github.com/hibiken/asynq"
	log "github.com/sirupsen/logrus"
)

// Client enqueues background tasks. It implements the scheduling hooks the
// services expose (RetrainScheduler among them).
type Client struct {
	client *asynq.Client
}

func NewClient(redisAddr string) *Client {
	return &Client{client: asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr})}
}

// ScheduleRetrain enqueues a model retrain. Duplicate pending retrains are
// harmless; the handler trains on whatever history exists at run time.
func (c *Client) ScheduleRetrain(ctx context.Context) error {
	info, err := c.client.EnqueueContext(ctx, NewModelRetrainTask())
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{"task_id": info.ID, "queue": info.Queue}).Info("retrain task enqueued")
	return nil
}

// ScheduleDocumentProcess enqueues processing of a single document.
func (c *Client) ScheduleDocumentProcess(ctx context.Context, path string) error {
	task, err := NewDocumentProcessTask(path)
	if err != nil {
		return err
	}
	info, err := c.client.EnqueueContext(ctx, task)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{"task_id": info.ID, "path": path}).Info("document task enqueued")
	return nil
}

func (c *Client) Close() error {
	return c.client.Close()
}
