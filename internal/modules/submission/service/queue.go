package submission

import (
	"context"
	"encoding/json"

	"anoa.com/campusadmin/internal/entity"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const CorrectionQueueKey = "corrections:queue"

// CorrectionJob is what the external corrector pops from the queue.
type CorrectionJob struct {
	SubmissionID   uuid.UUID             `json:"submission_id"`
	SubjectID      uuid.UUID             `json:"subject_id"`
	FileURL        string                `json:"file_url"`
	EvaluationType entity.EvaluationType `json:"evaluation_type"`
}

type CorrectionQueue interface {
	Enqueue(ctx context.Context, job CorrectionJob) error
}

type redisCorrectionQueue struct {
	redisClient *redis.Client
}

func NewRedisCorrectionQueue(redisClient *redis.Client) CorrectionQueue {
	return &redisCorrectionQueue{redisClient: redisClient}
}

func (q *redisCorrectionQueue) Enqueue(ctx context.Context, job CorrectionJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.redisClient.RPush(ctx, CorrectionQueueKey, payload).Err()
}
