package jobs

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/go-redis/redis/v8"

	"github.com/verikyc/backend/internal/metrics"
	"github.com/verikyc/backend/internal/models"
	"github.com/verikyc/backend/internal/services/query"
)

// PendingSummaryKey is the Redis key holding the latest dashboard snapshot.
const PendingSummaryKey = "verikyc:pending_summary"

// SummaryJob periodically refreshes the pending-summary snapshot in Redis and
// the pending-records gauge. Dashboards can poll the snapshot without hitting
// the database; the live endpoint stays authoritative.
type SummaryJob struct {
	query     *query.Service
	redis     *redis.Client
	scheduler *gocron.Scheduler
}

// NewSummaryJob creates the summary refresh job
func NewSummaryJob(querySvc *query.Service, redisClient *redis.Client) *SummaryJob {
	return &SummaryJob{
		query:     querySvc,
		redis:     redisClient,
		scheduler: gocron.NewScheduler(time.UTC),
	}
}

// Start schedules the refresh job
func (j *SummaryJob) Start(interval time.Duration) error {
	if _, err := j.scheduler.Every(interval).Do(j.refresh); err != nil {
		return err
	}
	j.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler
func (j *SummaryJob) Stop() {
	j.scheduler.Stop()
}

func (j *SummaryJob) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	summary, err := j.query.PendingSummary(ctx)
	if err != nil {
		log.Printf("pending summary refresh failed: %v", err)
		return
	}

	counts := map[models.SubjectType]int{
		models.SubjectTypeStudent:       len(summary.StudentPending),
		models.SubjectTypeSocietyMember: len(summary.SocietyMemberPending),
	}
	for _, subjectType := range models.SubjectTypes {
		metrics.PendingRecords.WithLabelValues(string(subjectType)).Set(float64(counts[subjectType]))
	}

	if j.redis == nil {
		return
	}
	payload, err := json.Marshal(summary)
	if err != nil {
		log.Printf("marshaling pending summary: %v", err)
		return
	}
	if err := j.redis.Set(ctx, PendingSummaryKey, payload, 5*time.Minute).Err(); err != nil {
		log.Printf("writing pending summary snapshot: %v", err)
	}
}
