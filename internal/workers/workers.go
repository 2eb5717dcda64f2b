package workers

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"yumyumCoachAPI/internal/metrics"
	"yumyumCoachAPI/internal/types/challenge"
	"yumyumCoachAPI/services"
)

type Evaluator interface {
	EvaluateProgress(ctx context.Context, challengeID int64, userID string) (*challenge.ProgressResponse, error)
}

type job struct {
	challengeID int64
	userID      string
}

// ProgressWorker periodically re-evaluates every ACTIVE participant of the
// challenges running today.
type ProgressWorker struct {
	challenges   services.ChallengeStore
	participants services.ParticipationStore
	evaluator    Evaluator
	interval     time.Duration
	workers      int
	now          func() time.Time
	loc          *time.Location
	wg           sync.WaitGroup
}

func NewProgressWorker(challenges services.ChallengeStore, participants services.ParticipationStore, evaluator Evaluator, interval time.Duration, workers int, loc *time.Location) *ProgressWorker {
	if workers < 1 {
		workers = 1
	}
	if loc == nil {
		loc = time.UTC
	}
	return &ProgressWorker{
		challenges:   challenges,
		participants: participants,
		evaluator:    evaluator,
		interval:     interval,
		workers:      workers,
		now:          time.Now,
		loc:          loc,
	}
}

// Start runs a pass every interval until ctx is cancelled.
func (w *ProgressWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				evaluated, failed, err := w.RunOnce(ctx)
				if err != nil {
					log.Printf("Progress worker pass failed: %v", err)
					continue
				}
				log.Printf("Progress worker pass done: evaluated=%d failed=%d", evaluated, failed)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Wait blocks until the loop started by Start has returned.
func (w *ProgressWorker) Wait() {
	w.wg.Wait()
}

// RunOnce evaluates every ACTIVE participant of today's challenges once.
// Participants that left or were removed mid-pass are skipped.
func (w *ProgressWorker) RunOnce(ctx context.Context) (evaluated, failed int, err error) {
	start := time.Now()
	defer func() { metrics.WorkerPassDuration.Observe(time.Since(start).Seconds()) }()

	today := challenge.DateOf(w.now(), w.loc)
	running, err := w.challenges.FindByPeriod(ctx, today, today)
	if err != nil {
		return 0, 0, err
	}

	var jobs []job
	for _, c := range running {
		participants, err := w.participants.ListActiveByChallenge(ctx, c.ID)
		if err != nil {
			return 0, 0, err
		}
		for _, p := range participants {
			jobs = append(jobs, job{challengeID: c.ID, userID: p.UserID})
		}
	}

	queue := make(chan job)
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for i := 0; i < w.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range queue {
				_, err := w.evaluator.EvaluateProgress(ctx, j.challengeID, j.userID)
				mu.Lock()
				switch {
				case err == nil:
					evaluated++
				case errors.Is(err, challenge.ErrAlreadyLeft), errors.Is(err, challenge.ErrParticipationNotFound):
				default:
					failed++
					log.Printf("Progress evaluation failed for challenge %d user %s: %v", j.challengeID, j.userID, err)
				}
				mu.Unlock()
			}
		}()
	}

	for _, j := range jobs {
		select {
		case queue <- j:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}
	close(queue)
	wg.Wait()

	return evaluated, failed, ctx.Err()
}
