package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Dnl30T/Avisos-FOA/internal/entity"
	"github.com/Dnl30T/Avisos-FOA/pkg/apperror"
	"github.com/google/uuid"
)

const SweeperJobName = "expiry-sweeper"

// ErrSweepRunning is returned when a pass is requested while another is in progress.
var ErrSweepRunning = fmt.Errorf("%w: expiry sweep already running", apperror.ErrConflict)

// StatusGateway is the part of the notice gateway the sweeper needs.
type StatusGateway interface {
	FetchActive(ctx context.Context, filter entity.NoticeFilter) ([]*entity.Notice, error)
	SetStatus(ctx context.Context, id uuid.UUID, status entity.NoticeStatus) error
}

type SweepResult struct {
	Checked int
	Expired []uuid.UUID
	Failed  int
}

// ExpirySweeper moves active notices whose deadline has passed to expired. At most
// one pass runs at a time, whether started by the schedule or on demand.
type ExpirySweeper struct {
	notices  StatusGateway
	interval time.Duration
	now      func() time.Time
	running  sync.Mutex
}

func NewExpirySweeper(notices StatusGateway, interval time.Duration) *ExpirySweeper {
	return &ExpirySweeper{
		notices:  notices,
		interval: interval,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the sweeper's time source.
func (w *ExpirySweeper) WithClock(now func() time.Time) *ExpirySweeper {
	w.now = now
	return w
}

func (w *ExpirySweeper) Name() string {
	return SweeperJobName
}

func (w *ExpirySweeper) Schedule() string {
	return fmt.Sprintf("@every %s", w.interval)
}

func (w *ExpirySweeper) Execute(ctx context.Context) error {
	res, err := w.Sweep(ctx)
	if errors.Is(err, ErrSweepRunning) {
		log.Println("[sweeper] previous pass still running, skipping")
		return nil
	}
	if err != nil {
		return err
	}
	log.Printf("[sweeper] checked %d active notices, expired %d, failed %d", res.Checked, len(res.Expired), res.Failed)
	return nil
}

// Sweep runs one pass. A failing notice is logged and counted but never stops the
// pass; it is retried on the next run. Notices another writer already moved are
// skipped. An error is returned only when the active list cannot be read.
func (w *ExpirySweeper) Sweep(ctx context.Context) (*SweepResult, error) {
	if !w.running.TryLock() {
		return nil, ErrSweepRunning
	}
	defer w.running.Unlock()

	active, err := w.notices.FetchActive(ctx, entity.NoticeFilter{})
	if err != nil {
		return nil, fmt.Errorf("fetching active notices: %w", err)
	}

	now := w.now()
	res := &SweepResult{Checked: len(active), Expired: []uuid.UUID{}}

	for _, notice := range active {
		if !notice.DeadlinePassed(now) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}

		err := w.notices.SetStatus(ctx, notice.ID, entity.StatusExpired)
		switch {
		case err == nil:
			res.Expired = append(res.Expired, notice.ID)
		case errors.Is(err, apperror.ErrInvalidTransition), errors.Is(err, apperror.ErrNotFound):
			// Hidden, expired or deleted since the list was read.
		default:
			res.Failed++
			log.Printf("[sweeper] failed to expire notice %s: %v", notice.ID, err)
		}
	}

	return res, nil
}
