package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"expense-tracker/api/logger"
	"expense-tracker/api/models"
	"expense-tracker/api/observability"
)

// DefaultBatchSize bounds how many due templates one scheduler run submits.
const DefaultBatchSize = 500

// RecurringSource lists and materialises recurring expense templates.
type RecurringSource interface {
	Due(ctx context.Context, limit int) ([]models.Expense, error)
	Materialize(ctx context.Context, template models.Expense) ([]models.Expense, error)
}

// MaterializeProcessor returns a Processor that creates the due occurrences
// of each template it is given.
func MaterializeProcessor(source RecurringSource) Processor {
	return func(ctx context.Context, template models.Expense) error {
		created, err := source.Materialize(ctx, template)
		if len(created) > 0 {
			observability.RecurringOccurrencesTotal.Add(float64(len(created)))
			logger.Get().Info("recurring occurrences created",
				zap.String("expense_id", template.ID),
				zap.String("user_id", template.UserID),
				zap.Int("count", len(created)))
		}
		if err != nil {
			return fmt.Errorf("materializing %s: %w", template.ID, err)
		}
		return nil
	}
}

// Scheduler periodically submits due recurring expenses to a WorkerPool.
type Scheduler struct {
	cron   *cron.Cron
	source RecurringSource
	pool   *WorkerPool
	batch  int

	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

func NewScheduler(spec string, source RecurringSource, pool *WorkerPool, batch int) (*Scheduler, error) {
	if batch < 1 {
		batch = DefaultBatchSize
	}
	log := cronLogger{logger.Get().Sugar()}
	ctx, cancel := context.WithCancel(context.Background())

	s := &Scheduler{
		cron: cron.New(
			cron.WithLogger(log),
			cron.WithChain(cron.Recover(log), cron.SkipIfStillRunning(log)),
		),
		source: source,
		pool:   pool,
		batch:  batch,
		ctx:    ctx,
		cancel: cancel,
	}
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		cancel()
		return nil, fmt.Errorf("parsing recurring schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	logger.Get().Info("Starting recurring expense scheduler")
	s.cron.Start()
}

// Stop cancels the current run and waits for it to return.
func (s *Scheduler) Stop() {
	s.once.Do(func() {
		logger.Get().Info("Stopping recurring expense scheduler")
		s.cancel()
		<-s.cron.Stop().Done()
	})
}

func (s *Scheduler) run() {
	n, err := s.RunOnce(s.ctx)
	if err != nil {
		logger.Get().Error("recurring expense run failed", zap.Error(err))
		return
	}
	logger.Get().Debug("recurring expense run finished", zap.Int("submitted", n))
}

// RunOnce submits every due template, up to the batch size, and returns how
// many were accepted by the pool.
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	due, err := s.source.Due(ctx, s.batch)
	if err != nil {
		return 0, fmt.Errorf("listing due recurring expenses: %w", err)
	}

	submitted := 0
	for _, template := range due {
		if s.pool.Submit(ctx, template) {
			submitted++
		}
	}
	return submitted, nil
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
