// Package pipeline buffers extracted records and flushes them to the output
// sink in batches.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pbaptista/bookdash/config"
	"github.com/pbaptista/bookdash/models"
)

// ErrPipelineClosed is returned when Process is called after shutdown.
var ErrPipelineClosed = errors.New("pipeline: closed")

// OutputWriter defines the interface for data output.
type OutputWriter interface {
	Write(records []*models.Record) error
	Close() error
	Validate() error
}

// Pipeline coordinates normalization, de-duplication, and output writing.
// Records are retained even when fields are missing; gaps are only counted.
type Pipeline struct {
	ctx       context.Context
	writer    OutputWriter
	recordCh  chan *models.Record
	batchSize int

	wg sync.WaitGroup

	seen *lru.Cache[string, struct{}]

	metrics *counters

	mu     sync.Mutex // guards closed/err
	closed bool
	err    error

	closeOnce    sync.Once
	shutdown     chan struct{}
	shutdownOnce sync.Once
}

// NewPipeline builds a pipeline writing to writer. The dedupe set is bounded
// by cfg.DedupeMaxSize so memory stays flat on large catalogues.
func NewPipeline(ctx context.Context, writer OutputWriter, cfg *config.Config) *Pipeline {
	if ctx == nil {
		ctx = context.Background()
	}
	seen, err := lru.New[string, struct{}](cfg.DedupeMaxSize)
	if err != nil {
		// only possible with a non-positive size, which Validate rejects
		seen, _ = lru.New[string, struct{}](1)
	}
	return &Pipeline{
		ctx:       ctx,
		writer:    writer,
		recordCh:  make(chan *models.Record, cfg.PipelineBufferSize),
		batchSize: cfg.BatchSize,
		seen:      seen,
		metrics:   newCounters(),
		shutdown:  make(chan struct{}),
	}
}

// Start launches worker goroutines. A single worker writes records to the
// sink in submission order; with more than one, workers batch independently
// and rows may interleave.
func (p *Pipeline) Start(workers int) {
	if workers <= 0 {
		workers = 1
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// Process enqueues one record for downstream writing.
func (p *Pipeline) Process(rec *models.Record) error {
	if rec == nil {
		return nil
	}

	closed, err := p.state()
	if err != nil {
		return err
	}
	if closed {
		return ErrPipelineClosed
	}
	return p.enqueue(rec)
}

// Close waits for workers to finish and prevents more submissions.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
	}
	p.mu.Unlock()

	p.signalShutdown()
	p.closeOnce.Do(func() {
		close(p.recordCh)
	})

	p.wg.Wait()
	return p.Err()
}

// Err returns the first error encountered during processing.
func (p *Pipeline) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// GetMetrics returns a snapshot of the internal counters.
func (p *Pipeline) GetMetrics() map[string]interface{} {
	return p.metrics.snapshot()
}

// StartMetricsReporting emits periodic progress logs.
func (p *Pipeline) StartMetricsReporting(interval time.Duration) {
	if interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				metrics := p.GetMetrics()
				processed := metrics["processed_records"].(int64)
				gaps := metrics["field_gaps"].(map[string]int)
				slog.Info("pipeline progress",
					slog.Int64("processed", processed),
					slog.Int("gap_kinds", len(gaps)),
				)
			case <-p.shutdown:
				return
			}
		}
	}()
}

func (p *Pipeline) worker() {
	defer p.wg.Done()

	batch := make([]*models.Record, 0, p.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := p.writer.Write(batch); err != nil {
			return err
		}
		batch = batch[:0]
		return nil
	}

	for rec := range p.recordCh {
		prepared := p.prepare(rec)
		if prepared == nil {
			continue
		}
		batch = append(batch, prepared)
		if len(batch) >= p.batchSize {
			if err := flush(); err != nil {
				p.setErr(fmt.Errorf("write batch: %w", err))
				return
			}
		}
	}

	if err := flush(); err != nil {
		p.setErr(fmt.Errorf("write batch: %w", err))
	}
}

// prepare normalizes a record and drops exact duplicates. Records with
// missing fields pass through; the gaps are only tallied.
func (p *Pipeline) prepare(rec *models.Record) *models.Record {
	rec.Title = strings.TrimSpace(rec.Title)
	rec.Price = strings.TrimSpace(rec.Price)
	rec.Availability = strings.TrimSpace(rec.Availability)
	rec.Rating = strings.TrimSpace(rec.Rating)
	rec.ImageURL = strings.TrimSpace(rec.ImageURL)

	if rec.Title == "" {
		p.metrics.addGap("missing_title")
	}
	if rec.Price == "" {
		p.metrics.addGap("missing_price")
	}
	if rec.Rating == "" {
		p.metrics.addGap("missing_rating")
	}

	if rec.Title != "" || rec.ImageURL != "" {
		key := rec.Title + "|" + rec.ImageURL
		if _, dup := p.seen.Get(key); dup {
			p.metrics.addGap("duplicate_record")
			return nil
		}
		p.seen.Add(key, struct{}{})
	}

	p.metrics.incrementProcessed()
	return rec
}

func (p *Pipeline) enqueue(rec *models.Record) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ErrPipelineClosed
		}
	}()

	if p.ctx.Err() != nil {
		return ErrPipelineClosed
	}

	select {
	case <-p.ctx.Done():
		return ErrPipelineClosed
	case <-p.shutdown:
		return ErrPipelineClosed
	case p.recordCh <- rec:
		return nil
	}
}

func (p *Pipeline) setErr(err error) {
	if err == nil {
		return
	}

	p.mu.Lock()
	if p.err != nil {
		p.mu.Unlock()
		return
	}
	p.err = err
	p.closed = true
	p.mu.Unlock()

	p.signalShutdown()
	p.closeOnce.Do(func() {
		close(p.recordCh)
	})
}

func (p *Pipeline) state() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed, p.err
}

func (p *Pipeline) signalShutdown() {
	p.shutdownOnce.Do(func() {
		close(p.shutdown)
	})
}

type counters struct {
	mu        sync.Mutex
	processed int64
	gaps      map[string]int
}

func newCounters() *counters {
	return &counters{
		gaps: make(map[string]int),
	}
}

func (c *counters) incrementProcessed() {
	c.mu.Lock()
	c.processed++
	c.mu.Unlock()
}

func (c *counters) addGap(kind string) {
	c.mu.Lock()
	c.gaps[kind]++
	c.mu.Unlock()
}

func (c *counters) snapshot() map[string]interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	gaps := make(map[string]int, len(c.gaps))
	for k, v := range c.gaps {
		gaps[k] = v
	}

	return map[string]interface{}{
		"processed_records": c.processed,
		"field_gaps":        gaps,
	}
}
