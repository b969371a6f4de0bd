package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"

	"datafill/internal/binding"
	"datafill/internal/document"
	"datafill/internal/etl"
)

// ─────────────────────────────────────────────────────────────
// Watch Service: re-fill documents on data change or schedule
// ─────────────────────────────────────────────────────────────

// WatchJob fills Document from a data file or an import source.
type WatchJob struct {
	Name         string
	DataFile     string
	SourceType   string
	SourceConfig etl.SourceConfig
	Document     string
	Output       string // defaults to Document
	Selection    []string
	Mode         binding.Mode
	Schedule     string // cron expression, optional
	Watch        bool   // re-run when DataFile changes
}

// ErrNoInput is returned for a job with neither a data file nor a source.
var ErrNoInput = errors.New("job has no data file or source")

const watchDebounce = 500 * time.Millisecond

// WatchService runs WatchJobs through a FillService.
type WatchService struct {
	fill *FillService
	log  *slog.Logger

	mu          sync.Mutex
	watchCancel context.CancelFunc
	watcher     *fsnotify.Watcher
	cronSched   *cron.Cron
}

// NewWatchService creates a WatchService.
func NewWatchService(fill *FillService, log *slog.Logger) *WatchService {
	if log == nil {
		log = slog.Default()
	}
	return &WatchService{fill: fill, log: log.With("component", "watch")}
}

// RunJob imports, fills and saves the job's document once.
func (s *WatchService) RunJob(ctx context.Context, job WatchJob) (*binding.Result, error) {
	sess, err := s.fill.NewSession(ctx)
	if err != nil {
		return nil, err
	}

	switch {
	case job.DataFile != "":
		payload, err := os.ReadFile(job.DataFile)
		if err != nil {
			return nil, fmt.Errorf("read data file: %w", err)
		}
		if _, err := s.fill.Import(ctx, sess, payload); err != nil {
			return nil, err
		}
	case job.SourceType != "":
		if _, err := s.fill.ImportSource(ctx, sess, job.SourceType, job.SourceConfig); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%s: %w", job.Name, ErrNoInput)
	}

	doc, err := document.Load(job.Document)
	if err != nil {
		return nil, err
	}
	roots, err := doc.Select(job.Selection)
	if err != nil {
		return nil, err
	}
	s.fill.WarmUp(ctx, doc.TextElements())

	result, err := s.fill.Commit(ctx, sess, CommitRequest{Document: job.Document, Roots: roots, Mode: job.Mode})
	if result != nil && result.Bound > 0 {
		// Partial writes are saved too; they are not rolled back.
		out := job.Output
		if out == "" {
			out = job.Document
		}
		if serr := doc.Save(out); serr != nil {
			return result, errors.Join(err, fmt.Errorf("save document: %w", serr))
		}
	}
	return result, err
}

// Start schedules cron jobs and watches data files. Calling Start again
// replaces the previous set.
func (s *WatchService) Start(ctx context.Context, jobs []WatchJob) error {
	s.Stop()
	s.mu.Lock()
	defer s.mu.Unlock()

	watchCtx, cancel := context.WithCancel(ctx)
	s.watchCancel = cancel

	run := func(job WatchJob, trigger string) {
		s.log.InfoContext(watchCtx, "running job", "job", job.Name, "trigger", trigger)
		result, err := s.RunJob(watchCtx, job)
		if err != nil {
			s.log.ErrorContext(watchCtx, "job failed", "job", job.Name, "err", err)
			return
		}
		s.log.InfoContext(watchCtx, "job done", "job", job.Name, "bound", result.Bound, "failed", result.Failed)
	}

	// ── Cron jobs ──
	var scheduled int
	c := cron.New()
	for _, j := range jobs {
		if j.Schedule == "" {
			continue
		}
		job := j
		if _, err := c.AddFunc(job.Schedule, func() { run(job, "schedule") }); err != nil {
			cancel()
			return fmt.Errorf("job %s: invalid schedule %q: %w", job.Name, job.Schedule, err)
		}
		scheduled++
	}
	if scheduled > 0 {
		c.Start()
		s.cronSched = c
		s.log.Info("scheduled jobs", "count", scheduled)
	}

	// ── File watchers ──
	pathToJob := make(map[string]WatchJob)
	for _, j := range jobs {
		if !j.Watch || j.DataFile == "" {
			continue
		}
		abs, err := filepath.Abs(j.DataFile)
		if err != nil {
			cancel()
			return fmt.Errorf("job %s: bad path %q: %w", j.Name, j.DataFile, err)
		}
		pathToJob[abs] = j
	}
	if len(pathToJob) == 0 {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		cancel()
		return fmt.Errorf("create watcher: %w", err)
	}
	s.watcher = watcher

	watchedDirs := make(map[string]bool)
	debouncers := make(map[string]func(func()))
	for abs := range pathToJob {
		debouncers[abs] = debounce.New(watchDebounce)
		dir := filepath.Dir(abs)
		if watchedDirs[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			s.log.Warn("cannot watch dir", "dir", dir, "err", err)
			continue
		}
		watchedDirs[dir] = true
	}

	go func() {
		for {
			select {
			case <-watchCtx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				abs, _ := filepath.Abs(event.Name)
				job, ok := pathToJob[abs]
				if !ok {
					continue
				}
				debouncers[abs](func() { run(job, "file") })
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.log.Warn("watcher error", "err", err)
			}
		}
	}()

	s.log.Info("watching data files", "count", len(pathToJob))
	return nil
}

// Stop tears down watchers and schedulers. Safe to call repeatedly.
func (s *WatchService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watchCancel != nil {
		s.watchCancel()
		s.watchCancel = nil
	}
	if s.watcher != nil {
		s.watcher.Close()
		s.watcher = nil
	}
	if s.cronSched != nil {
		<-s.cronSched.Stop().Done()
		s.cronSched = nil
	}
}
