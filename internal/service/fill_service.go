package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"datafill/internal/binding"
	"datafill/internal/domain"
	"datafill/internal/etl"
	"datafill/internal/fonts"
)

// ─────────────────────────────────────────────────────────────
// Fill Service: import, field edits and commit
// ─────────────────────────────────────────────────────────────

// DefaultConfigKey is the settings key the field schema is stored under.
const DefaultConfigKey = "datafill.schema"

var (
	// ErrCommitRunning is returned when the document is already being filled.
	ErrCommitRunning = errors.New("commit already running")
	// ErrUnknownField is returned by UpdateField for a key absent from the schema.
	ErrUnknownField = errors.New("unknown field")
)

// ConfigStore persists the field schema under a single key.
type ConfigStore interface {
	LoadSchema(key string) (*etl.Schema, error)
	SaveSchema(key string, schema *etl.Schema) error
}

// FillDeps are the collaborators of a FillService. Only Config is required.
type FillDeps struct {
	Config    ConfigStore
	History   domain.CommitRunStore
	Resolver  binding.Resolver
	Notifier  *Notifier
	ConfigKey string
	Log       *slog.Logger
}

// FillService drives the import → edit → commit flow for a session.
type FillService struct {
	config   ConfigStore
	history  domain.CommitRunStore
	resolver binding.Resolver
	notifier *Notifier
	key      string
	log      *slog.Logger
	guard    commitGuard
}

// NewFillService creates a FillService.
func NewFillService(deps FillDeps) *FillService {
	s := &FillService{
		config:   deps.Config,
		history:  deps.History,
		resolver: deps.Resolver,
		notifier: deps.Notifier,
		key:      deps.ConfigKey,
		log:      deps.Log,
	}
	if s.resolver == nil {
		s.resolver = fonts.Passthrough{}
	}
	if s.notifier == nil {
		s.notifier, _ = NewNotifier(NopEmitter{}, "")
	}
	if s.key == "" {
		s.key = DefaultConfigKey
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	s.log = s.log.With("component", "fill")
	return s
}

// NewSession starts a session, restoring the persisted field schema if any.
func (s *FillService) NewSession(ctx context.Context) (*Session, error) {
	var schema *etl.Schema
	if s.config != nil {
		restored, err := s.config.LoadSchema(s.key)
		if err != nil {
			return nil, fmt.Errorf("load schema: %w", err)
		}
		schema = restored
	}
	if schema != nil {
		s.log.DebugContext(ctx, "schema restored", "fields", len(schema.Fields))
	}
	return newSession(schema), nil
}

// ImportOutcome is what an accepted import produced.
type ImportOutcome struct {
	Records  int           `json:"records"`
	Dropped  int           `json:"dropped"`
	Schema   *etl.Schema   `json:"schema"`
	Replaced bool          `json:"replaced"`
	Warnings []etl.Warning `json:"warnings,omitempty"`
}

// Import parses payload into the active tab's dataset and reconciles the
// field schema. On error the session is left untouched.
func (s *FillService) Import(ctx context.Context, sess *Session, payload []byte) (*ImportOutcome, error) {
	return s.ImportInto(ctx, sess, sess.ActiveTab(), payload)
}

// ImportInto imports payload into tab and makes it the active tab once the
// import is accepted.
func (s *FillService) ImportInto(ctx context.Context, sess *Session, tab int, payload []byte) (*ImportOutcome, error) {
	res, err := etl.Import(payload)
	return s.accept(ctx, sess, tab, res, err)
}

// ImportSource fetches from a registered source and imports the result.
func (s *FillService) ImportSource(ctx context.Context, sess *Session, sourceType string, cfg etl.SourceConfig) (*ImportOutcome, error) {
	return s.ImportSourceInto(ctx, sess, sess.ActiveTab(), sourceType, cfg)
}

// ImportSourceInto is ImportSource for an explicit tab.
func (s *FillService) ImportSourceInto(ctx context.Context, sess *Session, tab int, sourceType string, cfg etl.SourceConfig) (*ImportOutcome, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	res, err := etl.ImportFrom(fetchCtx, sourceType, cfg)
	return s.accept(ctx, sess, tab, res, err)
}

func (s *FillService) accept(ctx context.Context, sess *Session, tab int, res *etl.ImportResult, err error) (*ImportOutcome, error) {
	if res != nil {
		for _, w := range res.Warnings {
			s.notifier.Report(ctx, w)
		}
	}
	if err != nil {
		if errors.Is(err, etl.ErrParse) {
			s.notifier.ParseFailed(ctx)
		}
		s.log.WarnContext(ctx, "import rejected", "tab", tab, "err", err)
		return nil, err
	}

	schema, replaced := sess.accept(tab, res.Records)

	s.log.InfoContext(ctx, "records imported",
		"tab", tab, "records", len(res.Records), "dropped", res.Dropped, "schemaReplaced", replaced)
	s.notifier.Imported(ctx, len(res.Records))

	return &ImportOutcome{
		Records:  len(res.Records),
		Dropped:  res.Dropped,
		Schema:   schema,
		Replaced: replaced,
		Warnings: res.Warnings,
	}, nil
}

// WarmUp resolves the resources of elems ahead of a commit. Failures are
// logged only; the commit resolves again and reports them properly.
func (s *FillService) WarmUp(ctx context.Context, elems []binding.Element) {
	if len(elems) == 0 {
		return
	}
	if err := s.resolver.EnsureReady(ctx, elems); err != nil {
		s.log.WarnContext(ctx, "resource warm-up failed", "elements", len(elems), "err", err)
	}
}

// FieldUpdate carries an operator edit. Nil members are left unchanged.
type FieldUpdate struct {
	Suffix *string       `json:"suffix,omitempty"`
	Mark   *etl.MarkKind `json:"mark,omitempty"`
}

// UpdateField edits one field of the session schema.
func (s *FillService) UpdateField(ctx context.Context, sess *Session, key string, upd FieldUpdate) (*etl.Schema, error) {
	schema, ok := sess.updateField(key, func(f *etl.Field) {
		if upd.Suffix != nil {
			f.Suffix = *upd.Suffix
		}
		if upd.Mark != nil {
			f.Mark = *upd.Mark
		}
	})
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, key)
	}
	if upd.Mark != nil {
		if _, err := etl.GetMask(*upd.Mark); err != nil {
			s.notifier.Report(ctx, etl.Warning{Kind: etl.WarnUnknownMark, Detail: string(*upd.Mark)})
		}
	}
	return schema, nil
}

// SaveSchema persists the session schema outside of a commit.
func (s *FillService) SaveSchema(ctx context.Context, sess *Session) error {
	schema := sess.Schema()
	if schema == nil || s.config == nil {
		return nil
	}
	if err := s.config.SaveSchema(s.key, schema); err != nil {
		return fmt.Errorf("save schema: %w", err)
	}
	s.log.DebugContext(ctx, "schema saved", "fields", len(schema.Fields))
	return nil
}

// CommitRequest identifies what to fill.
type CommitRequest struct {
	Document string
	Roots    []binding.Root
	Mode     binding.Mode
}

// Commit transforms the active dataset through the schema and distributes
// it into the selected roots. A resolver failure stops the pass; elements
// already written keep their new text.
func (s *FillService) Commit(ctx context.Context, sess *Session, req CommitRequest) (*binding.Result, error) {
	if !s.guard.TryLock(req.Document) {
		return nil, fmt.Errorf("%w: %s", ErrCommitRunning, req.Document)
	}
	defer s.guard.Unlock(req.Document)

	records, schema := sess.snapshot()
	if len(records) == 0 {
		return nil, fmt.Errorf("commit %s: %w", req.Document, etl.ErrEmptyCollection)
	}

	transformed, warns := etl.ApplySchema(records, schema)
	for _, w := range warns {
		s.notifier.Report(ctx, w)
	}

	start := time.Now()
	result, err := binding.Distribute(ctx, req.Roots, schema, transformed, binding.Options{
		Mode:     req.Mode,
		Resolver: s.resolver,
	})

	run := &domain.CommitRun{
		Document:   req.Document,
		Mode:       req.Mode.String(),
		Records:    len(records),
		Status:     domain.CommitSuccess,
		StartedAt:  start,
		FinishedAt: time.Now(),
	}
	if result != nil {
		run.Bound = result.Bound
		run.Failed = result.Failed
	}
	if err != nil {
		run.Status = domain.CommitError
		run.Error = err.Error()
	}
	if s.history != nil {
		if herr := s.history.CreateRun(run); herr != nil {
			s.log.WarnContext(ctx, "commit history not recorded", "err", herr)
		}
	}

	if err != nil {
		s.log.ErrorContext(ctx, "commit failed", "document", req.Document, "bound", run.Bound, "err", err)
		s.notifier.CommitFailed(ctx, err)
		return result, fmt.Errorf("commit %s: %w", req.Document, err)
	}

	if s.config != nil && schema != nil {
		if err := s.config.SaveSchema(s.key, schema); err != nil {
			return result, fmt.Errorf("save schema: %w", err)
		}
	}

	s.log.InfoContext(ctx, "commit done",
		"document", req.Document, "mode", req.Mode, "bound", result.Bound, "failed", result.Failed)
	s.notifier.NotifySuccess(ctx, result.Bound)
	return result, nil
}

// ListCommits returns recent commit history, newest first.
func (s *FillService) ListCommits(limit int) ([]domain.CommitRun, error) {
	if s.history == nil {
		return nil, nil
	}
	return s.history.ListRuns(limit)
}

// ListMasks returns the registered mark kinds.
func (s *FillService) ListMasks() []etl.MarkKind {
	return etl.ListMasks()
}

// ListSources returns the available import sources.
func (s *FillService) ListSources() []etl.SourceSpec {
	return etl.ListSources()
}

// WaitRunning blocks until running commits finish or ctx is cancelled.
func (s *FillService) WaitRunning(ctx context.Context) {
	s.guard.WaitAll(ctx)
}
