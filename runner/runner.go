package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/retrochat/ichat-recover/archive"
	"github.com/retrochat/ichat-recover/config"
	"github.com/retrochat/ichat-recover/extract"
	"github.com/retrochat/ichat-recover/filter"
	"github.com/retrochat/ichat-recover/mboxout"
	"github.com/retrochat/ichat-recover/model"
	"github.com/retrochat/ichat-recover/normalize"
	"github.com/retrochat/ichat-recover/plistdec"
	"github.com/retrochat/ichat-recover/render"
	"github.com/retrochat/ichat-recover/stats"
	"github.com/retrochat/ichat-recover/tree"
)

// DecodeFunc is the decoder collaborator: archive bytes to object tree.
type DecodeFunc func([]byte) (tree.Value, error)

// Runner drives the whole recovery: scan, group, decode, normalize,
// merge, render. One file or participant failing never aborts the run;
// failures surface as events and log lines.
type Runner struct {
	cfg    config.Config
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	events chan stats.Event
	decode DecodeFunc
	filter *filter.Filter

	subMu    sync.Mutex
	subs     []chan stats.Event
	subsDone bool

	dispatchWG sync.WaitGroup
	statsWG    sync.WaitGroup

	errMu sync.Mutex
	err   error

	closeEventsOnce sync.Once
	since           time.Time
}

func New(cfg config.Config, logger *slog.Logger) (*Runner, error) {
	f, err := filter.New(filter.Options{
		IncludeSender: cfg.IncludeSender,
		IncludeText:   cfg.IncludeText,
		ExcludeSender: cfg.ExcludeSender,
		ExcludeText:   cfg.ExcludeText,
	})
	if err != nil {
		return nil, fmt.Errorf("message filter: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	r := &Runner{
		cfg:    cfg,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		events: make(chan stats.Event, 128),
		decode: plistdec.Decode,
		filter: f,
	}

	r.dispatchWG.Add(1)
	go r.dispatch()

	return r, nil
}

func (r *Runner) Config() config.Config {
	return r.cfg
}

func (r *Runner) Logger() *slog.Logger {
	return r.logger
}

func (r *Runner) Context() context.Context {
	return r.ctx
}

func (r *Runner) EmitEvent(evt stats.Event) {
	select {
	case <-r.ctx.Done():
	case r.events <- evt:
	}
}

// SubscribeStats registers fn as an observer of the event stream. Every
// subscriber gets its own channel and sees every event; the stream is
// fanned out, not competed over. Subscribe before Start to see the
// whole run.
func (r *Runner) SubscribeStats(name string, fn func(context.Context, <-chan stats.Event) error) {
	ch := make(chan stats.Event, 128)

	r.subMu.Lock()
	if r.subsDone {
		close(ch)
	} else {
		r.subs = append(r.subs, ch)
	}
	r.subMu.Unlock()

	r.statsWG.Add(1)
	go func() {
		defer r.statsWG.Done()
		if err := fn(r.ctx, ch); err != nil && !errors.Is(err, context.Canceled) {
			r.fail(fmt.Errorf("%s stats: %w", name, err))
		}
	}()
}

// dispatch copies every emitted event to all subscriber channels, then
// closes them once the ingest channel closes.
func (r *Runner) dispatch() {
	defer r.dispatchWG.Done()

	for evt := range r.events {
		r.subMu.Lock()
		subs := r.subs
		r.subMu.Unlock()

		for _, ch := range subs {
			select {
			case <-r.ctx.Done():
			case ch <- evt:
			}
		}
	}

	r.subMu.Lock()
	r.subsDone = true
	for _, ch := range r.subs {
		close(ch)
	}
	r.subs = nil
	r.subMu.Unlock()
}

// ListParticipants enumerates the source directory and groups archive
// files by participant in first-seen order.
func (r *Runner) ListParticipants() ([]archive.Group, error) {
	return archive.Scan(r.cfg.SourceDir, r.logger)
}

// Start processes every participant group sequentially and waits for
// all stats subscribers to drain. A participant whose document cannot
// be written is reported and skipped; siblings still complete.
func (r *Runner) Start(groups []archive.Group) error {
	r.since = time.Now()

	if len(groups) == 0 {
		r.shutdown()
		return fmt.Errorf("no .ichat files found in %s", r.cfg.SourceDir)
	}

	if err := os.MkdirAll(r.cfg.DestDir, 0o755); err != nil {
		r.shutdown()
		return fmt.Errorf("create destination directory: %w", err)
	}

	for _, group := range groups {
		if err := r.ProcessParticipant(group); err != nil {
			r.logger.Error("participant failed", "participant", group.Participant, "err", err)
			r.EmitEvent(stats.Event{Stage: stats.StageRender, Type: stats.EventTypeError, Participant: group.Participant, Err: err})
		}
		r.EmitEvent(stats.Event{Stage: stats.StageRender, Type: stats.EventTypeParticipantDone, Participant: group.Participant})
	}

	r.shutdown()

	err := r.err
	duration := time.Since(r.since)
	if err != nil {
		r.logger.Error("recovery failed", "duration", duration, "err", err)
		return err
	}

	r.logger.Info("recovery completed", "participants", len(groups), "duration", duration)
	return nil
}

// ProcessParticipant merges all of one participant's files into a
// time-ordered transcript and writes the output document(s).
func (r *Runner) ProcessParticipant(group archive.Group) error {
	r.logger.Info("processing participant", "participant", group.Participant, "files", len(group.Files))

	var messages []model.Message
	for _, path := range group.Files {
		messages = append(messages, r.processFile(group.Participant, path)...)
	}

	if len(messages) == 0 {
		r.logger.Info("no messages recovered, skipping", "participant", group.Participant)
		return nil
	}

	sortByTimestamp(messages)

	name := archive.SanitizeFilename(group.Participant)
	htmlPath := filepath.Join(r.cfg.DestDir, name+".html")
	if err := os.WriteFile(htmlPath, render.HTML(group.Participant, messages), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", htmlPath, err)
	}
	r.EmitEvent(stats.Event{Stage: stats.StageRender, Type: stats.EventTypeRendered, Participant: group.Participant, Detail: htmlPath})
	r.logger.Info("saved transcript", "participant", group.Participant, "path", htmlPath, "messages", len(messages))

	if r.cfg.ExportMbox {
		mboxPath := filepath.Join(r.cfg.DestDir, name+".mbox")
		conv := model.Conversation{Participant: group.Participant, Messages: messages}
		if err := mboxout.Export(mboxPath, conv); err != nil {
			return fmt.Errorf("write %s: %w", mboxPath, err)
		}
		r.EmitEvent(stats.Event{Stage: stats.StageRender, Type: stats.EventTypeExported, Participant: group.Participant, Detail: mboxPath})
		r.logger.Info("saved mbox export", "participant", group.Participant, "path", mboxPath)
	}

	return nil
}

// processFile recovers the normalized messages of one archive file.
// Decode or structure failures skip the file, never the run.
func (r *Runner) processFile(participant, path string) []model.Message {
	file := filepath.Base(path)
	r.logger.Info("reading archive", "participant", participant, "file", file)

	data, err := os.ReadFile(path)
	if err != nil {
		r.skipFile(stats.StageScan, participant, file, fmt.Errorf("read archive: %w", err))
		return nil
	}

	root, err := r.decode(data)
	if err != nil {
		r.skipFile(stats.StageScan, participant, file, fmt.Errorf("decode archive: %w", err))
		return nil
	}

	records, err := extract.Messages(root)
	if err != nil {
		r.skipFile(stats.StageExtract, participant, file, err)
		return nil
	}

	r.EmitEvent(stats.Event{Stage: stats.StageExtract, Type: stats.EventTypeFileRead, Participant: participant, File: file})

	messages := make([]model.Message, 0, len(records))
	for _, record := range records {
		msg := normalize.Normalize(record)
		if !r.filter.Allows(msg) {
			r.EmitEvent(stats.Event{Stage: stats.StageExtract, Type: stats.EventTypeFiltered, Participant: participant, File: file})
			continue
		}
		r.EmitEvent(stats.Event{Stage: stats.StageExtract, Type: stats.EventTypeMessage, Participant: participant, File: file})
		messages = append(messages, msg)
	}

	r.logger.Info("extracted messages", "file", file, "count", len(messages))
	return messages
}

func (r *Runner) skipFile(stage stats.Stage, participant, file string, err error) {
	r.logger.Error("skipping archive", "participant", participant, "file", file, "err", err)
	r.EmitEvent(stats.Event{Stage: stage, Type: stats.EventTypeError, Participant: participant, File: file, Err: err})
	r.EmitEvent(stats.Event{Stage: stage, Type: stats.EventTypeFileSkipped, Participant: participant, File: file})
}

// sortByTimestamp orders messages ascending by timestamp. Messages
// without a timestamp carry the zero time and therefore sort first;
// the sort is stable so equal timestamps keep concatenation order.
func sortByTimestamp(messages []model.Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Timestamp.Before(messages[j].Timestamp)
	})
}

func (r *Runner) shutdown() {
	r.closeEvents()
	r.dispatchWG.Wait()
	r.statsWG.Wait()
	r.cancel()
}

func (r *Runner) closeEvents() {
	r.closeEventsOnce.Do(func() {
		close(r.events)
	})
}

func (r *Runner) fail(err error) {
	if err == nil {
		return
	}
	r.errMu.Lock()
	if r.err == nil {
		r.err = err
		r.cancel()
	}
	r.errMu.Unlock()
}
