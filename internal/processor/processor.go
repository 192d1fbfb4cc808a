// file: internal/processor/processor.go
// version: 1.0.0
// guid: e4b71f28-93ac-4d05-b6e2-7a0c5f19d843

// Package processor runs the per-work tagging pipeline.
package processor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hvtag/hvtag/internal/converter"
	"github.com/hvtag/hvtag/internal/cover"
	"github.com/hvtag/hvtag/internal/database"
	"github.com/hvtag/hvtag/internal/fileops"
	"github.com/hvtag/hvtag/internal/interactive"
	"github.com/hvtag/hvtag/internal/logging"
	"github.com/hvtag/hvtag/internal/metrics"
	"github.com/hvtag/hvtag/internal/models"
	"github.com/hvtag/hvtag/internal/normalizer"
	"github.com/hvtag/hvtag/internal/scanner"
	"github.com/hvtag/hvtag/internal/tagger"
	"github.com/hvtag/hvtag/internal/trackparser"
)

var (
	// ErrNeedsDecision is returned when track numbers are unclear and no
	// operator is available to pick a strategy.
	ErrNeedsDecision = errors.New("track numbering needs an interactive decision")
	// ErrMetadataMissing is returned when a work has no fetched metadata.
	ErrMetadataMissing = errors.New("work metadata missing; run fetch first")
	// ErrNoAudio is returned for a work folder without audio after normalization.
	ErrNoAudio = errors.New("no audio files in work folder")
)

// Error categories recorded with work errors.
const (
	CategoryNormalize = "normalize"
	CategoryFiles     = "files"
	CategoryDecision  = "decision"
	CategoryMetadata  = "metadata"
	CategoryTagging   = "tagging"
	CategoryMove      = "move"
)

// Decider obtains a parsing strategy from an operator.
type Decider interface {
	Decide(rjcode string, filenames []string) (interactive.Decision, error)
}

// MetadataSource fetches work metadata on demand.
type MetadataSource interface {
	FetchWork(ctx context.Context, code models.RJCode) (*models.WorkDetails, error)
}

// ConvertFunc transcodes path to MP3 and returns the new path.
type ConvertFunc func(ctx context.Context, path string, bitrate int) (string, error)

// Options controls optional pipeline steps.
type Options struct {
	Interactive      bool
	Force            bool
	DownloadCover    bool
	CoverSize        int
	EmbedCover       bool
	ConvertToMP3     bool
	TargetBitrate    int
	Separator        string
	UseNullSeparator bool
	MoveDestination  string
}

// Processor tags works one at a time.
type Processor struct {
	store    database.Store
	opts     Options
	decider  Decider
	source   MetadataSource
	fetcher  cover.Fetcher
	convert  ConvertFunc
	now      func() time.Time
	log      *zap.Logger
	moveOpts fileops.OperationConfig
}

// Option customizes a Processor.
type Option func(*Processor)

// WithDecider sets the interactive strategy selector.
func WithDecider(d Decider) Option { return func(p *Processor) { p.decider = d } }

// WithMetadataSource lets the pipeline fetch metadata that is not stored yet.
func WithMetadataSource(s MetadataSource) Option { return func(p *Processor) { p.source = s } }

// WithCoverFetcher sets the image downloader used for cover art.
func WithCoverFetcher(f cover.Fetcher) Option { return func(p *Processor) { p.fetcher = f } }

// WithConverter replaces the ffmpeg transcoder.
func WithConverter(c ConvertFunc) Option { return func(p *Processor) { p.convert = c } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(p *Processor) { p.now = now } }

// New creates a Processor backed by store.
func New(store database.Store, opts Options, options ...Option) *Processor {
	p := &Processor{
		store:    store,
		opts:     opts,
		convert:  converter.ConvertInPlace,
		now:      time.Now,
		log:      logging.L(),
		moveOpts: fileops.DefaultConfig(),
	}
	for _, o := range options {
		o(p)
	}
	return p
}

// Outcome is how one work ended.
type Outcome int

const (
	Tagged Outcome = iota
	UpToDate
	Deferred
	Pending
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Tagged:
		return "tagged"
	case UpToDate:
		return "up_to_date"
	case Deferred:
		return "deferred"
	case Pending:
		return "pending"
	default:
		return "failed"
	}
}

// Result describes one processed work.
type Result struct {
	RJCode      models.RJCode
	Path        string
	Outcome     Outcome
	FilesTagged int
	Converted   int
	Unnumbered  int
	Err         error
}

// Summary counts results of a batch.
type Summary struct {
	Results  []Result
	Tagged   int
	UpToDate int
	Deferred int
	Pending  int
	Failed   int
}

func (s *Summary) add(r Result) {
	s.Results = append(s.Results, r)
	switch r.Outcome {
	case Tagged:
		s.Tagged++
	case UpToDate:
		s.UpToDate++
	case Deferred:
		s.Deferred++
	case Pending:
		s.Pending++
	default:
		s.Failed++
	}
}

// ProcessAll runs every folder in order. Failures and skips of one work
// never stop the batch; only context cancellation does.
func (p *Processor) ProcessAll(ctx context.Context, folders []models.ManagedFolder) (Summary, error) {
	var sum Summary
	for _, f := range folders {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		sum.add(p.Process(ctx, f))
	}
	p.log.Info("batch finished",
		zap.Int("tagged", sum.Tagged),
		zap.Int("up_to_date", sum.UpToDate),
		zap.Int("deferred", sum.Deferred),
		zap.Int("pending", sum.Pending),
		zap.Int("failed", sum.Failed))
	return sum, nil
}

// Process runs the pipeline for one work folder.
func (p *Processor) Process(ctx context.Context, folder models.ManagedFolder) Result {
	start := p.now()
	log := p.log.With(zap.String("work", string(folder.RJCode)))

	res := p.process(ctx, folder, log)
	elapsed := p.now().Sub(start)

	metrics.IncWorkProcessed(metricResult(res.Outcome))
	metrics.ObserveWorkDuration(elapsed)
	if res.Outcome != UpToDate {
		p.recordEvent(res, elapsed)
	}

	switch res.Outcome {
	case Failed:
		log.Error("work failed", zap.Error(res.Err))
	case Deferred:
		log.Info("work deferred by user")
	case Pending:
		log.Warn("work needs a parsing decision; rerun interactively")
	case Tagged:
		log.Info("work tagged", zap.Int("files", res.FilesTagged), zap.Duration("elapsed", elapsed))
	}
	return res
}

func metricResult(o Outcome) string {
	switch o {
	case Tagged:
		return metrics.ResultTagged
	case UpToDate, Deferred:
		return metrics.ResultSkipped
	case Pending:
		return metrics.ResultPending
	default:
		return metrics.ResultFailed
	}
}

func (p *Processor) process(ctx context.Context, folder models.ManagedFolder, log *zap.Logger) Result {
	res := Result{RJCode: folder.RJCode, Path: folder.Path}
	fail := func(category string, retryable bool, err error) Result {
		res.Outcome = Failed
		res.Err = err
		p.recordError(folder.RJCode, category, retryable, err)
		return res
	}

	work, err := p.store.GetWorkByRJCode(folder.RJCode)
	if err != nil {
		return fail(CategoryMetadata, true, fmt.Errorf("failed to load work: %w", err))
	}
	if work != nil && folder.IsTagged && !work.NeedsRetag() && !p.opts.Force {
		res.Outcome = UpToDate
		return res
	}
	if work == nil {
		work = &models.Work{RJCode: folder.RJCode, Active: true}
	}
	work.Path = folder.Path
	work.LastScan = p.now()

	moved, err := normalizer.NormalizeFolderStructure(folder.Path)
	metrics.AddFilesRelocated(moved)
	if err != nil {
		return fail(CategoryNormalize, normalizer.IsRetryable(err), fmt.Errorf("normalize: %w", err))
	}
	if moved > 0 {
		log.Info("flattened folder", zap.Int("moved", moved))
	}

	files, err := scanner.ListAudioFiles(folder.Path)
	if err != nil {
		return fail(CategoryFiles, true, err)
	}
	if len(files) == 0 {
		return fail(CategoryFiles, false, ErrNoAudio)
	}
	names := models.Names(files)

	pref, err := p.store.GetTrackParsingPreference(folder.RJCode)
	if err != nil {
		return fail(CategoryDecision, true, fmt.Errorf("failed to load parsing preference: %w", err))
	}
	if pref == nil && trackparser.NeedsDecision(names) {
		decided, outcome, err := p.decide(folder.RJCode, names)
		switch {
		case errors.Is(err, interactive.ErrUserSkipped):
			res.Outcome = Deferred
			return res
		case errors.Is(err, ErrNeedsDecision):
			res.Outcome = Pending
			res.Err = err
			return res
		case err != nil:
			return fail(CategoryDecision, false, err)
		}
		if outcome == interactive.Confirmed {
			// Persisted before any tag write so a crash keeps the decision.
			if err := p.store.SaveTrackParsingPreference(folder.RJCode, decided); err != nil {
				return fail(CategoryDecision, true, fmt.Errorf("failed to save parsing preference: %w", err))
			}
			pref = &decided
		}
	}

	for i := range files {
		if n, ok := trackparser.ParseTrackNumberWithPreference(files[i].Name, pref); ok {
			files[i].TrackNumber = &n
		} else {
			res.Unnumbered++
		}
	}
	metrics.AddParseFailures(res.Unnumbered)
	if res.Unnumbered > 0 {
		log.Warn("some files have no track number", zap.Int("count", res.Unnumbered))
	}

	if err := p.ensureMetadata(ctx, work); err != nil {
		return fail(CategoryMetadata, !errors.Is(err, ErrMetadataMissing), err)
	}
	if err := p.store.UpsertWork(work); err != nil {
		return fail(CategoryMetadata, true, fmt.Errorf("failed to save work: %w", err))
	}
	tagWork, err := p.effectiveWork(work)
	if err != nil {
		return fail(CategoryMetadata, true, err)
	}

	tagOpts := tagger.Options{Separator: p.opts.Separator, UseNullSeparator: p.opts.UseNullSeparator}
	tagOpts.Cover = p.prepareCover(ctx, work, log)

	for _, f := range files {
		rec, err := p.tagFile(ctx, tagWork, f, tagOpts)
		if recErr := p.store.RecordFileProcessing(rec); recErr != nil {
			log.Warn("failed to record file processing", zap.String("file", f.Name), zap.Error(recErr))
		}
		if err != nil {
			return fail(CategoryTagging, false, fmt.Errorf("%s: %w", f.Name, err))
		}
		res.FilesTagged++
		if rec.IsConverted {
			res.Converted++
		}
	}
	metrics.AddFilesTagged(res.FilesTagged)
	metrics.AddFilesConverted(res.Converted)

	if err := os.WriteFile(filepath.Join(folder.Path, models.TaggedMarker), nil, 0o644); err != nil {
		return fail(CategoryTagging, true, fmt.Errorf("failed to write tagged marker: %w", err))
	}
	if err := p.store.MarkWorkTagged(folder.RJCode, p.now()); err != nil {
		return fail(CategoryTagging, true, fmt.Errorf("failed to mark work tagged: %w", err))
	}

	if p.opts.MoveDestination != "" {
		dest, n, err := fileops.MoveWork(folder.Path, p.opts.MoveDestination, p.moveOpts)
		metrics.AddFilesRelocated(n)
		if err != nil {
			return fail(CategoryMove, true, fmt.Errorf("move: %w", err))
		}
		res.Path = dest
		if err := p.updatePath(folder.RJCode, dest); err != nil {
			log.Warn("failed to record new work path", zap.Error(err))
		}
	}

	res.Outcome = Tagged
	return res
}

// decide asks the operator, or reports ErrNeedsDecision when there is none.
func (p *Processor) decide(code models.RJCode, names []string) (trackparser.Preference, interactive.Outcome, error) {
	if !p.opts.Interactive || p.decider == nil {
		return trackparser.Preference{}, 0, ErrNeedsDecision
	}
	d, err := p.decider.Decide(string(code), names)
	if err != nil {
		if errors.Is(err, interactive.ErrUserSkipped) {
			metrics.IncDecision("skipped")
		}
		return trackparser.Preference{}, 0, err
	}
	metrics.IncDecision(d.Outcome.String())
	return d.Preference, d.Outcome, nil
}

func (p *Processor) ensureMetadata(ctx context.Context, work *models.Work) error {
	if work.HasMetadata() {
		return nil
	}
	if p.source == nil {
		return ErrMetadataMissing
	}
	details, err := p.source.FetchWork(ctx, work.RJCode)
	if err != nil {
		return fmt.Errorf("fetch metadata: %w", err)
	}
	work.ApplyDetails(details, p.now())
	return nil
}

// effectiveWork applies tag mappings and circle name overrides to a copy.
func (p *Processor) effectiveWork(work *models.Work) (*models.Work, error) {
	w := *work
	mappings, err := p.store.GetTagMappings()
	if err != nil {
		return nil, fmt.Errorf("failed to load tag mappings: %w", err)
	}
	w.Tags = models.ApplyTagMappings(work.Tags, mappings)

	if w.CircleCode != "" {
		name, err := p.store.GetCircleName(w.CircleCode)
		if err != nil {
			return nil, fmt.Errorf("failed to load circle name: %w", err)
		}
		if name != "" {
			w.CircleName = name
		}
	}
	return &w, nil
}

// prepareCover downloads the cover when configured and returns the bytes
// to embed. Cover problems never fail the work.
func (p *Processor) prepareCover(ctx context.Context, work *models.Work, log *zap.Logger) []byte {
	if p.opts.DownloadCover && p.fetcher != nil && work.ImageLink != "" {
		if _, err := cover.Fetch(ctx, p.fetcher, work.ImageLink, work.Path, p.opts.CoverSize); err != nil {
			log.Warn("failed to download cover art", zap.Error(err))
		}
	}
	if !p.opts.EmbedCover {
		return nil
	}
	data, err := cover.Load(work.Path)
	if err != nil {
		log.Warn("failed to load cover art", zap.Error(err))
		return nil
	}
	return data
}

func (p *Processor) tagFile(ctx context.Context, work *models.Work, f models.AudioFile, opts tagger.Options) (*models.FileRecord, error) {
	track := 0
	if f.TrackNumber != nil {
		track = *f.TrackNumber
	}
	meta := tagger.FromWork(work, track)
	now := p.now()

	rec := &models.FileRecord{
		RJCode:        work.RJCode,
		Path:          f.Path,
		Name:          f.Name,
		Extension:     f.Format,
		SizeBytes:     f.Size,
		TrackNumber:   f.TrackNumber,
		Status:        models.StatusPending,
		LastProcessed: now,
	}

	if err := tagger.WriteTags(f.Path, meta, opts); err != nil {
		rec.Status = models.StatusFailed
		return rec, err
	}
	rec.IsTagged = true
	rec.TaggedAt = &now
	rec.Status = models.StatusTagged

	if p.opts.ConvertToMP3 && strings.EqualFold(f.Format, "flac") {
		out, err := p.convert(ctx, f.Path, p.opts.TargetBitrate)
		if err != nil {
			rec.ConversionError = err.Error()
			p.log.Warn("conversion failed, keeping FLAC", zap.String("file", f.Name), zap.Error(err))
			return rec, nil
		}
		// Tags are rewritten so the MP3 does not depend on ffmpeg's mapping.
		if err := tagger.WriteTags(out, meta, opts); err != nil {
			rec.Status = models.StatusFailed
			return rec, err
		}
		converted := p.now()
		rec.Path = out
		rec.Name = filepath.Base(out)
		rec.Extension = "mp3"
		rec.IsConverted = true
		rec.ConvertedAt = &converted
		rec.Status = models.StatusConverted
		if info, err := os.Stat(out); err == nil {
			rec.SizeBytes = info.Size()
		}
	}
	return rec, nil
}

func (p *Processor) updatePath(code models.RJCode, path string) error {
	work, err := p.store.GetWorkByRJCode(code)
	if err != nil || work == nil {
		return err
	}
	work.Path = path
	return p.store.UpsertWork(work)
}

func (p *Processor) recordError(code models.RJCode, category string, retryable bool, err error) {
	werr := &models.WorkError{
		RJCode:     code,
		Category:   category,
		Details:    err.Error(),
		Retryable:  retryable,
		OccurredAt: p.now(),
	}
	if recErr := p.store.RecordWorkError(werr); recErr != nil {
		p.log.Warn("failed to record work error", zap.Error(recErr))
	}
}

func (p *Processor) recordEvent(res Result, elapsed time.Duration) {
	ev := &models.ProcessingEvent{
		RJCode:     res.RJCode,
		Operation:  "tag",
		Stage:      "complete",
		Status:     res.Outcome.String(),
		DurationMS: elapsed.Milliseconds(),
		ExecutedAt: p.now(),
		Metadata: map[string]string{
			"files_tagged": fmt.Sprint(res.FilesTagged),
			"converted":    fmt.Sprint(res.Converted),
			"unnumbered":   fmt.Sprint(res.Unnumbered),
		},
	}
	if res.Err != nil {
		ev.ErrorMessage = res.Err.Error()
	}
	if err := p.store.AddProcessingEvent(ev); err != nil {
		p.log.Warn("failed to record processing event", zap.Error(err))
	}
}
