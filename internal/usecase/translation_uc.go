package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"ai-document-translator/internal/chunker"
	"ai-document-translator/internal/domain"
	"ai-document-translator/internal/domain/model"
	"ai-document-translator/internal/domain/ports/adapter"
	"ai-document-translator/internal/infra/logging"
	"ai-document-translator/internal/infra/metrics"
	"ai-document-translator/internal/infra/prompts"
)

var _ TranslationUseCase = (*translationUC)(nil)

// ProgressFunc receives completion percentages in [0,100].
type ProgressFunc func(percent int)

// TranslationUseCase runs the extract, chunk, translate, verify and render
// pipeline, synchronously or through the worker queue.
type TranslationUseCase interface {
	TranslateDocument(ctx context.Context, in model.TranslationInput, progress ProgressFunc) *model.DocumentTranslationResult
	ConvertToMarkdown(ctx context.Context, file *model.SourceFile, m model.AIModel) model.DocumentConversionResult
	CountPages(ctx context.Context, file *model.SourceFile) (int, error)

	// Submit validates the upload, records the job and chat and queues the
	// run. Input errors never create a job.
	Submit(ctx context.Context, req model.UploadRequest) (*model.UploadReceipt, error)
	Cancel(ctx context.Context, jobID string) error
}

const (
	msgTranslationCancelled = "translation cancelled"
	msgNoContent            = "No content could be extracted from the file"

	extractedProgress   = 10
	contextWords        = 25
	finalizeTimeout     = 30 * time.Second
	defaultParallelism  = 4
	defaultBaseBackoff  = 500 * time.Millisecond
	defaultCostPerWord  = 0.05
	defaultQualityFloor = 0.7
)

// TranslationOptions are the pipeline knobs from the translation config.
type TranslationOptions struct {
	Parallelism      int
	MaxRetries       int
	BaseBackoff      time.Duration
	QualityThreshold float64
	CostPerWord      float64
	MaxUploadBytes   int64
	DefaultFormat    model.OutputFormat
}

func (o *TranslationOptions) applyDefaults() {
	if o.Parallelism <= 0 {
		o.Parallelism = defaultParallelism
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.BaseBackoff <= 0 {
		o.BaseBackoff = defaultBaseBackoff
	}
	if o.CostPerWord <= 0 {
		o.CostPerWord = defaultCostPerWord
	}
	if o.QualityThreshold <= 0 {
		o.QualityThreshold = defaultQualityFloor
	}
	if o.DefaultFormat == "" {
		o.DefaultFormat = model.FormatMarkdown
	}
}

// TranslationDeps wires the orchestrator. Suggestions, Jobs, Chats,
// Languages and Queue may be nil for local runs without persistence.
type TranslationDeps struct {
	Factory     adapter.ProcessorFactory
	AI          adapter.AIService
	Prompts     *prompts.Catalog
	Verifier    VerifierUseCase
	Suggestions SuggestionUseCase
	Jobs        JobUseCase
	Chats       DocumentChatUseCase
	Languages   LanguageUseCase
	Queue       adapter.TaskQueue
	Logger      *zerolog.Logger
}

type translationUC struct {
	TranslationDeps
	opts TranslationOptions
	log  zerolog.Logger

	mu   sync.Mutex
	runs map[string]context.CancelFunc
}

func NewTranslationUseCase(d TranslationDeps, opts TranslationOptions) *translationUC {
	opts.applyDefaults()
	if d.Prompts == nil {
		d.Prompts = prompts.MustDefault()
	}
	log := zerolog.Nop()
	if d.Logger != nil {
		log = d.Logger.With().Str("component", "TranslationUC").Logger()
	}
	return &translationUC{TranslationDeps: d, opts: opts, log: log, runs: map[string]context.CancelFunc{}}
}

func (t *translationUC) TranslateDocument(ctx context.Context, in model.TranslationInput, progress ProgressFunc) *model.DocumentTranslationResult {
	start := time.Now()
	log := logging.With(ctx, &t.log)
	defer logging.TraceDuration(log, "TranslationUC.TranslateDocument")()

	format := in.OutputFormat
	if format == "" {
		format = t.opts.DefaultFormat
	}
	fail := func(msg string) *model.DocumentTranslationResult {
		return &model.DocumentTranslationResult{
			ErrorMessage:   msg,
			OutputFormat:   format,
			AIModel:        in.Model,
			ProcessingTime: time.Since(start),
			Suggestions:    []model.TranslationSuggestion{},
		}
	}

	file := &in.File
	proc, err := t.Factory.Get(file.Extension())
	if err != nil {
		return fail(err.Error())
	}
	if in.Model.IsBasic() && !proc.SupportsBasic() {
		return fail(fmt.Sprintf("%s: basic extraction does not support %s files", domain.ErrUnsupportedFile, file.Extension()))
	}

	lang := strings.TrimSpace(in.TargetLanguage)
	if lang == "" {
		if t.Languages == nil {
			return fail(domain.ErrLanguageNotFound.Error())
		}
		l, err := t.Languages.Get(ctx, in.TargetLanguageID)
		if err != nil {
			return fail(msgLanguageUnavailable)
		}
		lang = l.Name
	}

	report := monotonic(progress)
	run := t.chunkRunner(in.Model, lang, report)

	var ft *model.FileTranslation
	if in.Model.IsBasic() {
		ft, err = proc.TranslateBasic(ctx, file, run)
	} else {
		ft, err = proc.TranslateWithModel(ctx, file, in.Model, run)
	}
	if err != nil {
		if ctx.Err() != nil {
			return fail(msgTranslationCancelled)
		}
		log.Warn().Err(err).Str("file", file.Name).Msg("translation failed")
		return fail(userMessage(err))
	}

	quality, feedback, warnings := t.verify(ctx, log, ft.Chunks)

	rendered, err := t.Factory.Render(ft.Content, format, file)
	if err != nil {
		return fail(userMessage(err))
	}

	suggestions := []model.TranslationSuggestion{}
	if t.Suggestions != nil && in.TargetLanguageID > 0 {
		list, err := t.Suggestions.GenerateSuggestions(ctx, ft.Document.Text, ft.Content, in.TargetLanguageID, nil, in.Model)
		if err != nil {
			log.Warn().Err(err).Msg("suggestion generation failed")
		} else {
			suggestions = list
		}
	}

	words := len(strings.Fields(ft.Document.Text))
	report(100)
	return &model.DocumentTranslationResult{
		Success:                 true,
		OriginalContent:         ft.Document.Text,
		TranslatedContent:       ft.Content,
		FileData:                rendered.Data,
		FileName:                rendered.FileName,
		ContentType:             rendered.ContentType,
		OutputFormat:            format,
		TranslationQualityScore: quality,
		QualityFeedback:         feedback,
		QualityWarnings:         warnings,
		Cost:                    float64(words) * t.opts.CostPerWord,
		WordCount:               words,
		ChunkCount:              len(ft.Chunks),
		PageCount:               ft.Document.PageCount,
		Method:                  ft.Document.Method,
		AIModel:                 in.Model,
		ProcessingTime:          time.Since(start),
		Suggestions:             suggestions,
	}
}

// verify scores the chunks. The score is advisory: low or missing scores
// only add warnings.
func (t *translationUC) verify(ctx context.Context, log *zerolog.Logger, chunks []model.ChunkTranslation) (float64, string, []string) {
	if t.Verifier == nil {
		return 1, "", nil
	}
	res := t.Verifier.VerifyTranslationBatch(ctx, chunks)
	warnings := append([]string{}, res.ChunkWarnings...)
	if !res.Success {
		warnings = append(warnings, "Quality verification unavailable: "+res.ErrorMessage)
		return 1, "", warnings
	}
	below := res.QualityScore < t.opts.QualityThreshold
	metrics.ObserveQualityScore(res.QualityScore, below)
	if below {
		log.Warn().Float64("score", res.QualityScore).Float64("threshold", t.opts.QualityThreshold).Str("feedback", res.Feedback).Msg("low translation quality")
		warnings = append(warnings, fmt.Sprintf("Translation quality score %.2f is below the %.2f threshold: %s", res.QualityScore, t.opts.QualityThreshold, res.Feedback))
	}
	return res.QualityScore, res.Feedback, warnings
}

// userMessage turns pipeline errors into the text stored on jobs and chats.
func userMessage(err error) string {
	if errors.Is(err, domain.ErrNoContent) {
		return msgNoContent
	}
	return err.Error()
}

// monotonic drops reports that would move progress backwards.
func monotonic(fn ProgressFunc) func(int) {
	var mu sync.Mutex
	last := -1
	return func(p int) {
		if fn == nil {
			return
		}
		p = model.ClampProgress(p)
		mu.Lock()
		defer mu.Unlock()
		if p <= last {
			return
		}
		last = p
		fn(p)
	}
}

type chunkFailure struct {
	kind adapter.FailureKind
	msg  string
}

func (e *chunkFailure) Error() string { return e.msg }

// chunkRunner translates chunks in parallel and places results by index.
// A failed chunk does not stop the others; all failures are reported
// together.
func (t *translationUC) chunkRunner(m model.AIModel, lang string, report func(int)) adapter.ChunkRunner {
	return func(ctx context.Context, chunks []string, kind adapter.ChunkKind) ([]model.ChunkTranslation, error) {
		report(extractedProgress)
		total := len(chunks)
		out := make([]model.ChunkTranslation, total)
		errs := make([]error, total)
		var done atomic.Int32

		var g errgroup.Group
		g.SetLimit(t.opts.Parallelism)
		for i, chunk := range chunks {
			g.Go(func() error {
				prompt := t.chunkPrompt(lang, chunks, i, kind)
				text, err := t.translateChunk(ctx, m, prompt)
				if err != nil {
					errs[i] = err
					return nil
				}
				out[i] = model.ChunkTranslation{Index: i, Source: chunk, Translated: text}
				n := int(done.Add(1))
				report(min(99, n*100/total))
				return nil
			})
		}
		_ = g.Wait()

		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var failed []string
		for i, err := range errs {
			if err != nil {
				failed = append(failed, fmt.Sprintf("chunk %d: %s", i+1, err))
			}
		}
		if len(failed) > 0 {
			return nil, fmt.Errorf("%d of %d chunks failed: %s", len(failed), total, strings.Join(failed, "; "))
		}
		return out, nil
	}
}

func (t *translationUC) chunkPrompt(lang string, chunks []string, i int, kind adapter.ChunkKind) string {
	if kind == adapter.ChunkSubtitles {
		return t.Prompts.T(prompts.TranslateSRT, lang, chunks[i])
	}
	ctxLine := ""
	if i > 0 {
		if prev := chunker.ExtractContext(chunks[i-1], contextWords); prev != "" {
			ctxLine = t.Prompts.T(prompts.TranslateContext, prev)
		}
	}
	return t.Prompts.T(prompts.TranslateChunk, lang, i+1, len(chunks), chunks[i], ctxLine)
}

// translateChunk retries retryable failures with exponential backoff.
func (t *translationUC) translateChunk(ctx context.Context, m model.AIModel, prompt string) (string, error) {
	start := time.Now()
	defer func() { metrics.ObserveChunkSeconds(time.Since(start).Seconds()) }()

	var text string
	op := func() error {
		resp := t.AI.SendTextRequest(ctx, adapter.AIRequest{
			Model:        m,
			SystemPrompt: t.Prompts.T(prompts.TranslateSystem),
			Prompt:       prompt,
		})
		if !resp.Success {
			err := &chunkFailure{kind: resp.Failure, msg: resp.ErrorMessage}
			if resp.Failure.Retryable() {
				return err
			}
			return backoff.Permanent(err)
		}
		text = prompts.ExtractTagged(resp.Content, "translation")
		if text == "" {
			return backoff.Permanent(&chunkFailure{kind: adapter.FailureMalformed, msg: "empty translation"})
		}
		return nil
	}

	policy := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(t.opts.BaseBackoff),
		backoff.WithMultiplier(2),
		backoff.WithMaxElapsedTime(0),
	)
	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(t.opts.MaxRetries)), ctx)
	err := backoff.RetryNotify(op, b, func(err error, wait time.Duration) {
		kind := adapter.FailureServer
		var cf *chunkFailure
		if errors.As(err, &cf) {
			kind = cf.kind
		}
		metrics.IncChunkRetry(string(kind))
		t.log.Debug().Err(err).Dur("wait", wait).Msg("retrying chunk")
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

func (t *translationUC) ConvertToMarkdown(ctx context.Context, file *model.SourceFile, m model.AIModel) model.DocumentConversionResult {
	proc, err := t.Factory.Get(file.Extension())
	if err != nil {
		return model.DocumentConversionResult{ErrorMessage: err.Error()}
	}
	var doc *model.ExtractedDocument
	if m.IsBasic() {
		doc, err = proc.ExtractBasic(ctx, file)
	} else {
		doc, err = proc.ExtractWithModel(ctx, file, m)
	}
	if err != nil {
		return model.DocumentConversionResult{ErrorMessage: userMessage(err)}
	}
	if strings.TrimSpace(doc.Text) == "" {
		return model.DocumentConversionResult{ErrorMessage: msgNoContent}
	}
	return model.DocumentConversionResult{Success: true, Content: doc.Text, Method: doc.Method, PageCount: doc.PageCount}
}

func (t *translationUC) CountPages(ctx context.Context, file *model.SourceFile) (int, error) {
	pc, ok := t.Factory.(adapter.PageCounter)
	if !ok {
		return 0, fmt.Errorf("%w: page counting is not available", domain.ErrUnsupportedFile)
	}
	return pc.CountPages(ctx, file.Data, file.Extension())
}

// validate checks everything that must hold before a job exists.
func (t *translationUC) validate(ctx context.Context, req *model.UploadRequest) (*model.Language, error) {
	if strings.TrimSpace(req.UserID) == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidArgument)
	}
	ext := req.File.Extension()
	proc, err := t.Factory.Get(ext)
	if err != nil {
		return nil, err
	}
	if len(req.File.Data) == 0 {
		return nil, domain.ErrEmptyFile
	}
	if t.opts.MaxUploadBytes > 0 && req.File.Size() > t.opts.MaxUploadBytes {
		return nil, domain.ErrFileTooLarge
	}
	if req.Model.IsBasic() && !proc.SupportsBasic() {
		return nil, fmt.Errorf("%w: basic extraction does not support %s files", domain.ErrUnsupportedFile, ext)
	}
	if req.OutputFormat == "" {
		req.OutputFormat = t.opts.DefaultFormat
	}
	if req.OutputFormat == model.FormatSRT && ext != ".srt" {
		return nil, fmt.Errorf("%w: srt output requires a subtitle source", domain.ErrInvalidArgument)
	}
	if t.Languages == nil {
		return nil, domain.ErrLanguageNotFound
	}
	return t.Languages.Get(ctx, req.TargetLanguageID)
}

func (t *translationUC) Submit(ctx context.Context, req model.UploadRequest) (*model.UploadReceipt, error) {
	lang, err := t.validate(ctx, &req)
	if err != nil {
		return nil, fmt.Errorf("submit translation: %w", err)
	}

	job, err := t.Jobs.CreateJob(ctx, req.UserID, req.File.Extension(), req.File.Size(), req.Model)
	if err != nil {
		return nil, fmt.Errorf("submit translation: %w", err)
	}
	request := fmt.Sprintf("Translate %s to %s", req.File.Name, lang.Name)
	chat, err := t.Chats.StartChat(ctx, req.UserID, &req.File, lang.ID, lang.Name, request)
	if err != nil {
		t.finalizeFailure(ctx, job.JobID, "", "could not start chat")
		return nil, fmt.Errorf("submit translation: %w", err)
	}
	if err := t.Jobs.AttachChat(ctx, job.JobID, chat.ChatID); err != nil {
		t.log.Warn().Err(err).Str("job_id", job.JobID).Str("chat_id", chat.ChatID).Msg("link chat to job failed")
	}

	in := model.TranslationInput{
		File:             req.File,
		TargetLanguageID: lang.ID,
		TargetLanguage:   lang.Name,
		UserID:           req.UserID,
		Model:            req.Model,
		OutputFormat:     req.OutputFormat,
		JobID:            job.JobID,
	}

	runCtx := logging.WithChatID(logging.WithJobID(logging.WithUserID(context.WithoutCancel(ctx), req.UserID), job.JobID), chat.ChatID)
	runCtx, cancel := context.WithCancel(runCtx)
	t.track(job.JobID, cancel)

	task := func(poolCtx context.Context) error {
		if poolCtx.Err() != nil {
			cancel()
		}
		stop := context.AfterFunc(poolCtx, cancel)
		defer stop()
		defer t.forget(job.JobID)
		t.process(runCtx, chat.ChatID, in)
		return nil
	}
	if err := t.Queue.Submit(task); err != nil {
		t.forget(job.JobID)
		t.finalizeFailure(ctx, job.JobID, chat.ChatID, domain.ErrQueueFull.Error())
		return nil, fmt.Errorf("submit translation: %w", domain.ErrQueueFull)
	}

	t.log.Info().Str("job_id", job.JobID).Str("chat_id", chat.ChatID).Str("file_type", req.File.Extension()).Msg("translation queued")
	return &model.UploadReceipt{JobID: job.JobID, ChatID: chat.ChatID}, nil
}

// process runs one queued translation and writes its terminal state.
func (t *translationUC) process(ctx context.Context, chatID string, in model.TranslationInput) {
	log := logging.With(ctx, &t.log)
	if ctx.Err() != nil {
		t.finalizeFailure(ctx, in.JobID, chatID, msgTranslationCancelled)
		return
	}

	res := t.TranslateDocument(ctx, in, func(p int) {
		if err := t.Jobs.UpdateProgress(ctx, in.JobID, p); err != nil {
			log.Debug().Err(err).Int("progress", p).Msg("progress update failed")
		}
	})

	if ctx.Err() != nil {
		t.finalizeFailure(ctx, in.JobID, chatID, msgTranslationCancelled)
		return
	}
	if !res.Success {
		t.finalizeFailure(ctx, in.JobID, chatID, res.ErrorMessage)
		return
	}

	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
	defer cancel()
	if err := t.Jobs.CompleteJob(fctx, in.JobID, res.FileData, res.FileName, res.ContentType, res.Suggestions); err != nil {
		log.Error().Err(err).Msg("complete job failed")
	}
	if err := t.Chats.AddTranslationResult(fctx, chatID, in.JobID, res); err != nil {
		log.Error().Err(err).Msg("record chat result failed")
	}
	log.Info().Int("chunks", res.ChunkCount).Float64("quality", res.TranslationQualityScore).Dur("took", res.ProcessingTime).Msg("translation completed")
}

// finalizeFailure writes Failed on a context that survives cancellation of
// the run.
func (t *translationUC) finalizeFailure(ctx context.Context, jobID, chatID, msg string) {
	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
	defer cancel()
	log := logging.With(ctx, &t.log)
	if err := t.Jobs.FailJob(fctx, jobID, msg); err != nil && !errors.Is(err, domain.ErrJobTerminal) {
		log.Error().Err(err).Str("job_id", jobID).Msg("fail job failed")
	}
	if chatID == "" {
		return
	}
	if err := t.Chats.AddErrorMessage(fctx, chatID, msg); err != nil {
		log.Error().Err(err).Str("chat_id", chatID).Msg("record chat error failed")
	}
}

func (t *translationUC) Cancel(ctx context.Context, jobID string) error {
	t.mu.Lock()
	cancel, ok := t.runs[jobID]
	t.mu.Unlock()
	if ok {
		cancel()
		return nil
	}

	job, found, err := t.Jobs.GetJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("cancel translation: %w", err)
	}
	if !found {
		return fmt.Errorf("cancel translation: %w", domain.ErrNotFound)
	}
	if job.Status.IsTerminal() {
		return fmt.Errorf("cancel translation: %w", domain.ErrJobTerminal)
	}
	// Running on another replica: mark it failed here, its late writes are
	// ignored by the terminal checks.
	if err := t.Jobs.FailJob(ctx, jobID, msgTranslationCancelled); err != nil {
		return fmt.Errorf("cancel translation: %w", err)
	}
	if job.ChatID != "" && t.Chats != nil {
		if err := t.Chats.AddErrorMessage(ctx, job.ChatID, msgTranslationCancelled); err != nil {
			return fmt.Errorf("cancel translation: %w", err)
		}
	}
	return nil
}

func (t *translationUC) track(jobID string, cancel context.CancelFunc) {
	t.mu.Lock()
	t.runs[jobID] = cancel
	t.mu.Unlock()
}

func (t *translationUC) forget(jobID string) {
	t.mu.Lock()
	cancel, ok := t.runs[jobID]
	delete(t.runs, jobID)
	t.mu.Unlock()
	if ok {
		cancel()
	}
}
