//go:build !integration

package usecase

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"ai-document-translator/internal/domain"
	"ai-document-translator/internal/domain/model"
	"ai-document-translator/internal/domain/ports/adapter"
	"ai-document-translator/internal/domain/ports/repository"
)

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// ---- AI ----

// scriptedAI answers text requests through reply. It records every request.
type scriptedAI struct {
	mu       sync.Mutex
	reply    func(req adapter.AIRequest) adapter.AIResponse
	requests []adapter.AIRequest
}

func replyWith(content string) *scriptedAI {
	return &scriptedAI{reply: func(adapter.AIRequest) adapter.AIResponse {
		return adapter.AIResponse{Success: true, Content: content}
	}}
}

func failingAI(kind adapter.FailureKind, msg string) *scriptedAI {
	return &scriptedAI{reply: func(adapter.AIRequest) adapter.AIResponse {
		return adapter.AIResponse{Failure: kind, ErrorMessage: msg}
	}}
}

func (s *scriptedAI) SendTextRequest(ctx context.Context, req adapter.AIRequest) adapter.AIResponse {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	fn := s.reply
	s.mu.Unlock()
	return fn(req)
}

func (s *scriptedAI) SendRequestWithImages(ctx context.Context, req adapter.AIRequest, _ []adapter.ImageData) adapter.AIResponse {
	return s.SendTextRequest(ctx, req)
}

func (s *scriptedAI) SendRequestWithFile(ctx context.Context, req adapter.AIRequest, _ []adapter.ContentFile) adapter.AIResponse {
	return s.SendTextRequest(ctx, req)
}

func (s *scriptedAI) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func (s *scriptedAI) lastPrompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return ""
	}
	return s.requests[len(s.requests)-1].Prompt
}

// ---- Transactions ----

type fakeTxManager struct{ calls int }

func (f *fakeTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	f.calls++
	return fn(ctx, nil)
}

// ---- Jobs ----

// memJobRepo mirrors the storage contract: progress never decreases and
// terminal rows reject writes.
type memJobRepo struct {
	mu   sync.Mutex
	jobs map[string]*model.TranslationJob
}

var _ repository.TranslationJobRepository = (*memJobRepo)(nil)

func newMemJobRepo() *memJobRepo {
	return &memJobRepo{jobs: map[string]*model.TranslationJob{}}
}

func (m *memJobRepo) Save(ctx context.Context, _ any, job *model.TranslationJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *job
	m.jobs[job.JobID] = &cp
	return nil
}

func (m *memJobRepo) FindByJobID(ctx context.Context, _ any, jobID string) (*model.TranslationJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (m *memJobRepo) processing(jobID string) (*model.TranslationJob, error) {
	j, ok := m.jobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if j.Status.IsTerminal() {
		return nil, domain.ErrJobTerminal
	}
	return j, nil
}

func (m *memJobRepo) UpdateProgress(ctx context.Context, _ any, jobID string, progress int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, err := m.processing(jobID)
	if err != nil {
		return err
	}
	j.Progress = max(j.Progress, progress)
	return nil
}

func (m *memJobRepo) Complete(ctx context.Context, _ any, job *model.TranslationJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, err := m.processing(job.JobID)
	if err != nil {
		return err
	}
	j.Status = model.JobStatusCompleted
	j.Progress = 100
	j.CompletedAt = job.CompletedAt
	j.ResultData = job.ResultData
	j.FileName = job.FileName
	j.ContentType = job.ContentType
	j.Suggestions = job.Suggestions
	return nil
}

func (m *memJobRepo) Fail(ctx context.Context, _ any, jobID, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, err := m.processing(jobID)
	if err != nil {
		return err
	}
	j.Status = model.JobStatusFailed
	j.ErrorMessage = message
	return nil
}

func (m *memJobRepo) AttachChat(ctx context.Context, _ any, jobID, chatID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	j.ChatID = chatID
	return nil
}

func (m *memJobRepo) UpdateReturnedSuggestionIDs(ctx context.Context, _ any, jobID string, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	j.ReturnedSuggestionIDs = append([]string{}, ids...)
	return nil
}

func (m *memJobRepo) DeleteExpired(ctx context.Context, _ any, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, j := range m.jobs {
		if j.IsExpired(now) {
			delete(m.jobs, id)
			n++
		}
	}
	return n, nil
}

func (m *memJobRepo) get(jobID string) model.TranslationJob {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.jobs[jobID]
}

// ---- Chats ----

type memChatRepo struct {
	mu       sync.Mutex
	chats    map[string]*model.DocumentTranslationChat
	messages map[string][]model.ChatMessage
	saveErr  error
}

var _ repository.DocumentChatRepository = (*memChatRepo)(nil)

func newMemChatRepo() *memChatRepo {
	return &memChatRepo{
		chats:    map[string]*model.DocumentTranslationChat{},
		messages: map[string][]model.ChatMessage{},
	}
}

func (m *memChatRepo) Save(ctx context.Context, _ any, chat *model.DocumentTranslationChat) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *chat
	cp.Messages = nil
	if chat.TranslationResult != nil {
		r := *chat.TranslationResult
		cp.TranslationResult = &r
	}
	m.chats[chat.ChatID] = &cp
	return nil
}

func (m *memChatRepo) FindByChatID(ctx context.Context, _ any, chatID string) (*model.DocumentTranslationChat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.chats[chatID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	if c.TranslationResult != nil {
		r := *c.TranslationResult
		cp.TranslationResult = &r
	}
	return &cp, nil
}

func (m *memChatRepo) ListByUser(ctx context.Context, _ any, f model.ChatFilter) ([]model.ChatSummary, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []model.ChatSummary
	for _, c := range m.chats {
		if c.UserID != f.UserID {
			continue
		}
		if f.FileType != "" && c.FileType != f.FileType {
			continue
		}
		all = append(all, model.ChatSummary{
			ChatID:         c.ChatID,
			Title:          c.Title,
			FileType:       c.FileType,
			Status:         c.Status,
			MessageCount:   len(m.messages[c.ChatID]),
			CreatedAt:      c.CreatedAt,
			LastActivityAt: c.LastActivityAt,
		})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ChatID < all[j].ChatID })
	total := len(all)
	from := min(f.Offset(), total)
	to := min(from+f.PageSize, total)
	return all[from:to], total, nil
}

func (m *memChatRepo) Delete(ctx context.Context, _ any, chatID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.chats[chatID]; !ok {
		return domain.ErrNotFound
	}
	delete(m.chats, chatID)
	delete(m.messages, chatID)
	return nil
}

func (m *memChatRepo) DeleteCreatedBefore(ctx context.Context, _ any, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, c := range m.chats {
		if c.CreatedAt.Before(cutoff) {
			delete(m.chats, id)
			delete(m.messages, id)
			n++
		}
	}
	return n, nil
}

func (m *memChatRepo) AddMessage(ctx context.Context, _ any, msg *model.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.chats[msg.ChatID]; !ok {
		return domain.ErrNotFound
	}
	m.messages[msg.ChatID] = append(m.messages[msg.ChatID], *msg)
	return nil
}

func (m *memChatRepo) ListMessages(ctx context.Context, _ any, chatID string) ([]model.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.ChatMessage{}, m.messages[chatID]...), nil
}

func (m *memChatRepo) SetMessageVisibility(ctx context.Context, _ any, chatID, messageID string, visible bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, msg := range m.messages[chatID] {
		if msg.MessageID == messageID {
			m.messages[chatID][i].IsVisible = visible
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *memChatRepo) messageTypes(chatID string) []model.MessageType {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.MessageType
	for _, msg := range m.messages[chatID] {
		out = append(out, msg.MessageType)
	}
	return out
}

// ---- Languages ----

type memLanguageRepo struct {
	mu    sync.Mutex
	langs map[int]model.Language
	next  int
}

var _ repository.LanguageRepository = (*memLanguageRepo)(nil)

func newMemLanguageRepo(langs ...model.Language) *memLanguageRepo {
	r := &memLanguageRepo{langs: map[int]model.Language{}}
	for _, l := range langs {
		r.langs[l.ID] = l
		r.next = max(r.next, l.ID)
	}
	return r
}

func (m *memLanguageRepo) FindByID(ctx context.Context, _ any, id int) (*model.Language, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.langs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &l, nil
}

func (m *memLanguageRepo) List(ctx context.Context, _ any) ([]model.Language, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Language, 0, len(m.langs))
	for _, l := range m.langs {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memLanguageRepo) Save(ctx context.Context, _ any, lang *model.Language) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, l := range m.langs {
		if strings.EqualFold(l.Code, lang.Code) {
			lang.ID = id
			m.langs[id] = *lang
			return nil
		}
	}
	m.next++
	lang.ID = m.next
	m.langs[lang.ID] = *lang
	return nil
}

var (
	langSpanish = model.Language{ID: 1, Code: "es", Name: "Spanish", IsActive: true}
	langLatin   = model.Language{ID: 2, Code: "la", Name: "Latin", IsActive: false}
)

// ---- Queue ----

// syncQueue runs tasks inline unless full is set.
type syncQueue struct {
	full bool
	ran  int
}

func (q *syncQueue) Submit(task func(ctx context.Context) error) error {
	if q.full {
		return domain.ErrQueueFull
	}
	q.ran++
	return task(context.Background())
}

// heldQueue keeps tasks until release is called.
type heldQueue struct {
	mu    sync.Mutex
	tasks []func(ctx context.Context) error
}

func (q *heldQueue) Submit(task func(ctx context.Context) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, task)
	return nil
}

func (q *heldQueue) release(ctx context.Context) {
	q.mu.Lock()
	tasks := q.tasks
	q.tasks = nil
	q.mu.Unlock()
	for _, t := range tasks {
		_ = t(ctx)
	}
}
