//go:build !integration

package apiv1_test

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"sync"
	"time"

	"ai-document-translator/internal/domain"
	"ai-document-translator/internal/domain/model"
	"ai-document-translator/internal/infra/logging"
	"ai-document-translator/internal/usecase"
)

func asUser(id string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(logging.WithUserID(r.Context(), id)))
		})
	}
}

// multipartBody builds a form with an optional file part.
func multipartBody(fileName string, data []byte, fields map[string]string) (io.Reader, string) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	if fileName != "" {
		fw, _ := mw.CreateFormFile("file", fileName)
		_, _ = fw.Write(data)
	}
	_ = mw.Close()
	return &buf, mw.FormDataContentType()
}

// ---------------- translations ----------------

type fakeTranslations struct {
	mu        sync.Mutex
	submitted []model.UploadRequest
	submitErr error
	cancelled []string
	cancelErr error
	pages     int
	pagesErr  error
}

var _ usecase.TranslationUseCase = (*fakeTranslations)(nil)

func (f *fakeTranslations) TranslateDocument(ctx context.Context, in model.TranslationInput, progress usecase.ProgressFunc) *model.DocumentTranslationResult {
	return &model.DocumentTranslationResult{}
}
func (f *fakeTranslations) ConvertToMarkdown(ctx context.Context, file *model.SourceFile, m model.AIModel) model.DocumentConversionResult {
	return model.DocumentConversionResult{}
}
func (f *fakeTranslations) CountPages(ctx context.Context, file *model.SourceFile) (int, error) {
	return f.pages, f.pagesErr
}
func (f *fakeTranslations) Submit(ctx context.Context, req model.UploadRequest) (*model.UploadReceipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	f.submitted = append(f.submitted, req)
	return &model.UploadReceipt{JobID: "job-1", ChatID: "chat-1"}, nil
}
func (f *fakeTranslations) Cancel(ctx context.Context, jobID string) error {
	if f.cancelErr != nil {
		return f.cancelErr
	}
	f.cancelled = append(f.cancelled, jobID)
	return nil
}

// ---------------- jobs ----------------

type fakeJobs struct {
	jobs map[string]*model.TranslationJob
}

var _ usecase.JobUseCase = (*fakeJobs)(nil)

func newFakeJobs(jobs ...*model.TranslationJob) *fakeJobs {
	f := &fakeJobs{jobs: map[string]*model.TranslationJob{}}
	for _, j := range jobs {
		f.jobs[j.JobID] = j
	}
	return f
}

func (f *fakeJobs) CreateJob(ctx context.Context, userID, fileType string, fileSizeBytes int64, m model.AIModel) (*model.TranslationJob, error) {
	return nil, domain.ErrInvalidArgument
}
func (f *fakeJobs) UpdateProgress(ctx context.Context, jobID string, progress int) error { return nil }
func (f *fakeJobs) CompleteJob(ctx context.Context, jobID string, data []byte, fileName, contentType string, suggestions []model.TranslationSuggestion) error {
	return nil
}
func (f *fakeJobs) FailJob(ctx context.Context, jobID, message string) error { return nil }
func (f *fakeJobs) AttachChat(ctx context.Context, jobID, chatID string) error {
	return nil
}
func (f *fakeJobs) GetJob(ctx context.Context, jobID string) (*model.TranslationJob, bool, error) {
	j, ok := f.jobs[jobID]
	return j, ok, nil
}
func (f *fakeJobs) CleanupOldJobs(ctx context.Context) (int64, error) { return 0, nil }
func (f *fakeJobs) UpdateReturnedSuggestionIDs(ctx context.Context, jobID string, ids []string) error {
	j := f.jobs[jobID]
	j.ReturnedSuggestionIDs = model.MergeIDs(j.ReturnedSuggestionIDs, ids)
	return nil
}
func (f *fakeJobs) GetUnreturnedSuggestions(ctx context.Context, jobID string) ([]model.TranslationSuggestion, error) {
	return f.jobs[jobID].UnreturnedSuggestions(), nil
}

func testJob(id, user string, status model.JobStatus) *model.TranslationJob {
	now := time.Now().UTC()
	return &model.TranslationJob{
		JobID:     id,
		UserID:    user,
		Status:    status,
		StartTime: now,
		ExpiresAt: now.Add(time.Hour),
		FileType:  ".md",
	}
}

// ---------------- chats ----------------

type fakeChats struct {
	chats      map[string]*model.DocumentTranslationChat
	lastFilter model.ChatFilter
	lastFormat model.OutputFormat
	content    string
	hidden     []string
	deleted    []string
	err        error
}

var _ usecase.DocumentChatUseCase = (*fakeChats)(nil)

func newFakeChats(chats ...*model.DocumentTranslationChat) *fakeChats {
	f := &fakeChats{chats: map[string]*model.DocumentTranslationChat{}}
	for _, c := range chats {
		f.chats[c.ChatID] = c
	}
	return f
}

func (f *fakeChats) StartChat(ctx context.Context, userID string, file *model.SourceFile, languageID int, languageName, initialMessage string) (*model.DocumentTranslationChat, error) {
	return nil, domain.ErrInvalidArgument
}
func (f *fakeChats) AddTranslationResult(ctx context.Context, chatID, jobID string, result *model.DocumentTranslationResult) error {
	return nil
}
func (f *fakeChats) AddErrorMessage(ctx context.Context, chatID, message string) error { return nil }
func (f *fakeChats) GetChat(ctx context.Context, chatID string) (*model.DocumentTranslationChat, error) {
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.chats[chatID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c, nil
}
func (f *fakeChats) GetUserChats(ctx context.Context, filter model.ChatFilter) (*model.ChatPage, error) {
	f.lastFilter = filter
	return &model.ChatPage{Chats: []model.ChatSummary{}, Page: 1, PageSize: 20}, nil
}
func (f *fakeChats) DeleteChat(ctx context.Context, chatID string) error {
	f.deleted = append(f.deleted, chatID)
	return nil
}
func (f *fakeChats) CleanupOldChats(ctx context.Context, daysOld int) (int64, error) { return 0, nil }
func (f *fakeChats) GetChatFile(ctx context.Context, chatID string, format model.OutputFormat) (*model.ChatFile, error) {
	f.lastFormat = format
	return &model.ChatFile{FileName: "report_translated.html", ContentType: "text/html", Data: []byte("<h1>Hola</h1>")}, nil
}
func (f *fakeChats) UpdateChatContent(ctx context.Context, chatID, content string) error {
	f.content = content
	return nil
}
func (f *fakeChats) HideMessage(ctx context.Context, chatID, messageID string) error {
	f.hidden = append(f.hidden, messageID)
	return nil
}
func (f *fakeChats) ReplaceSuggestions(ctx context.Context, chatID string, suggestions []model.TranslationSuggestion) error {
	return nil
}
func (f *fakeChats) RecordAppliedSuggestion(ctx context.Context, chatID string, s model.TranslationSuggestion, updated, description string, next []model.TranslationSuggestion) error {
	return nil
}

func testChat(id, user string) *model.DocumentTranslationChat {
	now := time.Now().UTC()
	msg := model.NewChatMessage(id, model.MessageUserRequest, "Translate report.md to Spanish")
	return &model.DocumentTranslationChat{
		ChatID:             id,
		UserID:             user,
		OriginalFileName:   "report.md",
		FileType:           ".md",
		TargetLanguageID:   1,
		TargetLanguageName: "Spanish",
		Status:             model.JobStatusCompleted,
		Title:              "Translate report to Spanish",
		CreatedAt:          now,
		UpdatedAt:          now,
		LastActivityAt:     now,
		Messages:           []model.ChatMessage{msg},
	}
}

// ---------------- suggestions ----------------

type fakeSuggestions struct {
	lastEdits model.SuggestionEdits
	applyErr  error
}

var _ usecase.SuggestionUseCase = (*fakeSuggestions)(nil)

func (f *fakeSuggestions) GenerateSuggestions(ctx context.Context, original, translated string, targetLanguageID int, previous []model.TranslationSuggestion, m model.AIModel) ([]model.TranslationSuggestion, error) {
	return nil, nil
}
func (f *fakeSuggestions) ApplySuggestion(ctx context.Context, req model.ApplySuggestionRequest) model.ApplySuggestionResponse {
	return model.ApplySuggestionResponse{}
}
func (f *fakeSuggestions) ChatSuggestions(ctx context.Context, chatID string) ([]model.TranslationSuggestion, error) {
	return []model.TranslationSuggestion{{ID: "s1", Title: "Tone"}}, nil
}
func (f *fakeSuggestions) ApplyChatSuggestion(ctx context.Context, chatID, suggestionID string, edits model.SuggestionEdits) (*model.ApplySuggestionResponse, error) {
	if f.applyErr != nil {
		return nil, f.applyErr
	}
	f.lastEdits = edits
	return &model.ApplySuggestionResponse{Success: true, UpdatedContent: "Hola", NewSuggestions: []model.TranslationSuggestion{}}, nil
}

// ---------------- languages / limiter ----------------

type fakeLanguages struct{}

var _ usecase.LanguageUseCase = fakeLanguages{}

func (fakeLanguages) List(ctx context.Context) ([]model.Language, error) {
	return []model.Language{{ID: 1, Code: "es", Name: "Spanish", IsActive: true}}, nil
}
func (fakeLanguages) Get(ctx context.Context, id int) (*model.Language, error) {
	return nil, domain.ErrLanguageNotFound
}
func (fakeLanguages) Seed(ctx context.Context, codes []string) (int, error) { return 0, nil }

type fakeLimiter struct{ allow bool }

func (l fakeLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return l.allow, nil
}
