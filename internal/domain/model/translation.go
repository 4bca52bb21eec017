package model

import (
	"path/filepath"
	"strings"
	"time"
)

// AIModel names the model a request is routed to. The provider is resolved
// from the name prefix by the AI adapter layer.
type AIModel string

const (
	ModelBasic         AIModel = "basic"
	ModelGPT4o         AIModel = "gpt-4o"
	ModelGPT4oMini     AIModel = "gpt-4o-mini"
	ModelGemini25Pro   AIModel = "gemini-2.5-pro"
	ModelGemini25Flash AIModel = "gemini-2.5-flash"
)

const (
	DefaultVerifyModel  = ModelGPT4o
	DefaultSuggestModel = ModelGemini25Pro
)

func (m AIModel) IsBasic() bool { return m == "" || m == ModelBasic }

type OutputFormat string

const (
	FormatMarkdown OutputFormat = "markdown"
	FormatHTML     OutputFormat = "html"
	FormatText     OutputFormat = "text"
	FormatSRT      OutputFormat = "srt"
	FormatDocx     OutputFormat = "docx"
)

func ParseOutputFormat(s string) (OutputFormat, bool) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatMarkdown, "md":
		return FormatMarkdown, true
	case FormatHTML:
		return FormatHTML, true
	case FormatText, "txt":
		return FormatText, true
	case FormatSRT:
		return FormatSRT, true
	case FormatDocx, "word":
		return FormatDocx, true
	}
	return "", false
}

// NormalizeExtension lower-cases and ensures a leading dot.
func NormalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// SourceFile is an uploaded document held in memory.
type SourceFile struct {
	Name        string
	ContentType string
	Data        []byte
}

func (f *SourceFile) Extension() string { return NormalizeExtension(filepath.Ext(f.Name)) }
func (f *SourceFile) Size() int64       { return int64(len(f.Data)) }

// BaseName is the file name without directory or extension.
func (f *SourceFile) BaseName() string {
	base := filepath.Base(f.Name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ExtractedDocument is the canonical text form of an uploaded file.
// Segments carry format-specific units (subtitle entries) when the
// processor needs them to reassemble.
type ExtractedDocument struct {
	Text      string
	Method    string
	PageCount int
	Segments  []Segment
}

type Segment struct {
	Index    int
	Timecode string
	Text     string
}

// ChunkTranslation is one translated chunk keyed by its position.
type ChunkTranslation struct {
	Index      int
	Source     string
	Translated string
}

// FileTranslation is what a processor hands back after reassembly.
type FileTranslation struct {
	Document *ExtractedDocument
	Chunks   []ChunkTranslation
	Content  string
}

type TranslationInput struct {
	File             SourceFile
	TargetLanguageID int
	TargetLanguage   string
	UserID           string
	Model            AIModel
	OutputFormat     OutputFormat
	JobID            string
}

type DocumentConversionResult struct {
	Success      bool   `json:"success"`
	Content      string `json:"content,omitempty"`
	Method       string `json:"method,omitempty"`
	PageCount    int    `json:"page_count,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

type DocumentTranslationResult struct {
	Success                 bool                    `json:"success"`
	OriginalContent         string                  `json:"original_content,omitempty"`
	TranslatedContent       string                  `json:"translated_content,omitempty"`
	FileData                []byte                  `json:"-"`
	FileName                string                  `json:"file_name,omitempty"`
	ContentType             string                  `json:"content_type,omitempty"`
	OutputFormat            OutputFormat            `json:"output_format,omitempty"`
	TranslationQualityScore float64                 `json:"translation_quality_score"`
	QualityFeedback         string                  `json:"quality_feedback,omitempty"`
	QualityWarnings         []string                `json:"quality_warnings,omitempty"`
	Cost                    float64                 `json:"cost"`
	WordCount               int                     `json:"word_count"`
	ChunkCount              int                     `json:"chunk_count"`
	PageCount               int                     `json:"page_count,omitempty"`
	Method                  string                  `json:"method,omitempty"`
	AIModel                 AIModel                 `json:"ai_model,omitempty"`
	ProcessingTime          time.Duration           `json:"processing_time"`
	Suggestions             []TranslationSuggestion `json:"suggestions"`
	AppliedSuggestions      []TranslationSuggestion `json:"applied_suggestions,omitempty"`
	ErrorMessage            string                  `json:"error_message,omitempty"`
}

type VerificationResult struct {
	Success      bool    `json:"success"`
	QualityScore float64 `json:"quality_score"`
	Feedback     string  `json:"feedback,omitempty"`
	ErrorMessage string  `json:"error_message,omitempty"`
}

type BatchVerificationResult struct {
	VerificationResult
	VerifiedChunks int      `json:"verified_chunks"`
	ChunkWarnings  []string `json:"chunk_warnings,omitempty"`
}

// UploadRequest is the asynchronous entry to the pipeline.
type UploadRequest struct {
	UserID           string
	File             SourceFile
	TargetLanguageID int
	Model            AIModel
	OutputFormat     OutputFormat
}

type UploadReceipt struct {
	JobID  string `json:"job_id"`
	ChatID string `json:"chat_id"`
}
