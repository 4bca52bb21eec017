package adapter

import (
	"context"

	"ai-document-translator/internal/domain/model"
)

// ChunkKind selects the prompt a chunk is translated with.
type ChunkKind int

const (
	ChunkProse ChunkKind = iota
	// ChunkSubtitles chunks hold "[[n]]" marked subtitle entries.
	ChunkSubtitles
)

// ChunkRunner translates chunks and returns them in input order. The caller
// binds target language, model and progress reporting into it.
type ChunkRunner func(ctx context.Context, chunks []string, kind ChunkKind) ([]model.ChunkTranslation, error)

// FileProcessor handles one family of input formats.
type FileProcessor interface {
	CanProcess(ext string) bool
	// SupportsBasic reports whether the local extraction path exists.
	SupportsBasic() bool

	// ExtractBasic reads text locally without any model call.
	ExtractBasic(ctx context.Context, file *model.SourceFile) (*model.ExtractedDocument, error)
	// ExtractWithModel may use a document or vision capable model.
	ExtractWithModel(ctx context.Context, file *model.SourceFile, m model.AIModel) (*model.ExtractedDocument, error)

	// TranslateBasic and TranslateWithModel extract, split, hand the chunks to
	// run and reassemble the result in the source layout.
	TranslateBasic(ctx context.Context, file *model.SourceFile, run ChunkRunner) (*model.FileTranslation, error)
	TranslateWithModel(ctx context.Context, file *model.SourceFile, m model.AIModel, run ChunkRunner) (*model.FileTranslation, error)
}

// ProcessorFactory selects a processor by file extension and renders
// translated content to an output format.
type ProcessorFactory interface {
	Get(ext string) (FileProcessor, error)
	SupportedExtensions() []string
	Render(content string, format model.OutputFormat, source *model.SourceFile) (*model.ChatFile, error)
}

// PageCounter estimates page counts for UI hints.
type PageCounter interface {
	CountPages(ctx context.Context, data []byte, ext string) (int, error)
}
