package fileproc

import (
	"context"
	"fmt"
	"strings"

	"ai-document-translator/internal/domain"
	"ai-document-translator/internal/domain/model"
	"ai-document-translator/internal/domain/ports/adapter"
)

var _ adapter.FileProcessor = (*TextProcessor)(nil)

// TextProcessor handles plain text and markdown. It has no local OCR path.
type TextProcessor struct {
	base
}

func NewTextProcessor(d Deps) *TextProcessor {
	return &TextProcessor{base: newBase(d, "TextProcessor")}
}

func (p *TextProcessor) CanProcess(ext string) bool {
	switch model.NormalizeExtension(ext) {
	case ".txt", ".md", ".markdown":
		return true
	}
	return false
}

func (p *TextProcessor) SupportsBasic() bool { return false }

func (p *TextProcessor) ExtractBasic(ctx context.Context, file *model.SourceFile) (*model.ExtractedDocument, error) {
	return nil, errUnsupportedBasic(file.Extension())
}

func (p *TextProcessor) ExtractWithModel(ctx context.Context, file *model.SourceFile, _ model.AIModel) (*model.ExtractedDocument, error) {
	text, err := DecodeText(file.Data)
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(NormalizeNewlines(text))
	if text == "" {
		return nil, fmt.Errorf("%w: text file is empty", domain.ErrEmptyFile)
	}
	return &model.ExtractedDocument{Text: text, Method: MethodText, PageCount: estimatePages(text)}, nil
}

func (p *TextProcessor) TranslateBasic(ctx context.Context, file *model.SourceFile, _ adapter.ChunkRunner) (*model.FileTranslation, error) {
	return nil, errUnsupportedBasic(file.Extension())
}

func (p *TextProcessor) TranslateWithModel(ctx context.Context, file *model.SourceFile, m model.AIModel, run adapter.ChunkRunner) (*model.FileTranslation, error) {
	doc, err := p.ExtractWithModel(ctx, file, m)
	if err != nil {
		return nil, err
	}
	return p.translateProse(ctx, doc, run)
}

// wordsPerPage is the page estimate used when a format carries no page count.
const wordsPerPage = 450

func estimatePages(text string) int {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	return (words + wordsPerPage - 1) / wordsPerPage
}
