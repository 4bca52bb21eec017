package fileproc

import (
	"context"
	"fmt"

	"ai-document-translator/internal/domain"
	"ai-document-translator/internal/domain/model"
	"ai-document-translator/internal/domain/ports/adapter"
)

var (
	_ adapter.ProcessorFactory = (*Factory)(nil)
	_ adapter.PageCounter      = (*Factory)(nil)
)

// Factory returns the first registered processor that accepts an extension.
type Factory struct {
	processors []adapter.FileProcessor
}

func NewFactory(processors ...adapter.FileProcessor) *Factory {
	return &Factory{processors: processors}
}

// NewDefaultFactory registers text, word, pdf and subtitle processors.
func NewDefaultFactory(d Deps) *Factory {
	return NewFactory(
		NewTextProcessor(d),
		NewWordProcessor(d),
		NewPDFProcessor(d),
		NewSRTProcessor(d),
	)
}

func (f *Factory) Get(ext string) (adapter.FileProcessor, error) {
	ext = model.NormalizeExtension(ext)
	for _, p := range f.processors {
		if p.CanProcess(ext) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: file extension %s is not supported", domain.ErrUnsupportedFile, ext)
}

var knownExtensions = []string{".txt", ".md", ".markdown", ".docx", ".pdf", ".srt"}

func (f *Factory) SupportedExtensions() []string {
	var out []string
	for _, ext := range knownExtensions {
		if _, err := f.Get(ext); err == nil {
			out = append(out, ext)
		}
	}
	return out
}

// CountPages dispatches to the processor for ext when it can count pages.
func (f *Factory) CountPages(ctx context.Context, data []byte, ext string) (int, error) {
	p, err := f.Get(ext)
	if err != nil {
		return 0, err
	}
	pc, ok := p.(adapter.PageCounter)
	if !ok {
		return 0, fmt.Errorf("%w: page counting is not supported for %s files", domain.ErrUnsupportedFile, model.NormalizeExtension(ext))
	}
	return pc.CountPages(ctx, data, ext)
}

// Render converts translated content to format. See the package func Render.
func (f *Factory) Render(content string, format model.OutputFormat, source *model.SourceFile) (*model.ChatFile, error) {
	return Render(content, format, source)
}
