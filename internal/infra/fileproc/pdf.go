package fileproc

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"ai-document-translator/internal/domain"
	"ai-document-translator/internal/domain/model"
	"ai-document-translator/internal/domain/ports/adapter"
	"ai-document-translator/internal/infra/prompts"
)

var (
	_ adapter.FileProcessor = (*PDFProcessor)(nil)
	_ adapter.PageCounter   = (*PDFProcessor)(nil)
)

// PDFProcessor reads the text layer locally, or hands the whole file to a
// document capable model for a markdown rendition.
type PDFProcessor struct {
	base
}

func NewPDFProcessor(d Deps) *PDFProcessor {
	return &PDFProcessor{base: newBase(d, "PDFProcessor")}
}

func (p *PDFProcessor) CanProcess(ext string) bool {
	return model.NormalizeExtension(ext) == ".pdf"
}

func (p *PDFProcessor) SupportsBasic() bool { return true }

func (p *PDFProcessor) ExtractBasic(ctx context.Context, file *model.SourceFile) (*model.ExtractedDocument, error) {
	if len(file.Data) == 0 {
		return nil, domain.ErrEmptyFile
	}
	text, pages, err := readPDFText(file.Data)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		// scanned documents have no text layer
		return nil, fmt.Errorf("%w: pdf has no text layer", domain.ErrNoContent)
	}
	return &model.ExtractedDocument{Text: text, Method: MethodPDFText, PageCount: pages}, nil
}

// ExtractWithModel converts the file with the model. When the model fails
// the local text layer is used instead.
func (p *PDFProcessor) ExtractWithModel(ctx context.Context, file *model.SourceFile, m model.AIModel) (*model.ExtractedDocument, error) {
	if len(file.Data) == 0 {
		return nil, domain.ErrEmptyFile
	}
	if p.ai == nil {
		return p.ExtractBasic(ctx, file)
	}
	pages, _ := p.CountPages(ctx, file.Data, ".pdf")

	resp := p.ai.SendRequestWithFile(ctx, adapter.AIRequest{
		Model:  m,
		Prompt: p.prompts.T(prompts.ConvertDocument),
	}, []adapter.ContentFile{{Name: file.Name, MimeType: "application/pdf", Data: file.Data}})
	if resp.Success {
		if md := prompts.ExtractTagged(resp.Content, "markdown"); md != "" {
			return &model.ExtractedDocument{Text: md, Method: MethodPDFModel, PageCount: pages}, nil
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.log.Warn().
		Str("failure", string(resp.Failure)).
		Str("error", resp.ErrorMessage).
		Msg("model conversion failed, using text layer")
	return p.ExtractBasic(ctx, file)
}

func (p *PDFProcessor) TranslateBasic(ctx context.Context, file *model.SourceFile, run adapter.ChunkRunner) (*model.FileTranslation, error) {
	doc, err := p.ExtractBasic(ctx, file)
	if err != nil {
		return nil, err
	}
	return p.translateProse(ctx, doc, run)
}

func (p *PDFProcessor) TranslateWithModel(ctx context.Context, file *model.SourceFile, m model.AIModel, run adapter.ChunkRunner) (*model.FileTranslation, error) {
	doc, err := p.ExtractWithModel(ctx, file, m)
	if err != nil {
		return nil, err
	}
	return p.translateProse(ctx, doc, run)
}

func (p *PDFProcessor) CountPages(ctx context.Context, data []byte, ext string) (n int, err error) {
	if len(data) == 0 {
		return 0, nil
	}
	if !p.CanProcess(ext) {
		return 0, fmt.Errorf("%w: unsupported file extension: %s", domain.ErrUnsupportedFile, model.NormalizeExtension(ext))
	}
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("%w: malformed pdf: %v", domain.ErrUnsupportedFile, r)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("%w: open pdf: %v", domain.ErrUnsupportedFile, err)
	}
	return r.NumPage(), nil
}

// readPDFText returns the plain text of every page, pages separated by a
// blank line. The parser panics on some malformed inputs.
func readPDFText(data []byte) (text string, pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, pages, err = "", 0, fmt.Errorf("%w: malformed pdf: %v", domain.ErrUnsupportedFile, r)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, fmt.Errorf("%w: open pdf: %v", domain.ErrUnsupportedFile, err)
	}
	pages = r.NumPage()
	parts := make([]string, 0, pages)
	for i := 1; i <= pages; i++ {
		pg := r.Page(i)
		if pg.V.IsNull() {
			continue
		}
		s, perr := pg.GetPlainText(nil)
		if perr != nil {
			return "", 0, fmt.Errorf("read pdf page %d: %w", i, perr)
		}
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n"), pages, nil
}
