package fileproc

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"mime"
	"path"
	"strconv"
	"strings"

	"github.com/fumiama/go-docx"

	"ai-document-translator/internal/domain"
	"ai-document-translator/internal/domain/model"
	"ai-document-translator/internal/domain/ports/adapter"
	"ai-document-translator/internal/infra/prompts"
)

var (
	_ adapter.FileProcessor = (*WordProcessor)(nil)
	_ adapter.PageCounter   = (*WordProcessor)(nil)
)

// WordProcessor reads .docx bodies as markdown. The model path also
// transcribes text found in embedded images.
type WordProcessor struct {
	base
}

func NewWordProcessor(d Deps) *WordProcessor {
	return &WordProcessor{base: newBase(d, "WordProcessor")}
}

func (p *WordProcessor) CanProcess(ext string) bool {
	return model.NormalizeExtension(ext) == ".docx"
}

func (p *WordProcessor) SupportsBasic() bool { return true }

func (p *WordProcessor) ExtractBasic(ctx context.Context, file *model.SourceFile) (*model.ExtractedDocument, error) {
	return p.extract(ctx, file, "", false)
}

func (p *WordProcessor) ExtractWithModel(ctx context.Context, file *model.SourceFile, m model.AIModel) (*model.ExtractedDocument, error) {
	return p.extract(ctx, file, m, p.ai != nil)
}

func (p *WordProcessor) TranslateBasic(ctx context.Context, file *model.SourceFile, run adapter.ChunkRunner) (*model.FileTranslation, error) {
	doc, err := p.ExtractBasic(ctx, file)
	if err != nil {
		return nil, err
	}
	return p.translateProse(ctx, doc, run)
}

func (p *WordProcessor) TranslateWithModel(ctx context.Context, file *model.SourceFile, m model.AIModel, run adapter.ChunkRunner) (*model.FileTranslation, error) {
	doc, err := p.ExtractWithModel(ctx, file, m)
	if err != nil {
		return nil, err
	}
	return p.translateProse(ctx, doc, run)
}

// CountPages reads the page count Word stores in docProps/app.xml and falls
// back to a word-count estimate.
func (p *WordProcessor) CountPages(ctx context.Context, data []byte, ext string) (int, error) {
	if len(data) == 0 {
		return 0, nil
	}
	if !p.CanProcess(ext) {
		return 0, fmt.Errorf("%w: unsupported file extension: %s", domain.ErrUnsupportedFile, model.NormalizeExtension(ext))
	}
	if n := appPages(data); n > 0 {
		return n, nil
	}
	doc, err := p.ExtractBasic(ctx, &model.SourceFile{Name: "document.docx", Data: data})
	if err != nil {
		return 0, err
	}
	return doc.PageCount, nil
}

func (p *WordProcessor) extract(ctx context.Context, file *model.SourceFile, m model.AIModel, vision bool) (*model.ExtractedDocument, error) {
	if len(file.Data) == 0 {
		return nil, domain.ErrEmptyFile
	}
	d, err := docx.Parse(bytes.NewReader(file.Data), int64(len(file.Data)))
	if err != nil {
		return nil, fmt.Errorf("%w: open docx: %v", domain.ErrUnsupportedFile, err)
	}

	w := &docxWalker{doc: d}
	if vision {
		w.image = func(data []byte, mimeType string) string {
			return p.transcribe(ctx, m, data, mimeType)
		}
	}
	blocks := make([]string, 0, len(d.Document.Body.Items))
	for _, it := range d.Document.Body.Items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var s string
		switch o := it.(type) {
		case *docx.Paragraph:
			s = w.paragraph(o)
		case *docx.Table:
			s = w.table(o)
		}
		if strings.TrimSpace(s) != "" {
			blocks = append(blocks, s)
		}
	}

	text := strings.TrimSpace(strings.Join(blocks, "\n\n"))
	if text == "" {
		return nil, domain.ErrNoContent
	}
	method := MethodDocx
	if vision {
		method = MethodDocxVision
	}
	pages := appPages(file.Data)
	if pages == 0 {
		pages = estimatePages(text)
	}
	return &model.ExtractedDocument{Text: text, Method: method, PageCount: pages}, nil
}

// transcribe asks the model for the text in an image. Failures drop the
// image; the rest of the document still translates.
func (p *WordProcessor) transcribe(ctx context.Context, m model.AIModel, data []byte, mimeType string) string {
	resp := p.ai.SendRequestWithImages(ctx, adapter.AIRequest{
		Model:  m,
		Prompt: p.prompts.T(prompts.TranscribeImage),
	}, []adapter.ImageData{{Data: data, MimeType: mimeType}})
	if !resp.Success {
		p.log.Warn().Str("failure", string(resp.Failure)).Str("error", resp.ErrorMessage).Msg("image transcription failed")
		return ""
	}
	return strings.TrimSpace(prompts.StripFences(resp.Content))
}

type docxWalker struct {
	doc   *docx.Docx
	image func(data []byte, mimeType string) string
}

func (w *docxWalker) paragraph(p *docx.Paragraph) string {
	var sb strings.Builder
	for _, c := range p.Children {
		switch o := c.(type) {
		case *docx.Hyperlink:
			text := w.runText(&o.Run)
			if target, err := w.doc.ReferTarget(o.ID); err == nil && text != "" {
				fmt.Fprintf(&sb, "[%s](%s)", text, target)
			} else {
				sb.WriteString(text)
			}
		case *docx.Run:
			sb.WriteString(w.runText(o))
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" || p.Properties == nil {
		return text
	}
	if p.Properties.Style != nil {
		if level := headingLevel(p.Properties.Style.Val); level > 0 {
			return strings.Repeat("#", level) + " " + text
		}
	}
	if p.Properties.NumProperties != nil {
		indent := 0
		if p.Properties.NumProperties.Ilvl != nil {
			indent, _ = strconv.Atoi(p.Properties.NumProperties.Ilvl.Val)
		}
		return strings.Repeat("  ", indent) + "- " + text
	}
	return text
}

func (w *docxWalker) runText(r *docx.Run) string {
	var sb strings.Builder
	for _, c := range r.Children {
		switch x := c.(type) {
		case *docx.Text:
			sb.WriteString(x.Text)
		case *docx.Tab:
			sb.WriteByte('\t')
		case *docx.BarterRabbet:
			sb.WriteByte('\n')
		case *docx.Drawing:
			if t := w.drawing(x); t != "" {
				sb.WriteString("\n\n" + t + "\n\n")
			}
		}
	}
	return sb.String()
}

func (w *docxWalker) drawing(d *docx.Drawing) string {
	if w.image == nil {
		return ""
	}
	var embed string
	switch {
	case d.Inline != nil && d.Inline.Graphic != nil && d.Inline.Graphic.GraphicData != nil &&
		d.Inline.Graphic.GraphicData.Pic != nil && d.Inline.Graphic.GraphicData.Pic.BlipFill != nil:
		embed = d.Inline.Graphic.GraphicData.Pic.BlipFill.Blip.Embed
	case d.Anchor != nil && d.Anchor.Graphic != nil && d.Anchor.Graphic.GraphicData != nil &&
		d.Anchor.Graphic.GraphicData.Pic != nil && d.Anchor.Graphic.GraphicData.Pic.BlipFill != nil:
		embed = d.Anchor.Graphic.GraphicData.Pic.BlipFill.Blip.Embed
	}
	if embed == "" {
		return ""
	}
	target, err := w.doc.ReferTarget(embed)
	if err != nil {
		return ""
	}
	media := w.doc.Media(path.Base(target))
	if media == nil || len(media.Data) == 0 {
		return ""
	}
	mt := mime.TypeByExtension(path.Ext(media.Name))
	if !strings.HasPrefix(mt, "image/") {
		return ""
	}
	return w.image(media.Data, mt)
}

func (w *docxWalker) table(t *docx.Table) string {
	if len(t.TableRows) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, row := range t.TableRows {
		cells := make([]string, len(row.TableCells))
		for j, c := range row.TableCells {
			parts := make([]string, 0, len(c.Paragraphs))
			for _, p := range c.Paragraphs {
				if s := w.paragraph(p); s != "" {
					parts = append(parts, s)
				}
			}
			cells[j] = strings.ReplaceAll(strings.Join(parts, " "), "|", `\|`)
		}
		sb.WriteString("| " + strings.Join(cells, " | ") + " |\n")
		if i == 0 {
			sb.WriteString("|" + strings.Repeat(" --- |", len(cells)) + "\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// headingLevel maps Word style ids such as Heading2 or Title to a markdown
// heading depth.
func headingLevel(style string) int {
	s := strings.ToLower(strings.ReplaceAll(style, " ", ""))
	switch {
	case s == "title":
		return 1
	case strings.HasPrefix(s, "heading"):
		n, err := strconv.Atoi(strings.TrimPrefix(s, "heading"))
		if err != nil || n < 1 {
			return 0
		}
		if n > 6 {
			n = 6
		}
		return n
	}
	return 0
}

// appPages reads <Pages> from docProps/app.xml; 0 when absent.
func appPages(data []byte) int {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0
	}
	for _, f := range zr.File {
		if f.Name != "docProps/app.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return 0
		}
		defer rc.Close()
		b, err := io.ReadAll(io.LimitReader(rc, 1<<20))
		if err != nil {
			return 0
		}
		var props struct {
			Pages int `xml:"Pages"`
		}
		if xml.Unmarshal(b, &props) != nil {
			return 0
		}
		return props.Pages
	}
	return 0
}
