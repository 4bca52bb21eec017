package fileproc

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/fumiama/go-docx"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"ai-document-translator/internal/domain"
	"ai-document-translator/internal/domain/model"
)

const (
	contentTypeMarkdown = "text/markdown; charset=utf-8"
	contentTypeHTML     = "text/html; charset=utf-8"
	contentTypeText     = "text/plain; charset=utf-8"
	contentTypeSRT      = "application/x-subrip"
	contentTypeDocx     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// Render converts translated content (markdown, or SRT for subtitle
// sources) to format.
func Render(content string, format model.OutputFormat, source *model.SourceFile) (*model.ChatFile, error) {
	base := "document"
	srcExt := ""
	if source != nil {
		if b := source.BaseName(); b != "" {
			base = b
		}
		srcExt = source.Extension()
	}
	name := func(ext string) string { return base + "_translated" + ext }

	if srcExt == ".srt" {
		switch format {
		case model.FormatSRT, model.FormatMarkdown, "":
			return &model.ChatFile{Data: []byte(content), FileName: name(".srt"), ContentType: contentTypeSRT}, nil
		case model.FormatText:
			return &model.ChatFile{Data: []byte(content), FileName: name(".txt"), ContentType: contentTypeText}, nil
		}
	}

	switch format {
	case model.FormatMarkdown, "":
		return &model.ChatFile{Data: []byte(content), FileName: name(".md"), ContentType: contentTypeMarkdown}, nil
	case model.FormatHTML:
		return &model.ChatFile{Data: []byte(ToHTMLDocument(content)), FileName: name(".html"), ContentType: contentTypeHTML}, nil
	case model.FormatText:
		return &model.ChatFile{Data: []byte(ToPlainText(content)), FileName: name(".txt"), ContentType: contentTypeText}, nil
	case model.FormatDocx:
		data, err := ToDocx(content)
		if err != nil {
			return nil, err
		}
		return &model.ChatFile{Data: data, FileName: name(".docx"), ContentType: contentTypeDocx}, nil
	case model.FormatSRT:
		return nil, fmt.Errorf("%w: srt output requires a subtitle source", domain.ErrInvalidArgument)
	}
	return nil, fmt.Errorf("%w: unknown output format %q", domain.ErrInvalidArgument, format)
}

func parse(md string) ast.Node {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Attributes)
	return markdown.Parse([]byte(md), p)
}

// ToHTML renders a markdown fragment.
func ToHTML(md string) string {
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.HrefTargetBlank,
	})
	return string(markdown.Render(parse(md), renderer))
}

// ToHTMLDocument wraps ToHTML in a standalone page.
func ToHTMLDocument(md string) string {
	return "<!DOCTYPE html>\n<html>\n<head><meta charset=\"utf-8\"></head>\n<body>\n" + ToHTML(md) + "</body>\n</html>\n"
}

// ToPlainText drops markdown syntax and keeps block structure as blank
// lines.
func ToPlainText(md string) string {
	return strings.TrimSpace(plainOf(parse(md)))
}

func plainOf(n ast.Node) string {
	var sb strings.Builder
	ast.WalkFunc(n, func(node ast.Node, entering bool) ast.WalkStatus {
		switch v := node.(type) {
		case *ast.Text:
			sb.Write(v.Literal)
		case *ast.Code:
			sb.Write(v.Literal)
		case *ast.CodeBlock:
			sb.Write(bytes.TrimRight(v.Literal, "\n"))
			sb.WriteString("\n\n")
		case *ast.Softbreak, *ast.Hardbreak:
			sb.WriteString("\n")
		case *ast.ListItem:
			if entering {
				sb.WriteString("- ")
			}
		case *ast.Paragraph:
			if !entering {
				if _, inItem := v.Parent.(*ast.ListItem); inItem {
					sb.WriteString("\n")
				} else {
					sb.WriteString("\n\n")
				}
			}
		case *ast.Heading:
			if !entering {
				sb.WriteString("\n\n")
			}
		case *ast.List:
			if !entering {
				sb.WriteString("\n")
			}
		case *ast.TableCell:
			if !entering {
				sb.WriteString("\t")
			}
		case *ast.TableRow:
			if !entering {
				sb.WriteString("\n")
			}
		case *ast.Table:
			if !entering {
				sb.WriteString("\n")
			}
		}
		return ast.GoToNext
	})
	return sb.String()
}

// ToDocx writes markdown blocks as Word paragraphs. Headings keep their
// level as HeadingN styles.
func ToDocx(md string) ([]byte, error) {
	w := docx.New().WithDefaultTheme()
	for _, block := range parse(md).GetChildren() {
		switch v := block.(type) {
		case *ast.Heading:
			w.AddParagraph().Style(fmt.Sprintf("Heading%d", v.Level)).AddText(strings.TrimSpace(plainOf(v)))
		case *ast.List:
			for _, item := range v.GetChildren() {
				w.AddParagraph().AddText("• " + strings.TrimPrefix(strings.TrimSpace(plainOf(item)), "- "))
			}
		default:
			for _, line := range strings.Split(strings.TrimSpace(plainOf(v)), "\n\n") {
				if line = strings.TrimSpace(line); line != "" {
					w.AddParagraph().AddText(line)
				}
			}
		}
	}
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write docx: %w", err)
	}
	return buf.Bytes(), nil
}
