// Package fileproc turns uploaded documents into canonical text, splits it
// for translation and reassembles translated chunks per input format.
package fileproc

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"ai-document-translator/internal/chunker"
	"ai-document-translator/internal/domain"
	"ai-document-translator/internal/domain/model"
	"ai-document-translator/internal/domain/ports/adapter"
	"ai-document-translator/internal/infra/prompts"
)

// Extraction methods recorded on ExtractedDocument.Method.
const (
	MethodText       = "text"
	MethodDocx       = "docx"
	MethodDocxVision = "docx+vision"
	MethodPDFText    = "pdf-text"
	MethodPDFModel   = "pdf-model"
	MethodSRT        = "srt"
)

// Deps are shared by every processor.
type Deps struct {
	AI      adapter.AIService
	Prompts *prompts.Catalog
	Chunks  chunker.Options
	Logger  *zerolog.Logger
}

type base struct {
	ai      adapter.AIService
	prompts *prompts.Catalog
	chunks  chunker.Options
	log     zerolog.Logger
}

func newBase(d Deps, component string) base {
	log := zerolog.Nop()
	if d.Logger != nil {
		log = d.Logger.With().Str("component", component).Logger()
	}
	p := d.Prompts
	if p == nil {
		p = prompts.MustDefault()
	}
	return base{ai: d.AI, prompts: p, chunks: d.Chunks, log: log}
}

func (b *base) split(text string) []chunker.Piece {
	return chunker.SplitPieces(text, b.chunks)
}

// translateProse splits doc.Text, runs the chunks and rejoins them in source
// order with the whitespace that separated them.
func (b *base) translateProse(ctx context.Context, doc *model.ExtractedDocument, run adapter.ChunkRunner) (*model.FileTranslation, error) {
	pieces := b.split(doc.Text)
	if len(pieces) == 0 {
		return nil, domain.ErrNoContent
	}
	out, err := run(ctx, chunker.Texts(pieces), adapter.ChunkProse)
	if err != nil {
		return nil, err
	}
	return &model.FileTranslation{Document: doc, Chunks: out, Content: JoinChunks(out, pieces)}, nil
}

// JoinChunks concatenates translated chunks by index, separating chunk i from
// i+1 with pieces[i].Sep. Without pieces chunks are separated by blank lines.
func JoinChunks(chunks []model.ChunkTranslation, pieces []chunker.Piece) string {
	ordered := make([]string, len(chunks))
	for _, c := range chunks {
		if c.Index >= 0 && c.Index < len(ordered) {
			ordered[c.Index] = strings.TrimSpace(c.Translated)
		}
	}
	var sb strings.Builder
	for i, text := range ordered {
		sb.WriteString(text)
		if i == len(ordered)-1 {
			break
		}
		sep := "\n\n"
		if i < len(pieces) {
			sep = pieces[i].Sep
		}
		sb.WriteString(sep)
	}
	return sb.String()
}

func errUnsupportedBasic(ext string) error {
	return fmt.Errorf("%w: basic extraction does not support %s files", domain.ErrUnsupportedFile, ext)
}

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// DecodeText converts uploaded bytes to UTF-8. UTF-16 is detected by BOM;
// invalid UTF-8 is read as Windows-1252.
func DecodeText(data []byte) (string, error) {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return string(data[len(bomUTF8):]), nil
	case bytes.HasPrefix(data, bomUTF16LE), bytes.HasPrefix(data, bomUTF16BE):
		dec := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
		out, _, err := transform.Bytes(dec, data)
		if err != nil {
			return "", fmt.Errorf("decode utf-16: %w", err)
		}
		return string(out), nil
	case utf8.Valid(data):
		return string(data), nil
	}
	out, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
	if err != nil {
		return "", fmt.Errorf("decode windows-1252: %w", err)
	}
	return string(out), nil
}

// NormalizeNewlines converts CRLF and CR to LF.
func NormalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

