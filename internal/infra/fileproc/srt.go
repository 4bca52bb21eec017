package fileproc

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"ai-document-translator/internal/domain"
	"ai-document-translator/internal/domain/model"
	"ai-document-translator/internal/domain/ports/adapter"
)

var _ adapter.FileProcessor = (*SRTProcessor)(nil)

const (
	srtMaxEntriesPerChunk = 50
	srtMaxCharsPerChunk   = 8000
)

// SRTProcessor translates subtitle text and keeps numbering and timecodes.
type SRTProcessor struct {
	base
}

func NewSRTProcessor(d Deps) *SRTProcessor {
	return &SRTProcessor{base: newBase(d, "SRTProcessor")}
}

func (p *SRTProcessor) CanProcess(ext string) bool {
	return model.NormalizeExtension(ext) == ".srt"
}

func (p *SRTProcessor) SupportsBasic() bool { return false }

func (p *SRTProcessor) ExtractBasic(ctx context.Context, file *model.SourceFile) (*model.ExtractedDocument, error) {
	return nil, errUnsupportedBasic(file.Extension())
}

func (p *SRTProcessor) ExtractWithModel(ctx context.Context, file *model.SourceFile, _ model.AIModel) (*model.ExtractedDocument, error) {
	raw, err := DecodeText(file.Data)
	if err != nil {
		return nil, err
	}
	raw = strings.TrimSpace(NormalizeNewlines(raw))
	if raw == "" {
		return nil, fmt.Errorf("%w: srt file is empty", domain.ErrEmptyFile)
	}
	segs := ParseSRT(raw)
	if len(segs) == 0 {
		return nil, fmt.Errorf("%w: no valid subtitle entries found in srt file", domain.ErrNoContent)
	}
	texts := make([]string, len(segs))
	for i, s := range segs {
		texts[i] = s.Text
	}
	return &model.ExtractedDocument{
		Text:     strings.Join(texts, "\n\n"),
		Method:   MethodSRT,
		Segments: segs,
	}, nil
}

func (p *SRTProcessor) TranslateBasic(ctx context.Context, file *model.SourceFile, _ adapter.ChunkRunner) (*model.FileTranslation, error) {
	return nil, errUnsupportedBasic(file.Extension())
}

func (p *SRTProcessor) TranslateWithModel(ctx context.Context, file *model.SourceFile, m model.AIModel, run adapter.ChunkRunner) (*model.FileTranslation, error) {
	doc, err := p.ExtractWithModel(ctx, file, m)
	if err != nil {
		return nil, err
	}

	groups := groupSegments(doc.Segments, srtMaxEntriesPerChunk, srtMaxCharsPerChunk)
	chunks := make([]string, len(groups))
	for i, g := range groups {
		chunks[i] = renderMarked(doc.Segments, g)
	}

	out, err := run(ctx, chunks, adapter.ChunkSubtitles)
	if err != nil {
		return nil, err
	}

	translated := make([]string, len(doc.Segments))
	var missing []int
	for _, c := range out {
		got := parseMarked(c.Translated)
		for _, idx := range groups[c.Index] {
			if t := strings.TrimSpace(got[idx+1]); t != "" {
				translated[idx] = t
			} else {
				missing = append(missing, idx)
			}
		}
	}

	if len(missing) > 0 {
		p.log.Warn().Int("entries", len(missing)).Msg("subtitle count mismatch, translating entries one by one")
		single := make([]string, len(missing))
		for i, idx := range missing {
			single[i] = doc.Segments[idx].Text
		}
		fixed, err := run(ctx, single, adapter.ChunkProse)
		if err != nil {
			return nil, err
		}
		for _, c := range fixed {
			translated[missing[c.Index]] = strings.TrimSpace(c.Translated)
		}
	}

	return &model.FileTranslation{
		Document: doc,
		Chunks:   out,
		Content:  RenderSRT(doc.Segments, translated),
	}, nil
}

var (
	srtTimecodeRe = regexp.MustCompile(`^\d{1,2}:\d{2}:\d{2}[,.]\d{1,3}\s*-->\s*\d{1,2}:\d{2}:\d{2}[,.]\d{1,3}`)
	srtMarkerRe   = regexp.MustCompile(`(?m)^\s*\[\[(\d+)\]\]\s*$`)
)

// ParseSRT reads subtitle blocks separated by blank lines. The numeric
// index line is optional; blocks without a timecode are skipped.
func ParseSRT(raw string) []model.Segment {
	var out []model.Segment
	for _, block := range strings.Split(NormalizeNewlines(raw), "\n\n") {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		if len(lines) == 0 {
			continue
		}
		i := 0
		if _, err := strconv.Atoi(strings.TrimSpace(lines[0])); err == nil && len(lines) > 1 {
			i = 1
		}
		tc := strings.TrimSpace(lines[i])
		if !srtTimecodeRe.MatchString(tc) {
			continue
		}
		text := strings.TrimSpace(strings.Join(lines[i+1:], "\n"))
		if text == "" {
			continue
		}
		out = append(out, model.Segment{Index: len(out) + 1, Timecode: tc, Text: text})
	}
	return out
}

// RenderSRT writes segments back with sequential numbering. An empty
// translation keeps the source text.
func RenderSRT(segs []model.Segment, translated []string) string {
	var sb strings.Builder
	for i, s := range segs {
		text := s.Text
		if i < len(translated) && translated[i] != "" {
			text = translated[i]
		}
		fmt.Fprintf(&sb, "%d\n%s\n%s\n\n", i+1, s.Timecode, text)
	}
	return strings.TrimRight(sb.String(), "\n") + "\n"
}

// groupSegments packs segment positions into groups bounded by count and
// characters. A single oversized entry still forms its own group.
func groupSegments(segs []model.Segment, maxEntries, maxChars int) [][]int {
	var groups [][]int
	var cur []int
	size := 0
	for i, s := range segs {
		n := utf8.RuneCountInString(s.Text) + 8
		if len(cur) > 0 && (len(cur) >= maxEntries || size+n > maxChars) {
			groups = append(groups, cur)
			cur, size = nil, 0
		}
		cur = append(cur, i)
		size += n
	}
	if len(cur) > 0 {
		groups = append(groups, cur)
	}
	return groups
}

func renderMarked(segs []model.Segment, group []int) string {
	parts := make([]string, len(group))
	for i, idx := range group {
		parts[i] = fmt.Sprintf("[[%d]]\n%s", idx+1, segs[idx].Text)
	}
	return strings.Join(parts, "\n\n")
}

// parseMarked maps marker numbers to the text that follows them.
func parseMarked(s string) map[int]string {
	out := map[int]string{}
	locs := srtMarkerRe.FindAllStringSubmatchIndex(s, -1)
	for i, loc := range locs {
		n, err := strconv.Atoi(s[loc[2]:loc[3]])
		if err != nil {
			continue
		}
		end := len(s)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		out[n] = strings.TrimSpace(s[loc[1]:end])
	}
	return out
}
