//go:build !integration

package fileproc

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"ai-document-translator/internal/domain/model"
	"ai-document-translator/internal/domain/ports/adapter"
)

type fakeAI struct {
	mu       sync.Mutex
	reply    adapter.AIResponse
	images   int
	files    int
	prompts  []string
	lastFile []adapter.ContentFile
}

func (f *fakeAI) SendTextRequest(ctx context.Context, req adapter.AIRequest) adapter.AIResponse {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, req.Prompt)
	return f.reply
}

func (f *fakeAI) SendRequestWithImages(ctx context.Context, req adapter.AIRequest, images []adapter.ImageData) adapter.AIResponse {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.images += len(images)
	return f.reply
}

func (f *fakeAI) SendRequestWithFile(ctx context.Context, req adapter.AIRequest, files []adapter.ContentFile) adapter.AIResponse {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files += len(files)
	f.lastFile = files
	return f.reply
}

// upperRunner "translates" by upper-casing and records every call.
type upperRunner struct {
	calls [][]string
	kinds []adapter.ChunkKind
	// mangle lets a test damage subtitle replies.
	mangle func(string) string
}

func (r *upperRunner) run(ctx context.Context, chunks []string, kind adapter.ChunkKind) ([]model.ChunkTranslation, error) {
	r.calls = append(r.calls, chunks)
	r.kinds = append(r.kinds, kind)
	out := make([]model.ChunkTranslation, len(chunks))
	for i, c := range chunks {
		t := strings.ToUpper(c)
		if r.mangle != nil && kind == adapter.ChunkSubtitles {
			t = r.mangle(t)
		}
		out[i] = model.ChunkTranslation{Index: i, Source: c, Translated: t}
	}
	return out, nil
}

func failingRunner(ctx context.Context, chunks []string, kind adapter.ChunkKind) ([]model.ChunkTranslation, error) {
	return nil, fmt.Errorf("1 of %d chunks failed", len(chunks))
}
