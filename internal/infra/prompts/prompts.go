// Package prompts holds the model prompts as an embedded YAML catalog.
package prompts

import (
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed catalog
var CatalogFS embed.FS

// Keys used by the pipeline.
const (
	TranslateSystem     = "translate_system"
	TranslateChunk      = "translate_chunk"
	TranslateContext    = "translate_context"
	TranslateSRT        = "translate_srt"
	ConvertDocument     = "convert_document"
	TranscribeImage     = "transcribe_image"
	VerifySystem        = "verify_system"
	VerifyResponse      = "verify_response"
	VerifyBatch         = "verify_batch"
	VerifyChunkHeader   = "verify_chunk_header"
	SuggestSystem       = "suggest_system"
	SuggestReview       = "suggest_review"
	SuggestPrevious     = "suggest_previous"
	SuggestPreviousItem = "suggest_previous_item"
)

type Catalog struct {
	prompts map[string]string
}

// NewCatalog reads catalog/<name>.yaml from fsys.
func NewCatalog(fsys fs.FS, name string) (*Catalog, error) {
	path := filepath.Join("catalog", fmt.Sprintf("%s.yaml", name))
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt catalog %s: %w", path, err)
	}
	return newCatalogFromBytes(data)
}

// Default loads the embedded English catalog.
func Default() (*Catalog, error) {
	return NewCatalog(CatalogFS, "en")
}

// MustDefault is Default for package initialisation and tests.
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(err)
	}
	return c
}

func newCatalogFromBytes(data []byte) (*Catalog, error) {
	var prompts map[string]string
	if err := yaml.Unmarshal(data, &prompts); err != nil {
		return nil, fmt.Errorf("failed to parse prompt catalog: %w", err)
	}
	return &Catalog{prompts: prompts}, nil
}

// T renders key with args. Unknown keys render as the key itself.
func (c *Catalog) T(key string, args ...any) string {
	format, ok := c.prompts[key]
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(format, args...)
	}
	return format
}

// Has reports whether key exists.
func (c *Catalog) Has(key string) bool {
	_, ok := c.prompts[key]
	return ok
}
