//go:generate go run github.com/oapi-codegen/oapi-codegen/v2/cmd/oapi-codegen --config ../../../../api/oapi-codegen.yaml ../../../../api/openapi.yaml

package apiv1

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"ai-document-translator/internal/domain/ports/adapter"
	"ai-document-translator/internal/infra/logging"
	"ai-document-translator/internal/usecase"
)

const (
	defaultUploadLimit = 10
	uploadWindow       = time.Minute
	multipartMemory    = 32 << 20
)

type Deps struct {
	Translations usecase.TranslationUseCase
	Jobs         usecase.JobUseCase
	Chats        usecase.DocumentChatUseCase
	Suggestions  usecase.SuggestionUseCase
	Languages    usecase.LanguageUseCase
	// Limiter is optional; nil disables upload rate limiting.
	Limiter adapter.RateLimiter
}

type Options struct {
	UploadRateLimit int // per user per minute
	MaxUploadBytes  int64
}

// Server implements the v1 REST surface over the use cases.
type Server struct {
	Deps
	opts Options
	log  *zerolog.Logger
}

func NewServer(d Deps, opts Options, logger *zerolog.Logger) *Server {
	if opts.UploadRateLimit <= 0 {
		opts.UploadRateLimit = defaultUploadLimit
	}
	l := logger.With().Str("component", "APIv1").Logger()
	return &Server{Deps: d, opts: opts, log: &l}
}

func (s *Server) logger(r *http.Request) *zerolog.Logger {
	return logging.With(r.Context(), s.log)
}

// RegisterAPIV1 mounts every v1 route under /api/v1 behind mws.
func RegisterAPIV1(r chi.Router, s *Server, mws ...func(http.Handler) http.Handler) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mws...)

		r.Post("/translations", s.uploadTranslation)
		r.Get("/translations/{jobId}", s.getJob)
		r.Get("/translations/{jobId}/result", s.getJobResult)
		r.Get("/translations/{jobId}/suggestions", s.getJobSuggestions)
		r.Delete("/translations/{jobId}", s.cancelJob)

		r.Post("/documents/pages", s.countPages)

		r.Get("/chats", s.listChats)
		r.Get("/chats/{chatId}", s.getChat)
		r.Delete("/chats/{chatId}", s.deleteChat)
		r.Get("/chats/{chatId}/file", s.getChatFile)
		r.Put("/chats/{chatId}/content", s.updateChatContent)
		r.Post("/chats/{chatId}/suggestions", s.generateChatSuggestions)
		r.Post("/chats/{chatId}/suggestions/{suggestionId}/apply", s.applyChatSuggestion)
		r.Patch("/chats/{chatId}/messages/{messageId}/hide", s.hideMessage)

		r.Get("/languages", s.listLanguages)
	})
}

func (s *Server) listLanguages(w http.ResponseWriter, r *http.Request) {
	langs, err := s.Languages.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"languages": langs})
}
