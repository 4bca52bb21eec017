package apiv1

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"ai-document-translator/internal/domain"
	"ai-document-translator/internal/domain/model"
	"ai-document-translator/internal/infra/logging"
	red "ai-document-translator/internal/infra/redis"
)

const multipartOverhead = 1 << 20

// readUpload pulls the multipart "file" part into memory.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (*model.SourceFile, error) {
	if s.opts.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes+multipartOverhead)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, domain.ErrFileTooLarge
		}
		return nil, fmt.Errorf("%w: multipart form expected", domain.ErrInvalidArgument)
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("%w: file is required", domain.ErrInvalidArgument)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("%w: read upload: %v", domain.ErrInvalidArgument, err)
	}
	return &model.SourceFile{
		Name:        hdr.Filename,
		ContentType: hdr.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func (s *Server) uploadTranslation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := logging.UserID(ctx)

	if s.Limiter != nil {
		ok, err := s.Limiter.Allow(ctx, red.UserActionKey(userID, "upload"), s.opts.UploadRateLimit, uploadWindow)
		if err != nil {
			s.logger(r).Warn().Err(err).Msg("rate limiter unavailable")
		} else if !ok {
			s.writeError(w, r, domain.ErrRateLimited)
			return
		}
	}

	file, err := s.readUpload(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	langID, err := strconv.Atoi(strings.TrimSpace(r.FormValue("target_language_id")))
	if err != nil {
		badRequest(w, "target_language_id must be an integer")
		return
	}
	var format model.OutputFormat
	if raw := strings.TrimSpace(r.FormValue("output_format")); raw != "" {
		f, ok := model.ParseOutputFormat(raw)
		if !ok {
			badRequest(w, "unknown output_format")
			return
		}
		format = f
	}

	receipt, err := s.Translations.Submit(ctx, model.UploadRequest{
		UserID:           userID,
		File:             *file,
		TargetLanguageID: langID,
		Model:            model.AIModel(strings.TrimSpace(r.FormValue("model"))),
		OutputFormat:     format,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, receipt)
}

// ownJob loads a live job that belongs to the caller; anything else is 404.
func (s *Server) ownJob(r *http.Request) (*model.TranslationJob, error) {
	var jobID string
	if err := pathParam(r, "jobId", &jobID); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
	}
	job, found, err := s.Jobs.GetJob(r.Context(), jobID)
	if err != nil {
		return nil, err
	}
	if !found || job.UserID != logging.UserID(r.Context()) {
		return nil, domain.ErrNotFound
	}
	return job, nil
}

func (s *Server) getJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.ownJob(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job.View())
}

func (s *Server) getJobResult(w http.ResponseWriter, r *http.Request) {
	job, err := s.ownJob(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if job.Status != model.JobStatusCompleted || len(job.ResultData) == 0 {
		writeJSON(w, http.StatusConflict, errorResponse{Error: "translation is not completed"})
		return
	}
	writeFile(w, job.FileName, job.ContentType, job.ResultData)
}

// getJobSuggestions hands out each suggestion once.
func (s *Server) getJobSuggestions(w http.ResponseWriter, r *http.Request) {
	job, err := s.ownJob(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	list, err := s.Jobs.GetUnreturnedSuggestions(r.Context(), job.JobID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(list) > 0 {
		ids := make([]string, 0, len(list))
		for _, sg := range list {
			ids = append(ids, sg.ID)
		}
		if err := s.Jobs.UpdateReturnedSuggestionIDs(r.Context(), job.JobID, ids); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"suggestions": list})
}

func (s *Server) cancelJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.ownJob(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.Translations.Cancel(r.Context(), job.JobID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) countPages(w http.ResponseWriter, r *http.Request) {
	file, err := s.readUpload(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	n, err := s.Translations.CountPages(r.Context(), file)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"file_name": file.Name, "pages": n})
}
