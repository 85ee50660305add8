package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/crlsmrls/lixservice/cmd"
	"github.com/crlsmrls/lixservice/internal/domain"
	"github.com/crlsmrls/lixservice/internal/jobs"
	"github.com/crlsmrls/lixservice/internal/kernels"
	"github.com/crlsmrls/lixservice/internal/readability"
	"github.com/crlsmrls/lixservice/internal/recommend"
	"github.com/crlsmrls/lixservice/internal/textparse"
	"github.com/crlsmrls/lixservice/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// setupRoutes wires the Delivery Surface (C11): request/reply endpoints,
// the SSE chunk-streaming endpoint, the WebSocket typing path, and the
// plain health/root endpoints, grounded on the teacher's chi router
// layout in server/routes.go.
func setupRoutes(router *chi.Mux, s *Server) {
	router.Get("/", s.handleRoot)
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	router.Get("/health", s.handleHealth)
	router.Get("/version", cmd.VersionHandler)

	router.Group(func(r chi.Router) {
		r.Use(TokenAuthMiddleware(s.config))
		r.Post("/analyze", s.handleAnalyze)
		r.Post("/analyze/batch", s.handleAnalyzeBatch)
		r.Get("/analyze/batch/{job_id}", s.handleBatchStatus)
		r.Get("/task/{task_id}", s.handleTaskStatus)
		r.Post("/analyze/stream", s.handleAnalyzeStream)
		r.Get("/ws/analyze", s.handleAnalyzeWS)
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "lixservice — Norwegian/Scandinavian readability analysis")
	fmt.Fprintln(w, "Endpoints: POST /analyze, POST /analyze/batch, GET /analyze/batch/{job_id}, GET /task/{task_id}, POST /analyze/stream, GET /ws/analyze, GET /health")
}

func (s *Server) thresholds() (small, large, background int) {
	return s.config.Thresholds.Small, s.config.Thresholds.Large, s.config.Thresholds.Background
}

// handleAnalyze implements POST /analyze, per spec.md §4.5/§4.6/§4.7/§6.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, domain.Wrap(domain.ErrInvalidInput, "malformed request body", err))
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, domain.NewError(domain.ErrInvalidInput, "text must not be empty"))
		return
	}
	if s.registry == nil || s.registry.Readability == nil {
		writeError(w, domain.NewError(domain.ErrDependencyUnavailable, "readability service unavailable"))
		return
	}

	opts := req.options()
	small, large, background := s.thresholds()
	text := domain.NewText(req.Text, opts.IncludeWordAnalysis, opts.IncludeSentenceAnalysis, small, large, background)

	if cache := s.registry.Cache; cache != nil {
		if raw, ok := cache.GetAnalysis(text.Fingerprint); ok {
			var rec domain.AnalysisRecord
			if err := json.Unmarshal([]byte(raw), &rec); err == nil {
				rec.Provenance.Cached = true
				metrics.IncAnalysesServed()
				writeJSON(w, http.StatusOK, rec)
				return
			}
		}
	}

	if text.Class == domain.SizeHuge && s.registry.Jobs != nil {
		ctx := context.Background()
		h := s.registry.Jobs.SubmitAnalysis(ctx, func(ctx context.Context) (domain.AnalysisRecord, error) {
			rec := s.registry.Readability.Analyze(text, opts)
			s.cacheResult(text, rec)
			metrics.IncAnalysesServed()
			return rec, nil
		})
		s.setTaskStatus(h.ID, domain.JobQueued)
		writeJSON(w, http.StatusAccepted, processingResponse{
			TaskID:                  h.ID,
			Status:                  string(domain.JobQueued),
			PollingEndpoint:         "/task/" + h.ID,
			EstimatedCompletionSecs: jobs.EstimatedCompletion().Seconds(),
		})
		return
	}

	start := time.Now()
	rec := s.registry.Readability.Analyze(text, opts)
	rec.Provenance.ProcessingTimeMS = float64(time.Since(start)) / float64(time.Millisecond)
	s.cacheResult(text, rec)
	metrics.IncAnalysesServed()
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) cacheResult(text domain.Text, rec domain.AnalysisRecord) {
	cache := s.registry.Cache
	if cache == nil {
		return
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return
	}
	cache.SetAnalysis(text.Fingerprint, string(raw), text.Class)
}

// setTaskStatus and setBatchStatus record a job handle's admission in the
// cache so its existence (if not its live progress) survives a poll landing
// on a different replica than the one that created it.
func (s *Server) setTaskStatus(id string, status domain.JobStatus) {
	if s.registry == nil || s.registry.Cache == nil {
		return
	}
	s.registry.Cache.SetTaskStatus(id, string(status))
}

func (s *Server) setBatchStatus(id string, status domain.JobStatus) {
	if s.registry == nil || s.registry.Cache == nil {
		return
	}
	s.registry.Cache.SetBatchJob(id, string(status))
}

func (s *Server) taskStatus(id string) (domain.JobStatus, bool) {
	if s.registry == nil || s.registry.Cache == nil {
		return "", false
	}
	v, ok := s.registry.Cache.GetTaskStatus(id)
	return domain.JobStatus(v), ok
}

func (s *Server) batchStatus(id string) (domain.JobStatus, bool) {
	if s.registry == nil || s.registry.Cache == nil {
		return "", false
	}
	v, ok := s.registry.Cache.GetBatchJob(id)
	return domain.JobStatus(v), ok
}

// handleAnalyzeBatch implements POST /analyze/batch, per spec.md §4.7/§6.
func (s *Server) handleAnalyzeBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, domain.Wrap(domain.ErrInvalidInput, "malformed request body", err))
		return
	}
	if s.registry == nil || s.registry.Batches == nil || s.registry.Readability == nil {
		writeError(w, domain.NewError(domain.ErrDependencyUnavailable, "batch scheduler unavailable"))
		return
	}

	items := make([]jobs.BatchItem, len(req.Texts))
	for i, t := range req.Texts {
		items[i] = jobs.BatchItem{ID: t.ID, Content: t.Content}
	}

	small, large, background := s.thresholds()
	process := func(ctx context.Context, item jobs.BatchItem) (domain.AnalysisRecord, error) {
		if strings.TrimSpace(item.Content) == "" {
			return domain.AnalysisRecord{}, errors.New("Empty content")
		}
		text := domain.NewText(item.Content, false, true, small, large, background)
		rec := s.registry.Readability.Analyze(text, domain.Options{IncludeSentenceAnalysis: true})
		s.cacheResult(text, rec)
		metrics.IncAnalysesServed()
		return rec, nil
	}

	h, err := s.registry.Batches.Submit(r.Context(), items, req.Priority, process)
	if err != nil {
		writeError(w, domain.Wrap(domain.ErrInvalidInput, err.Error(), err))
		return
	}
	s.setBatchStatus(h.ID, domain.JobQueued)

	writeJSON(w, http.StatusAccepted, batchAcceptedResponse{
		JobID:             h.ID,
		Status:            string(domain.JobQueued),
		TextsCount:        len(items),
		EstimatedTimeSecs: jobs.EstimatedCompletion().Seconds() * float64(len(items)),
	})
}

// handleBatchStatus implements GET /analyze/batch/{job_id}.
func (s *Server) handleBatchStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	if s.registry == nil || s.registry.Jobs == nil {
		writeError(w, domain.NewError(domain.ErrDependencyUnavailable, "job scheduler unavailable"))
		return
	}
	h, ok := s.registry.Jobs.Get(jobID)
	if !ok {
		if status, found := s.batchStatus(jobID); found {
			writeJSON(w, http.StatusOK, batchStatusResponse{JobID: jobID, Status: status})
			return
		}
		writeError(w, domain.NewError(domain.ErrNotFound, "unknown batch job id"))
		return
	}

	resp := batchStatusResponse{JobID: h.ID, Status: h.Status, Progress: h.Progress}
	if h.Status == domain.JobCompleted || h.Status == domain.JobFailed {
		resp.Results = make(map[string]batchItemResultWire, len(h.BatchResults))
		for id, item := range h.BatchResults {
			resp.Results[id] = batchItemResultWire{Result: item.Result, Error: item.Error}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleTaskStatus implements GET /task/{task_id}.
func (s *Server) handleTaskStatus(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "task_id")
	if s.registry == nil || s.registry.Jobs == nil {
		writeError(w, domain.NewError(domain.ErrDependencyUnavailable, "job scheduler unavailable"))
		return
	}
	h, ok := s.registry.Jobs.Get(taskID)
	if !ok {
		if status, found := s.taskStatus(taskID); found {
			writeJSON(w, http.StatusOK, taskStatusResponse{TaskID: taskID, Status: status})
			return
		}
		writeError(w, domain.NewError(domain.ErrNotFound, "unknown task id"))
		return
	}
	writeJSON(w, http.StatusOK, taskStatusResponse{
		TaskID: h.ID,
		Status: h.Status,
		Result: h.Result,
		Error:  h.Error,
	})
}

// handleAnalyzeStream implements POST /analyze/stream: paragraph-by-
// paragraph chunk streaming over SSE, per spec.md §4.7.
func (s *Server) handleAnalyzeStream(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, domain.Wrap(domain.ErrInvalidInput, "malformed request body", err))
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, domain.NewError(domain.ErrInvalidInput, "text must not be empty"))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, domain.NewError(domain.ErrProcessingError, "streaming unsupported by this connection"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	paragraphs := splitParagraphs(req.Text)
	chunks := jobs.ChunkPlan(paragraphs)
	parser := textparse.New()
	start := time.Now()
	total := len(chunks)

	for i, chunk := range chunks {
		select {
		case <-r.Context().Done():
			return
		default:
		}

		chunkNumber := i + 1
		isFinal := chunkNumber == total
		progress := chunkNumber * 100 / total
		chunkText := strings.Join(chunk, "\n\n")

		parsed := parser.Parse(domain.Fingerprint(chunkText, false, false), chunkText)
		metricBundle := kernels.Compute(parsed)

		event := map[string]any{
			"chunk":        chunkNumber,
			"total_chunks": total,
			"progress":     progress,
			"readability":  metricBundle.LIX,
			"is_final":     isFinal,
		}
		if jobs.IncludesStatistics(chunkNumber, isFinal) {
			event["text_analysis"] = readability.Statistics(parsed)
		}
		if jobs.IsMilestone(progress, isFinal) {
			event["recommendations"] = recommend.Generate(recommend.Input{
				LIX: metricBundle.LIX.Score,
				RIX: metricBundle.RIX.Score,
			})
		}
		writeSSEEvent(w, event)
		flusher.Flush()

		if isFinal {
			writeSSEEvent(w, map[string]any{
				"processing_completed":    true,
				"processing_time_seconds": time.Since(start).Seconds(),
			})
			flusher.Flush()
		}
	}
}

func splitParagraphs(text string) []string {
	raw := strings.Split(text, "\n\n")
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		out = append(out, strings.TrimSpace(text))
	}
	return out
}

func writeSSEEvent(w http.ResponseWriter, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal SSE event")
		return
	}
	bw := bufio.NewWriter(w)
	bw.WriteString("data: ")
	bw.Write(raw)
	bw.WriteString("\n\n")
	_ = bw.Flush()
}
