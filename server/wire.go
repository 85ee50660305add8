package server

import (
	"encoding/json"
	"net/http"

	"github.com/crlsmrls/lixservice/internal/domain"
)

// analyzeRequest is the inbound body for POST /analyze, the streaming
// typing path, and (per-item) the batch endpoint, per spec.md §6.
type analyzeRequest struct {
	Text                    string             `json:"text"`
	IncludeWordAnalysis     *bool              `json:"include_word_analysis,omitempty"`
	IncludeSentenceAnalysis *bool              `json:"include_sentence_analysis,omitempty"`
	UserContext             domain.UserContext `json:"user_context,omitempty"`
}

// options applies the two documented defaults: include_word_analysis
// defaults false, include_sentence_analysis defaults true.
func (a analyzeRequest) options() domain.Options {
	opts := domain.Options{IncludeWordAnalysis: false, IncludeSentenceAnalysis: true, UserContext: a.UserContext}
	if a.IncludeWordAnalysis != nil {
		opts.IncludeWordAnalysis = *a.IncludeWordAnalysis
	}
	if a.IncludeSentenceAnalysis != nil {
		opts.IncludeSentenceAnalysis = *a.IncludeSentenceAnalysis
	}
	return opts
}

// processingResponse is returned from POST /analyze in place of an
// AnalysisRecord when the input exceeds the background threshold.
type processingResponse struct {
	TaskID                   string  `json:"task_id"`
	Status                   string  `json:"status"`
	PollingEndpoint          string  `json:"polling_endpoint"`
	EstimatedCompletionSecs  float64 `json:"estimated_completion_seconds"`
}

// batchRequestItem is one {id, content} entry of an inbound batch body.
type batchRequestItem struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

type batchRequest struct {
	Texts    []batchRequestItem `json:"texts"`
	Priority int                `json:"priority,omitempty"`
}

type batchAcceptedResponse struct {
	JobID            string  `json:"job_id"`
	Status           string  `json:"status"`
	TextsCount       int     `json:"texts_count"`
	EstimatedTimeSecs float64 `json:"estimated_time"`
}

type batchItemResultWire struct {
	Result *domain.AnalysisRecord `json:"result,omitempty"`
	Error  string                 `json:"error,omitempty"`
}

type batchStatusResponse struct {
	JobID    string                          `json:"job_id"`
	Status   domain.JobStatus                `json:"status"`
	Progress domain.BatchProgress            `json:"progress"`
	Results  map[string]batchItemResultWire  `json:"results,omitempty"`
}

type taskStatusResponse struct {
	TaskID string                  `json:"task_id"`
	Status domain.JobStatus        `json:"status"`
	Result *domain.AnalysisRecord  `json:"result,omitempty"`
	Error  string                  `json:"error,omitempty"`
}

type errorResponse struct {
	Kind      domain.ErrorKind `json:"kind"`
	Message   string           `json:"message"`
	ClientID  string           `json:"client_id,omitempty"`
	RequestID string           `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err *domain.Error) {
	writeJSON(w, err.Kind.HTTPStatus(), errorResponse{
		Kind:      err.Kind,
		Message:   err.Message,
		ClientID:  err.ClientID,
		RequestID: err.RequestID,
	})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}
