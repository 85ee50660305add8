package server

import (
	"net/http"
	"time"

	"github.com/crlsmrls/lixservice/internal/domain"
	"github.com/crlsmrls/lixservice/internal/jobs"
	"github.com/crlsmrls/lixservice/internal/kernels"
	"github.com/crlsmrls/lixservice/internal/readability"
	"github.com/crlsmrls/lixservice/internal/recommend"
	"github.com/crlsmrls/lixservice/internal/textparse"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Same-origin only isn't enforced by the teacher's other endpoints
	// either; the shared token in TokenAuthMiddleware gates this route.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type wsTypingMessage struct {
	Text string `json:"text"`
}

type wsEvent struct {
	Type            string                  `json:"type"`
	Readability     *domain.MetricResult    `json:"readability,omitempty"`
	TextAnalysis    *domain.TextStatistics  `json:"text_analysis,omitempty"`
	Recommendations []domain.Recommendation `json:"recommendations,omitempty"`
	Error           string                  `json:"error,omitempty"`
}

// handleAnalyzeWS implements the streaming-typing WebSocket path of
// spec.md §4.7/§5: each inbound message is debounced per-connection,
// producing a fast partial reading and, once the session settles, a
// detailed one. Messages are handled one at a time in arrival order; the
// debounce rules may drop a message outright, but a result already being
// computed is sent even if a later message is waiting on the connection.
func (s *Server) handleAnalyzeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	session := jobs.NewSession()
	parser := textparse.New()
	generation := 0

	for {
		var msg wsTypingMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		generation++
		mine := generation

		wordCount := textparse.CountWords(msg.Text)
		load := jobs.SystemLoad{}
		if s.sampler != nil {
			snap := s.sampler.Sample()
			load = jobs.SystemLoad{CPU: snap.CPUPercent / 100, Mem: snap.MemoryPercent / 100}
		}

		decision := session.Evaluate(msg.Text, wordCount, load, time.Now())
		if decision.Drop {
			continue
		}

		fingerprint := domain.Fingerprint(msg.Text, false, true)

		var bundle domain.MetricBundle
		var stats domain.TextStatistics
		var parsed domain.ParsedText
		if cached, ok := session.CacheGet(fingerprint); ok {
			bundle, stats = cached.Metrics, cached.Statistics
		} else {
			parsed = parser.Parse(fingerprint, msg.Text)
			bundle = kernels.Compute(parsed)
			stats = readability.Statistics(parsed)
		}

		if decision.EmitPartial {
			if err := conn.WriteJSON(wsEvent{Type: "partial", Readability: &bundle.LIX}); err != nil {
				return
			}
		}

		if decision.SyncOnlyPartial {
			continue
		}
		if !decision.ScheduleDetailed {
			continue
		}

		// Messages are read and handled one at a time on this goroutine,
		// so generation cannot advance between the read above and this
		// check; it never drops a result.
		if mine != generation {
			continue
		}

		event := wsEvent{Type: "detailed", Readability: &bundle.LIX, TextAnalysis: &stats}
		if decision.AllowRecommend {
			event.Recommendations = recommend.Generate(recommend.Input{
				LIX: bundle.LIX.Score,
				RIX: bundle.RIX.Score,
			})
		}
		session.CachePut(fingerprint, domain.AnalysisRecord{Metrics: bundle, Statistics: stats})
		if err := conn.WriteJSON(event); err != nil {
			return
		}
	}
}
