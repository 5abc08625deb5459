package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"harvest/internal/answer"
	"harvest/internal/history"
	"harvest/internal/journal"
	"harvest/internal/score"
)

const (
	// Liveness is the body of GET /.
	Liveness = "Agriculture Answer Scoring API is running!"

	maxBodyBytes = 64 << 10
)

var errInvalidBody = errors.New("invalid request body")

// ReadinessChecker reports whether the model backend can serve requests.
type ReadinessChecker interface {
	Ready(ctx context.Context) error
}

// ApiRouter serves the answer scoring API.
type ApiRouter struct {
	// scorer — turns a sanitized answer into sub-scores.
	scorer score.Scorer
	// model — readiness of the inference backend, reported by /health.
	model ReadinessChecker
	// history — recent assessments per mission.
	history *history.Repository
	// journal — durable record of every scored answer.
	journal journal.Journal
	now     func() time.Time
}

// Mux returns a *http.ServeMux with the following routes:
// - POST /process-answer — scores an answer
// - GET /missions/{mission_id}/assessments — recent assessments of a mission
// - GET /health — model backend readiness
// - GET / — liveness
func (ar *ApiRouter) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /process-answer", ar.processAnswerHandler)
	mux.HandleFunc("GET /missions/{mission_id}/assessments", ar.assessmentsHandler)
	mux.HandleFunc("GET /health", ar.healthHandler)
	mux.HandleFunc("GET /{$}", ar.homeHandler)
	return mux
}

// processAnswerHandler validates the answer, scores it and returns the assessment.
// Too short answers yield 400 and inference failures 500, both with zero scores.
func (ar *ApiRouter) processAnswerHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		slog.Warn("Unable to read answer request body", "error", err)
		writeJSON(w, http.StatusBadRequest, answer.Failed(nil, errInvalidBody))
		return
	}

	var req answer.Request
	if err := json.Unmarshal(body, &req); err != nil {
		slog.Warn("Unable to unmarshal answer request body", "error", err)
		writeJSON(w, http.StatusBadRequest, answer.Failed(recoverMissionID(body), errInvalidBody))
		return
	}

	text := answer.Sanitize(req.Answer)
	if err := answer.Validate(text); err != nil {
		slog.Debug("Answer rejected", "mission_id", string(req.MissionID), "error", err)
		writeJSON(w, http.StatusBadRequest, answer.Failed(req.MissionID, err))
		return
	}

	s, err := ar.scorer.Score(r.Context(), text)
	if err != nil {
		slog.Error("Answer scoring failed", "mission_id", string(req.MissionID), "error", err)
		writeJSON(w, http.StatusInternalServerError, answer.Failed(req.MissionID, err))
		return
	}

	resp := answer.Succeeded(req.MissionID, s)
	ar.record(req.MissionID, text, s, resp)

	writeJSON(w, http.StatusOK, resp)
}

func (ar *ApiRouter) record(missionID json.RawMessage, text string, s score.Score, resp answer.Response) {
	now := ar.now()

	if key, ok := missionKey(missionID); ok {
		ar.history.Append(key, history.Record{
			Time:                  now,
			Words:                 answer.WordCount(text),
			DetailedScores:        resp.DetailedScores,
			QualitativeAssessment: resp.QualitativeAssessment,
		})
	}

	err := ar.journal.Append(journal.Entry{
		Time:      now,
		MissionID: missionID,
		Answer:    text,
		Scores:    s,
	})
	if err != nil {
		slog.Warn("Unable to journal answer", "error", err)
	}
}

// assessmentsHandler returns the recent assessments of a mission, oldest first.
// The mission id matches either as a JSON string or as a raw JSON value (e.g. a number).
func (ar *ApiRouter) assessmentsHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("mission_id")

	quoted, _ := json.Marshal(id)
	key := string(quoted)
	records, err := ar.history.Get(key)
	if errors.Is(err, history.ErrNotFound) {
		if raw, ok := missionKey(json.RawMessage(id)); ok {
			key = raw
			records, err = ar.history.Get(raw)
		}
	}
	if err != nil {
		slog.Debug("Assessments not found", "mission_id", id, "error", err)
		w.WriteHeader(http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"mission_id":  json.RawMessage(key),
		"assessments": records,
	})
}

func (ar *ApiRouter) healthHandler(w http.ResponseWriter, r *http.Request) {
	if err := ar.model.Ready(r.Context()); err != nil {
		slog.Warn("Model not ready", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (ar *ApiRouter) homeHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(Liveness))
}

// recoverMissionID extracts mission_id from a body whose other fields failed to decode.
func recoverMissionID(body []byte) json.RawMessage {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil
	}
	return fields["mission_id"]
}

// missionKey normalizes a raw mission id. Missing and null ids have no key.
func missionKey(id json.RawMessage) (string, bool) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, id); err != nil {
		return "", false
	}
	if buf.Len() == 0 || buf.String() == "null" {
		return "", false
	}
	return buf.String(), true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		slog.Error("Unable to marshal response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

// NewApiRouter creates the API router.
// j may be nil, in which case scored answers are not journaled.
func NewApiRouter(
	scorer score.Scorer,
	model ReadinessChecker,
	historyRepo *history.Repository,
	j journal.Journal,
) *ApiRouter {
	if j == nil {
		j = journal.Nop{}
	}
	return &ApiRouter{
		scorer:  scorer,
		model:   model,
		history: historyRepo,
		journal: j,
		now:     time.Now,
	}
}
