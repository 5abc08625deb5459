package answer

import (
	"encoding/json"
	"math"
	"strconv"

	"harvest/internal/score"
)

// Qualitative assessments, from best to worst.
const (
	Excellent = "Excellent understanding of agricultural concepts with strong local context and examples."
	Good      = "Good understanding with some local context and examples."
	Basic     = "Basic understanding with limited local context or examples."
	Limited   = "Limited understanding. Could benefit from more specific knowledge, local context, and examples."
)

var thresholds = []struct {
	min      float64
	sentence string
}{
	{4.0, Excellent},
	{3.0, Good},
	{2.0, Basic},
}

// DetailedScores is the per-dimension breakdown returned to clients.
type DetailedScores struct {
	Knowledge float64 `json:"Knowledge_Agriculture_Score"`
	Awareness float64 `json:"Awareness_Local_Agriculture_Score"`
	Examples  float64 `json:"Use_of_Example_Data_Score"`
	Average   float64 `json:"Average_Score"`
}

// Response is the body returned by POST /process-answer.
// Error responses carry zero scores and no assessment.
type Response struct {
	MissionID             json.RawMessage    `json:"mission_id"`
	Error                 string             `json:"error,omitempty"`
	DetailedScores        DetailedScores     `json:"detailed_scores"`
	QualitativeAssessment string             `json:"qualitative_assessment,omitempty"`
	Predictions           map[string]float64 `json:"predictions,omitempty"`
}

// Failed builds an error response with all-zero scores.
func Failed(missionID json.RawMessage, err error) Response {
	return Response{
		MissionID: missionOrNull(missionID),
		Error:     err.Error(),
	}
}

// Succeeded builds the response for a scored answer.
func Succeeded(missionID json.RawMessage, s score.Score) Response {
	detailed, sentence := Assess(s)
	return Response{
		MissionID:             missionOrNull(missionID),
		DetailedScores:        detailed,
		QualitativeAssessment: sentence,
		Predictions: map[string]float64{
			"Knowledge_Agriculture_Score":       s[score.Knowledge],
			"Awareness_Local_Agriculture_Score": s[score.Awareness],
			"Use_of_Example_Data_Score":         s[score.Examples],
		},
	}
}

// Assess rounds the sub-scores and picks the qualitative sentence.
// The sentence follows the unrounded average; only the reported Average is rounded.
func Assess(s score.Score) (DetailedScores, string) {
	avg := score.Mean(s)
	return DetailedScores{
		Knowledge: Round(s[score.Knowledge]),
		Awareness: Round(s[score.Awareness]),
		Examples:  Round(s[score.Examples]),
		Average:   Round(avg),
	}, Qualitative(avg)
}

// Qualitative maps an average score to its assessment sentence.
func Qualitative(avg float64) string {
	for _, t := range thresholds {
		if avg >= t.min {
			return t.sentence
		}
	}
	return Limited
}

// Round rounds the exact binary value of v to two decimal places, ties to even.
func Round(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	r, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	return r
}

func missionOrNull(id json.RawMessage) json.RawMessage {
	if len(id) == 0 {
		return json.RawMessage("null")
	}
	return id
}
