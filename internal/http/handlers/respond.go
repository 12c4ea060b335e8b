// Package handlers exposes the webhook endpoints the voice agent calls
// during and after a phone conversation. The agent only understands
// conversational replies, so every endpoint answers HTTP 200 with a spoken
// "result" string; the lone transport-level error is 405 for a wrong method,
// which the router produces.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/plumbline-ai/sarah-booking/internal/schedule"
)

// maxBodyBytes bounds webhook payload reads. Transcripts are the largest
// field and stay well under this.
const maxBodyBytes = 1 << 20

// agentReply is the envelope every conversational endpoint returns.
type agentReply struct {
	Result  string `json:"result"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
}

// speak writes the conversational 200 response.
func speak(w http.ResponseWriter, result string, success bool, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(agentReply{Result: result, Success: success, Data: data})
}

// writeJSON writes a plain JSON response for non-conversational endpoints.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// windowSpoken renders a window's bounds the way the agent says them.
func windowSpoken(w schedule.Window) string {
	switch w.Name {
	case "morning":
		return "between 8 and 11 in the morning"
	case "midday":
		return "between 11 and 2 midday"
	default:
		return "between 2 and 5 in the afternoon"
	}
}
