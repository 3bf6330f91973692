// Package jobs finalizes background LLM runs: a poller sweeps pending
// interactions and applies terminal provider responses to their rows.
package jobs

import (
	"encoding/json"
	"time"

	"bizradar/internal/llm"
	"bizradar/internal/store"
)

// ApplyResponse maps a terminal provider response onto an interaction
// row. Completed runs keep the JSON object from the output (or the raw
// text wrapped in one); anything else is recorded as failed. The same
// translation runs whether the poller or a status check gets there
// first, so the outcome is identical either way.
func ApplyResponse(inter *store.Interaction, resp *llm.Response) {
	now := time.Now().UTC()
	inter.CompletedAt = &now
	if resp.Model != "" {
		inter.Model = resp.Model
	}
	inter.PromptTokens = resp.Usage.PromptTokens
	inter.CompletionTokens = resp.Usage.CompletionTokens
	inter.DurationMs = now.Sub(inter.CreatedAt).Milliseconds()

	if resp.Status != llm.StatusCompleted {
		inter.Status = store.InteractionFailed
		inter.Error = resp.Error
		if inter.Error == "" {
			inter.Error = "provider returned status " + string(resp.Status)
		}
		return
	}

	inter.Status = store.InteractionCompleted
	if payload := llm.ExtractJSON(resp.Output); payload != "" {
		inter.Response = json.RawMessage(payload)
	} else {
		wrapped, _ := json.Marshal(map[string]string{"text": resp.Output})
		inter.Response = wrapped
	}
}
