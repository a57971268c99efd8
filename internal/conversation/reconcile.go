// Package conversation maintains the ordered chat transcript: reconciling
// persisted history into it and driving optimistic chat turns against it.
package conversation

import (
	"sort"

	"github.com/quotachat/quotachat/internal/models"
)

// Reconcile expands persisted chat turns into the ordered transcript shown
// to the user. Each turn becomes two entries (user, then assistant) sharing
// the turn's token count, cost and timestamp.
//
// The order is total and deterministic: timestamp ascending, ties broken by
// the original turn order, then user before assistant. The stable sort over
// the turn-order expansion yields exactly that.
func Reconcile(turns []models.ChatTurn) []models.TranscriptEntry {
	entries := make([]models.TranscriptEntry, 0, len(turns)*2)
	for _, turn := range turns {
		tokens := turn.TokensUsed
		cost := turn.AmountUsed
		ts := turn.Timestamp

		entries = append(entries, models.TranscriptEntry{
			ID:        turn.ID + ":user",
			Role:      models.RoleUser,
			Content:   turn.InputText,
			Tokens:    &tokens,
			Cost:      &cost,
			Timestamp: &ts,
		})
		entries = append(entries, models.TranscriptEntry{
			ID:        turn.ID + ":assistant",
			Role:      models.RoleAssistant,
			Content:   turn.ResponseText,
			Tokens:    &tokens,
			Cost:      &cost,
			Timestamp: &ts,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(*entries[j].Timestamp)
	})
	return entries
}
