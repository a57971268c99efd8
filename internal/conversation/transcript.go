package conversation

import (
	"sync"

	"github.com/quotachat/quotachat/internal/models"
)

// Transcript is the ordered sequence of entries displayed to the user.
// Append-only from the UI's perspective, except for the rollback of a failed
// optimistic turn. Safe for concurrent use: the turn controller mutates it
// from command goroutines while the UI reads it.
type Transcript struct {
	mu      sync.RWMutex
	entries []models.TranscriptEntry
}

// NewTranscript creates an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{}
}

// LoadHistory replaces the transcript with the reconciled history. This is
// the one-shot initial load; optimistic entries are appended after it and
// never merged into the sort.
func (t *Transcript) LoadHistory(turns []models.ChatTurn) {
	reconciled := Reconcile(turns)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = reconciled
}

// Reset discards all entries. Used on logout; the next session starts from
// its own one-shot history load.
func (t *Transcript) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = nil
}

// Append adds an entry at the end.
func (t *Transcript) Append(entry models.TranscriptEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, entry)
}

// Len returns the number of entries.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Entries returns a copy of the entries for rendering.
func (t *Transcript) Entries() []models.TranscriptEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]models.TranscriptEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// truncateTo discards everything after the first n entries. Used by the
// rollback path to remove exactly what an optimistic insert added.
func (t *Transcript) truncateTo(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n < 0 || n > len(t.entries) {
		return
	}
	t.entries = t.entries[:n]
}

// confirm clears the Pending flag on the entry with the given ID.
func (t *Transcript) confirm(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.entries {
		if t.entries[i].ID == id {
			t.entries[i].Pending = false
			return
		}
	}
}
