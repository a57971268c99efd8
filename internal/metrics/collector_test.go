package metrics

import (
	"testing"
	"time"
)

func TestRecordCall(t *testing.T) {
	c := NewCollector()
	c.RecordCall(OpChat, 100*time.Millisecond)
	c.RecordCall(OpChat, 300*time.Millisecond)
	c.RecordCall(OpLogin, 50*time.Millisecond)

	snap := c.Snapshot()

	chat, ok := snap.Calls[OpChat]
	if !ok {
		t.Fatal("no chat stats recorded")
	}
	if chat.Count != 2 {
		t.Errorf("chat count = %d, want 2", chat.Count)
	}
	if chat.TotalTimeMs != 400 {
		t.Errorf("chat total = %dms, want 400", chat.TotalTimeMs)
	}
	if chat.AvgTimeMs != 200 {
		t.Errorf("chat avg = %vms, want 200", chat.AvgTimeMs)
	}
	if chat.MinTimeMs != 100 || chat.MaxTimeMs != 300 {
		t.Errorf("chat min/max = %d/%d, want 100/300", chat.MinTimeMs, chat.MaxTimeMs)
	}

	if login := snap.Calls[OpLogin]; login.Count != 1 {
		t.Errorf("login count = %d, want 1", login.Count)
	}
}

func TestRecordTurn(t *testing.T) {
	c := NewCollector()
	c.RecordTurn(10, 0.001)
	c.RecordTurn(25, 0.0025)

	snap := c.Snapshot()
	if snap.TurnsCommitted != 2 {
		t.Errorf("turns = %d, want 2", snap.TurnsCommitted)
	}
	if snap.TokensUsed != 35 {
		t.Errorf("tokens = %d, want 35", snap.TokensUsed)
	}
	if snap.AmountSpent != 0.0035 {
		t.Errorf("spent = %v, want 0.0035", snap.AmountSpent)
	}
}

func TestSnapshotSkipsEmptyOps(t *testing.T) {
	c := NewCollector()
	snap := c.Snapshot()
	if len(snap.Calls) != 0 {
		t.Errorf("fresh collector has %d call entries, want 0", len(snap.Calls))
	}
	if snap.SessionSeconds < 0 {
		t.Errorf("session seconds = %v", snap.SessionSeconds)
	}
}
