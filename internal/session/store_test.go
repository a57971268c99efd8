package session

import (
	"sync"
	"testing"
	"time"

	"github.com/quotachat/quotachat/internal/models"
)

func TestStoreEmpty(t *testing.T) {
	store := NewStore()
	if _, ok := store.Get(); ok {
		t.Error("fresh store reports an identity")
	}
}

func TestStoreSetReplacesWholesale(t *testing.T) {
	store := NewStore()
	store.Set(models.Identity{UserID: "u1", Username: "alice", Balance: 5.0, AvailableTokens: 500000})

	// A later Set without user fields must not keep the old ones: the
	// store replaces, never merges.
	store.Set(models.Identity{Balance: 4.999, AvailableTokens: 499990})

	identity, ok := store.Get()
	if !ok {
		t.Fatal("identity missing after Set")
	}
	if identity.UserID != "" || identity.Username != "" {
		t.Errorf("identity merged old fields: %+v", identity)
	}
	if identity.Balance != 4.999 || identity.AvailableTokens != 499990 {
		t.Errorf("identity = %+v", identity)
	}
}

func TestStoreGetReturnsCopy(t *testing.T) {
	store := NewStore()
	store.Set(models.Identity{UserID: "u1", Balance: 5.0})

	identity, _ := store.Get()
	identity.Balance = 0

	again, _ := store.Get()
	if again.Balance != 5.0 {
		t.Errorf("mutating a Get result changed the store: %+v", again)
	}
}

func TestStoreClear(t *testing.T) {
	store := NewStore()
	store.Set(models.Identity{UserID: "u1"})
	store.Clear()
	if _, ok := store.Get(); ok {
		t.Error("identity survived Clear")
	}
}

func TestStoreWatchNotifies(t *testing.T) {
	store := NewStore()
	ch, cancel := store.Watch()
	defer cancel()

	store.Set(models.Identity{UserID: "u1"})

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no notification after Set")
	}

	store.Clear()
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no notification after Clear")
	}
}

func TestStoreWatchCoalesces(t *testing.T) {
	store := NewStore()
	ch, cancel := store.Watch()
	defer cancel()

	// Multiple changes before the watcher drains collapse into a single
	// pending signal; the watcher re-reads the latest snapshot.
	for i := 0; i < 5; i++ {
		store.Set(models.Identity{UserID: "u1", AvailableTokens: int64(i)})
	}

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no notification")
	}
	select {
	case <-ch:
		t.Error("second pending signal, want coalesced single signal")
	default:
	}

	identity, _ := store.Get()
	if identity.AvailableTokens != 4 {
		t.Errorf("snapshot = %+v, want latest write", identity)
	}
}

func TestStoreWatchCancel(t *testing.T) {
	store := NewStore()
	ch, cancel := store.Watch()
	cancel()

	if _, open := <-ch; open {
		t.Error("channel still open after cancel")
	}

	// Changes after cancel must not panic.
	store.Set(models.Identity{UserID: "u1"})
}

func TestStoreConcurrentAccess(t *testing.T) {
	store := NewStore()
	store.Set(models.Identity{UserID: "u1", Balance: 5.0, AvailableTokens: 500000})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(n int64) {
			defer wg.Done()
			store.Set(models.Identity{UserID: "u1", Balance: float64(n), AvailableTokens: n * 1000})
		}(int64(i))
		go func() {
			defer wg.Done()
			identity, ok := store.Get()
			if !ok {
				return
			}
			// Balance and quota always come from the same write.
			if identity.Balance*1000 != float64(identity.AvailableTokens) && identity.Balance != 5.0 {
				t.Errorf("torn read: %+v", identity)
			}
		}()
	}
	wg.Wait()
}
