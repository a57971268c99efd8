package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotachat/quotachat/internal/metrics"
	"github.com/quotachat/quotachat/internal/models"
)

func TestLoginSuccess(t *testing.T) {
	var gotPath, gotRequestedWith, gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotRequestedWith = r.Header.Get("X-Requested-With")
		gotContentType = r.Header.Get("Content-Type")

		var creds models.LoginCredentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		assert.Equal(t, "alice", creds.Username)

		json.NewEncoder(w).Encode(models.Identity{
			UserID:          "u1",
			Username:        "alice",
			Balance:         5.0,
			AvailableTokens: 500000,
		})
	}))
	defer srv.Close()

	client := New(srv.URL)
	identity, err := client.Login(context.Background(), models.LoginCredentials{
		Username: "alice",
		Password: "secret123",
	})
	require.NoError(t, err)

	assert.Equal(t, "/login", gotPath)
	assert.Equal(t, "XMLHttpRequest", gotRequestedWith)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "u1", identity.UserID)
	assert.Equal(t, 5.0, identity.Balance)
	assert.Equal(t, int64(500000), identity.AvailableTokens)
}

func TestLoginFailureUsesBackendDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Invalid username or password"})
	}))
	defer srv.Close()

	client := New(srv.URL)
	_, err := client.Login(context.Background(), models.LoginCredentials{Username: "alice", Password: "wrong"})
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrAuth)
	assert.Equal(t, "Invalid username or password", UserMessage(err))
}

func TestLoginFailureFallbackMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// No structured body at all.
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := New(srv.URL)
	_, err := client.Login(context.Background(), models.LoginCredentials{Username: "alice", Password: "x"})
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrAuth)
	assert.Equal(t, "login failed, check username and password", UserMessage(err))
}

func TestRegister(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/register", r.URL.Path)

		var creds models.RegisterCredentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		assert.Equal(t, "bob@example.com", creds.Email)

		json.NewEncoder(w).Encode(models.Identity{UserID: "u2", Username: "bob"})
	}))
	defer srv.Close()

	client := New(srv.URL)
	identity, err := client.Register(context.Background(), models.RegisterCredentials{
		Email:    "bob@example.com",
		Username: "bob",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, "u2", identity.UserID)
}

func TestSendChatTurn(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "u1", req["user_id"])
		assert.Equal(t, "Hello", req["input_text"])

		json.NewEncoder(w).Encode(ChatTurnResult{
			Response:         "Hi!",
			TokensUsed:       10,
			AmountUsed:       0.001,
			RemainingBalance: 4.999,
			RemainingTokens:  499990,
		})
	}))
	defer srv.Close()

	client := New(srv.URL)
	result, err := client.SendChatTurn(context.Background(), "u1", "Hello")
	require.NoError(t, err)

	assert.Equal(t, "Hi!", result.Response)
	assert.Equal(t, int64(10), result.TokensUsed)
	assert.Equal(t, 4.999, result.RemainingBalance)
	assert.Equal(t, int64(499990), result.RemainingTokens)
}

func TestSendChatTurnQuotaRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Insufficient tokens"})
	}))
	defer srv.Close()

	client := New(srv.URL)
	_, err := client.SendChatTurn(context.Background(), "u1", "Hello")
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrChat)
	assert.NotErrorIs(t, err, ErrAuth)
	assert.Equal(t, "Insufficient tokens", UserMessage(err))
}

func TestFetchHistoryPreservesServerOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/chats/u1", r.URL.Path)

		json.NewEncoder(w).Encode([]models.ChatTurn{
			{ID: "t2", InputText: "second"},
			{ID: "t1", InputText: "first"},
		})
	}))
	defer srv.Close()

	client := New(srv.URL)
	turns, err := client.FetchHistory(context.Background(), "u1")
	require.NoError(t, err)

	// The client reports turns as received; ordering belongs to the
	// reconciler.
	require.Len(t, turns, 2)
	assert.Equal(t, "t2", turns[0].ID)
	assert.Equal(t, "t1", turns[1].ID)
}

func TestFetchHistoryError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := New(srv.URL)
	_, err := client.FetchHistory(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrHistory)
}

func TestRecharge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/recharge", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "u1", req["user_id"])
		assert.Equal(t, 10.0, req["amount"])

		json.NewEncoder(w).Encode(RechargeResult{Balance: 15.0, AvailableTokens: 1500000})
	}))
	defer srv.Close()

	client := New(srv.URL)
	result, err := client.Recharge(context.Background(), "u1", 10)
	require.NoError(t, err)
	assert.Equal(t, 15.0, result.Balance)
	assert.Equal(t, int64(1500000), result.AvailableTokens)
}

func TestRechargeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Invalid amount"})
	}))
	defer srv.Close()

	client := New(srv.URL)
	_, err := client.Recharge(context.Background(), "u1", 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBilling)
	assert.Equal(t, "Invalid amount", UserMessage(err))
}

func TestTransportErrorWrapsCategory(t *testing.T) {
	// Closed server: connection refused.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := New(srv.URL)
	_, err := client.SendChatTurn(context.Background(), "u1", "Hello")
	assert.ErrorIs(t, err, ErrChat)
}

func TestSessionCookiePersistsAcrossCalls(t *testing.T) {
	var cookieOnHistory string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login":
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc123"})
			json.NewEncoder(w).Encode(models.Identity{UserID: "u1"})
		default:
			if c, err := r.Cookie("session"); err == nil {
				cookieOnHistory = c.Value
			}
			json.NewEncoder(w).Encode([]models.ChatTurn{})
		}
	}))
	defer srv.Close()

	client := New(srv.URL)
	_, err := client.Login(context.Background(), models.LoginCredentials{Username: "alice", Password: "x"})
	require.NoError(t, err)

	_, err = client.FetchHistory(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "abc123", cookieOnHistory)
}

func TestClientRecordsCallTimings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.Identity{UserID: "u1"})
	}))
	defer srv.Close()

	collector := metrics.NewCollector()
	client := New(srv.URL, WithCollector(collector), WithTimeout(5*time.Second))

	_, err := client.Login(context.Background(), models.LoginCredentials{Username: "alice", Password: "x"})
	require.NoError(t, err)

	snap := collector.Snapshot()
	require.Contains(t, snap.Calls, metrics.OpLogin)
	assert.Equal(t, int64(1), snap.Calls[metrics.OpLogin].Count)
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil))
	assert.Equal(t, "Insufficient tokens", UserMessage(wrapStatus(ErrChat, []byte(`{"detail":"Insufficient tokens"}`), "fallback")))
	assert.Equal(t, "chat request failed", UserMessage(ErrChat))
}
