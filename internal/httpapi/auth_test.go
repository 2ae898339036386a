package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// TestBootstrapRegistration exercises Scenario A: an empty store allows
// registration without an invite code, and a duplicate username is
// rejected.
func TestBootstrapRegistration(t *testing.T) {
	_, router := newTestServer(t)

	token, uid := registerUser(t, router, "alice", "hunter22", "")
	if token == "" {
		t.Error("expected non-empty token")
	}
	if uid != 1 {
		t.Errorf("first registered user id = %d, want 1", uid)
	}

	rr := doJSON(t, router, http.MethodPost, "/api/register", registerRequest{
		Username:  "alice",
		Password:  "hunter22",
		PublicKey: "QUFBQQ==",
	}, "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("duplicate register status = %d, want 400", rr.Code)
	}
}

// TestInviteGating exercises Scenario B: after the first user exists,
// registration requires a valid, unused invite code.
func TestInviteGating(t *testing.T) {
	_, router := newTestServer(t)
	aliceToken, _ := registerUser(t, router, "alice", "hunter22", "")

	rr := doJSON(t, router, http.MethodPost, "/api/register", registerRequest{
		Username:  "bob",
		Password:  "secret1",
		PublicKey: "QkJCQg==",
	}, "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("register without invite status = %d, want 400", rr.Code)
	}

	rr = doJSON(t, router, http.MethodPost, "/api/invites", nil, aliceToken)
	if rr.Code != http.StatusOK {
		t.Fatalf("create invite status = %d, want 200", rr.Code)
	}
	var inv struct {
		Code string `json:"code"`
	}
	mustDecode(t, rr, &inv)

	rr = doJSON(t, router, http.MethodPost, "/api/register", registerRequest{
		Username:   "bob",
		Password:   "secret1",
		InviteCode: inv.Code,
		PublicKey:  "QkJCQg==",
	}, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("register with invite status = %d, want 200, body %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, router, http.MethodPost, "/api/register", registerRequest{
		Username:   "carol",
		Password:   "secret1",
		InviteCode: inv.Code,
		PublicKey:  "Q0NDQw==",
	}, "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("reused invite status = %d, want 400", rr.Code)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	_, router := newTestServer(t)
	registerUser(t, router, "dave", "correcthorse", "")

	rr := doJSON(t, router, http.MethodPost, "/api/login", loginRequest{
		Username: "dave",
		Password: "wrongpassword",
	}, "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}

func TestLoginUnknownUser(t *testing.T) {
	_, router := newTestServer(t)

	rr := doJSON(t, router, http.MethodPost, "/api/login", loginRequest{
		Username: "ghost",
		Password: "whatever",
	}, "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}

func mustDecode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}
