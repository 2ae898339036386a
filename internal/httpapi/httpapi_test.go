package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pliu/wisp/internal/authtoken"
	"github.com/pliu/wisp/internal/hub"
	"github.com/pliu/wisp/internal/store/sqlstore"
)

func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	st, err := sqlstore.New(":memory:")
	if err != nil {
		t.Fatalf("sqlstore.New: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	h := hub.New(st)
	t.Cleanup(h.Close)

	s := &Server{
		Store:  st,
		Tokens: authtoken.New("test-secret"),
		Hub:    h,
	}
	return s, s.Router()
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func registerUser(t *testing.T, handler http.Handler, username, password, invite string) (token string, userID int64) {
	t.Helper()
	rr := doJSON(t, handler, http.MethodPost, "/api/register", registerRequest{
		Username:   username,
		Password:   password,
		InviteCode: invite,
		PublicKey:  "QUFBQQ==",
	}, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("register %s: status %d body %s", username, rr.Code, rr.Body.String())
	}
	var resp struct {
		Token string   `json:"token"`
		User  userView `json:"user"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	return resp.Token, resp.User.ID
}
