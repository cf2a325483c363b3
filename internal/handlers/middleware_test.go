package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"petfeeder/internal/service"

	"github.com/gin-gonic/gin"
)

// newSecureRouter mounts userIdMiddleware in front of an echo of the caller id.
func newSecureRouter(auth *mockAuth) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(&service.Service{Authorization: auth}, nil)
	r.GET("/secure", h.userIdMiddleware, func(c *gin.Context) {
		uid, ok := currentUserID(c)
		c.JSON(http.StatusOK, gin.H{"ok": ok, "userId": uid})
	})
	return r
}

func TestUserIDMiddleware(t *testing.T) {
	cases := []struct {
		name     string
		header   string
		parseErr error
		code     int
		errMsg   string
		token    string
	}{
		{name: "missing header", code: http.StatusUnauthorized, errMsg: "missing Authorization header"},
		{name: "wrong scheme", header: "Token abc", code: http.StatusUnauthorized, errMsg: "invalid Authorization header format"},
		{name: "lowercase scheme", header: "bearer abc", code: http.StatusUnauthorized, errMsg: "invalid Authorization header format"},
		{name: "scheme only", header: "Bearer", code: http.StatusUnauthorized, errMsg: "invalid Authorization header format"},
		{name: "rejected token", header: "Bearer stale", parseErr: errors.New("expired"), code: http.StatusUnauthorized, errMsg: "invalid or expired token", token: "stale"},
		{name: "valid token", header: "Bearer good-token", code: http.StatusOK, token: "good-token"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			auth := &mockAuth{parseID: 123, parseErr: tc.parseErr}
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/secure", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			newSecureRouter(auth).ServeHTTP(w, req)

			if w.Code != tc.code {
				t.Fatalf("status: got %d, want %d (body=%s)", w.Code, tc.code, w.Body.String())
			}
			if auth.lastParseToken != tc.token {
				t.Fatalf("ParseToken got %q, want %q", auth.lastParseToken, tc.token)
			}

			var out struct {
				Error  string `json:"error"`
				OK     bool   `json:"ok"`
				UserID int    `json:"userId"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if tc.code != http.StatusOK {
				if out.Error != tc.errMsg {
					t.Fatalf("error message: got %q, want %q", out.Error, tc.errMsg)
				}
				return
			}
			if !out.OK || out.UserID != 123 {
				t.Fatalf("user id not propagated: %+v", out)
			}
		})
	}
}

func TestCurrentUserID_Unset(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if id, ok := currentUserID(c); ok || id != 0 {
		t.Fatalf("expected no user, got %d %v", id, ok)
	}
	c.Set(userIDKey, "not-an-int")
	if _, ok := currentUserID(c); ok {
		t.Fatal("non-int value should not be accepted")
	}
}
