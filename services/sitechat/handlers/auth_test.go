// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/sitechat/services/sitechat/datatypes"
	"github.com/AleutianAI/sitechat/services/sitechat/middleware"
	"github.com/AleutianAI/sitechat/services/sitechat/store"
)

type authFixture struct {
	router   *gin.Engine
	users    *store.UserStore
	sessions *store.SessionStore
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	db, err := store.Open(store.InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	users := store.NewUserStore(db)
	sessions := store.NewSessionStore(db, 7*24*time.Hour)
	deps := AuthDeps{Users: users, Sessions: sessions}

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.ResolveSession(sessions))
	router.POST("/api/signup", HandleSignup(deps))
	router.POST("/api/login", HandleLogin(deps))
	router.POST("/api/logout", HandleLogout(deps))
	router.GET("/api/me", HandleMe())

	return &authFixture{router: router, users: users, sessions: sessions}
}

func (f *authFixture) do(method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c
		}
	}
	t.Fatal("no session cookie in response")
	return nil
}

func TestSignup_CreatesAccountAndSession(t *testing.T) {
	f := newAuthFixture(t)

	w := f.do(http.MethodPost, "/api/signup", `{"email":"new@example.com","password":"longenough"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "new@example.com")
	assert.NotContains(t, w.Body.String(), "passwordHash")

	cookie := sessionCookie(t, w)
	assert.True(t, cookie.HttpOnly)
	assert.NotEmpty(t, cookie.Value)

	// The issued cookie works on /api/me.
	me := f.do(http.MethodGet, "/api/me", "", cookie)
	require.Equal(t, http.StatusOK, me.Code)
	assert.Contains(t, me.Body.String(), "new@example.com")
}

func TestSignup_Validation(t *testing.T) {
	f := newAuthFixture(t)

	w := f.do(http.MethodPost, "/api/signup", `{"email":"bad","password":"longenough"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPost, "/api/signup", `{"email":"ok@example.com","password":"short"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSignup_DuplicateEmail(t *testing.T) {
	f := newAuthFixture(t)

	w := f.do(http.MethodPost, "/api/signup", `{"email":"dup@example.com","password":"longenough"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.do(http.MethodPost, "/api/signup", `{"email":"dup@example.com","password":"different1"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLogin_And_Logout(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.users.Create("carol@example.com", "longenough", "")
	require.NoError(t, err)

	w := f.do(http.MethodPost, "/api/login", `{"email":"carol@example.com","password":"wrongwrong"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(http.MethodPost, "/api/login", `{"email":"carol@example.com","password":"longenough"}`)
	require.Equal(t, http.StatusOK, w.Code)
	cookie := sessionCookie(t, w)

	// Logout invalidates the session server-side.
	out := f.do(http.MethodPost, "/api/logout", "", cookie)
	require.Equal(t, http.StatusOK, out.Code)

	me := f.do(http.MethodGet, "/api/me", "", cookie)
	require.Equal(t, http.StatusOK, me.Code)
	assert.Contains(t, me.Body.String(), `"user":null`)
}

func TestMe_Anonymous(t *testing.T) {
	f := newAuthFixture(t)
	w := f.do(http.MethodGet, "/api/me", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user":null`)
}

func TestAdminChatLogsEndpoint(t *testing.T) {
	db, err := store.Open(store.InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	users := store.NewUserStore(db)
	sessions := store.NewSessionStore(db, time.Hour)
	turns := store.NewTurnStore(db)

	admin, err := users.Create("admin@example.com", "longenough", store.RoleAdmin)
	require.NoError(t, err)
	adminSession, err := sessions.Create(admin)
	require.NoError(t, err)
	plain, err := users.Create("plain@example.com", "longenough", "")
	require.NoError(t, err)
	plainSession, err := sessions.Create(plain)
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.ResolveSession(sessions))
	adminGroup := router.Group("/api/admin", middleware.RequireAdmin())
	adminGroup.GET("/users", HandleAdminUsers(users))
	adminGroup.GET("/chat-logs", HandleAdminChatLogs(turns))

	get := func(path string, cookie *http.Cookie) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if cookie != nil {
			req.AddCookie(cookie)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}
	adminCookie := &http.Cookie{Name: middleware.SessionCookieName, Value: adminSession.Token}
	plainCookie := &http.Cookie{Name: middleware.SessionCookieName, Value: plainSession.Token}

	// Role gating.
	assert.Equal(t, http.StatusUnauthorized, get("/api/admin/users", nil).Code)
	assert.Equal(t, http.StatusForbidden, get("/api/admin/users", plainCookie).Code)

	w := get("/api/admin/users", adminCookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "admin@example.com")
	assert.NotContains(t, w.Body.String(), "passwordHash")

	// Empty log listing is an empty array, not null.
	w = get("/api/admin/chat-logs", adminCookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"logs":[]`)

	// Bad limit and offset.
	assert.Equal(t, http.StatusBadRequest, get("/api/admin/chat-logs?limit=zero", adminCookie).Code)
	assert.Equal(t, http.StatusBadRequest, get("/api/admin/chat-logs?offset=-1", adminCookie).Code)

	// Paging: three turns, skip the first two.
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, q := range []string{"first", "second", "third"} {
		require.NoError(t, turns.Log(datatypes.ChatTurn{
			UserId:    plain.Id,
			Question:  q,
			Answer:    "answer",
			Kind:      datatypes.TurnKindQA,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	w = get("/api/admin/chat-logs?offset=2", adminCookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "first")
	assert.NotContains(t, w.Body.String(), "second")
	assert.Contains(t, w.Body.String(), "third")

	// Offset past the end is an empty array.
	w = get("/api/admin/chat-logs?offset=10", adminCookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"logs":[]`)
}
