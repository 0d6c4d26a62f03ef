// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package middleware provides gin middleware for session resolution,
// role gating, and request rate limiting.
package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/sitechat/services/sitechat/store"
)

// SessionCookieName is the cookie carrying the login token.
const SessionCookieName = "session"

// ContextSessionKey is where a resolved session lands in the gin
// context.
const ContextSessionKey = "sitechat.session"

// ResolveSession looks up the session cookie and, when valid, stores
// the session in the request context. Requests without a valid session
// proceed anonymously; handlers that require identity gate separately.
func ResolveSession(sessions *store.SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(SessionCookieName)
		if err != nil || token == "" {
			c.Next()
			return
		}
		session, err := sessions.Get(token)
		if err != nil {
			if !errors.Is(err, store.ErrSessionNotFound) {
				slog.Warn("Session lookup failed", "error", err)
			}
			c.Next()
			return
		}
		c.Set(ContextSessionKey, session)
		c.Next()
	}
}

// SessionFrom returns the resolved session for this request, if any.
func SessionFrom(c *gin.Context) (*store.Session, bool) {
	v, ok := c.Get(ContextSessionKey)
	if !ok {
		return nil, false
	}
	session, ok := v.(*store.Session)
	return session, ok
}

// RequireSession rejects requests without a valid session.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := SessionFrom(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}
		c.Next()
	}
}

// RequireAdmin rejects requests whose session lacks the admin role.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := SessionFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}
		if session.Role != store.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		c.Next()
	}
}
