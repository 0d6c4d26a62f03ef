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
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/sitechat/services/sitechat/middleware"
	"github.com/AleutianAI/sitechat/services/sitechat/store"
)

// AuthDeps bundles the stores the account endpoints need.
type AuthDeps struct {
	Users    *store.UserStore
	Sessions *store.SessionStore
	// SecureCookies marks session cookies Secure; enable behind TLS.
	SecureCookies bool
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

func publicUser(u *store.User) gin.H {
	return gin.H{
		"id":    u.Id,
		"email": u.Email,
		"role":  u.Role,
	}
}

func (d AuthDeps) setSessionCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookieName, token, maxAge, "/", "", d.SecureCookies, true)
}

// HandleSignup returns the POST /api/signup handler. A successful
// signup logs the user straight in.
func HandleSignup(deps AuthDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req credentialsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email and a password of at least 8 characters are required"})
			return
		}

		user, err := deps.Users.Create(req.Email, req.Password, store.RoleUser)
		if errors.Is(err, store.ErrUserExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "An account with this email already exists"})
			return
		}
		if err != nil {
			slog.Error("Signup failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create account"})
			return
		}

		session, err := deps.Sessions.Create(user)
		if err != nil {
			slog.Error("Session creation failed after signup", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create session"})
			return
		}
		deps.setSessionCookie(c, session.Token, int(session.ExpiresAt.Sub(session.CreatedAt).Seconds()))
		c.JSON(http.StatusCreated, gin.H{"user": publicUser(user)})
	}
}

// HandleLogin returns the POST /api/login handler.
func HandleLogin(deps AuthDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req credentialsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
			return
		}

		user, err := deps.Users.Authenticate(req.Email, req.Password)
		if errors.Is(err, store.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		if err != nil {
			slog.Error("Login failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not log in"})
			return
		}

		session, err := deps.Sessions.Create(user)
		if err != nil {
			slog.Error("Session creation failed after login", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create session"})
			return
		}
		deps.setSessionCookie(c, session.Token, int(session.ExpiresAt.Sub(session.CreatedAt).Seconds()))
		c.JSON(http.StatusOK, gin.H{"user": publicUser(user)})
	}
}

// HandleLogout returns the POST /api/logout handler. Logging out with
// no session is a no-op success.
func HandleLogout(deps AuthDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, err := c.Cookie(middleware.SessionCookieName); err == nil && token != "" {
			if err := deps.Sessions.Delete(token); err != nil {
				slog.Warn("Failed to delete session on logout", "error", err)
			}
		}
		deps.setSessionCookie(c, "", -1)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// HandleMe returns the GET /api/me handler, reporting the logged-in
// user or null.
func HandleMe() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := middleware.SessionFrom(c)
		if !ok {
			c.JSON(http.StatusOK, gin.H{"user": nil})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": gin.H{
			"id":    session.UserId,
			"email": session.Email,
			"role":  session.Role,
		}})
	}
}
