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
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/sitechat/services/sitechat/datatypes"
	"github.com/AleutianAI/sitechat/services/sitechat/store"
)

// defaultLogLimit bounds the admin log listing when the client does
// not ask for a specific page size.
const defaultLogLimit = 200

// HandleAdminUsers returns the GET /api/admin/users handler. Password
// hashes never leave the store layer.
func HandleAdminUsers(users *store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		all, err := users.List()
		if err != nil {
			slog.Error("Failed to list users", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not list users"})
			return
		}
		out := make([]gin.H, 0, len(all))
		for i := range all {
			u := all[i]
			out = append(out, gin.H{
				"id":        u.Id,
				"email":     u.Email,
				"role":      u.Role,
				"createdAt": u.CreatedAt,
			})
		}
		c.JSON(http.StatusOK, gin.H{"users": out})
	}
}

// HandleAdminChatLogs returns the GET /api/admin/chat-logs handler.
// Optional query params: userId filters to one user ("anon" selects
// anonymous turns), limit caps the result count, offset skips earlier
// turns for paging.
func HandleAdminChatLogs(turns *store.TurnStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := defaultLogLimit
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
				return
			}
			limit = n
		}
		offset := 0
		if raw := c.Query("offset"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "offset must be a non-negative integer"})
				return
			}
			offset = n
		}

		var (
			logs []datatypes.ChatTurn
			err  error
		)
		if userId := c.Query("userId"); userId != "" {
			logs, err = turns.ListByUser(userId, offset+limit)
		} else {
			logs, err = turns.ListAll(offset+limit)
		}
		if offset > 0 && err == nil {
			if offset >= len(logs) {
				logs = nil
			} else {
				logs = logs[offset:]
			}
		}
		if err != nil {
			slog.Error("Failed to list chat logs", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not list chat logs"})
			return
		}
		if logs == nil {
			logs = []datatypes.ChatTurn{}
		}
		c.JSON(http.StatusOK, gin.H{"logs": logs})
	}
}
