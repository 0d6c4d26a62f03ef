// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AleutianAI/sitechat/services/sitechat/handlers"
	"github.com/AleutianAI/sitechat/services/sitechat/middleware"
)

// Deps carries the wired handler dependencies into route registration.
type Deps struct {
	Chat   handlers.ChatDeps
	Auth   handlers.AuthDeps
	Ingest handlers.IngestDeps
}

func SetupRoutes(router *gin.Engine, deps Deps) {
	router.GET("/health", handlers.HandleHealth(deps.Chat.Engine != nil))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.Use(middleware.ResolveSession(deps.Auth.Sessions))

	router.POST("/chat", handlers.HandleChat(deps.Chat))

	api := router.Group("/api")
	{
		api.POST("/signup", handlers.HandleSignup(deps.Auth))
		api.POST("/login", handlers.HandleLogin(deps.Auth))
		api.POST("/logout", handlers.HandleLogout(deps.Auth))
		api.GET("/me", handlers.HandleMe())

		admin := api.Group("/admin", middleware.RequireAdmin())
		{
			admin.GET("/users", handlers.HandleAdminUsers(deps.Auth.Users))
			admin.GET("/chat-logs", handlers.HandleAdminChatLogs(deps.Chat.Turns))
			admin.POST("/documents", handlers.HandleIngestDocuments(deps.Ingest))
		}
	}
}
