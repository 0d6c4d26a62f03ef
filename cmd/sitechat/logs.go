// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/sitechat/pkg/ux"
	"github.com/AleutianAI/sitechat/services/sitechat/datatypes"
)

var (
	logsUser  string
	logsLimit int
	logsJSON  bool
)

type chatLogsResponse struct {
	Logs []datatypes.ChatTurn `json:"logs"`
}

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show recent chat turns from the server",
	Long:  "Fetches logged chat turns from the admin API, oldest first. Use --user to filter (\"anon\" selects anonymous turns).",
	RunE:  runLogs,
}

func init() {
	logsCmd.Flags().StringVar(&logsUser, "user", "", "Only show turns for this user id")
	logsCmd.Flags().IntVar(&logsLimit, "limit", 50, "Maximum number of turns to fetch")
	logsCmd.Flags().BoolVar(&logsJSON, "json", false, "Print raw JSON instead of formatted output")
	rootCmd.AddCommand(logsCmd)
}

func runLogs(cmd *cobra.Command, args []string) error {
	client, err := newAPIClient(config.ServerURL)
	if err != nil {
		return err
	}
	if err := client.login(config.AdminEmail, config.AdminPassword); err != nil {
		return err
	}

	query := url.Values{}
	query.Set("limit", fmt.Sprintf("%d", logsLimit))
	if logsUser != "" {
		query.Set("userId", logsUser)
	}

	var resp chatLogsResponse
	if err := client.getJSON("/api/admin/chat-logs?"+query.Encode(), &resp); err != nil {
		return err
	}

	if logsJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp.Logs)
	}

	if len(resp.Logs) == 0 {
		ux.Info("No chat turns logged yet.")
		return nil
	}

	ux.Title(fmt.Sprintf("%d chat turns", len(resp.Logs)))
	for _, turn := range resp.Logs {
		printTurn(turn)
	}
	return nil
}

func printTurn(turn datatypes.ChatTurn) {
	user := turn.UserId
	if user == "" {
		user = "anon"
	}
	header := fmt.Sprintf("%s  %s  [%s]", turn.CreatedAt.Format("2006-01-02 15:04:05"), user, turn.Kind)
	if turn.InjectionDetected {
		header += "  (injection detected)"
	}

	var body strings.Builder
	fmt.Fprintf(&body, "Q: %s\n", turn.Question)
	fmt.Fprintf(&body, "A: %s", truncate(turn.Answer, 400))
	if len(turn.Sources) > 0 {
		body.WriteString("\nSources:")
		for _, src := range turn.Sources {
			fmt.Fprintf(&body, "\n  - %s", src.URL)
		}
	}
	ux.Box(header, body.String())
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
