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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/sitechat/pkg/ux"
)

type healthResponse struct {
	Status    string `json:"status"`
	Retrieval bool   `json:"retrieval"`
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the sitechat server is up",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient(config.ServerURL)
		if err != nil {
			return err
		}
		var resp healthResponse
		if err := client.getJSON("/health", &resp); err != nil {
			ux.Error(fmt.Sprintf("Server unreachable: %v", err))
			return err
		}
		ux.Success(fmt.Sprintf("Server %s is %s", config.ServerURL, resp.Status))
		if resp.Retrieval {
			ux.Info("Retrieval: enabled (vector index connected)")
		} else {
			ux.Warning("Retrieval: disabled (lightweight mode, chat will refuse non-greetings)")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
