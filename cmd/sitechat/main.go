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
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Config holds the CLI's connection settings, loadable from
// sitechat.yaml and overridable by flags.
type Config struct {
	ServerURL     string `yaml:"server_url"`
	AdminEmail    string `yaml:"admin_email"`
	AdminPassword string `yaml:"admin_password"`
}

var config Config

var rootCmd = &cobra.Command{
	Use:   "sitechat",
	Short: "Administration CLI for the sitechat service",
	Long:  "Ingest site content, read chat logs, and check the health of a running sitechat server.",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}

func init() {
	_ = godotenv.Load()

	rootCmd.PersistentFlags().String("server", "", "Base URL of the sitechat server")
	rootCmd.PersistentFlags().String("email", "", "Admin email for authenticated commands")
	rootCmd.PersistentFlags().String("password", "", "Admin password for authenticated commands")

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		// Optional config file; flags and env win over it.
		if yamlFile, err := os.ReadFile("sitechat.yaml"); err == nil {
			if err := yaml.Unmarshal(yamlFile, &config); err != nil {
				log.Fatalf("Error parsing sitechat.yaml: %v", err)
			}
		}
		if v, _ := cmd.Flags().GetString("server"); v != "" {
			config.ServerURL = v
		} else if v := os.Getenv("SITECHAT_SERVER_URL"); v != "" && config.ServerURL == "" {
			config.ServerURL = v
		}
		if config.ServerURL == "" {
			config.ServerURL = "http://localhost:8080"
		}
		if v, _ := cmd.Flags().GetString("email"); v != "" {
			config.AdminEmail = v
		} else if v := os.Getenv("ADMIN_EMAIL"); v != "" && config.AdminEmail == "" {
			config.AdminEmail = v
		}
		if v, _ := cmd.Flags().GetString("password"); v != "" {
			config.AdminPassword = v
		} else if v := os.Getenv("ADMIN_PASSWORD"); v != "" && config.AdminPassword == "" {
			config.AdminPassword = v
		}
	}
}
