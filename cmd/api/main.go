package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskmaster/taskflow/cmd/api/commands"
)

// @title TaskFlow API
// @version 1.0
// @description Personal task and project management with per-user ownership

// @license.name MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey SessionCookie
// @in header
// @name Authorization
// @description Browsers send the session cookie. Other clients send "Bearer" followed by the session token.

func main() {
	rootCmd := &cobra.Command{
		Use:   "taskflow",
		Short: "TaskFlow API Server",
		Long:  `TaskFlow keeps each user's projects and tasks, tracks task completion and serves the dashboard.`,
	}

	// Add commands
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())
	rootCmd.AddCommand(commands.NewUserCommand())
	rootCmd.AddCommand(commands.NewSessionsCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
