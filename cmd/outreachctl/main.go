package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	apiFlag string
	rootCmd = &cobra.Command{
		Use:   "outreachctl",
		Short: "CLI client for the Calltide outreach REST API",
	}
)

func main() {
	rootCmd.PersistentFlags().StringVarP(&apiFlag, "api", "a", "http://localhost:8080", "Outreach service base URL")

	// prospect subcommands
	prospectCmd := &cobra.Command{Use: "prospect", Short: "Manage prospects"}

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Create a prospect",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			phone, _ := cmd.Flags().GetString("phone")
			email, _ := cmd.Flags().GetString("email")
			vertical, _ := cmd.Flags().GetString("vertical")
			if name == "" {
				return fmt.Errorf("--name required")
			}
			return runAddProspect(apiFlag, name, phone, email, vertical, os.Stdout)
		},
	}
	addCmd.Flags().StringP("name", "n", "", "Business name (required)")
	addCmd.Flags().StringP("phone", "p", "", "Phone number")
	addCmd.Flags().StringP("email", "e", "", "Email address")
	addCmd.Flags().String("vertical", "", "Business vertical")
	prospectCmd.AddCommand(addCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List prospects",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, _ := cmd.Flags().GetString("status")
			limit, _ := cmd.Flags().GetInt("limit")
			return runListProspects(apiFlag, status, limit, os.Stdout)
		},
	}
	listCmd.Flags().StringP("status", "s", "", "Filter by status")
	listCmd.Flags().IntP("limit", "l", 0, "Max results")
	prospectCmd.AddCommand(listCmd)
	rootCmd.AddCommand(prospectCmd)

	// audit subcommand
	auditCmd := &cobra.Command{
		Use:   "audit [prospectId]",
		Short: "Schedule an audit call for a prospect",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScheduleAudit(apiFlag, args[0], os.Stdout)
		},
	}
	rootCmd.AddCommand(auditCmd)

	// outreach subcommands
	startCmd := &cobra.Command{
		Use:   "start [prospectId...]",
		Short: "Start outreach sequences",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOutreachTrigger(apiFlag, "start", args, os.Stdout)
		},
	}
	rootCmd.AddCommand(startCmd)

	pauseCmd := &cobra.Command{
		Use:   "pause [prospectId...]",
		Short: "Pause outreach sequences",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOutreachTrigger(apiFlag, "pause", args, os.Stdout)
		},
	}
	rootCmd.AddCommand(pauseCmd)

	// activity subcommand
	activityCmd := &cobra.Command{
		Use:   "activity",
		Short: "Show recent activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			return runActivity(apiFlag, limit, os.Stdout)
		},
	}
	activityCmd.Flags().IntP("limit", "l", 20, "Number of entries")
	rootCmd.AddCommand(activityCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
