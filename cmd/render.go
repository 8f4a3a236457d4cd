package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ecomdash/backend/internal/report"
	"ecomdash/backend/internal/service"
	"ecomdash/backend/internal/textview"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render one report to the terminal",
	Long: `Render one report to the terminal.

Example:
  ecomdash render --report "Sales & Revenue"
  ecomdash render --report overview --json`,
	RunE: runRender,
}

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "List the available reports",
	Run: func(cmd *cobra.Command, args []string) {
		textview.RenderNames(cmd.OutOrStdout(), report.Default().Reports())
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the database has the tables and columns the reports read",
	RunE:  runCheck,
}

func init() {
	renderCmd.Flags().StringP("report", "r", report.Overview, "report name or slug")
	renderCmd.Flags().Bool("json", false, "print the rendered page as JSON")
	checkCmd.Flags().String("schema", "", "schema to inspect (default: database.schema or public)")
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogging(cfg.LogLevel)

	a, err := newApp(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	name, _ := cmd.Flags().GetString("report")
	page, err := a.dispatcher.Dispatch(cmd.Context(), name)
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(page)
	}
	return textview.Render(cmd.OutOrStdout(), page)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogging(cfg.LogLevel)

	a, err := newApp(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	schema, _ := cmd.Flags().GetString("schema")
	if schema == "" {
		schema = cfg.Database.Schema
	}
	result, err := service.CheckSchema(cmd.Context(), a.provider.Client(), schema, report.Requirements())
	if err != nil {
		return err
	}

	textview.RenderSchema(cmd.OutOrStdout(), result)
	if !result.OK() {
		fmt.Fprintln(os.Stderr, "report queries will fail until the missing objects exist")
		return fmt.Errorf("schema %q is incomplete", result.Schema)
	}
	return nil
}
