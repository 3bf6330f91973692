package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"bizradar/internal/config"
	"bizradar/internal/llm"
	"bizradar/internal/prompt"
	"bizradar/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the database schema",
	RunE:  runMigrate,
}

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List the registered agents and their tools",
	RunE:  runAgents,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter configuration file",
	RunE:  runInit,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	st, err := store.Open(cfg.Database.Path, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.RunMigrations(); err != nil {
		return err
	}
	fmt.Printf("Database ready at %s\n", cfg.Database.Path)
	return nil
}

func runAgents(cmd *cobra.Command, args []string) error {
	prompts, err := prompt.NewRegistry(cfg.Prompts.Dir, logger)
	if err != nil {
		return err
	}

	// Listing capabilities never executes a tool, so no store or real
	// provider is needed.
	registry := buildRegistry(nil, llm.NewMockClient(), prompts)

	for _, ag := range registry.All() {
		fmt.Printf("%s - %s\n", ag.Name(), ag.Description())
		for _, c := range ag.Capabilities() {
			mode := ""
			if c.Background {
				mode = " (background)"
			}
			fmt.Printf("  %s%s: %s\n", c.Name, mode, c.Description)
			if len(c.Schema.Required) > 0 {
				fmt.Printf("    required: %s\n", strings.Join(c.Schema.Required, ", "))
			}
		}
		fmt.Println()
	}
	return nil
}

func runInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("%s already exists", configPath)
	}

	if err := config.DefaultConfig().Save(configPath); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", configPath)
	fmt.Println("Set BIZRADAR_JWT_SECRET and OPENAI_API_KEY (or GEMINI_API_KEY) before serving.")
	return nil
}
