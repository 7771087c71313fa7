package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"tailor/internal/app"
	"tailor/internal/config"
	"tailor/internal/llm"
	"tailor/internal/tuner"
)

var (
	rootCmd = &cobra.Command{
		Use:   "tailor",
		Short: "Requirement-driven resume tuning orchestrator",
	}
	configPath string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tuneCmd)
	rootCmd.AddCommand(resolveCmd)
}

// initClient builds the configured generation client.
func initClient(ctx context.Context) (llm.Client, *config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.AI.APIKey == "" {
		return nil, nil, fmt.Errorf("AI API key not configured")
	}
	client, err := llm.NewClient(ctx, llm.Options{
		Provider: cfg.AI.Provider,
		APIKey:   cfg.AI.APIKey,
		Model:    cfg.AI.Model,
		BaseURL:  cfg.AI.BaseURL,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create generation client: %w", err)
	}
	return client, cfg, nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the tuning HTTP service",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		client, cfg, err := initClient(ctx)
		if err != nil {
			log.Fatalf("Failed to initialize: %v", err)
		}

		server := app.NewHTTPServer(client, cfg.Server.CORSOrigin)
		fmt.Printf("🚀 Listening on %s\n", cfg.Server.Addr)
		if err := http.ListenAndServe(cfg.Server.Addr, server.Handler()); err != nil {
			log.Fatalf("Server stopped: %v", err)
		}
	},
}

var (
	tuneResume string
	tuneJob    string
)

var tuneCmd = &cobra.Command{
	Use:   "tune",
	Short: "Tune a resume against a job posting (whole-document mode)",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		client, _, err := initClient(ctx)
		if err != nil {
			log.Fatalf("Failed to initialize: %v", err)
		}

		var req tuner.TuneRequest
		if err := readJSONFile(tuneResume, &req); err != nil {
			log.Fatalf("Failed to read tune request: %v", err)
		}
		if tuneJob != "" {
			job, err := os.ReadFile(tuneJob)
			if err != nil {
				log.Fatalf("Failed to read job posting: %v", err)
			}
			req.JobText = string(job)
		}

		result, err := tuner.NewTuner(client).Tune(ctx, req)
		if err != nil {
			log.Fatalf("Tuning failed: %v", err)
		}
		printJSON(result)
	},
}

var (
	resolveResume       string
	resolveRequirements string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve job requirements against a resume (per-requirement mode)",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		client, _, err := initClient(ctx)
		if err != nil {
			log.Fatalf("Failed to initialize: %v", err)
		}

		var req tuner.ResolveRequest
		if err := readJSONFile(resolveResume, &req); err != nil {
			log.Fatalf("Failed to read resolve request: %v", err)
		}
		if resolveRequirements != "" {
			if err := readJSONFile(resolveRequirements, &req.Requirements); err != nil {
				log.Fatalf("Failed to read requirements: %v", err)
			}
		}

		sink := func(p tuner.Progress) {
			fmt.Printf("  -> [%d/%d] %s: %s\n", p.Completed, p.Total, p.State.RequirementID, p.State.Status)
		}
		result, err := tuner.NewResolver(client).ResolveAll(ctx, req, sink)
		if err != nil {
			log.Fatalf("Resolution failed: %v", err)
		}
		printJSON(result)
	},
}

func init() {
	tuneCmd.Flags().StringVar(&tuneResume, "request", "", "Path to a JSON tune request (document, profiles, claims)")
	tuneCmd.Flags().StringVar(&tuneJob, "job", "", "Path to a plain-text job posting (overrides jobText in the request)")
	_ = tuneCmd.MarkFlagRequired("request")

	resolveCmd.Flags().StringVar(&resolveResume, "request", "", "Path to a JSON resolve request (document, profiles)")
	resolveCmd.Flags().StringVar(&resolveRequirements, "requirements", "", "Path to a JSON requirements list (overrides the request)")
	_ = resolveCmd.MarkFlagRequired("request")
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode result: %v", err)
	}
	fmt.Println(string(out))
}
