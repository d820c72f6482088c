package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/spf13/cobra"

	"defi-agent/api/pkg/config"
	"defi-agent/api/services/agent"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "defi-agent",
		Short: "DeFi workflow agent service",
	}
	rootCmd.AddCommand(serveCmd(), chatCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the agent HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			setupLogging(cfg.Log.Level)

			service := buildService(cfg)
			service.CheckBackend(cmd.Context())

			mainRouter := mux.NewRouter()
			apiRouter := mainRouter.PathPrefix("/api/v1").Subrouter()
			service.LoadRoutes(apiRouter)

			corsHandler := handlers.CORS(
				handlers.AllowedOrigins([]string{cfg.Server.CORSOrigin}),
				handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
				handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
				handlers.AllowCredentials(),
			)(mainRouter)

			srv := &http.Server{
				Addr:    cfg.Server.Addr,
				Handler: corsHandler,
			}

			serverErrors := make(chan error, 1)

			go func() {
				slog.Info("Starting server", "addr", cfg.Server.Addr)
				serverErrors <- srv.ListenAndServe()
			}()

			shutdown := make(chan os.Signal, 1)
			signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

			select {
			case err := <-serverErrors:
				slog.Error("Server error", "error", err)
				return err

			case sig := <-shutdown:
				slog.Info("Shutdown signal received", "signal", sig)

				ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
				defer cancel()

				if err := srv.Shutdown(ctx); err != nil {
					slog.Error("Could not stop server gracefully", "error", err)
					srv.Close()
				}
			}
			return nil
		},
	}
}

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Talk to the agent from the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			setupLogging("warn")

			service := buildService(cfg)
			service.CheckBackend(cmd.Context())

			fmt.Println("DeFi agent ready. Describe a workflow, type 'approve' to execute one, or 'quit' to leave.")

			var conversationID string
			scanner := bufio.NewScanner(os.Stdin)
			for {
				fmt.Print("> ")
				if !scanner.Scan() {
					return scanner.Err()
				}
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				switch strings.ToLower(line) {
				case "quit", "exit", "q":
					return nil
				case "approve":
					runApproval(cmd.Context(), service, conversationID, cfg.Monitor)
					continue
				}

				result, err := service.Process(cmd.Context(), line, conversationID)
				if err != nil {
					fmt.Println("error:", err)
					continue
				}
				conversationID = result.ConversationID

				fmt.Println(result.Message)
				if result.Workflow != nil {
					for _, node := range result.Workflow.Nodes {
						fmt.Printf("  - %s (%s)\n", node.ID, node.Type)
					}
				}
				for _, s := range result.Suggestions {
					fmt.Println("  hint:", s)
				}
			}
		},
	}
}

// runApproval submits the conversation's pending workflow and streams
// execution progress until it finishes.
func runApproval(ctx context.Context, service *agent.Service, conversationID string, cfg config.MonitorConfig) {
	result, err := service.Approve(ctx, conversationID)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println(result.Message)
	if result.BackendError != "" {
		fmt.Println("  backend:", result.BackendError)
		return
	}
	fmt.Println("  execution:", result.ExecutionID)

	status, err := service.WatchExecution(ctx, conversationID, cfg.Timeout, cfg.PollUnit, printObservation)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Printf("execution %s finished: %s\n", status.ExecutionID, status.Status)
	if status.Error != "" {
		fmt.Println("  error:", status.Error)
	}
}

func printObservation(o agent.Observation) {
	switch o.Kind {
	case agent.ObserveStep:
		if o.Duration > 0 {
			fmt.Printf("  [%s] %s: %s (%s)\n", o.StepID, o.NodeType, o.Status, o.Duration)
			return
		}
		fmt.Printf("  [%s] %s: %s\n", o.StepID, o.NodeType, o.Status)
	default:
		fmt.Println(" ", o.Message)
	}
}

func buildService(cfg *config.Config) *agent.Service {
	gateway := agent.NewClient(cfg.Backend.URL, cfg.Backend.Timeout)

	var analyzer agent.Analyzer
	if cfg.Analyzer.Enabled {
		analyzer = agent.NewChatAnalyzer(cfg.Analyzer.URL, cfg.Analyzer.Model, cfg.Analyzer.APIKey)
	}

	return agent.NewService(gateway, analyzer, agent.NewMemoryStore())
}

func setupLogging(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: lvl,
	})
	slog.SetDefault(slog.New(logHandler))
}
