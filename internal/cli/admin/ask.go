package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/loomnotes/loom/internal/cohere"
	"github.com/loomnotes/loom/internal/llm"
	"github.com/loomnotes/loom/internal/repository"
	"github.com/loomnotes/loom/internal/service"
	"github.com/spf13/cobra"
)

func AskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Run a one-shot retrieval query",
		Long:  "Run the full retrieval pipeline for a question as a given employee, without going through the HTTP server",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAsk,
	}

	cmd.Flags().StringP("employee", "e", "", "Employee ID to query as (required)")
	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
	cmd.MarkFlagRequired("employee")

	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	employeeID, _ := cmd.Flags().GetString("employee")
	outputFormat, _ := cmd.Flags().GetString("output")
	query := strings.Join(args, " ")

	pool, cfg, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	if !cfg.HasCohere() || !cfg.HasGroq() {
		return fmt.Errorf("ask requires LOOM_COHERE_API_KEY and LOOM_GROQ_API_KEY")
	}

	employeeRepo := repository.NewEmployeeRepository(pool)
	identity, err := employeeRepo.ResolveIdentity(ctx, employeeID)
	if err != nil {
		return fmt.Errorf("failed to resolve employee: %w", err)
	}

	cohereClient := cohere.NewClientWithConfig(cohere.Config{
		APIKey:              cfg.CohereAPIKey,
		EmbeddingModel:      cfg.EmbeddingModel,
		RerankModel:         cfg.RerankModel,
		EmbeddingDimensions: cfg.EmbeddingDimensions,
	})
	llmClient := llm.NewClientWithConfig(llm.Config{
		APIKey: cfg.GroqAPIKey,
		Model:  cfg.LLMModel,
	})

	chunkRepo := repository.NewChunkRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)

	auditSvc := service.NewAuditService(auditRepo, cfg.AuditQueueSize)
	defer auditSvc.Close()

	askSvc := service.NewAskService(
		cohereClient,
		service.NewRetrievalService(chunkRepo, cfg.EmbeddingDimensions, cfg.OversampleK),
		service.NewRerankService(cohereClient, cfg.FinalK),
		service.NewSynthesisService(llmClient),
		auditSvc,
		service.AskTimeouts{
			Embed:  cfg.EmbedTimeout,
			Rerank: cfg.RerankTimeout,
			LLM:    cfg.LLMTimeout,
		},
	)

	answer, err := askSvc.Ask(ctx, identity, query)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if outputFormat == "json" {
		jsonBytes, _ := json.MarshalIndent(answer, "", "  ")
		fmt.Println(string(jsonBytes))
		return nil
	}

	fmt.Println(answer.Text)
	if len(answer.Citations) > 0 {
		fmt.Println("\nSources:")
		for _, c := range answer.Citations {
			fmt.Printf("  - %s (%s %s, chunk %d)\n", c.Title, c.Kind, c.ItemID, c.ChunkIndex)
		}
	}

	return nil
}
