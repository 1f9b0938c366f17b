package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/loomnotes/loom/internal/domain"
	"github.com/loomnotes/loom/internal/repository"
	"github.com/spf13/cobra"
)

func EmployeeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "employee",
		Short: "Manage employees",
		Long:  "Create employees, manage project memberships, and mint access tokens",
	}

	cmd.AddCommand(EmployeeCreateCmd())
	cmd.AddCommand(EmployeeGrantCmd())
	cmd.AddCommand(EmployeeRevokeCmd())
	cmd.AddCommand(EmployeeTokenCmd())

	return cmd
}

func EmployeeCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <name> <email>",
		Short: "Create a new employee",
		Args:  cobra.ExactArgs(2),
		RunE:  runEmployeeCreate,
	}

	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

func runEmployeeCreate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	outputFormat, _ := cmd.Flags().GetString("output")

	pool, _, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	employee := &domain.Employee{
		ID:        uuid.NewString(),
		Name:      args[0],
		Email:     args[1],
		CreatedAt: time.Now().UTC(),
	}

	repo := repository.NewEmployeeRepository(pool)
	if err := repo.Create(ctx, employee); err != nil {
		return fmt.Errorf("failed to create employee: %w", err)
	}

	if outputFormat == "json" {
		data := map[string]interface{}{
			"id":         employee.ID,
			"name":       employee.Name,
			"email":      employee.Email,
			"created_at": employee.CreatedAt,
		}
		jsonBytes, _ := json.MarshalIndent(data, "", "  ")
		fmt.Println(string(jsonBytes))
	} else {
		fmt.Printf("Employee created: %s <%s> (%s)\n", employee.Name, employee.Email, employee.ID)
	}

	return nil
}

func EmployeeGrantCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "grant <employee-id> <project-id>",
		Short: "Add an employee to a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			pool, _, err := getDBPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			repo := repository.NewEmployeeRepository(pool)
			if err := repo.AddProjectMembership(ctx, args[0], args[1]); err != nil {
				return fmt.Errorf("failed to add membership: %w", err)
			}

			fmt.Printf("Employee %s added to project %s\n", args[0], args[1])
			return nil
		},
	}
}

func EmployeeRevokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <employee-id> <project-id>",
		Short: "Remove an employee from a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			pool, _, err := getDBPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			repo := repository.NewEmployeeRepository(pool)
			if err := repo.RemoveProjectMembership(ctx, args[0], args[1]); err != nil {
				return fmt.Errorf("failed to remove membership: %w", err)
			}

			fmt.Printf("Employee %s removed from project %s\n", args[0], args[1])
			return nil
		},
	}
}

func EmployeeTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token <employee-id>",
		Short: "Mint a bearer token for an employee",
		Args:  cobra.ExactArgs(1),
		RunE:  runEmployeeToken,
	}

	cmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")

	return cmd
}

func runEmployeeToken(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	ttl, _ := cmd.Flags().GetDuration("ttl")

	pool, cfg, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	if cfg.JWTSecret == "" {
		return fmt.Errorf("LOOM_JWT_SECRET is not set")
	}

	// Verify the employee exists before minting anything.
	repo := repository.NewEmployeeRepository(pool)
	employee, err := repo.GetByID(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to look up employee: %w", err)
	}

	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   employee.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})

	signed, err := token.SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		return fmt.Errorf("failed to sign token: %w", err)
	}

	fmt.Println(signed)
	return nil
}
