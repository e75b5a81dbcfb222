package main

import (
	"fmt"

	"github.com/jonathan/hiring-pipeline/internal/config"
	"github.com/jonathan/hiring-pipeline/internal/server"
	"github.com/jonathan/hiring-pipeline/internal/types"
	"github.com/spf13/cobra"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user account",
	Long:  "Creates a recruiter, manager or interviewer account in the configured PostgreSQL database.",
	RunE:  runUserCreate,
}

var (
	userName     string
	userEmail    string
	userPassword string
	userRole     string
)

func init() {
	userCreateCmd.Flags().StringVar(&userName, "name", "", "Display name (required)")
	userCreateCmd.Flags().StringVar(&userEmail, "email", "", "Login email (required)")
	userCreateCmd.Flags().StringVar(&userPassword, "password", "", "Initial password, at least 8 characters (required)")
	userCreateCmd.Flags().StringVar(&userRole, "role", "", "RECRUITER, MANAGER or INTERVIEWER (required)")

	for _, name := range []string{"name", "email", "password", "role"} {
		if err := userCreateCmd.MarkFlagRequired(name); err != nil {
			panic(fmt.Sprintf("failed to mark %s flag as required: %v", name, err))
		}
	}

	userCmd.AddCommand(userCreateCmd)
	rootCmd.AddCommand(userCmd)
}

func runUserCreate(cmd *cobra.Command, _ []string) error {
	role, err := types.ParseRole(userRole)
	if err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Store != config.StorePostgres {
		return fmt.Errorf("user create needs the postgres store (configured: %s)", cfg.Store)
	}

	passwordConfig, err := config.NewPasswordConfig()
	if err != nil {
		return fmt.Errorf("failed to create password config: %w", err)
	}

	store, err := openBackend(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer store.close()

	user, err := server.NewUserService(store, passwordConfig).Create(cmd.Context(), &types.CreateUserRequest{
		Name:     userName,
		Email:    userEmail,
		Password: userPassword,
		Role:     role,
	})
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created %s %s (%s)\n", user.Role, user.Email, user.ID)
	return nil
}
