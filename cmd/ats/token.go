package main

import (
	"fmt"

	"github.com/jonathan/hiring-pipeline/internal/config"
	"github.com/jonathan/hiring-pipeline/internal/server"
	"github.com/jonathan/hiring-pipeline/internal/types"
	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token",
	Long:  "Signs a JWT for a user ID and role with JWT_SECRET. Useful for service accounts and local testing.",
	RunE:  runToken,
}

var (
	tokenUserID string
	tokenRole   string
)

func init() {
	tokenCmd.Flags().StringVar(&tokenUserID, "user-id", "", "Subject user ID (required)")
	tokenCmd.Flags().StringVar(&tokenRole, "role", "", "RECRUITER, MANAGER or INTERVIEWER (required)")

	if err := tokenCmd.MarkFlagRequired("user-id"); err != nil {
		panic(fmt.Sprintf("failed to mark user-id flag as required: %v", err))
	}
	if err := tokenCmd.MarkFlagRequired("role"); err != nil {
		panic(fmt.Sprintf("failed to mark role flag as required: %v", err))
	}

	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, _ []string) error {
	role, err := types.ParseRole(tokenRole)
	if err != nil {
		return err
	}
	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		return err
	}

	token, err := server.NewJWTService(jwtConfig).GenerateToken(tokenUserID, role)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
