package main

import (
	"fmt"

	"github.com/jonathan/jobtrail/internal/config"
	"github.com/jonathan/jobtrail/internal/server"
	"github.com/spf13/cobra"
)

var (
	tokenUser  string
	tokenHours int
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for a user",
	Long:  `Sign a JWT for --user with JWT_SECRET. Intended for local development and scripting.`,
	RunE:  runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUser, "user", "", "Owner id (uuid)")
	tokenCmd.Flags().IntVar(&tokenHours, "hours", 0, "Token lifetime in hours (overrides JWT_EXPIRATION_HOURS)")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, _ []string) error {
	owner, err := parseOwner(tokenUser)
	if err != nil {
		return err
	}
	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		return fmt.Errorf("failed to create JWT config: %w", err)
	}
	if tokenHours > 0 {
		jwtConfig.ExpirationHours = tokenHours
	}

	token, err := server.NewJWTService(jwtConfig).GenerateToken(owner)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
