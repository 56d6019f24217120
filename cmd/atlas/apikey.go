package main

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/rpggio/atlas/internal/config"
	"github.com/rpggio/atlas/internal/repository"
	"github.com/rpggio/atlas/internal/sqlite"
	"github.com/spf13/cobra"
)

var apikeyCmd = &cobra.Command{
	Use:   "apikey",
	Short: "Manage bearer tokens",
}

var (
	apikeyTenant      string
	apikeyDescription string
	apikeyToken       string
)

var apikeyAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a bearer token for a tenant",
	Long: `Register a bearer token for a tenant. Only the token's sha256 hash is
stored. Without --token a random token is generated and printed once.`,
	RunE: runAPIKeyAdd,
}

func init() {
	apikeyAddCmd.Flags().StringVar(&apikeyTenant, "tenant", "", "Tenant the token authenticates as")
	apikeyAddCmd.Flags().StringVar(&apikeyDescription, "description", "", "Free-form note stored with the key")
	apikeyAddCmd.Flags().StringVar(&apikeyToken, "token", "", "Token to register (generated when empty)")
	_ = apikeyAddCmd.MarkFlagRequired("tenant")
	apikeyCmd.AddCommand(apikeyAddCmd)
}

func runAPIKeyAdd(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	token := apikeyToken
	if token == "" {
		token, err = generateToken()
		if err != nil {
			return err
		}
	}

	keys := sqlite.NewAPIKeyRepository(db)
	if err := keys.Add(cmd.Context(), token, apikeyTenant, apikeyDescription); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return fmt.Errorf("token already registered")
		}
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return "atlas_" + base64.RawURLEncoding.EncodeToString(buf), nil
}
