package main

import (
	"encoding/json"
	"fmt"

	"beegate/internal/auth/token"
	"beegate/internal/config"

	"github.com/spf13/cobra"
)

// tokenOutput is what the token command prints for a credential it accepts
type tokenOutput struct {
	ID     string                 `json:"id"`
	Role   string                 `json:"role"`
	Mode   token.Mode             `json:"mode"`
	Claims map[string]interface{} `json:"claims"`
}

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token <jwt>",
		Short: "Decode a credential the way the gateway would",
		Long: `Decode a credential and print the identity the gateway derives from it.

Without --config the payload is decoded without signature verification.`,
		Args: cobra.ExactArgs(1),
		RunE: runToken,
	}

	cmd.Flags().StringP("config", "c", "", "use the token verification settings of this configuration file")

	return cmd
}

func runToken(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	decoder := token.NewClaimsOnly()
	if configPath != "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		decoder, err = token.New(cmd.Context(), token.Config{
			Mode:        token.Mode(cfg.Token.Verification),
			Secret:      cfg.Token.Secret,
			OIDCIssuer:  cfg.Token.OIDC.Issuer,
			OIDCJWKSURL: cfg.Token.OIDC.JWKSURL,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize token decoder: %w", err)
		}
	}

	identity, err := decoder.Parse(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("credential rejected: %w", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(tokenOutput{
		ID:     identity.ID,
		Role:   identity.Role,
		Mode:   decoder.Mode(),
		Claims: identity.Claims,
	})
}
