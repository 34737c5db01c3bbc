package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/manan0901/Vibecoder-sub000/internal/core/domain"
	"github.com/manan0901/Vibecoder-sub000/internal/platform/config"
	"github.com/manan0901/Vibecoder-sub000/internal/utils"
	"github.com/spf13/cobra"
)

var (
	tokenRole string
	tokenTTL  time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token [user-id]",
	Short: "Mint an API token for local testing",
	Long: `Mint an HS256 token signed with JWT_SECRET, as the marketplace auth service would.

Examples:
  vibepay-admin token buyer-1
  vibepay-admin token ops-1 --role admin --ttl 15m`,
	Args: cobra.ExactArgs(1),
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenRole, "role", string(domain.RoleBuyer), "role claim (buyer, seller, admin)")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (default: JWT_EXPIRY_DURATION)")
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	role := domain.UserRole(strings.ToLower(tokenRole))
	if !role.IsValid() {
		return fmt.Errorf("unknown role %q", tokenRole)
	}
	ttl := tokenTTL
	if ttl == 0 {
		ttl = cfg.JWTExpiryDuration
	}

	token, err := utils.GenerateJWT(args[0], string(role), cfg.JWTSecret, ttl, cfg.JWTIssuer)
	if err != nil {
		return fmt.Errorf("failed to sign token: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
