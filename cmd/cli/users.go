package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/uniconnect/backend/internal/config"
	"github.com/uniconnect/backend/internal/models"
	"github.com/uniconnect/backend/internal/repository"
	"gorm.io/gorm"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Administer user accounts",
}

var promoteCmd = &cobra.Command{
	Use:   "promote <email>",
	Short: "Grant or revoke the admin role",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		revoke, _ := cmd.Flags().GetBool("revoke")
		return withDatabase(func(cfg *config.Config, db *gorm.DB) error {
			return setAdmin(cmd, db, args[0], !revoke)
		})
	},
}

func init() {
	promoteCmd.Flags().Bool("revoke", false, "Revoke admin privileges instead of granting")
	userCmd.AddCommand(promoteCmd)
	rootCmd.AddCommand(userCmd)
}

func setAdmin(cmd *cobra.Command, db *gorm.DB, email string, admin bool) error {
	users := repository.NewUserRepository(db)
	ctx := cmd.Context()

	user, err := users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return fmt.Errorf("user not found: %s", email)
	}

	role := models.RoleStudent
	if admin {
		role = models.RoleAdmin
	}
	if user.Role == role {
		fmt.Printf("⚠️  User %s already has role %s\n", user.Username, role)
		return nil
	}

	if err := users.UpdateFields(ctx, user.ID, map[string]interface{}{"role": role}); err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}
	fmt.Printf("✓ %s (%s) is now %s\n", user.Username, user.Email, role)
	if admin {
		fmt.Printf("  The user must log in again for the new role to take effect\n")
	}
	return nil
}
