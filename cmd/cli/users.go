package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yatube/backend/internal/auth"
	"github.com/yatube/backend/internal/repository"
)

var (
	revokeAdmin  bool
	newEmail     string
	newPassword  string
	newUserAdmin bool
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage accounts",
}

var userCreateCmd = &cobra.Command{
	Use:   "create <username>",
	Short: "Create an account, optionally with admin rights",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		users := repository.NewUserRepository(db)
		service := auth.NewService([]byte(cfg.SecretKey), cfg.SessionTTL, users, repository.NewPasswordResetRepository(db))
		return createUser(cmd.Context(), service, users, cmd.OutOrStdout(), args[0], newEmail, newPassword, newUserAdmin)
	},
}

var userPromoteCmd = &cobra.Command{
	Use:   "promote <username>",
	Short: "Grant admin rights (or revoke them with --revoke)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setAdmin(cmd.Context(), repository.NewUserRepository(db), cmd.OutOrStdout(), args[0], !revokeAdmin)
	},
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete <username>",
	Short: "Delete an account with its posts, comments and follows",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return deleteUser(cmd.Context(), repository.NewUserRepository(db), cmd.OutOrStdout(), args[0])
	},
}

func init() {
	userCreateCmd.Flags().StringVar(&newEmail, "email", "", "Email address")
	userCreateCmd.Flags().StringVar(&newPassword, "password", "", "Password (required)")
	userCreateCmd.Flags().BoolVar(&newUserAdmin, "admin", false, "Grant admin rights")
	_ = userCreateCmd.MarkFlagRequired("password")

	userPromoteCmd.Flags().BoolVar(&revokeAdmin, "revoke", false, "Revoke admin rights instead of granting")

	userCmd.AddCommand(userCreateCmd)
	userCmd.AddCommand(userPromoteCmd)
	userCmd.AddCommand(userDeleteCmd)
}

func createUser(ctx context.Context, service *auth.Service, users repository.UserRepository, w io.Writer,
	username, email, password string, admin bool) error {
	if problems := auth.ValidatePassword(password, username, email); len(problems) > 0 {
		return fmt.Errorf("password rejected: %s", strings.Join(problems, " "))
	}

	user, err := service.Register(ctx, auth.RegisterRequest{
		Username: username,
		Email:    strings.TrimSpace(email),
		Password: password,
	})
	if err != nil {
		return err
	}

	if admin {
		if err := users.SetAdmin(ctx, user.Username, true); err != nil {
			return fmt.Errorf("user created but promotion failed: %w", err)
		}
		user.IsAdmin = true
	}
	return printResult(w, user, fmt.Sprintf("✓ Created user %s (admin: %t)", user.Username, user.IsAdmin))
}

func setAdmin(ctx context.Context, users repository.UserRepository, w io.Writer, username string, isAdmin bool) error {
	if err := users.SetAdmin(ctx, username, isAdmin); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return fmt.Errorf("user %q not found", username)
		}
		return fmt.Errorf("failed to update admin rights: %w", err)
	}

	text := fmt.Sprintf("✓ Admin privileges granted to %s", username)
	if !isAdmin {
		text = fmt.Sprintf("✓ Admin privileges revoked for %s", username)
	}
	return printResult(w, map[string]interface{}{"username": username, "is_admin": isAdmin}, text)
}

func deleteUser(ctx context.Context, users repository.UserRepository, w io.Writer, username string) error {
	if err := users.DeleteUser(ctx, username); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return fmt.Errorf("user %q not found", username)
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return printResult(w, map[string]string{"deleted": username}, fmt.Sprintf("✓ Deleted user %s", username))
}
