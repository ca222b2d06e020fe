package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/exitravels/backoffice/internal/repository"
	"github.com/exitravels/backoffice/internal/service"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

const minPasswordLen = 8

func addAdmin(topLevel *cobra.Command, opts func() Options) {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage back-office staff accounts.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	addAdminCreate(cmd, opts)
	topLevel.AddCommand(cmd)
}

func addAdminCreate(parent *cobra.Command, opts func() Options) {
	var email, name, password string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a staff account.",
		Example: `
EXITCTL_ADMIN_PASSWORD=... exitctl admin create --email ops@exitravels.fr --name "Service client"
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("EXITCTL_ADMIN_PASSWORD")
			}
			if err := validateAdmin(email, password); err != nil {
				return err
			}
			ctx := cmd.Context()
			pool, err := repository.NewPool(ctx, opts().DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := service.NewAuthService(repository.NewPgAdminRepository(pool))
			admin, err := svc.CreateAdmin(ctx, email, name, password)
			if err != nil {
				return fmt.Errorf("create admin: %w", err)
			}
			_, _ = color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "admin %s created (%s)\n", admin.Email, admin.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Sign-in email (required).")
	cmd.Flags().StringVar(&name, "name", "", "Display name.")
	cmd.Flags().StringVar(&password, "password", "", "Password; prefer EXITCTL_ADMIN_PASSWORD.")

	parent.AddCommand(cmd)
}

func validateAdmin(email, password string) error {
	if email == "" {
		return errors.New("--email is required")
	}
	if len(password) < minPasswordLen {
		return fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}
	return nil
}
