package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"data-anonymization-service/internal/infra"
	"data-anonymization-service/internal/repository"
	"data-anonymization-service/internal/usecase"
)

var systemCmd = &cobra.Command{
	Use:   "system",
	Short: "Manage system credentials",
	Long:  "Provision, list and disable calling-system credentials in the database store",
}

// newCredentialService はDBとKMSに直接接続してCredentialServiceを構築する。
func newCredentialService(ctx context.Context) (*usecase.CredentialService, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	db, err := infra.NewDB(dsn, false)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	kmsClient, err := infra.NewKMSClient(ctx, os.Getenv("KMS_KEY_NAME"))
	if err != nil {
		return nil, err
	}

	repo := repository.NewCredentialRepository(db)
	return usecase.NewCredentialService(repo, kmsClient), nil
}

var systemAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Provision a new system credential",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		addSystemID, _ := cmd.Flags().GetString("system-id")
		addSecret, _ := cmd.Flags().GetString("secret")
		description, _ := cmd.Flags().GetString("description")
		if addSystemID == "" {
			return fmt.Errorf("--system-id is required")
		}
		if addSecret == "" {
			return fmt.Errorf("--secret is required")
		}

		service, err := newCredentialService(ctx)
		if err != nil {
			return err
		}

		record, err := service.Provision(ctx, addSystemID, addSecret, description)
		if err != nil {
			return fmt.Errorf("provisioning credential: %w", err)
		}

		fmt.Printf("Provisioned credential for system %q (id: %s)\n", record.SystemID, record.ID)
		return nil
	},
}

var systemListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered system credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		service, err := newCredentialService(ctx)
		if err != nil {
			return err
		}

		records, err := service.List(ctx)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "SYSTEM ID\tDESCRIPTION\tSTATUS\tCREATED AT")
		fmt.Fprintln(w, "---------\t-----------\t------\t----------")
		for _, record := range records {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				record.SystemID,
				record.Description,
				record.Status,
				record.CreatedAt.Format("2006-01-02 15:04:05"),
			)
		}
		return w.Flush()
	},
}

var systemDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Disable a system credential",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		disableSystemID, _ := cmd.Flags().GetString("system-id")
		if disableSystemID == "" {
			return fmt.Errorf("--system-id is required")
		}

		service, err := newCredentialService(ctx)
		if err != nil {
			return err
		}

		if err := service.Disable(ctx, disableSystemID); err != nil {
			return fmt.Errorf("disabling credential: %w", err)
		}

		fmt.Printf("Disabled credential for system %q\n", disableSystemID)
		return nil
	},
}

func init() {
	systemAddCmd.Flags().String("system-id", "", "System ID (required)")
	systemAddCmd.Flags().String("secret", "", "Shared secret to store (required)")
	systemAddCmd.Flags().String("description", "", "Human-readable description")
	systemDisableCmd.Flags().String("system-id", "", "System ID (required)")

	systemCmd.AddCommand(systemAddCmd)
	systemCmd.AddCommand(systemListCmd)
	systemCmd.AddCommand(systemDisableCmd)
}
