package cmd

import (
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"call-insights/config"
	"call-insights/entities"
	"call-insights/repository"
)

// Tenants are managed out-of-band; there is no HTTP surface for them.
func tenant(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "manage tenants",
	}
	cmd.AddCommand(tenantCreate(cfg))
	cmd.AddCommand(tenantDelete(cfg))
	return cmd
}

func tenantCreate(cfg *config.Config) *cobra.Command {
	var name string
	var allowRegen bool

	c := &cobra.Command{
		Use:   "create",
		Short: "create a tenant and print its API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := repository.NewRepo(cfg.DB)
			if err != nil {
				return err
			}

			t := &entities.Tenant{
				Name:            name,
				APIKey:          uuid.NewString(),
				CanRegenReports: allowRegen,
			}
			if err := repo.CreateTenant(cmd.Context(), t); err != nil {
				return err
			}

			cmd.Printf("created tenant %d (%s)\napi key: %s\n", t.ID, t.Name, t.APIKey)
			return nil
		},
	}
	c.Flags().StringVar(&name, "name", "", "tenant display name")
	c.Flags().BoolVar(&allowRegen, "allow-regen", true, "allow the tenant to trigger report regeneration")
	_ = c.MarkFlagRequired("name")
	return c
}

func tenantDelete(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <tenant-id>",
		Short: "delete a tenant and everything it owns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return err
			}

			repo, err := repository.NewRepo(cfg.DB)
			if err != nil {
				return err
			}

			if err := repo.DeleteTenantCascade(cmd.Context(), uint(id)); err != nil {
				return err
			}

			cmd.Printf("deleted tenant %d\n", id)
			return nil
		},
	}
}
