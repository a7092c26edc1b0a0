package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"radar/internal/app"
	lookuphandler "radar/internal/lookup/handler"
	"radar/internal/lookup/models"
	"radar/internal/lookup/service"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Build applies the schema on open.
			return withApp(cmd, func(_ context.Context, a *app.App) error {
				a.Logger.Info("schema applied")
				return nil
			})
		},
	}
}

func repairCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repair",
		Short: "Refill registry data on records saved without it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				report, err := a.Lookup.Repair(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd, lookuphandler.FromRepair(report))
			})
		},
	}
}

func sweepRetentionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep-retention",
		Short: "Delete records past their retention window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				deleted, err := a.Lookup.SweepRetention(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd, lookuphandler.RetentionResponse{Deleted: deleted})
			})
		},
	}
}

func batchCmd() *cobra.Command {
	var (
		file   string
		userID int64
		force  bool
	)
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Look up every CNPJ in a file on behalf of a user",
		Long: `Look up every CNPJ in a file on behalf of a user.

The file holds one key per line, or a CSV whose first column is the key.
A header row is skipped. Each result is printed as one JSON line.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()
			keys, err := readKeys(f)
			if err != nil {
				return fmt.Errorf("read %s: %w", file, err)
			}
			if len(keys) == 0 {
				return errors.New("no keys found in file")
			}

			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				user, err := a.Auth.Me(ctx, userID)
				if err != nil {
					return err
				}
				items, err := a.Lookup.LookupBatch(ctx, service.BatchRequest{
					CNPJs: keys,
					Force: force,
					Actor: models.Actor{ID: user.ID, Name: user.Name},
				})
				if err != nil {
					return err
				}
				resp := lookuphandler.FromBatch(items)
				for _, item := range resp.Items {
					if err := printJSON(cmd, item); err != nil {
						return err
					}
				}
				a.Logger.Info("batch finished",
					"total", resp.Total,
					"succeeded", resp.Succeeded,
					"failed", resp.Failed,
				)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "file with the keys to look up")
	cmd.Flags().Int64Var(&userID, "user-id", 0, "user the lookups are recorded for")
	cmd.Flags().BoolVar(&force, "force", false, "skip the cache and query the upstream sources")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("user-id")
	return cmd
}

func seedAdminCmd() *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create an administrator unless the email is already registered",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				created, err := a.Auth.SeedAdmin(ctx, name, email, password)
				if err != nil {
					return err
				}
				if created {
					cmd.Printf("administrator %s created\n", email)
				} else {
					cmd.Printf("%s already registered\n", email)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "administrator email")
	cmd.Flags().StringVar(&password, "password", "", "administrator password")
	cmd.Flags().StringVar(&name, "name", "Administrador", "display name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	return json.NewEncoder(cmd.OutOrStdout()).Encode(v)
}
