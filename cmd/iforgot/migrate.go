package main

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func migrateCmd(opts *rootOptions) *cobra.Command {
	var (
		seedDemoOwner bool
		ownerEmail    string
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Long: `Apply the PostgreSQL schema. Running it again is harmless.

With --seed-demo-owner the owner configured as server.demo_owner_id
(IFORGOT_DEMO_OWNER_ID) is created too, so the simple-notes routes work.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			defer logger.Sync()

			if cfg.Database.UseInMemory {
				return errors.New("nothing to migrate: database.use_in_memory is set")
			}

			store, pg, err := openStore(cfg, logger)
			if err != nil {
				logger.Error("Failed to open database", zap.Error(err))
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			if err := pg.Migrate(ctx); err != nil {
				return err
			}
			logger.Info("Schema is up to date")

			if !seedDemoOwner {
				return nil
			}

			ownerID := cfg.Server.DemoOwnerID
			if _, err := uuid.Parse(ownerID); err != nil {
				return fmt.Errorf("demo owner id %q is not a UUID: set server.demo_owner_id or IFORGOT_DEMO_OWNER_ID", ownerID)
			}
			if err := pg.EnsureOwner(ctx, ownerID, ownerEmail); err != nil {
				return err
			}
			logger.Info("Seeded demo owner", zap.String("owner_id", ownerID))
			return nil
		},
	}

	cmd.Flags().BoolVar(&seedDemoOwner, "seed-demo-owner", false, "create the configured demo owner")
	cmd.Flags().StringVar(&ownerEmail, "owner-email", "", "email stored with the seeded owner")

	return cmd
}
