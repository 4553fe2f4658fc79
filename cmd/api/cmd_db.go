package main

import (
	"log/slog"

	"refurbmarket/internal/infra/db"
	infraRepo "refurbmarket/internal/infra/repository"
	auth "refurbmarket/internal/usecase/auth_usecase"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		gdb, err := db.Connect(cfg)
		if err != nil {
			return err
		}
		if err := db.Migrate(gdb); err != nil {
			return err
		}
		slog.Info("migration completed", "driver", cfg.DBDriver)
		return nil
	},
}

var seedAdminName string

// SEED_ADMIN_EMAIL / SEED_ADMIN_PASSWORD から管理者を作る
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the admin account from SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		gdb, err := db.Connect(cfg)
		if err != nil {
			return err
		}
		if err := db.Migrate(gdb); err != nil {
			return err
		}

		admin, created, err := auth.SeedAdmin(cmd.Context(),
			infraRepo.NewUserGormRepository(gdb),
			auth.NewBcryptPasswordHasher(cfg.BcryptCost),
			auth.SeedAdminInput{Name: seedAdminName, Email: cfg.SeedAdminEmail, Password: cfg.SeedAdminPassword},
		)
		if err != nil {
			return err
		}
		slog.Info("admin seeded", "user_id", admin.ID, "email", admin.Email, "created", created)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedAdminName, "name", "Admin", "display name of the admin account")
}
