// Command migrate aplica o revierte el esquema de PostgreSQL con las migraciones embebidas.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jhoicas/repairshop-api/internal/infrastructure/postgres"
	"github.com/jhoicas/repairshop-api/pkg/config"
	"github.com/jhoicas/repairshop-api/pkg/logger"
)

var databaseURL string

var rootCmd = &cobra.Command{
	Use:           "migrate",
	Short:         "Migraciones del esquema de facturación y caja",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Aplica todas las migraciones pendientes",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := postgres.MigrateUp(dsn()); err != nil {
			return err
		}
		return printVersion(cmd)
	},
}

var downSteps int

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Revierte migraciones (--steps N; 0 revierte todas)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := postgres.MigrateDown(dsn(), downSteps); err != nil {
			return err
		}
		return printVersion(cmd)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Muestra la versión aplicada del esquema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return printVersion(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "DSN de PostgreSQL (default: DATABASE_URL / DB_*)")
	downCmd.Flags().IntVar(&downSteps, "steps", 1, "cantidad de migraciones a revertir")
	rootCmd.AddCommand(upCmd, downCmd, versionCmd)
}

func dsn() string {
	if databaseURL != "" {
		return databaseURL
	}
	return config.LoadDB().ConnectionString()
}

func printVersion(cmd *cobra.Command) error {
	version, dirty, err := postgres.MigrationVersion(dsn())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "versión: %d (dirty=%t)\n", version, dirty)
	return nil
}

func main() {
	log := logger.New(logger.Config{Env: "development", Level: "info"}).WithComponent("migrate")

	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg(".env no encontrado, se usan variables de entorno")
	}

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("migración fallida")
		os.Exit(1)
	}
}
