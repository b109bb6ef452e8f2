package main

import (
	"errors"
	"fmt"
	"os"

	"fizzpan_back_end/internal/config"
	"fizzpan_back_end/internal/database"
	"fizzpan_back_end/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	log := logger.New(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	if err := rootCmd(log).Execute(); err != nil {
		log.WithError(err).Error("❌ Migration échouée")
		os.Exit(1)
	}
}

func rootCmd(log *logrus.Logger) *cobra.Command {
	var only string
	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Migrations ScyllaDB de FizzPan (produits, utilisateurs, commandes)",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&only, "keyspace", "", "limiter à un seul jeu de migrations (products, users, orders)")

	var replication int
	ensure := &cobra.Command{
		Use:   "ensure-keyspace",
		Short: "Crée les keyspaces manquants",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return forEach(log, only, func(cfg config.ScyllaConfig, t database.MigrationTarget) error {
				if err := database.EnsureKeyspace(cfg, t, replication); err != nil {
					return err
				}
				log.WithField("keyspace", t.Keyspace).Info("✅ Keyspace prêt")
				return nil
			})
		},
	}
	ensure.Flags().IntVar(&replication, "replication", 1, "facteur de réplication")

	up := &cobra.Command{
		Use:   "up",
		Short: "Applique toutes les migrations en attente",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return forEach(log, only, func(cfg config.ScyllaConfig, t database.MigrationTarget) error {
				return run(log, cfg, t, "up", func(m *migrate.Migrate) error { return m.Up() })
			})
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Annule les dernières migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if steps <= 0 {
				return fmt.Errorf("--steps doit être positif")
			}
			return forEach(log, only, func(cfg config.ScyllaConfig, t database.MigrationTarget) error {
				return run(log, cfg, t, "down", func(m *migrate.Migrate) error { return m.Steps(-steps) })
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "nombre de migrations à annuler")

	version := &cobra.Command{
		Use:   "version",
		Short: "Affiche la version appliquée par keyspace",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return forEach(log, only, func(cfg config.ScyllaConfig, t database.MigrationTarget) error {
				m, err := database.NewMigrator(cfg, t)
				if err != nil {
					return err
				}
				defer m.Close()

				v, dirty, err := m.Version()
				if errors.Is(err, migrate.ErrNilVersion) {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\taucune migration\n", t.Keyspace)
					return nil
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\tversion %d (dirty=%t)\n", t.Keyspace, v, dirty)
				return nil
			})
		},
	}

	root.AddCommand(ensure, up, down, version)
	return root
}

// forEach charge la configuration Scylla et applique fn à chaque cible retenue.
func forEach(log logrus.FieldLogger, only string, fn func(config.ScyllaConfig, database.MigrationTarget) error) error {
	cfg, err := config.LoadUnchecked(log)
	if err != nil {
		return err
	}

	matched := false
	for _, t := range database.Targets(cfg.Scylla) {
		if only != "" && only != t.Name {
			continue
		}
		matched = true
		if err := fn(cfg.Scylla, t); err != nil {
			return fmt.Errorf("%s: %w", t.Keyspace, err)
		}
	}
	if !matched {
		return fmt.Errorf("jeu de migrations inconnu: %q", only)
	}
	return nil
}

func run(log logrus.FieldLogger, cfg config.ScyllaConfig, t database.MigrationTarget, label string, step func(*migrate.Migrate) error) error {
	m, err := database.NewMigrator(cfg, t)
	if err != nil {
		return err
	}
	defer m.Close()

	err = step(m)
	if errors.Is(err, migrate.ErrNoChange) {
		log.WithField("keyspace", t.Keyspace).Info("ℹ️ Aucune migration à appliquer")
		return nil
	}
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"keyspace": t.Keyspace, "direction": label}).Info("✅ Migrations appliquées")
	return nil
}
