package main

import (
	"fmt"
	"os"

	"foodgram/backend/internal/config"
	"foodgram/backend/internal/database"
	"foodgram/backend/internal/logging"
	"foodgram/backend/internal/seed"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	dbDriver string
	dbURL    string
)

var rootCmd = &cobra.Command{
	Use:           "loaddata",
	Short:         "Load reference data into the foodgram database",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var ingredientsFile string

var ingredientsCmd = &cobra.Command{
	Use:   "ingredients",
	Short: "Import ingredients from a .csv or .json file",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := seed.FormatFromPath(ingredientsFile)
		if err != nil {
			return err
		}
		f, err := os.Open(ingredientsFile)
		if err != nil {
			return err
		}
		defer f.Close()

		return withDB(func(db *gorm.DB) error {
			res, err := seed.LoadIngredients(cmd.Context(), db, f, format)
			if err != nil {
				return err
			}
			logging.Info().Int("read", res.Read).Int("created", res.Created).Msg("ingredients loaded")
			fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d ingredients (%d new)\n", res.Read, res.Created)
			return nil
		})
	},
}

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Create the default breakfast, lunch and dinner tags",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *gorm.DB) error {
			res, err := seed.LoadDefaultTags(cmd.Context(), db)
			if err != nil {
				return err
			}
			logging.Info().Int("created", res.Created).Msg("tags loaded")
			fmt.Fprintf(cmd.OutOrStdout(), "Created %d tags\n", res.Created)
			return nil
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbDriver, "driver", "", "Database driver (postgres or sqlite); defaults to DATABASE_DRIVER")
	rootCmd.PersistentFlags().StringVar(&dbURL, "dsn", "", "Database DSN; defaults to DATABASE_URL")

	ingredientsCmd.Flags().StringVarP(&ingredientsFile, "file", "f", "data/ingredients.csv", "Path to the ingredients file")

	rootCmd.AddCommand(ingredientsCmd, tagsCmd)
}

// withDB opens and migrates the database named by the flags, falling back
// to the server configuration for whatever the flags leave empty.
func withDB(fn func(db *gorm.DB) error) error {
	driver, dsn := dbDriver, dbURL
	if driver == "" || dsn == "" {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if driver == "" {
			driver = cfg.DatabaseDriver
		}
		if dsn == "" {
			dsn = cfg.DatabaseURL
		}
	}

	db, err := database.Open(driver, dsn)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := database.Migrate(db); err != nil {
		return err
	}
	return fn(db)
}
