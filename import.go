package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"recipechat/internal/config"
	"recipechat/internal/recipes"
	"recipechat/internal/storage"
)

var (
	importFile string
	importDB   string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load the recipe dataset file into a database",
	Long: `Reads a JSON array of {id, cuisine, ingredients} records and upserts them
into the recipes table of the chosen database. Point basic_config.recipe_source
at the same database to have the server read from it.`,
	Args: cobra.NoArgs,
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVarP(&importFile, "file", "f", "", "dataset file (default basic_config.recipes_path)")
	importCmd.Flags().StringVar(&importDB, "db", "sqlite3", "database config key (sqlite3 or mysql)")
}

func runImport(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	path := cfg.BasicConfig.RecipesPath
	if importFile != "" {
		path = importFile
	}

	dataset, err := recipes.LoadFile(path)
	if err != nil {
		return err
	}
	db, err := storage.Open(importDB, cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := storage.Migrate(db, importDB); err != nil {
		return err
	}
	if err := storage.SaveRecipes(cmd.Context(), db, importDB, dataset); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d recipes into %s\n", len(dataset), importDB)
	return nil
}
