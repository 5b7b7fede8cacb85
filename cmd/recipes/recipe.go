package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/recipes/internal/recipe"
	"github.com/hyperengineering/recipes/internal/store"
)

var (
	recipeJSONOutput bool

	listQuery string
	listLimit int

	addTitle       string
	addIngredients string
	addMethod      string

	deleteForce bool
)

var recipeCmd = &cobra.Command{
	Use:   "recipe",
	Short: "Manage recipes",
	Long:  "List, add, and delete recipes directly in the database without running the server.",
}

var recipeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recipes, newest first",
	Args:  cobra.NoArgs,
	RunE:  runRecipeList,
}

var recipeAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a recipe",
	Args:  cobra.NoArgs,
	RunE:  runRecipeAdd,
}

var recipeDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a recipe",
	Long:  "Permanently delete a recipe. Requires --force or interactive confirmation.",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecipeDelete,
}

func init() {
	recipeCmd.PersistentFlags().BoolVar(&recipeJSONOutput, "json", false, "Output in JSON format")

	recipeListCmd.Flags().StringVarP(&listQuery, "query", "q", "", "Only show titles containing this text")
	recipeListCmd.Flags().IntVar(&listLimit, "limit", 0, "Maximum number of recipes to show (0 = all)")

	recipeAddCmd.Flags().StringVar(&addTitle, "title", "", "Recipe title")
	recipeAddCmd.Flags().StringVar(&addIngredients, "ingredients", "", "Ingredients, one per line")
	recipeAddCmd.Flags().StringVar(&addMethod, "method", "", "Method text")

	recipeDeleteCmd.Flags().BoolVar(&deleteForce, "force", false, "Skip confirmation prompt")

	recipeCmd.AddCommand(recipeListCmd)
	recipeCmd.AddCommand(recipeAddCmd)
	recipeCmd.AddCommand(recipeDeleteCmd)
}

// withRepository opens the configured database for the duration of fn.
func withRepository(cmd *cobra.Command, fn func(recipe.Repository) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	return store.With(cmd.Context(), storeOptions(cfg), func(db *store.DB) error {
		return fn(recipe.NewSQLRepository(db))
	})
}

func runRecipeList(cmd *cobra.Command, args []string) error {
	return withRepository(cmd, func(repo recipe.Repository) error {
		recipes, err := repo.List(cmd.Context(), recipe.ListOptions{Query: listQuery, Limit: listLimit})
		if err != nil {
			return fmt.Errorf("list recipes: %w", err)
		}

		if recipeJSONOutput {
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"recipes": recipes,
				"total":   len(recipes),
			})
		}

		if len(recipes) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No recipes found.")
			return nil
		}

		w := newTabWriter(cmd.OutOrStdout())
		fmt.Fprintln(w, "ID\tTITLE\tINGREDIENTS")
		for _, r := range recipes {
			fmt.Fprintf(w, "%d\t%s\t%s\n", r.ID, r.Title, firstLine(r.Ingredients, 40))
		}
		return w.Flush()
	})
}

func runRecipeAdd(cmd *cobra.Command, args []string) error {
	in := recipe.NewRecipe{
		Title:       addTitle,
		Ingredients: addIngredients,
		Method:      addMethod,
	}

	if errs := in.Validate(); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return fmt.Errorf("invalid recipe: %s", strings.Join(msgs, "; "))
	}

	return withRepository(cmd, func(repo recipe.Repository) error {
		id, err := repo.Create(cmd.Context(), in)
		if err != nil {
			return err
		}

		if recipeJSONOutput {
			return printJSON(cmd.OutOrStdout(), recipe.Recipe{
				ID:          id,
				Title:       in.Title,
				Ingredients: in.Ingredients,
				Method:      in.Method,
			})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added recipe %d %q\n", id, in.Title)
		return nil
	})
}

func runRecipeDelete(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid recipe id %q", args[0])
	}

	return withRepository(cmd, func(repo recipe.Repository) error {
		r, found, err := repo.FindByID(cmd.Context(), id)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("recipe %d: %w", id, recipe.ErrNotFound)
		}

		if !deleteForce {
			errOut := cmd.ErrOrStderr()
			fmt.Fprintf(errOut, "WARNING: This will permanently delete recipe %d %q.\n", r.ID, r.Title)
			fmt.Fprint(errOut, "Type the recipe id to confirm: ")

			input, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && !errors.Is(err, io.EOF) {
				return fmt.Errorf("failed to read confirmation: %w", err)
			}
			if strings.TrimSpace(input) != args[0] {
				fmt.Fprintln(errOut, "Aborted. Recipe id did not match.")
				return nil
			}
		}

		if err := repo.DeleteByID(cmd.Context(), id); err != nil {
			return err
		}

		if recipeJSONOutput {
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"id":      id,
				"deleted": true,
			})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted recipe %d\n", id)
		return nil
	})
}
