package todos

import (
	"fmt"
	"strconv"

	"github.com/crucial707/todo-api/cmd/cli/config"
	"github.com/crucial707/todo-api/cmd/cli/output"
	"github.com/crucial707/todo-api/internal/apiclient"
	"github.com/spf13/cobra"
)

// ==========================
// Init Todos
// ==========================
func InitTodos(rootCmd *cobra.Command) {
	rootCmd.AddCommand(
		listTodosCmd(),
		getTodoCmd(),
		createTodoCmd(),
		updateTodoCmd(),
		deleteTodoCmd(),
	)
}

// ==========================
// LIST
// ==========================
func listTodosCmd() *cobra.Command {
	var skip, limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List todos",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := config.AuthedClient()
			if err != nil {
				return err
			}
			todos, err := client.ListTodos(cmd.Context(), skip, limit)
			if err != nil {
				return err
			}
			if asJSON {
				return output.JSON(cmd.OutOrStdout(), todos)
			}
			if len(todos) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No todos.")
				return nil
			}
			output.RenderTodos(cmd.OutOrStdout(), todos)
			return nil
		},
	}
	cmd.Flags().IntVar(&skip, "skip", 0, "number of todos to skip")
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum number of todos to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

// ==========================
// GET
// ==========================
func getTodoCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			client, err := config.AuthedClient()
			if err != nil {
				return err
			}
			todo, err := client.GetTodo(cmd.Context(), id)
			if err != nil {
				return err
			}
			if asJSON {
				return output.JSON(cmd.OutOrStdout(), todo)
			}
			output.RenderTodos(cmd.OutOrStdout(), []apiclient.Todo{todo})
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

// ==========================
// CREATE
// ==========================
func createTodoCmd() *cobra.Command {
	var title, description string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a todo",
		RunE: func(cmd *cobra.Command, args []string) error {
			if title == "" {
				return fmt.Errorf("--title is required")
			}
			client, err := config.AuthedClient()
			if err != nil {
				return err
			}
			var desc *string
			if cmd.Flags().Changed("description") {
				desc = &description
			}
			todo, err := client.CreateTodo(cmd.Context(), title, desc)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created todo %d.\n", todo.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "todo title")
	cmd.Flags().StringVar(&description, "description", "", "todo description")
	return cmd
}

// ==========================
// UPDATE
// ==========================
func updateTodoCmd() *cobra.Command {
	var title, description string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change the title and/or description of a todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			// only flags the user actually passed are sent
			var upd apiclient.TodoUpdate
			if cmd.Flags().Changed("title") {
				upd.Title = &title
			}
			if cmd.Flags().Changed("description") {
				upd.Description = &description
			}
			if upd.Title == nil && upd.Description == nil {
				return fmt.Errorf("nothing to update: pass --title and/or --description")
			}

			client, err := config.AuthedClient()
			if err != nil {
				return err
			}
			todo, err := client.UpdateTodo(cmd.Context(), id, upd)
			if err != nil {
				return err
			}
			output.RenderTodos(cmd.OutOrStdout(), []apiclient.Todo{todo})
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	return cmd
}

// ==========================
// DELETE
// ==========================
func deleteTodoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			client, err := config.AuthedClient()
			if err != nil {
				return err
			}
			if err := client.DeleteTodo(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted todo %d.\n", id)
			return nil
		},
	}
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid todo id %q", s)
	}
	return id, nil
}
