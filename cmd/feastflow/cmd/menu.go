package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/feastflow/storefront/internal/domain/menu"
)

var menuForm menu.Form

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Browse and manage the menu",
}

var menuListCmd = &cobra.Command{
	Use:   "list",
	Short: "List menu items",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			items, err := a.menu.List(ctx)
			if err != nil {
				return err
			}
			return printMenu(a, items)
		})
	},
}

var menuAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a menu item (admin)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			if err := a.requireSession(ctx, true); err != nil {
				return err
			}
			item, err := a.menu.Save(ctx, "", menuForm)
			if err != nil {
				return err
			}
			return printMenu(a, []menu.Item{*item})
		})
	},
}

var menuEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit a menu item (admin)",
	Long:  `Edit a menu item. Fields without a flag keep their current value.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			if err := a.requireSession(ctx, true); err != nil {
				return err
			}
			if _, err := a.menu.List(ctx); err != nil {
				return err
			}
			current, ok := a.menu.Find(args[0])
			if !ok {
				return fmt.Errorf("menu item %q not found", args[0])
			}
			form := menu.FormFor(current)
			flags := cmd.Flags()
			if flags.Changed("name") {
				form.Name = menuForm.Name
			}
			if flags.Changed("description") {
				form.Description = menuForm.Description
			}
			if flags.Changed("price") {
				form.Price = menuForm.Price
			}
			if flags.Changed("image") {
				form.Image = menuForm.Image
			}
			item, err := a.menu.Save(ctx, current.ID, form)
			if err != nil {
				return err
			}
			return printMenu(a, []menu.Item{*item})
		})
	},
}

var menuDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a menu item (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			if err := a.requireSession(ctx, true); err != nil {
				return err
			}
			if _, err := a.menu.List(ctx); err != nil {
				return err
			}
			return a.menu.Delete(ctx, args[0])
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{menuAddCmd, menuEditCmd} {
		c.Flags().StringVar(&menuForm.Name, "name", "", "item name")
		c.Flags().StringVar(&menuForm.Description, "description", "", "item description")
		c.Flags().StringVar(&menuForm.Price, "price", "", "price, e.g. 9.50")
		c.Flags().StringVar(&menuForm.Image, "image", "", "image URL")
	}
	menuCmd.AddCommand(menuListCmd, menuAddCmd, menuEditCmd, menuDeleteCmd)
	rootCmd.AddCommand(menuCmd)
}

func printMenu(a *app, items []menu.Item) error {
	return a.out.print(items, func(w io.Writer) {
		row(w, "ID", "NAME", "PRICE", "DESCRIPTION")
		for _, it := range items {
			row(w, it.ID, it.Name, it.Price.StringFixed(2), it.Description)
		}
	})
}
