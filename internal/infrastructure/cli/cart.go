package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ritenv/cartified/pkg/domain/cart"
)

var addCmd = &cobra.Command{
	Use:   "add <id> [qty]",
	Short: "Add an item to the cart (increments quantity for a known id)",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		qty := 1
		if len(args) == 2 {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("qty must be a number: %w", err)
			}
			qty = n
		}

		ws, err := openWorkspace()
		if err != nil {
			return err
		}

		items, err := ws.Store.AddItem(cmd.Context(), args[0], qty)
		if err != nil {
			return err
		}
		ws.Store.Flush()

		printItems(items)
		return nil
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove an item from the cart",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openWorkspace()
		if err != nil {
			return err
		}

		if !ws.Store.Remove(cmd.Context(), args[0]) {
			fmt.Printf("No item %q in the cart.\n", args[0])
			return nil
		}
		ws.Store.Flush()

		printItems(ws.Store.Items(cmd.Context()))
		return nil
	},
}

var qtyCmd = &cobra.Command{
	Use:   "qty <id> <n>",
	Short: "Set an item's quantity",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("qty must be a number: %w", err)
		}

		ws, err := openWorkspace()
		if err != nil {
			return err
		}

		if !ws.Store.ChangeQuantity(cmd.Context(), args[0], n, nil) {
			fmt.Printf("No item %q in the cart.\n", args[0])
			return nil
		}
		ws.Store.Flush()

		printItems(ws.Store.Items(cmd.Context()))
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the cart",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openWorkspace()
		if err != nil {
			return err
		}

		ws.Store.Clear(cmd.Context())
		ws.Store.Flush()

		fmt.Println("Cart cleared.")
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current cart",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openWorkspace()
		if err != nil {
			return err
		}

		printItems(ws.Store.Items(cmd.Context()))
		return nil
	},
}

var saveCmd = &cobra.Command{
	Use:   "save",
	Short: "Persist the cart through the review gate",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openWorkspace()
		if err != nil {
			return err
		}

		if err := ws.Store.Save(cmd.Context()).Await(cmd.Context()); err != nil {
			return fmt.Errorf("save failed: %w", err)
		}

		fmt.Println("Cart saved.")
		return nil
	},
}

func printItems(items []cart.Item) {
	if len(items) == 0 {
		fmt.Println("Cart is empty.")
		return
	}
	for i, item := range items {
		fmt.Printf("%2d. %s x%d\n", i+1, item.ID, item.Qty)
	}
}

func init() {
	RootCmd.AddCommand(addCmd, removeCmd, qtyCmd, clearCmd, showCmd, saveCmd)
}
