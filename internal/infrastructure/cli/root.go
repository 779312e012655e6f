// Package cli implements the cartified demo CLI: a console consumer over a
// file-persisted cart.
package cli

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ritenv/cartified/internal/infrastructure/logging"
	"github.com/ritenv/cartified/internal/infrastructure/wiring"
	"github.com/ritenv/cartified/pkg/domain/cart"
	"github.com/ritenv/cartified/pkg/domain/events"
)

var (
	Version = "dev"

	verbose bool
)

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:     "cartified",
	Version: Version,
	Short:   "A file-persisted shopping cart",
	Long: `Cartified keeps a shopping cart on disk and logs every change.
Mutations flow through an event bus that persists and broadcasts each
snapshot; this CLI is one consumer of that bus.`,
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return RootCmd.Execute()
}

func init() {
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// openWorkspace wires a cart store over the current directory and attaches
// the console consumer that logs every change.
func openWorkspace() (*wiring.Workspace, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	log := logging.New(verbose)
	ws, err := wiring.NewWorkspace(cwd, log)
	if err != nil {
		return nil, err
	}

	attachConsumer(ws)
	return ws, nil
}

// attachConsumer subscribes log-only handlers: the demo Consumer reacting
// to cart events.
func attachConsumer(ws *wiring.Workspace) {
	ws.Store.On(events.TypeModified, func(evt events.Event) {
		fields := []zap.Field{zap.String("event", evt.Fired.String())}
		if items, ok := evt.Data.([]cart.Item); ok {
			fields = append(fields, zap.Int("items", len(items)))
		}
		ws.Log.Info("cart modified", fields...)
	})
	ws.Store.On(events.TypePersisted, func(events.Event) {
		ws.Log.Info("cart persisted")
	})
}
