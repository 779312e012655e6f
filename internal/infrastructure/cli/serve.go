package cli

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ritenv/cartified/internal/infrastructure/logging"
	"github.com/ritenv/cartified/internal/infrastructure/wiring"
	"github.com/ritenv/cartified/internal/infrastructure/ws"
	"github.com/ritenv/cartified/pkg/domain/cart"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the cart over HTTP with a websocket change feed",
	Long: `Serve hosts the cart as a small HTTP API and pushes every change to
connected websocket clients on /ws. The hub joins the configured webhook
endpoints as one more notifier; mutations made through the API reach both.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}

		log := logging.New(verbose)
		hub := ws.NewHub(log)
		defer hub.Close()

		wsp, err := wiring.NewWorkspace(cwd, log, hub)
		if err != nil {
			return err
		}
		attachConsumer(wsp)

		srv := &http.Server{
			Addr:              serveAddr,
			Handler:           newCartHandler(wsp.Store, hub),
			ReadHeaderTimeout: 5 * time.Second,
		}

		go func() {
			<-cmd.Context().Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		log.Info("serving cart", zap.String("addr", serveAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		wsp.Store.Flush()
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8475", "listen address")
	RootCmd.AddCommand(serveCmd)
}

// newCartHandler routes the cart API plus the websocket change feed.
func newCartHandler(store *cart.Store, feed http.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /ws", feed)

	mux.HandleFunc("GET /cart", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, store.Items(r.Context()))
	})

	mux.HandleFunc("POST /cart/items", func(w http.ResponseWriter, r *http.Request) {
		var entry cart.Item
		if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
			http.Error(w, "invalid item", http.StatusBadRequest)
			return
		}
		items, err := store.AddItem(r.Context(), entry.ID, entry.Qty)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		store.Flush()
		writeJSON(w, http.StatusOK, items)
	})

	mux.HandleFunc("PUT /cart/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Qty int `json:"qty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid quantity", http.StatusBadRequest)
			return
		}
		if !store.ChangeQuantity(r.Context(), r.PathValue("id"), body.Qty, nil) {
			http.Error(w, "item not found", http.StatusNotFound)
			return
		}
		store.Flush()
		writeJSON(w, http.StatusOK, store.Items(r.Context()))
	})

	mux.HandleFunc("DELETE /cart/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		if !store.Remove(r.Context(), r.PathValue("id")) {
			http.Error(w, "item not found", http.StatusNotFound)
			return
		}
		store.Flush()
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("POST /cart/clear", func(w http.ResponseWriter, r *http.Request) {
		store.Clear(r.Context())
		store.Flush()
		w.WriteHeader(http.StatusNoContent)
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
