package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/happyhackingspace/textcat"
	"github.com/happyhackingspace/textcat/internal/server"
	"github.com/spf13/cobra"
)

func (c *CLI) newServeCommand() *cobra.Command {
	var modelPath string
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the classifier over HTTP",
		Example: `  textcat serve --model topics.json --addr :8080

  curl -s --data-binary @page.html localhost:8080/classify
  curl -s -H 'Content-Type: application/json' -d '{"text":"..."}' localhost:8080/classify
  curl -s -X POST localhost:8080/reload`,
		RunE: func(cmd *cobra.Command, args []string) error {
			load := func() (*textcat.Classifier, error) {
				return c.loadModel(modelPath)
			}
			cl, err := load()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = c.cfg.ListenAddr
			}

			srv := server.New(cl, server.Options{
				MaxBodyBytes: c.cfg.MaxBodyBytes,
				Reload:       load,
			})

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.ListenAndServe(ctx, server.ListenOptions{
				Addr:            addr,
				ReadTimeout:     c.cfg.ReadTimeout,
				WriteTimeout:    c.cfg.WriteTimeout,
				ShutdownTimeout: c.cfg.ShutdownTimeout,
			})
		},
	}

	cmd.Flags().StringVar(&modelPath, "model", "", "Path to model file (default: TEXTCAT_MODEL or auto-detect)")
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: TEXTCAT_LISTEN_ADDR)")
	return cmd
}
