package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/archivist-labs/pagefill/internal/adapters/driving/httpapi"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the search API and chat proxy over HTTP",
	Long: `Starts a local HTTP server exposing hybrid search and, when an
upstream workspace is configured, a chat proxy that attaches the
workspace key server-side so it never reaches the browser.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8080, "port to listen on (0 = random)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	var proxy *httpapi.ChatProxy
	if upstream := configStore.GetString("chat.upstream_url"); upstream != "" {
		proxy = httpapi.NewChatProxy(httpapi.ProxyConfig{
			UpstreamURL: upstream,
			Workspace:   configStore.GetString("chat.workspace"),
			APIKey:      configStore.GetString("chat.api_key"),
		})
	}

	server := httpapi.NewServer(servePort, searchService, proxy)
	if err := server.Start(); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}

	cmd.Printf("Listening on http://127.0.0.1:%d\n", server.Port())

	<-cmd.Context().Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Stop(ctx)
}
