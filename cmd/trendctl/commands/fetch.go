package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/use-agent/trendscout/models"
)

var (
	fetchServer *string
	fetchAPIKey *string
)

func init() {
	fetchServer = fetchCmd.Flags().String("server", envOr("TRENDSCOUT_API_URL", "http://127.0.0.1:5000"), "Base URL of a running trendscout server.")
	fetchAPIKey = fetchCmd.Flags().String("api-key", os.Getenv("TRENDSCOUT_API_KEY"), "API key sent as X-API-Key.")
	rootCmd.AddCommand(fetchCmd)
}

var fetchCmd = &cobra.Command{
	Use:   "fetch [--server http://127.0.0.1:5000]",
	Short: "Asks a running server to capture trends and prints the result.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
		defer cancel()

		rec, err := fetchSnapshot(ctx, http.DefaultClient, *fetchServer, *fetchAPIKey)
		if err != nil {
			return err
		}
		if *asJSON {
			return writeJSON(os.Stdout, rec)
		}
		writeTable(os.Stdout, rec)
		return nil
	},
}

// fetchSnapshot calls POST /api/v1/trends and decodes either envelope.
func fetchSnapshot(ctx context.Context, client *http.Client, server, apiKey string) (*models.SnapshotRecord, error) {
	url := strings.TrimRight(server, "/") + "/api/v1/trends"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return nil, err
	}
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var e models.ErrorResponse
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			return nil, fmt.Errorf("%s (%s, HTTP %d)", e.Error, e.Code, resp.StatusCode)
		}
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, body)
	}

	var ok models.TrendsResponse
	if err := json.Unmarshal(body, &ok); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if ok.Data == nil {
		return nil, fmt.Errorf("response carried no data")
	}
	return ok.Data, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
