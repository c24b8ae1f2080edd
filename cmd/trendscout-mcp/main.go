package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// trendsResponse mirrors the trendscout success envelope.
type trendsResponse struct {
	Message string `json:"message"`
	Data    *struct {
		ID        string   `json:"_id"`
		UniqueID  string   `json:"unique_id"`
		Topics    []string `json:"trending_topics"`
		Timestamp string   `json:"timestamp"`
		IPAddress string   `json:"ip_address"`
	} `json:"data"`
}

// errorResponse mirrors the trendscout failure envelope.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func main() {
	apiURL := os.Getenv("TRENDSCOUT_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:5000"
	}
	apiKey := os.Getenv("TRENDSCOUT_API_KEY")

	s := server.NewMCPServer(
		"trendscout",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	scrapeTrendsTool := mcp.NewTool("scrape_trends",
		mcp.WithDescription("Log in to X with the server's configured account, read the top five trending topics and save them. Takes up to a few minutes because a real browser is driven."),
	)
	s.AddTool(scrapeTrendsTool, handleScrapeTrends(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func handleScrapeTrends(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 5 * time.Minute}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(apiURL, "/")+"/api/v1/trends", nil)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to create request: %v", err)), nil
		}
		if apiKey != "" {
			httpReq.Header.Set("X-API-Key", apiKey)
		}

		resp, err := client.Do(httpReq)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("API request failed: %v", err)), nil
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to read response: %v", err)), nil
		}

		if resp.StatusCode != http.StatusOK {
			var errResp errorResponse
			if err := json.Unmarshal(respBody, &errResp); err != nil || errResp.Error == "" {
				return mcp.NewToolResultError(fmt.Sprintf("capture failed with HTTP %d", resp.StatusCode)), nil
			}
			return mcp.NewToolResultError(fmt.Sprintf("[%s] %s", errResp.Code, errResp.Error)), nil
		}

		var trendsResp trendsResponse
		if err := json.Unmarshal(respBody, &trendsResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		if trendsResp.Data == nil {
			return mcp.NewToolResultError("response carried no data"), nil
		}

		return mcp.NewToolResultText(formatTrends(trendsResp)), nil
	}
}

func formatTrends(r trendsResponse) string {
	var b strings.Builder
	d := r.Data
	fmt.Fprintf(&b, "Trending topics as of %s (egress IP %s):\n", d.Timestamp, d.IPAddress)
	for i, topic := range d.Topics {
		fmt.Fprintf(&b, "%d. %s\n", i+1, topic)
	}
	fmt.Fprintf(&b, "\nunique_id: %s\nid: %s\n", d.UniqueID, d.ID)
	return b.String()
}
