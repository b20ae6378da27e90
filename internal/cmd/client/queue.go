package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// sendReq mirrors the enqueue request body. Body marshals to base64.
type sendReq struct {
	Topic   string            `json:"topic"`
	Body    []byte            `json:"body"`
	Headers map[string]string `json:"headers,omitempty"`
}

type sendResp struct {
	ID      string `json:"id"`
	Topic   string `json:"topic"`
	Attempt int    `json:"attempt"`
}

// NewSendCommand constructs the `send` subcommand.
func NewSendCommand(baseURL BaseURLFunc) *cobra.Command {
	sendCmd := &cobra.Command{
		Use:   "send",
		Short: "Enqueue a message for dispatch",
		RunE: func(cmd *cobra.Command, _ []string) error {
			topic, _ := cmd.Flags().GetString("topic")
			data, _ := cmd.Flags().GetString("data")
			count, _ := cmd.Flags().GetInt("count")
			concurrency, _ := cmd.Flags().GetInt("concurrency")
			// Parse headers from flags
			rawHeaders, _ := cmd.Flags().GetStringArray("header")
			headersJSON, _ := cmd.Flags().GetString("header-json")
			headers := map[string]string{}
			for _, hv := range rawHeaders {
				if hv == "" {
					continue
				}
				parts := strings.SplitN(hv, "=", 2)
				if len(parts) != 2 {
					return fmt.Errorf("invalid --header, expected key=value: %s", hv)
				}
				headers[strings.TrimSpace(parts[0])] = parts[1]
			}
			if headersJSON != "" {
				var m map[string]string
				if err := json.Unmarshal([]byte(headersJSON), &m); err != nil {
					return fmt.Errorf("invalid --header-json: %w", err)
				}
				for k, v := range m {
					headers[k] = v
				}
			}
			if count < 1 {
				count = 1
			}
			if concurrency < 1 {
				concurrency = 1
			}

			req := sendReq{Topic: topic, Body: []byte(data), Headers: headers}
			url := baseURL() + "/v1/messages"

			if count == 1 {
				var resp sendResp
				if err := doJSON(cmd.Context(), http.MethodPost, url, req, &resp); err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}

			g, gctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(concurrency)
			for i := 0; i < count; i++ {
				g.Go(func() error {
					return doJSON(gctx, http.MethodPost, url, req, nil)
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "sent:", count)
			return nil
		},
	}
	sendCmd.Flags().StringP("topic", "t", "", "Message topic")
	sendCmd.Flags().String("data", "", "Payload data")
	sendCmd.Flags().Int("count", 1, "Send N copies of the message")
	sendCmd.Flags().Int("concurrency", 4, "Parallel senders when --count > 1")
	// Header flags
	sendCmd.Flags().StringArray("header", []string{}, "Message header key=value (repeat)")
	sendCmd.Flags().String("header-json", "", "Headers as JSON object, e.g. '{\"k\":\"v\"}'")
	return sendCmd
}

// NewStatsCommand constructs the `stats` subcommand.
func NewStatsCommand(baseURL BaseURLFunc) *cobra.Command {
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Get queue depths, completion counters and archive stats",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var data struct {
				Pending            int               `json:"pending"`
				InProgress         int               `json:"inProgress"`
				Enqueued           uint64            `json:"enqueued"`
				Completions        map[string]uint64 `json:"completions"`
				OldestPendingMs    int64             `json:"oldestPendingMs"`
				OldestProcessingMs int64             `json:"oldestProcessingMs"`
				Watchers           int               `json:"watchers"`
				Archive            struct {
					Entries int64     `json:"entries"`
					Oldest  time.Time `json:"oldest"`
				} `json:"archive"`
			}
			if err := doJSON(cmd.Context(), http.MethodGet, baseURL()+"/v1/stats", nil, &data); err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(data)
		},
	}
	return statsCmd
}

// NewStatusCommand constructs the `status` subcommand.
func NewStatusCommand(baseURL BaseURLFunc) *cobra.Command {
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Get server status and uptime",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var data struct {
				Status   string `json:"status"`
				UptimeMs int64  `json:"uptimeMs"`
			}
			if err := doJSON(cmd.Context(), http.MethodGet, baseURL()+"/v1/status", nil, &data); err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(data)
		},
	}
	return statusCmd
}

// NewCompletionsCommand constructs the `completions` subcommand.
func NewCompletionsCommand(baseURL BaseURLFunc) *cobra.Command {
	completionsCmd := &cobra.Command{
		Use:   "completions",
		Short: "List recent completion records, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			var data struct {
				Completions []struct {
					ID          string    `json:"id"`
					MessageID   string    `json:"messageId"`
					Topic       string    `json:"topic"`
					Outcome     string    `json:"outcome"`
					Reason      string    `json:"reason"`
					Attempt     int       `json:"attempt"`
					CompletedAt time.Time `json:"completedAt"`
				} `json:"completions"`
			}
			url := fmt.Sprintf("%s/v1/completions?limit=%d", baseURL(), limit)
			if err := doJSON(cmd.Context(), http.MethodGet, url, nil, &data); err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(data)
		},
	}
	completionsCmd.Flags().Int("limit", 20, "Max records to return")
	return completionsCmd
}

// NewOptionsCommand constructs the `options` command group.
func NewOptionsCommand(baseURL BaseURLFunc) *cobra.Command {
	optionsCmd := &cobra.Command{Use: "options", Short: "Queue timeout threshold operations"}

	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Get the current timeout thresholds",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var data struct {
				MaxEnqueuedTimeSecs   float64 `json:"maxEnqueuedTimeSecs"`
				MaxProcessingTimeSecs float64 `json:"maxProcessingTimeSecs"`
			}
			if err := doJSON(cmd.Context(), http.MethodGet, baseURL()+"/v1/options", nil, &data); err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(data)
		},
	}

	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Replace both timeout thresholds (0 disables one)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			enq, _ := cmd.Flags().GetFloat64("max-enqueued-time-secs")
			proc, _ := cmd.Flags().GetFloat64("max-processing-time-secs")
			body := map[string]float64{
				"maxEnqueuedTimeSecs":   enq,
				"maxProcessingTimeSecs": proc,
			}
			if err := doJSON(cmd.Context(), http.MethodPut, baseURL()+"/v1/options", body, nil); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "status:", "OK")
			return nil
		},
	}
	setCmd.Flags().Float64("max-enqueued-time-secs", 0, "Max pending residency before timeout (0 = disabled)")
	setCmd.Flags().Float64("max-processing-time-secs", 0, "Max processing time before timeout (0 = disabled)")

	optionsCmd.AddCommand(getCmd, setCmd)
	return optionsCmd
}

// NewDrainCommand constructs the `drain` subcommand.
func NewDrainCommand(baseURL BaseURLFunc) *cobra.Command {
	drainCmd := &cobra.Command{
		Use:   "drain",
		Short: "Cancel all pending and in-flight messages",
		RunE: func(cmd *cobra.Command, _ []string) error {
			confirm, _ := cmd.Flags().GetBool("confirm")
			if !confirm {
				return fmt.Errorf("use --confirm to cancel every pending and in-flight message")
			}
			if err := doJSON(cmd.Context(), http.MethodPost, baseURL()+"/v1/drain", nil, nil); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "status:", "OK")
			return nil
		},
	}
	drainCmd.Flags().Bool("confirm", false, "Confirm the drain operation")
	return drainCmd
}
