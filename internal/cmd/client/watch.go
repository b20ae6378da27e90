package client

import (
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

// NewWatchCommand constructs the `watch` subcommand.
func NewWatchCommand(baseURL BaseURLFunc) *cobra.Command {
	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow completion events over a websocket",
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, _ := cmd.Flags().GetString("filter")
			limit, _ := cmd.Flags().GetInt("limit")

			wsURL := "ws" + strings.TrimPrefix(baseURL(), "http") + "/v1/events"
			if filter != "" {
				wsURL += "?filter=" + url.QueryEscape(filter)
			}
			conn, resp, err := websocket.DefaultDialer.DialContext(cmd.Context(), wsURL, nil)
			if err != nil {
				// A failed handshake (e.g. bad filter) carries the
				// server's JSON error in the HTTP response.
				if resp != nil && resp.Body != nil {
					return apiError(resp)
				}
				return err
			}
			defer conn.Close()

			// Unblock the read loop when the command context ends.
			go func() {
				<-cmd.Context().Done()
				_ = conn.Close()
			}()

			enc := json.NewEncoder(cmd.OutOrStdout())
			n := 0
			for {
				var e struct {
					MessageID string    `json:"messageId"`
					Topic     string    `json:"topic"`
					Outcome   string    `json:"outcome"`
					Reason    string    `json:"reason,omitempty"`
					Attempt   int       `json:"attempt"`
					At        time.Time `json:"at"`
				}
				if err := conn.ReadJSON(&e); err != nil {
					if cmd.Context().Err() != nil {
						return nil
					}
					return err
				}
				_ = enc.Encode(e)
				n++
				if limit > 0 && n >= limit {
					return nil
				}
			}
		},
	}
	watchCmd.Flags().String("filter", "", "CEL filter (server-side)")
	watchCmd.Flags().Int("limit", 0, "Stop after N events (0 = infinite)")
	return watchCmd
}
