// Package client provides the `dispatchq` command-line client.
//
// The CLI talks to the DispatchQ HTTP API to perform common queue
// operations from a terminal. It is primarily intended for developers
// and operators.
//
// Installation
//
//	go install github.com/rzbill/dispatchq/cmd/dispatchq@latest
//
// # Address configuration
//
// The HTTP base URL is discovered by the application that embeds the
// commands via a BaseURLFunc. When using the standalone binary, it is
// read from the DQ_HTTP environment variable and defaults to
// http://127.0.0.1:8080.
//
// Usage
//
//	dispatchq send \
//	    --topic orders \
//	    --data '{"hello":"world"}' \
//	    --header idempotencyKey=pub-123 \
//	    --header-json '{"eventType":"order.created"}'
//
//	# Publish many copies concurrently (load generation)
//	dispatchq send --topic orders --data x --count 1000 --concurrency 8
//
//	dispatchq stats
//	dispatchq completions --limit 10
//
//	# Inspect or replace the queue timeout thresholds
//	dispatchq options get
//	dispatchq options set --max-enqueued-time-secs 60 --max-processing-time-secs 30
//
//	# Cancel everything currently queued or in flight (requires --confirm)
//	dispatchq drain --confirm
//
//	# Follow completion events over a websocket, optionally filtered
//	dispatchq watch
//	dispatchq watch --filter 'outcome == "timeout"'
//
// Notes
//
//   - watch connects to the /v1/events websocket. The --filter
//     expression is evaluated server-side against each completion.
//   - send accepts repeated --header key=value flags or a single
//     --header-json with a JSON object to populate message headers.
package client
