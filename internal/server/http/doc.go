// Package httpserver provides the REST gateway for DispatchQ: JSON
// endpoints for enqueueing, stats, drain and queue options, plus a
// WebSocket feed of completion events.
//
// Example:
//
//	rt, _ := runtime.Open(runtime.Options{DataDir: "./data", Config: config.Default()})
//	s := httpserver.New(rt, logger)
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = s.ListenAndServe(ctx, ":8080")
package httpserver
