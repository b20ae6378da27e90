// Package runtime wires the dispatch queue, sink workers, completion
// archive and event hub into a single-node DispatchQ instance.
//
// All queue access is serialized behind one mutex: the tick loop, enqueues
// from the API, completion reports from sink workers and drains all take
// it before touching the queue. Completion records leave that critical
// section through a buffered channel; a background goroutine archives them
// and fans them out to watchers.
//
// Example:
//
//	cfg := config.Default()
//	rt, _ := runtime.Open(runtime.Options{DataDir: "./data", Config: cfg})
//	defer rt.Close()
//	msg, _ := rt.Enqueue("orders", []byte(`{"n":1}`), nil)
//	_ = msg
package runtime
