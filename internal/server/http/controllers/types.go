package controllers

// Common request/response types for HTTP controllers

// enqueueReq represents a request to enqueue a message for dispatch.
type enqueueReq struct {
	Topic   string            `json:"topic"`
	Body    []byte            `json:"body"`
	Headers map[string]string `json:"headers"`
}

// enqueueResp carries the handle of an accepted message.
type enqueueResp struct {
	ID      string `json:"id"`
	Topic   string `json:"topic,omitempty"`
	Attempt int    `json:"attempt"`
}

// optionsReq represents a full replacement of the queue's timeout
// thresholds, in seconds. Zero disables a threshold.
type optionsReq struct {
	MaxEnqueuedTimeSecs   float64 `json:"maxEnqueuedTimeSecs"`
	MaxProcessingTimeSecs float64 `json:"maxProcessingTimeSecs"`
}

// statusResp is the reply to the status endpoint.
type statusResp struct {
	Status   string `json:"status"`
	UptimeMs int64  `json:"uptimeMs"`
}
