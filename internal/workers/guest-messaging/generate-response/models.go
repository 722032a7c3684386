// internal/workers/guest-messaging/generate-response/models.go
package generateresponse

// Input is the job variable payload for one guest message turn.
type Input struct {
	ThreadID string `json:"threadId"`
	Message  string `json:"message"`
}

// Output is written back to the process instance. The job completes even when
// the pipeline escalates; the BPMN gateway branches on shouldEscalate.
type Output struct {
	ResponseContent  string  `json:"responseContent"`
	Confidence       float64 `json:"confidence"`
	ShouldEscalate   bool    `json:"shouldEscalate"`
	EscalationReason string  `json:"escalationReason,omitempty"`
	Intent           string  `json:"intent"`
	AITraceID        string  `json:"aiTraceId,omitempty"`
	Provider         string  `json:"provider,omitempty"`
}
