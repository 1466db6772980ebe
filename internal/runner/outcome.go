package runner

// Kind names an outcome category.
type Kind string

const (
	KindPassed           Kind = "passed"
	KindSkipped          Kind = "skipped"
	KindConnectionFailed Kind = "connection_failed"
	KindTransportFailed  Kind = "transport_failed"
	KindStatusMismatch   Kind = "status_mismatch"
	KindLocationMismatch Kind = "location_mismatch"
)

// Outcome is the classified result of one test case. The concrete types
// below are the only implementations.
type Outcome interface {
	Kind() Kind
	Failed() bool
	outcome()
}

// SkipReason is reported for rules without a test override.
const SkipReason = "No test associated with this rule."

type Passed struct{}

type Skipped struct {
	Reason string `json:"reason"`
}

// ConnectionFailed means no response was received at all.
type ConnectionFailed struct {
	Cause  string `json:"cause"`
	URL    string `json:"url,omitempty"`
	Remote bool   `json:"remote"`
}

// TransportFailed means the server answered outside the 2xx-3xx range, or
// no usable response was captured.
type TransportFailed struct {
	Hostname string    `json:"hostname"`
	URL      string    `json:"url"`
	Expected int       `json:"expected"`
	Response *Response `json:"response,omitempty"`
	// RequestHeaders are the headers that were sent.
	RequestHeaders map[string]string `json:"request_headers,omitempty"`
	Message        string            `json:"message,omitempty"`
}

type StatusMismatch struct {
	Expected int    `json:"expected"`
	Actual   int    `json:"actual"`
	URL      string `json:"url"`
}

type LocationMismatch struct {
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
	URL      string `json:"url"`
}

func (Passed) Kind() Kind           { return KindPassed }
func (Skipped) Kind() Kind          { return KindSkipped }
func (ConnectionFailed) Kind() Kind { return KindConnectionFailed }
func (TransportFailed) Kind() Kind  { return KindTransportFailed }
func (StatusMismatch) Kind() Kind   { return KindStatusMismatch }
func (LocationMismatch) Kind() Kind { return KindLocationMismatch }

func (Passed) Failed() bool           { return false }
func (Skipped) Failed() bool          { return false }
func (ConnectionFailed) Failed() bool { return true }
func (TransportFailed) Failed() bool  { return true }
func (StatusMismatch) Failed() bool   { return true }
func (LocationMismatch) Failed() bool { return true }

func (Passed) outcome()           {}
func (Skipped) outcome()          {}
func (ConnectionFailed) outcome() {}
func (TransportFailed) outcome()  {}
func (StatusMismatch) outcome()   {}
func (LocationMismatch) outcome() {}
