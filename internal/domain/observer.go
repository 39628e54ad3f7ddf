package domain

// ControlState is the availability of the download and cancel controls
type ControlState struct {
	Download bool `json:"download"`
	Cancel   bool `json:"cancel"`
}

// Idle is the control state outside a request
var Idle = ControlState{Download: true, Cancel: false}

// Busy is the control state while a request is in flight
var Busy = ControlState{Download: false, Cancel: true}

// Observer receives updates for one request. Methods are called from the
// worker goroutine; implementations must be safe for that.
type Observer interface {
	OnProgress(ProgressEvent)
	OnStatus(text string)
	OnControlState(ControlState)
}

// ControllerState is the orchestrator's position in a request's lifecycle
type ControllerState string

const (
	StateIdle        ControllerState = "idle"
	StateValidating  ControllerState = "validating"
	StateFetching    ControllerState = "fetching"
	StateTranscoding ControllerState = "transcoding"
	StateCancelling  ControllerState = "cancelling"
	StateDone        ControllerState = "done"
	StateFailed      ControllerState = "failed"
)
