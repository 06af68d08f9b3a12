package core

const (
	RequestTypeCmd   = "cmd"
	RequestTypeQuery = "query"
)

const (
	CmdTakeOff   = "takeoff"
	CmdLand      = "land"
	CmdEmergency = "emergency"
	CmdMove      = "move"
	CmdUp        = "up"
	CmdDown      = "down"
	CmdLeft      = "left"
	CmdRight     = "right"
	CmdTurn      = "turn"
	CmdTurnLeft  = "turn_left"
	CmdTurnRight = "turn_right"
	CmdPlan      = "plan"
)

// Request is received from the remote controller.
// Data holds the arguments, eg. "up 50" for move or "50" for up.
// A plan request carries a script such as "takeoff; up 50; land".
type Request struct {
	Type string `json:"type"`
	Cmd  string `json:"cmd"`
	Data string `json:"data"`

	err error
}

type Response struct {
	Type  string `json:"type"`
	Cmd   string `json:"cmd,omitempty"`
	Ok    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	State string `json:"state"`
}
