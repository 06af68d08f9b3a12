package drone

import "fmt"

// State is the client-local belief about the drone. It is never verified
// against telemetry.
type State int

const (
	StateUnready State = iota
	StateGrounded
	StateAirborne
)

func (s State) String() string {
	switch s {
	case StateUnready:
		return "unready"
	case StateGrounded:
		return "grounded"
	case StateAirborne:
		return "airborne"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

type op int

const (
	opTakeOff op = iota
	opLand
	opMove
	opTurn
	opEmergency
)

func (o op) String() string {
	switch o {
	case opTakeOff:
		return "take off"
	case opLand:
		return "land"
	case opMove:
		return "move"
	case opTurn:
		return "turn"
	case opEmergency:
		return "stop"
	}
	return "op"
}

// transitions lists every operation allowed in a state and the state it leads to.
var transitions = map[State]map[op]State{
	StateUnready: {
		opEmergency: StateUnready,
	},
	StateGrounded: {
		opTakeOff:   StateAirborne,
		opEmergency: StateGrounded,
	},
	StateAirborne: {
		opLand:      StateGrounded,
		opMove:      StateAirborne,
		opTurn:      StateAirborne,
		opEmergency: StateGrounded,
	},
}

func nextState(s State, o op) (State, error) {
	if next, ok := transitions[s][o]; ok {
		return next, nil
	}

	switch {
	case s == StateUnready:
		return s, ErrNotReady
	case o == opTakeOff:
		return s, ErrAlreadyAirborne
	default:
		return s, fmt.Errorf("cannot %s, %w", o, ErrGrounded)
	}
}
