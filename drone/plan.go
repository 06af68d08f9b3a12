package drone

import (
	"fmt"
	"strconv"
	"strings"
)

type step struct {
	op  op
	cmd string
}

// Plan is an ordered list of validated commands. The first validation
// error is kept and every later call is ignored.
type Plan struct {
	steps []step
	err   error
}

// StepError reports the plan step that is not allowed in the state
// reached by the steps before it.
type StepError struct {
	Index int
	Cmd   string
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s): %s", e.Index+1, e.Cmd, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func NewPlan() *Plan {
	return &Plan{}
}

func (p *Plan) Err() error {
	return p.err
}

func (p *Plan) Len() int {
	return len(p.steps)
}

// Commands returns the protocol strings of the plan, without handshakes.
func (p *Plan) Commands() []string {
	cmds := make([]string, 0, len(p.steps))
	for _, s := range p.steps {
		cmds = append(cmds, s.cmd)
	}
	return cmds
}

func (p *Plan) add(o op, cmd string, err error) *Plan {
	if p.err != nil {
		return p
	}
	if err != nil {
		p.err = err
		return p
	}
	p.steps = append(p.steps, step{op: o, cmd: cmd})
	return p
}

func (p *Plan) TakeOff() *Plan {
	return p.add(opTakeOff, CmdTakeOff, nil)
}

func (p *Plan) Land() *Plan {
	return p.add(opLand, CmdLand, nil)
}

func (p *Plan) Emergency() *Plan {
	return p.add(opEmergency, CmdEmergency, nil)
}

func (p *Plan) Move(direction string, distance int) *Plan {
	cmd, err := moveCommand(direction, distance)
	return p.add(opMove, cmd, err)
}

func (p *Plan) Up(distance int) *Plan {
	return p.Move(DirUp, distance)
}

func (p *Plan) Down(distance int) *Plan {
	return p.Move(DirDown, distance)
}

func (p *Plan) Left(distance int) *Plan {
	return p.Move(DirLeft, distance)
}

func (p *Plan) Right(distance int) *Plan {
	return p.Move(DirRight, distance)
}

func (p *Plan) Turn(direction string, degrees ...int) *Plan {
	cmd, err := turnCommand(direction, degrees)
	return p.add(opTurn, cmd, err)
}

func (p *Plan) TurnLeft(degrees ...int) *Plan {
	return p.Turn(DirLeft, degrees...)
}

func (p *Plan) TurnRight(degrees ...int) *Plan {
	return p.Turn(DirRight, degrees...)
}

// Parse appends one command written the way the drone receives it
// ("takeoff", "up 50", "cw 90"), or in the long forms "move <dir> <cm>"
// and "turn <dir> [degrees]". "left" and "right" with a value are moves.
func (p *Plan) Parse(line string) *Plan {
	if p.err != nil {
		return p
	}

	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return p
	}

	name, args := fields[0], fields[1:]
	switch name {
	case CmdTakeOff, CmdLand, CmdEmergency:
		if len(args) != 0 {
			return p.add(opTakeOff, "", fmt.Errorf("%s takes no arguments: %w", name, ErrUnknownCommand))
		}
		switch name {
		case CmdTakeOff:
			return p.TakeOff()
		case CmdLand:
			return p.Land()
		}
		return p.Emergency()
	case DirUp, DirDown, DirLeft, DirRight:
		return p.parseMove(name, args)
	case DirCw, DirCcw:
		return p.parseTurn(name, args)
	case "move":
		if len(args) == 0 {
			return p.add(opMove, "", fmt.Errorf("cannot move, %w", ErrInvalidDirection))
		}
		return p.parseMove(args[0], args[1:])
	case "turn":
		if len(args) == 0 {
			return p.add(opTurn, "", fmt.Errorf("cannot turn, %w", ErrInvalidDirection))
		}
		return p.parseTurn(args[0], args[1:])
	}

	return p.add(opMove, "", fmt.Errorf("%q: %w", line, ErrUnknownCommand))
}

func (p *Plan) parseMove(direction string, args []string) *Plan {
	if len(args) != 1 {
		return p.add(opMove, "", fmt.Errorf("cannot move %s without a distance, %w", direction, ErrInvalidDistance))
	}
	distance, err := strconv.Atoi(args[0])
	if err != nil {
		return p.add(opMove, "", fmt.Errorf("cannot move %scm, %w", args[0], ErrInvalidDistance))
	}
	return p.Move(direction, distance)
}

func (p *Plan) parseTurn(direction string, args []string) *Plan {
	switch len(args) {
	case 0:
		return p.Turn(direction)
	case 1:
		degrees, err := strconv.Atoi(args[0])
		if err != nil {
			return p.add(opTurn, "", fmt.Errorf("cannot turn %s degrees, %w", args[0], ErrInvalidDegrees))
		}
		return p.Turn(direction, degrees)
	}
	return p.add(opTurn, "", fmt.Errorf("cannot turn %s, too many arguments: %w", direction, ErrInvalidDegrees))
}

// ParsePlan reads commands separated by ';' or newlines.
func ParsePlan(script string) (*Plan, error) {
	p := NewPlan()
	lines := strings.FieldsFunc(script, func(r rune) bool {
		return r == ';' || r == '\n'
	})
	for _, line := range lines {
		p.Parse(line)
	}
	return p, p.Err()
}
