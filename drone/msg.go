package drone

import (
	"errors"
	"fmt"
	"strings"
)

const (
	DefaultHost = "192.168.10.1"
	DefaultPort = 8889

	DefaultTurnDegrees = 90
)

// Tello SDK text commands
const (
	CmdHandshake = "command"
	CmdTakeOff   = "takeoff"
	CmdLand      = "land"
	CmdEmergency = "emergency"
)

const (
	DirUp    = "up"
	DirDown  = "down"
	DirLeft  = "left"
	DirRight = "right"
	DirCw    = "cw"
	DirCcw   = "ccw"
)

var (
	ErrNotReady         = errors.New("tello not ready")
	ErrAlreadyAirborne  = errors.New("cannot take off, already airborne")
	ErrGrounded         = errors.New("currently grounded")
	ErrInvalidDirection = errors.New("direction is invalid")
	ErrInvalidDistance  = errors.New("enter an integer greater than 0")
	ErrInvalidDegrees   = errors.New("enter an integer greater than 0")
	ErrUnknownCommand   = errors.New("unknown command")
)

var moveDirections = []string{DirUp, DirDown, DirLeft, DirRight}
var turnDirections = []string{DirCw, DirCcw, DirLeft, DirRight}

func validDirection(direction string, valid []string) (string, bool) {
	d := strings.ToLower(direction)
	for _, v := range valid {
		if d == v {
			return d, true
		}
	}
	return d, false
}

func moveCommand(direction string, distance int) (string, error) {
	d, ok := validDirection(direction, moveDirections)
	if !ok {
		return "", fmt.Errorf("cannot move in %s, %w", direction, ErrInvalidDirection)
	}
	if distance <= 0 {
		return "", fmt.Errorf("cannot move %dcm, %w", distance, ErrInvalidDistance)
	}
	return fmt.Sprintf("%s %d", d, distance), nil
}

func turnCommand(direction string, degrees []int) (string, error) {
	d, ok := validDirection(direction, turnDirections)
	if !ok {
		return "", fmt.Errorf("cannot turn %s, %w", direction, ErrInvalidDirection)
	}

	deg := DefaultTurnDegrees
	switch len(degrees) {
	case 0:
	case 1:
		deg = degrees[0]
	default:
		return "", fmt.Errorf("cannot turn %v degrees, %w", degrees, ErrInvalidDegrees)
	}
	if deg <= 0 {
		return "", fmt.Errorf("cannot turn %d degrees, %w", deg, ErrInvalidDegrees)
	}
	return fmt.Sprintf("%s %d", d, deg), nil
}
