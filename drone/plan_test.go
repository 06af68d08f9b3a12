package drone

import (
	"errors"
	"reflect"
	"testing"
)

func TestPlanExecute(t *testing.T) {
	client, transport := setup(true)

	plan := NewPlan().TakeOff().Up(50).TurnRight(90).Land()
	if err := client.Execute(plan); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	expected := []string{"command", "takeoff", "command", "up 50", "command", "right 90", "command", "land"}
	if !reflect.DeepEqual(transport.sent, expected) {
		t.Errorf("Expected %v, got %v", expected, transport.sent)
	}
	// the whole plan is queued at once
	if len(transport.batches) != 1 {
		t.Errorf("Expected 1 send, got %d", len(transport.batches))
	}
	if client.State() != StateGrounded {
		t.Errorf("Expected grounded, got %s", client.State())
	}
}

func TestPlanKeepsFirstError(t *testing.T) {
	plan := NewPlan().TakeOff().Move("sideways", 10).Up(-1).Land()

	if !errors.Is(plan.Err(), ErrInvalidDirection) {
		t.Errorf("Expected invalid direction error, got %v", plan.Err())
	}
	if plan.Len() != 1 {
		t.Errorf("Expected 1 step, got %d", plan.Len())
	}

	client, transport := setup(true)
	if err := client.Execute(plan); !errors.Is(err, ErrInvalidDirection) {
		t.Errorf("Expected invalid direction error, got %v", err)
	}
	if len(transport.sent) != 0 {
		t.Errorf("Expected no datagrams, got %v", transport.sent)
	}
}

func TestPlanStateViolationSendsNothing(t *testing.T) {
	client, transport := setup(true)

	plan := NewPlan().TakeOff().Land().Down(20)
	err := client.Execute(plan)
	if !errors.Is(err, ErrGrounded) {
		t.Fatalf("Expected grounded error, got %v", err)
	}

	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("Expected StepError, got %T", err)
	}
	if stepErr.Index != 2 || stepErr.Cmd != "down 20" {
		t.Errorf("Unexpected step error %+v", stepErr)
	}
	if len(transport.sent) != 0 {
		t.Errorf("Expected no datagrams, got %v", transport.sent)
	}
	if client.State() != StateGrounded {
		t.Errorf("Expected grounded, got %s", client.State())
	}
}

func TestPlanNotReady(t *testing.T) {
	client, transport := setup(false)

	if err := client.Execute(NewPlan().TakeOff()); !errors.Is(err, ErrNotReady) {
		t.Errorf("Expected not ready error, got %v", err)
	}
	if err := client.Execute(NewPlan().Up(-5)); !errors.Is(err, ErrNotReady) {
		t.Errorf("Expected not ready error for invalid plan, got %v", err)
	}
	if err := client.Execute(NewPlan().Parse("flip f")); !errors.Is(err, ErrNotReady) {
		t.Errorf("Expected not ready error for unknown command, got %v", err)
	}
	if len(transport.sent) != 0 {
		t.Errorf("Expected no datagrams, got %v", transport.sent)
	}
}

func TestParsePlan(t *testing.T) {
	plan, err := ParsePlan("takeoff; up 50\nCW 45; turn left; turn ccw 30; move down 20;left 10 ;land;emergency")
	if err != nil {
		t.Fatalf("ParsePlan failed: %v", err)
	}

	expected := []string{"takeoff", "up 50", "cw 45", "left 90", "ccw 30", "down 20", "left 10", "land", "emergency"}
	if !reflect.DeepEqual(plan.Commands(), expected) {
		t.Errorf("Expected %v, got %v", expected, plan.Commands())
	}
}

func TestParsePlanErrors(t *testing.T) {
	tests := []struct {
		script string
		err    error
	}{
		{"takeoff; up fifty", ErrInvalidDistance},
		{"up 1.5", ErrInvalidDistance},
		{"up -5", ErrInvalidDistance},
		{"up", ErrInvalidDistance},
		{"cw ninety", ErrInvalidDegrees},
		{"turn cw 0", ErrInvalidDegrees},
		{"turn cw 90 90", ErrInvalidDegrees},
		{"turn", ErrInvalidDirection},
		{"turn up", ErrInvalidDirection},
		{"move forward 20", ErrInvalidDirection},
		{"flip f", ErrUnknownCommand},
		{"land now", ErrUnknownCommand},
		{"command", ErrUnknownCommand},
	}

	for _, test := range tests {
		_, err := ParsePlan(test.script)
		if !errors.Is(err, test.err) {
			t.Errorf("%q: expected %v, got %v", test.script, test.err, err)
		}
	}
}

func TestParseEmpty(t *testing.T) {
	plan, err := ParsePlan(" ; \n ;")
	if err != nil {
		t.Fatalf("ParsePlan failed: %v", err)
	}
	if plan.Len() != 0 {
		t.Errorf("Expected empty plan, got %v", plan.Commands())
	}
}

func TestTransitions(t *testing.T) {
	tests := []struct {
		state State
		op    op
		next  State
		err   error
	}{
		{StateUnready, opTakeOff, StateUnready, ErrNotReady},
		{StateUnready, opEmergency, StateUnready, nil},
		{StateGrounded, opTakeOff, StateAirborne, nil},
		{StateGrounded, opLand, StateGrounded, ErrGrounded},
		{StateGrounded, opMove, StateGrounded, ErrGrounded},
		{StateGrounded, opTurn, StateGrounded, ErrGrounded},
		{StateAirborne, opTakeOff, StateAirborne, ErrAlreadyAirborne},
		{StateAirborne, opMove, StateAirborne, nil},
		{StateAirborne, opLand, StateGrounded, nil},
		{StateAirborne, opEmergency, StateGrounded, nil},
	}

	for _, test := range tests {
		next, err := nextState(test.state, test.op)
		if next != test.next {
			t.Errorf("%s/%s: expected %s, got %s", test.state, test.op, test.next, next)
		}
		if !errors.Is(err, test.err) && !(err == nil && test.err == nil) {
			t.Errorf("%s/%s: expected %v, got %v", test.state, test.op, test.err, err)
		}
	}
}
