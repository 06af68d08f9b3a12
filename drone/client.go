package drone

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

var errNoTransport = errors.New("no transport attached")

// Transport delivers one command per datagram. Send must not block and
// must either queue all of cmds, in order, or none of them.
type Transport interface {
	Send(cmds ...string) error
}

type Config struct {
	Host string
	Port int
}

type Option func(*Client)

// WithErrorHandler sets the function called for transport failures.
// The default handler logs them.
func WithErrorHandler(handler func(error)) Option {
	return func(c *Client) {
		c.onError = handler
	}
}

func WithLogger(logger *zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// Client translates flight instructions into Tello SDK commands.
// Every instruction other than the handshake is preceded by a handshake datagram.
type Client struct {
	host      string
	port      int
	mu        sync.Mutex
	state     State
	readyChan chan struct{}
	transport Transport
	onError   func(error)
	logger    *zerolog.Logger
}

func NewClient(cfg Config, transport Transport, opts ...Option) *Client {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}

	nop := zerolog.Nop()
	c := &Client{
		host:      cfg.Host,
		port:      cfg.Port,
		state:     StateUnready,
		readyChan: make(chan struct{}),
		transport: transport,
		logger:    &nop,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.onError == nil {
		c.onError = func(err error) {
			c.logger.Error().Err(err).Msg("failed to send command")
		}
	}

	return c
}

func (c *Client) SetTransport(transport Transport) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transport = transport
}

func (c *Client) Host() string {
	return c.host
}

func (c *Client) Port() int {
	return c.port
}

// SetReady is called by the transport once its socket is bound.
func (c *Client) SetReady() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateUnready {
		return
	}
	c.state = StateGrounded
	close(c.readyChan)
	c.logger.Info().Msg("ready")
}

// WaitReady blocks until the transport is bound or ctx is done.
func (c *Client) WaitReady(ctx context.Context) error {
	select {
	case <-c.readyChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ReportError hands a transport failure to the error handler.
func (c *Client) ReportError(err error) {
	c.onError(err)
}

func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) Ready() bool {
	return c.State() != StateUnready
}

func (c *Client) Airborne() bool {
	return c.State() == StateAirborne
}

func (c *Client) TakeOff() error {
	return c.apply(opTakeOff, func() (string, error) {
		return CmdTakeOff, nil
	})
}

func (c *Client) Land() error {
	return c.apply(opLand, func() (string, error) {
		return CmdLand, nil
	})
}

// Move sends "<direction> <distance>" where direction is one of up, down,
// left or right and distance is in cm.
func (c *Client) Move(direction string, distance int) error {
	return c.apply(opMove, func() (string, error) {
		return moveCommand(direction, distance)
	})
}

func (c *Client) Up(distance int) error {
	return c.Move(DirUp, distance)
}

func (c *Client) Down(distance int) error {
	return c.Move(DirDown, distance)
}

func (c *Client) Left(distance int) error {
	return c.Move(DirLeft, distance)
}

func (c *Client) Right(distance int) error {
	return c.Move(DirRight, distance)
}

// Turn sends "<direction> <degrees>" where direction is one of cw, ccw, left
// or right. Degrees defaults to 90 when omitted; at most one value is accepted.
func (c *Client) Turn(direction string, degrees ...int) error {
	return c.apply(opTurn, func() (string, error) {
		return turnCommand(direction, degrees)
	})
}

func (c *Client) TurnLeft(degrees ...int) error {
	return c.Turn(DirLeft, degrees...)
}

func (c *Client) TurnRight(degrees ...int) error {
	return c.Turn(DirRight, degrees...)
}

// Emergency stops the motors immediately. It is accepted in any state.
func (c *Client) Emergency() error {
	c.logger.Warn().Msg("emergency stop")
	return c.apply(opEmergency, func() (string, error) {
		return CmdEmergency, nil
	})
}

// Execute sends every step of the plan, or nothing if the plan is invalid
// or any step is not allowed in the state the previous steps lead to.
// An unready client reports ErrNotReady before any argument error.
func (c *Client) Execute(p *Plan) error {
	c.mu.Lock()

	if err := p.Err(); err != nil {
		unready := c.state == StateUnready
		c.mu.Unlock()
		if unready {
			return ErrNotReady
		}
		return err
	}

	state := c.state
	for i, s := range p.steps {
		next, err := nextState(state, s.op)
		if err != nil {
			c.mu.Unlock()
			return &StepError{Index: i, Cmd: s.cmd, Err: err}
		}
		state = next
	}

	var err error
	if len(p.steps) > 0 {
		err = c.send(datagrams(p.Commands()...))
	}
	c.state = state
	c.mu.Unlock()

	c.report(err)
	return nil
}

// apply checks op against the current state, then builds and sends the
// command. The error handler runs after the lock is released so it may
// call back into the client.
func (c *Client) apply(o op, command func() (string, error)) error {
	c.mu.Lock()

	next, err := nextState(c.state, o)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	cmd, err := command()
	if err != nil {
		c.mu.Unlock()
		return err
	}
	sendErr := c.send(datagrams(cmd))
	c.state = next
	c.mu.Unlock()

	c.report(sendErr)
	return nil
}

// datagrams puts a handshake in front of every command except the handshake itself.
func datagrams(cmds ...string) []string {
	out := make([]string, 0, 2*len(cmds))
	for _, cmd := range cmds {
		if cmd != CmdHandshake {
			out = append(out, CmdHandshake)
		}
		out = append(out, cmd)
	}
	return out
}

// must be called with c.mu held
func (c *Client) send(cmds []string) error {
	c.logger.Debug().Strs("cmds", cmds).Msg("send")

	if c.transport == nil {
		return errNoTransport
	}
	return c.transport.Send(cmds...)
}

func (c *Client) report(err error) {
	if err != nil {
		c.onError(err)
	}
}
