package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/moosethebrown/tello-net-bridge/drone"
	"github.com/rs/zerolog"
)

type Drone interface {
	Land() error
	Execute(*drone.Plan) error
	State() drone.State
}

type MqttHandler interface {
	SendResponse([]byte)
	Announce()
}

// Core owns the control loop: every flight request is handled here, one
// at a time.
type Core struct {
	drone            Drone
	mqttHandler      MqttHandler
	announceInterval int
	landOnNetLoss    bool
	logger           *zerolog.Logger
	rqChan           chan *Request
	stopChan         chan bool
	netLossChan      chan bool
}

func NewCore(d Drone, mqttHandler MqttHandler, announceInterval int,
	landOnNetLoss bool, logger *zerolog.Logger) *Core {
	return &Core{
		drone:            d,
		mqttHandler:      mqttHandler,
		announceInterval: announceInterval,
		landOnNetLoss:    landOnNetLoss,
		logger:           logger,
		rqChan:           make(chan *Request, 1000),
		stopChan:         make(chan bool, 1),
		netLossChan:      make(chan bool, 1),
	}
}

func (c *Core) SetMqttHandler(handler MqttHandler) {
	c.mqttHandler = handler
}

func (c *Core) HandleRequest(msg []byte) {
	var rq Request

	err := json.Unmarshal(msg, &rq)
	if err != nil {
		c.logger.Error().Err(err).Msg("failed to unmarshal request")
		rq = Request{err: err}
	}

	c.rqChan <- &rq
}

func (c *Core) Run() {
	ticker := time.NewTicker(time.Duration(c.announceInterval) * time.Millisecond)
	defer ticker.Stop()

core_loop:
	for {
		select {
		case rq := <-c.rqChan:
			switch {
			case rq.err != nil:
				c.respond(&Response{Type: RequestTypeCmd, Error: "malformed request"})
			case rq.Type == RequestTypeCmd:
				c.handleCommand(rq)
			case rq.Type == RequestTypeQuery:
				c.handleQuery()
			default:
				c.logger.Error().Msgf("unknown request type: %s", rq.Type)
				c.respond(&Response{Type: rq.Type, Cmd: rq.Cmd,
					Error: fmt.Sprintf("unknown request type: %s", rq.Type)})
			}
		case <-ticker.C:
			c.mqttHandler.Announce()
		case <-c.netLossChan:
			c.handleNetLoss()
		case <-c.stopChan:
			break core_loop
		}
	}
}

func (c *Core) Stop() {
	c.stopChan <- true
}

func (c *Core) NetLoss() {
	select {
	case c.netLossChan <- true:
	default:
	}
}

func (c *Core) handleCommand(rq *Request) {
	resp := &Response{Type: RequestTypeCmd, Cmd: rq.Cmd}

	plan, err := requestPlan(rq)
	if err == nil {
		err = c.drone.Execute(plan)
	} else if c.drone.State() == drone.StateUnready {
		err = drone.ErrNotReady
	}
	if err != nil {
		c.logger.Error().Err(err).Str("cmd", rq.Cmd).Msg("command rejected")
		resp.Error = err.Error()
	} else {
		c.logger.Info().Strs("commands", plan.Commands()).Msg("command sent")
		resp.Ok = true
	}

	c.respond(resp)
}

func (c *Core) handleQuery() {
	c.respond(&Response{Type: RequestTypeQuery, Ok: true})
}

func (c *Core) handleNetLoss() {
	if !c.landOnNetLoss || c.drone.State() != drone.StateAirborne {
		return
	}

	c.logger.Warn().Msg("network lost, landing")
	if err := c.drone.Land(); err != nil {
		c.logger.Error().Err(err).Msg("failed to land on network loss")
	}
}

func (c *Core) respond(resp *Response) {
	resp.State = c.drone.State().String()

	data, err := json.Marshal(resp)
	if err != nil {
		c.logger.Error().Err(err).Msg("failed to marshal response")
		return
	}
	c.mqttHandler.SendResponse(data)
}

// requestPlan builds the plan for a cmd request by writing it the way
// the drone receives it.
func requestPlan(rq *Request) (*drone.Plan, error) {
	data := strings.TrimSpace(rq.Data)

	var line string
	switch rq.Cmd {
	case CmdTakeOff, CmdLand, CmdEmergency:
		line = rq.Cmd
	case CmdMove, CmdTurn, CmdUp, CmdDown, CmdLeft, CmdRight:
		line = rq.Cmd + " " + data
	case CmdTurnLeft:
		line = "turn left " + data
	case CmdTurnRight:
		line = "turn right " + data
	case CmdPlan:
		return drone.ParsePlan(data)
	default:
		return nil, fmt.Errorf("%s: %w", rq.Cmd, drone.ErrUnknownCommand)
	}

	plan := drone.NewPlan().Parse(line)
	return plan, plan.Err()
}
