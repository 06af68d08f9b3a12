package udp

import (
	"net"
	"strconv"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

var (
	ErrNotConnected = errors.New("udp socket not bound")
	ErrQueueFull    = errors.New("udp send queue full")
)

// Drone is notified once the socket is bound and about failed writes.
type Drone interface {
	SetReady()
	ReportError(error)
}

// Adapter writes Tello SDK commands to the drone, one datagram each,
// in the order they were queued.
type Adapter struct {
	peerAddr  string
	localAddr string
	drone     Drone
	rqChan    chan []string
	stopChan  chan bool
	mu        sync.RWMutex
	connected bool
	boundAddr net.Addr
	logger    *zerolog.Logger
}

// NewAdapter creates an adapter sending to host:port. An empty localAddr
// binds an ephemeral port on all interfaces.
func NewAdapter(host string, port int, localAddr string, drone Drone, queueSize int, logger *zerolog.Logger) *Adapter {
	return &Adapter{
		peerAddr:  net.JoinHostPort(host, strconv.Itoa(port)),
		localAddr: localAddr,
		drone:     drone,
		rqChan:    make(chan []string, queueSize),
		stopChan:  make(chan bool, 1),
		logger:    logger,
	}
}

func (a *Adapter) Run() error {
	a.logger.Info().Str("peer", a.peerAddr).Msg("starting")
	defer a.logger.Info().Msg("stopping")

	conn, err := a.dial()
	if err != nil {
		a.logger.Error().Err(err).Msg("failed to bind socket")
		return err
	}
	defer conn.Close()

	a.mu.Lock()
	a.connected = true
	a.boundAddr = conn.LocalAddr()
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		a.connected = false
		a.mu.Unlock()
	}()

	a.logger.Info().Str("local", conn.LocalAddr().String()).Msg("socket bound")
	a.drone.SetReady()

main_loop:
	for {
		select {
		case cmds := <-a.rqChan:
			a.send(conn, cmds)
		case <-a.stopChan:
			break main_loop
		}
	}

	// flush what was queued before stop
	for {
		select {
		case cmds := <-a.rqChan:
			a.send(conn, cmds)
		default:
			return nil
		}
	}
}

func (a *Adapter) Stop() {
	select {
	case a.stopChan <- true:
	default:
	}
}

// Send queues cmds for transmission as one batch, so nothing else is
// written between them. Either all of cmds are queued or none. It never
// blocks.
func (a *Adapter) Send(cmds ...string) error {
	if len(cmds) == 0 {
		return nil
	}

	a.mu.RLock()
	connected := a.connected
	a.mu.RUnlock()
	if !connected {
		return ErrNotConnected
	}

	select {
	case a.rqChan <- cmds:
		return nil
	default:
		return errors.Wrapf(ErrQueueFull, "dropping %q", cmds)
	}
}

// LocalAddr returns the bound address, or nil before the socket is bound.
func (a *Adapter) LocalAddr() net.Addr {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.boundAddr
}

func (a *Adapter) dial() (*net.UDPConn, error) {
	peer, err := net.ResolveUDPAddr("udp", a.peerAddr)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve peer %s", a.peerAddr)
	}

	var local *net.UDPAddr
	if a.localAddr != "" {
		local, err = net.ResolveUDPAddr("udp", a.localAddr)
		if err != nil {
			return nil, errors.Wrapf(err, "resolve local address %s", a.localAddr)
		}
	}

	conn, err := net.DialUDP("udp", local, peer)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", a.peerAddr)
	}
	return conn, nil
}

func (a *Adapter) send(conn *net.UDPConn, cmds []string) {
	for _, cmd := range cmds {
		_, err := conn.Write([]byte(cmd))
		if err != nil {
			a.drone.ReportError(errors.Wrapf(err, "failed to send %q", cmd))
		}
	}
}
