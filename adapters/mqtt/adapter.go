package mqtt

import (
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Core receives remote requests and network loss notifications.
type Core interface {
	HandleRequest([]byte)
	NetLoss()
}

type Adapter struct {
	broker            string
	connTimeout       time.Duration
	username          string
	passwd            string
	droneId           string
	clientId          string
	announceTopic     string
	announceTimeout   time.Duration
	disconnectTimeout time.Duration
	rqTopic           string
	respTopic         string
	certCheck         bool
	client            mqtt.Client
	core              Core
	stopChan          chan bool
	announceChan      chan bool
	responseChan      chan []byte
	logger            *zerolog.Logger
}

func NewAdapter(broker string, connTimeout time.Duration, username string,
	passwd string, droneId string, announceTopic string,
	announceTimeout time.Duration,
	disconnectTimeout time.Duration,
	certCheck bool, core Core,
	logger *zerolog.Logger) *Adapter {

	// the generated id names the topics and the announce as well
	if droneId == "" {
		droneId = "tello-" + uuid.NewString()
	}

	return &Adapter{
		broker:            broker,
		connTimeout:       connTimeout,
		username:          username,
		passwd:            passwd,
		droneId:           droneId,
		clientId:          droneId,
		announceTopic:     announceTopic,
		announceTimeout:   announceTimeout,
		disconnectTimeout: disconnectTimeout,
		rqTopic:           RequestTopic(droneId),
		respTopic:         ResponseTopic(droneId),
		certCheck:         certCheck,
		core:              core,
		stopChan:          make(chan bool, 1),
		announceChan:      make(chan bool, 1),
		responseChan:      make(chan []byte, 1000),
		logger:            logger,
	}
}

func RequestTopic(droneId string) string {
	return fmt.Sprintf("drone/%s/request", droneId)
}

func ResponseTopic(droneId string) string {
	return fmt.Sprintf("drone/%s/response", droneId)
}

func (a *Adapter) ClientId() string {
	return a.clientId
}

func (a *Adapter) SetCore(core Core) {
	a.core = core
}

func (a *Adapter) Run() error {
	a.logger.Info().Msg("starting")
	defer a.logger.Info().Msg("stopping")

	err := a.connect()
	if err != nil {
		a.logger.Error().Err(err).Msg("failed to connect to MQTT broker")
		return err
	}

	defer a.client.Disconnect(uint(a.disconnectTimeout.Milliseconds()))

main_loop:
	for {
		select {
		case <-a.stopChan:
			break main_loop
		case <-a.announceChan:
			a.logger.Debug().Msg("announce")

			token := a.client.Publish(a.announceTopic, 2, false, a.droneId)
			if !token.WaitTimeout(a.announceTimeout) {
				a.logger.Error().Msg("timeout expired while publishing announce message")
				a.core.NetLoss()
			} else if err := token.Error(); err != nil {
				a.logger.Error().Err(err).Msg("error publishing announce message")
				a.core.NetLoss()
			}
		case resp := <-a.responseChan:
			a.client.Publish(a.respTopic, 2, false, resp)
		}
	}

	return nil
}

func (a *Adapter) Stop() {
	select {
	case a.stopChan <- true:
	default:
	}
}

func (a *Adapter) SendResponse(resp []byte) {
	a.responseChan <- resp
}

// Announce never blocks: a pending announce makes a new one redundant.
func (a *Adapter) Announce() {
	select {
	case a.announceChan <- true:
	default:
	}
}

func (a *Adapter) connect() error {
	opts := mqtt.NewClientOptions().AddBroker(a.broker).SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetCredentialsProvider(func() (username string, password string) {
		return a.username, a.passwd
	})
	opts.SetClientID(a.clientId)
	tlsConfig := &tls.Config{
		InsecureSkipVerify: !a.certCheck,
	}
	opts.SetTLSConfig(tlsConfig)
	opts.SetOnConnectHandler(func(cl mqtt.Client) {
		// subscribe to request topic
		cl.Subscribe(a.rqTopic, 2, func(cl mqtt.Client, msg mqtt.Message) {
			a.logger.Debug().Msgf("received request: %s", string(msg.Payload()))
			a.core.HandleRequest(msg.Payload())
		})
	})
	opts.SetConnectionLostHandler(func(cl mqtt.Client, err error) {
		a.logger.Error().Err(err).Msg("connection to broker lost")
		a.core.NetLoss()
	})

	a.client = mqtt.NewClient(opts)
	token := a.client.Connect()

	if !token.WaitTimeout(a.connTimeout) {
		return errors.New("failed to connect to broker")
	}

	err := token.Error()
	return err
}
