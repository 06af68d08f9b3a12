package config

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const (
	defaultHost             = "192.168.10.1"
	defaultPort             = 8889
	defaultQueueSize        = 100
	defaultAnnounceInterval = 3000
	defaultLogLevel         = "info"
)

type DroneConfig struct {
	Host          string `json:"host" yaml:"host"`
	Port          int    `json:"port" yaml:"port"`
	LocalAddr     string `json:"localAddr" yaml:"localAddr"`
	QueueSize     int    `json:"queueSize" yaml:"queueSize"`
	LandOnNetLoss bool   `json:"landOnNetLoss" yaml:"landOnNetLoss"`
}

type MqttConfig struct {
	Broker            string `json:"broker" yaml:"broker"`
	ConnTimeout       int    `json:"connTimeout" yaml:"connTimeout"`
	Username          string `json:"username" yaml:"username"`
	Password          string `json:"password" yaml:"password"`
	DroneId           string `json:"droneId" yaml:"droneId"`
	AnnounceTopic     string `json:"announceTopic" yaml:"announceTopic"`
	AnnounceTimeout   int    `json:"announceTimeout" yaml:"announceTimeout"`
	DisconnectTimeout int    `json:"disconnectTimeout" yaml:"disconnectTimeout"`
	CertCheck         bool   `json:"certCheck" yaml:"certCheck"`
}

// LogFileConfig enables rotated file logging. Sizes are in megabytes,
// ages in days.
type LogFileConfig struct {
	Filename   string `json:"filename" yaml:"filename"`
	MaxSize    int    `json:"maxSize" yaml:"maxSize"`
	MaxBackups int    `json:"maxBackups" yaml:"maxBackups"`
	MaxAge     int    `json:"maxAge" yaml:"maxAge"`
	Compress   bool   `json:"compress" yaml:"compress"`
}

// Bridge configuration, JSON or YAML depending on the file extension.
// Times are in milliseconds.
type Config struct {
	Drone            *DroneConfig   `json:"drone" yaml:"drone"`
	Mqtt             *MqttConfig    `json:"mqtt" yaml:"mqtt"`
	AnnounceInterval int            `json:"announceInterval" yaml:"announceInterval"`
	LogLevel         string         `json:"logLevel" yaml:"logLevel"`
	LogFile          *LogFileConfig `json:"logFile" yaml:"logFile"`
}

func NewConfig(filename string) (*Config, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", filename)
	}

	config := &Config{}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, config)
	default:
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", filename)
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config %s", filename)
	}

	return config, nil
}

func (c *Config) applyDefaults() {
	if c.Drone == nil {
		c.Drone = &DroneConfig{}
	}
	if c.Drone.Host == "" {
		c.Drone.Host = defaultHost
	}
	if c.Drone.Port == 0 {
		c.Drone.Port = defaultPort
	}
	if c.Drone.QueueSize == 0 {
		c.Drone.QueueSize = defaultQueueSize
	}
	if c.AnnounceInterval == 0 {
		c.AnnounceInterval = defaultAnnounceInterval
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
}

func (c *Config) Validate() error {
	if c.Drone.Port < 1 || c.Drone.Port > 65535 {
		return errors.Errorf("drone port %d out of range", c.Drone.Port)
	}
	if c.Drone.QueueSize < 0 {
		return errors.Errorf("negative drone queue size %d", c.Drone.QueueSize)
	}
	if c.AnnounceInterval < 0 {
		return errors.Errorf("negative announce interval %d", c.AnnounceInterval)
	}
	if c.Mqtt != nil && c.Mqtt.Broker == "" {
		return errors.New("mqtt section without broker")
	}
	if c.LogFile != nil && c.LogFile.Filename == "" {
		return errors.New("logFile section without filename")
	}
	return nil
}
