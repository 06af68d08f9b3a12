package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/moosethebrown/tello-net-bridge/config"
)

func main() {
	var configFile string
	var script string
	var readyTimeout time.Duration
	flag.StringVar(&configFile, "c", "/etc/tello-net-bridge.conf", "path to configuration file")
	flag.StringVar(&script, "script", "", "send these commands (eg. \"takeoff; up 50; land\") and exit")
	flag.DurationVar(&readyTimeout, "ready-timeout", 5*time.Second, "how long a script waits for the drone socket")
	flag.Parse()

	cfg, err := config.NewConfig(configFile)
	if err != nil {
		fmt.Printf("Error reading config: %s\n", err)
		os.Exit(1)
	}

	if script == "" && cfg.Mqtt == nil {
		fmt.Println("Error: mqtt section is required unless -script is given")
		os.Exit(1)
	}
	if script != "" {
		// a script run never listens for remote requests
		cfg.Mqtt = nil
	}

	app := NewApp(cfg)
	app.Start()

	if script != "" {
		err = app.RunScript(script, readyTimeout)
		if stopErr := app.Stop(); err == nil {
			err = stopErr
		}
		if err != nil {
			fmt.Printf("Error: %s\n", err)
			os.Exit(1)
		}
		return
	}

	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, os.Interrupt)

	select {
	case <-sigch:
	case <-app.Done():
	}

	if err := app.Stop(); err != nil {
		fmt.Printf("Error: %s\n", err)
		os.Exit(1)
	}
}
