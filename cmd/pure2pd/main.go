package main

import (
	"os"
	"os/signal"

	"github.com/labstack/gommon/log"

	"pure2p/internal/app"
	"pure2p/internal/boot"
)

func main() {
	config, err := boot.Load()
	if err != nil {
		log.Fatalf("boot: %+v", err)
	}

	lvl := parseLogLevel(config.LogLevel)
	log.SetLevel(lvl)

	a, err := app.New(config.DataDir)
	if err != nil {
		log.Fatalf("starting app: %+v", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	if err := a.Shutdown(); err != nil {
		log.Fatalf("shutting down: %+v", err)
	}
}

func parseLogLevel(level string) log.Lvl {
	switch level {
	case "debug":
		return log.DEBUG
	case "warn":
		return log.WARN
	case "error":
		return log.ERROR
	default:
		return log.INFO
	}
}
