package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mesh-adventure-be/internal/config"
	"mesh-adventure-be/internal/gateway"
	"mesh-adventure-be/internal/pkg/logger"
	"mesh-adventure-be/pkg/meshcore"
)

func main() {
	cfg := config.Load()

	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	defer sysLogger.Sync()

	link, err := meshcore.Open(meshcore.Config{
		Port:       cfg.Radio.Port,
		Baud:       cfg.Radio.Baud,
		AutoDetect: cfg.Radio.AutoDetect,
		AppName:    "mesh-adventure-gateway",
	}, sysLogger)
	if err != nil {
		log.Fatalf("Unable to open radio: %v", err)
	}
	defer link.Close()

	gw := gateway.New(gateway.Config{
		BotServerURL: cfg.Gateway.BotServerURL,
		ChannelIdx:   cfg.Gateway.ChannelIdx,
		Timeout:      time.Duration(cfg.Gateway.TimeoutSec) * time.Second,
	}, link, sysLogger)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		cancel()
	}()

	gw.Run(ctx)
}
