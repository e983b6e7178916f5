package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"mesh-adventure-be/internal/bootstrap"
	"mesh-adventure-be/internal/config"
	"mesh-adventure-be/internal/server"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// 2. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(cfg)
	defer container.Logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Start Background Services
	go func() {
		log.Println("Background: Starting Broadcast Consumer...")
		if err := container.BroadcastService.Consume(ctx); err != nil {
			log.Printf("Background Consumer Error: %v", err)
		}
	}()
	go container.SessionStore.Run(ctx)

	// 4. Attach the radio when one is configured. Distributed setups run
	// the gateway binary instead and leave this disabled.
	if cfg.Radio.Port != "" || cfg.Radio.AutoDetect {
		link, bridge, err := container.OpenRadio(cfg)
		if err != nil {
			container.Logger.Warn("main", "radio unavailable, serving HTTP only", map[string]interface{}{"error": err.Error()})
		} else {
			defer link.Close()
			go bridge.Run(ctx)
		}
	}

	// 5. Initialize Server
	srv := server.New(cfg, container)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		cancel()
		if err := srv.Shutdown(); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	// 6. Run Server
	if err := srv.Run(); err != nil {
		log.Fatal(err)
	}
}
