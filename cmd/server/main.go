package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/louisbranch/favcolor/internal/app"
	"github.com/louisbranch/favcolor/internal/login"
)

func main() {
	cfg := login.LoadConfigFromEnv()
	addr := flag.String("addr", cfg.Addr, "listen address")
	flag.Parse()
	cfg.Addr = *addr

	log.SetPrefix("[FAVCOLOR] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
