package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"expensebot-go/internal/config"
	"expensebot-go/internal/telegram"
)

func main() {
	log.SetPrefix("connector: ")
	log.SetFlags(log.LstdFlags)

	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded, using environment: %v", err)
	}

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Telegram.BotToken == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN is required")
	}

	logger := log.New(os.Stdout, "connector: ", log.LstdFlags)
	svc, err := telegram.NewService(cfg.Telegram.BotToken, cfg.Telegram.BotServiceURL, logger)
	if err != nil {
		log.Fatalf("Failed to create telegram service: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigchan := make(chan os.Signal, 1)
		signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
		<-sigchan
		log.Println("Shutdown signal received, stopping...")
		svc.Stop()
		cancel()
	}()

	log.Printf("Forwarding messages to %s", cfg.Telegram.BotServiceURL)
	svc.StartPolling(ctx)

	log.Println("Connector stopped.")
}
