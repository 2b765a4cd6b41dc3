// Package telegram forwards Telegram messages to the bot service and
// relays its replies.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"expensebot-go/internal/worker"
)

// processRequest mirrors the bot service's inbound payload.
type processRequest struct {
	TelegramID string `json:"telegram_id"`
	Username   string `json:"username"`
	Message    string `json:"message"`
}

// processResponse mirrors the bot service's reply.
type processResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Service provides methods for interacting with the Telegram Bot API.
type Service struct {
	logger     *log.Logger
	bot        *tgbotapi.BotAPI
	client     *http.Client
	serviceURL string
	pool       *worker.Pool
}

// NewService creates a new Telegram Service forwarding to the bot service
// at serviceURL.
func NewService(botToken, serviceURL string, logger *log.Logger) (*Service, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}

	logger.Printf("Authorized on account %s", bot.Self.UserName)

	return &Service{
		logger:     logger,
		bot:        bot,
		client:     &http.Client{Timeout: 30 * time.Second},
		serviceURL: serviceURL,
		pool:       worker.NewPool(4, 16),
	}, nil
}

// SendMessage sends a text message to a given chat ID.
func (s *Service) SendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := s.bot.Send(msg)
	return err
}

// StartPolling starts a long-polling loop to receive updates from Telegram.
// Messages are handled on a small worker pool so one slow model round trip
// does not block replies to other chats. It should be run in a separate
// goroutine.
func (s *Service) StartPolling(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := s.bot.GetUpdatesChan(u)
	s.pool.Start()

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || update.Message.Text == "" {
				continue // ignore non-text updates
			}
			msg := update.Message
			if !s.pool.Submit(func(taskCtx context.Context) {
				s.handleMessage(taskCtx, msg)
			}) {
				// Queue full; handle inline rather than drop the message.
				s.handleMessage(ctx, msg)
			}
		}
	}
}

// Stop halts the update polling loop and drains in-flight handlers.
func (s *Service) Stop() {
	s.bot.StopReceivingUpdates()
	s.pool.Stop()
}

func (s *Service) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	telegramID := "unknown"
	username := "Unknown"
	if message.From != nil {
		telegramID = strconv.FormatInt(message.From.ID, 10)
		if message.From.UserName != "" {
			username = message.From.UserName
		} else if message.From.FirstName != "" {
			username = message.From.FirstName
		}
	}

	resp, status, err := s.process(ctx, telegramID, username, message.Text)
	if err != nil {
		s.logger.Printf("Failed to process message from %s: %v", username, err)
		// No reply on internal failures; the sender is not told about them.
		return
	}

	// Unauthorized users are ignored silently.
	if status == http.StatusForbidden {
		s.logger.Printf("User %s (%s) is not whitelisted, ignoring", username, telegramID)
		return
	}

	if resp.Message == "" {
		return
	}
	if err := s.SendMessage(message.Chat.ID, resp.Message); err != nil {
		s.logger.Printf("Failed to send reply to chat %d: %v", message.Chat.ID, err)
	}
}

// process posts one message to the bot service and decodes the reply.
func (s *Service) process(ctx context.Context, telegramID, username, text string) (*processResponse, int, error) {
	payload, err := json.Marshal(processRequest{
		TelegramID: telegramID,
		Username:   username,
		Message:    text,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.serviceURL+"/process-message", bytes.NewReader(payload))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("bot service unreachable: %w", err)
	}
	defer httpResp.Body.Close()

	var resp processResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, httpResp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
	}

	return &resp, httpResp.StatusCode, nil
}
