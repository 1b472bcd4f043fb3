package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const telegramAPIBase = "https://api.telegram.org"

// TelegramService forwards admin-facing events to a Telegram chat.
type TelegramService struct {
	botToken    string
	adminChatID string
	apiBase     string
	client      *http.Client
	limiter     *rate.Limiter
	log         *zap.Logger
}

// NewTelegramService creates a new TelegramService. Telegram allows roughly
// one message per second per chat, so sends are throttled to that.
func NewTelegramService(botToken, adminChatID string, log *zap.Logger) *TelegramService {
	return &TelegramService{
		botToken:    botToken,
		adminChatID: adminChatID,
		apiBase:     telegramAPIBase,
		client:      &http.Client{Timeout: 10 * time.Second},
		limiter:     rate.NewLimiter(rate.Every(time.Second), 3),
		log:         log,
	}
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

func (s *TelegramService) Name() string { return "telegram" }

// Send implements Sender. Only signups and order confirmations reach the admin chat.
func (s *TelegramService) Send(ctx context.Context, n Notification) error {
	switch n.Template {
	case TemplateOrderConfirmation:
		return s.SendToAdmin(ctx, formatOrderMessage(n.Data))
	case TemplateAccountCreated:
		return s.SendToAdmin(ctx, formatSignupMessage(n.Data))
	default:
		return nil
	}
}

// SendMessage sends a message to specified chat.
func (s *TelegramService) SendMessage(ctx context.Context, chatID, text string) error {
	if s.botToken == "" {
		s.log.Debug("Telegram bot token not configured")
		return nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.apiBase, s.botToken)

	body, err := json.Marshal(telegramMessage{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "HTML",
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}

	return nil
}

// SendToAdmin sends a message to the admin chat.
func (s *TelegramService) SendToAdmin(ctx context.Context, text string) error {
	if s.adminChatID == "" {
		s.log.Debug("Telegram admin chat ID not configured")
		return nil
	}
	return s.SendMessage(ctx, s.adminChatID, text)
}

// FormatPrice formats price with currency and thousand separators.
func FormatPrice(amount float64, currency string) string {
	if currency == "" {
		currency = "USD"
	}

	cents := int64(amount*100 + 0.5)
	if amount < 0 {
		cents = int64(amount*100 - 0.5)
	}
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}

	str := strconv.FormatInt(cents/100, 10)

	var result strings.Builder
	length := len(str)
	for i, digit := range str {
		if i > 0 && (length-i)%3 == 0 {
			result.WriteString(",")
		}
		result.WriteRune(digit)
	}

	return fmt.Sprintf("%s%s.%02d %s", sign, result.String(), cents%100, currency)
}

func formatOrderMessage(d map[string]string) string {
	price, _ := strconv.ParseFloat(d["productPrice"], 64)
	total, _ := strconv.ParseFloat(d["total"], 64)

	message := fmt.Sprintf(`<b>🛒 NEW ORDER</b>
<b>📋 Product ID:</b> %s
<b>📦 Product:</b> %s
<b>🔢 Quantity:</b> %s x %s
<b>💰 Total:</b> %s
<b>👤 Owner:</b> %s
<b>📍 Status:</b> %s
━━━━━━━━━━━━━━━━━━`,
		html.EscapeString(d["productId"]),
		html.EscapeString(d["productName"]),
		html.EscapeString(d["quantity"]),
		FormatPrice(price, ""),
		FormatPrice(total, ""),
		html.EscapeString(d["ownerEmail"]),
		html.EscapeString(d["status"]),
	)

	return strings.TrimSpace(message)
}

func formatSignupMessage(d map[string]string) string {
	return fmt.Sprintf("<b>👤 NEW ACCOUNT</b>\n<b>Username:</b> %s\n<b>Email:</b> %s",
		html.EscapeString(d["username"]), html.EscapeString(d["email"]))
}
