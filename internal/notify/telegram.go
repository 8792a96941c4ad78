package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/mwalkowiak/flatwatch/internal/config"
	"github.com/mwalkowiak/flatwatch/internal/model"
)

// TelegramNotifier posts one message per listing to the Bot API, capped per
// cycle so a first run against an empty store doesn't flood the chat.
type TelegramNotifier struct {
	cfg     config.TelegramConfig
	baseURL string
	client  *http.Client
}

// NewTelegramNotifier creates a Telegram channel from config.
func NewTelegramNotifier(cfg config.TelegramConfig) *TelegramNotifier {
	if cfg.MaxPerCycle <= 0 {
		cfg.MaxPerCycle = 5
	}
	return &TelegramNotifier{
		cfg:     cfg,
		baseURL: "https://api.telegram.org",
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *TelegramNotifier) Name() string { return "telegram" }

func (t *TelegramNotifier) NotifyNew(ctx context.Context, listings []model.Listing) error {
	if len(listings) > t.cfg.MaxPerCycle {
		listings = listings[:t.cfg.MaxPerCycle]
	}
	for _, l := range listings {
		if err := t.sendMessage(ctx, newListingMessage(l)); err != nil {
			return err
		}
	}
	return nil
}

// NotifyPriceChange delivers price-change events when the hookup is enabled.
func (t *TelegramNotifier) NotifyPriceChange(ctx context.Context, listings []model.Listing) error {
	if len(listings) > t.cfg.MaxPerCycle {
		listings = listings[:t.cfg.MaxPerCycle]
	}
	for _, l := range listings {
		msg := fmt.Sprintf("*Zmiana ceny!*\n\n%s\n\nNowa cena: *%d zł*\n[Zobacz ogłoszenie](%s)",
			l.Title, l.Price, l.URL)
		if err := t.sendMessage(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

func (t *TelegramNotifier) sendMessage(ctx context.Context, text string) error {
	payload, err := json.Marshal(map[string]string{
		"chat_id":    t.cfg.ChatID,
		"text":       text,
		"parse_mode": "Markdown",
	})
	if err != nil {
		return eris.Wrap(err, "telegram: marshal message")
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.cfg.BotToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "telegram: create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "telegram: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("telegram: status %d", resp.StatusCode)
	}
	return nil
}

func newListingMessage(l model.Listing) string {
	var b strings.Builder
	b.WriteString("*Nowa oferta we Wrocławiu!*\n\n")
	b.WriteString(l.Title + "\n\n")
	fmt.Fprintf(&b, "Cena: *%d zł*\n", l.Price)
	if l.Area.Known {
		fmt.Fprintf(&b, "Metraż: %.1f m²\n", l.Area.Value)
		fmt.Fprintf(&b, "Za m²: %.0f zł\n", l.PricePerM2)
	}
	fmt.Fprintf(&b, "Portal: %s\n\n", strings.ToUpper(string(l.Portal)))
	fmt.Fprintf(&b, "[Zobacz ogłoszenie](%s)", l.URL)
	return b.String()
}
