package adapter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	kit "stnbot/internal/transport"
	logx "stnbot/pkg/logx"
)

type Config struct {
	Token          string
	ChannelID      int64
	OperatorChatID int64
	// URL overrides the Bot API endpoint; empty means api.telegram.org.
	URL string
	// Offline skips the getMe handshake (tests).
	Offline bool
}

// Adapter posts to a Telegram channel and reports to an operator chat.
// It only sends; it never polls for updates.
type Adapter struct {
	cfg Config
	log logx.Logger
	bot *tele.Bot
}

var _ kit.Poster = (*Adapter)(nil)

func New(cfg Config, log logx.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if cfg.ChannelID == 0 || cfg.OperatorChatID == 0 {
		return nil, errors.New("telegram channel_id and operator_chat_id are required")
	}
	b, err := tele.NewBot(tele.Settings{
		Token:   cfg.Token,
		URL:     cfg.URL,
		Offline: cfg.Offline,
		Client:  &http.Client{Timeout: 15 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Adapter{cfg: cfg, log: log.With(logx.String("comp", "telegram")), bot: b}, nil
}

// Post sends text to the channel, threading it under replyTo when set.
func (a *Adapter) Post(ctx context.Context, text string, replyTo *kit.PostRef) (kit.PostRef, error) {
	if err := ctx.Err(); err != nil {
		return kit.PostRef{}, err
	}
	chat := &tele.Chat{ID: a.cfg.ChannelID}
	opt := &tele.SendOptions{}
	if replyTo != nil && replyTo.ID != "" {
		id, err := strconv.Atoi(replyTo.ID)
		if err != nil {
			return kit.PostRef{}, fmt.Errorf("telegram: bad reply id %q: %w", replyTo.ID, err)
		}
		opt.ReplyTo = &tele.Message{ID: id, Chat: chat}
	}
	msg, err := a.bot.Send(chat, text, opt)
	if err != nil {
		return kit.PostRef{}, fmt.Errorf("telegram: send: %w", err)
	}
	a.log.Debug("message posted", logx.Int("id", msg.ID), logx.Bool("reply", opt.ReplyTo != nil))
	return kit.PostRef{ID: strconv.Itoa(msg.ID)}, nil
}

// DirectMessage sends text to the operator chat with link previews off.
func (a *Adapter) DirectMessage(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := a.bot.Send(&tele.Chat{ID: a.cfg.OperatorChatID}, text, &tele.SendOptions{DisableWebPagePreview: true})
	if err != nil {
		return fmt.Errorf("telegram: direct message: %w", err)
	}
	return nil
}
