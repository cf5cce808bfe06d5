// Package bot runs the Telegram front end: long polling, message
// classification, and sending formatted offer replies.
package bot

import (
	"context"
	"fmt"
	"regexp"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/p4udeals/aliexpress-deals-bot/internal/config"
	"github.com/p4udeals/aliexpress-deals-bot/internal/errorreporting"
	"github.com/p4udeals/aliexpress-deals-bot/internal/logger"
	"github.com/p4udeals/aliexpress-deals-bot/internal/metrics"
	"github.com/p4udeals/aliexpress-deals-bot/internal/resolver"
)

// aliexpressDomainPattern gates which messages enter the resolution
// pipeline at all; everything else gets a usage hint.
var aliexpressDomainPattern = regexp.MustCompile(`(?i)aliexpress\.com|s\.click\.aliexpress\.com|a\.aliexpress\.com`)

const loadingStickerFileID = "CAACAgIAAxkBAAIU1GYOk5jWvCvtykd7TZkeiFFZRdUYAAIjAAMoD2oUJ1El54wgpAY0BA"

// sender is the slice of the Telegram client the handlers need. *tgbotapi.BotAPI
// implements it; tests substitute a recorder.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot wires Telegram updates to the product pipeline.
type Bot struct {
	api       *tgbotapi.BotAPI
	send      sender
	resolver  *resolver.Resolver
	processor *Processor
}

func New(cfg *config.Config, rslv *resolver.Resolver, proc *Processor) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("create telegram client: %w", err)
	}
	return &Bot{api: api, send: api, resolver: rslv, processor: proc}, nil
}

// Run polls for updates until the context is canceled. Each update is
// handled on its own goroutine so a slow vendor call never stalls polling.
func (b *Bot) Run(ctx context.Context) error {
	logger.Info("Bot started", "username", b.api.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic handling update: %v", r)
			logger.Error("Recovered from panic", "error", err)
			errorreporting.CaptureError(err)
		}
	}()

	msg := update.Message
	if msg == nil || msg.Text == "" {
		return
	}
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		if msg.Command() == "start" {
			b.sendHTML(chatID, welcomeMessage)
		}
		return
	}

	if msg.ForwardDate != 0 {
		logger.Info("Processing forwarded message", "chat_id", chatID)
	}

	if !aliexpressDomainPattern.MatchString(msg.Text) {
		b.sendText(chatID, noLinkMessage)
		metrics.MessagesProcessed.WithLabelValues("no_link").Inc()
		return
	}

	b.handleProductMessage(ctx, chatID, msg.Text)
}

// handleProductMessage runs the full pipeline for one incoming message:
// candidate extraction, a loading sticker while resolving, per-product
// fan-out, and one reply per product.
func (b *Bot) handleProductMessage(ctx context.Context, chatID int64, text string) {
	candidates := b.resolver.ExtractCandidateURLs(text)
	if len(candidates) == 0 {
		b.sendText(chatID, noURLsMessage)
		metrics.MessagesProcessed.WithLabelValues("no_urls").Inc()
		return
	}
	logger.Info("Found candidate URLs", "chat_id", chatID, "count", len(candidates))

	if _, err := b.send.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		logger.Warn("Could not send chat action", "error", err)
	}
	sticker, stickerErr := b.send.Send(tgbotapi.NewSticker(chatID, tgbotapi.FileID(loadingStickerFileID)))
	removeSticker := func() {
		if stickerErr != nil {
			return
		}
		if _, err := b.send.Request(tgbotapi.NewDeleteMessage(chatID, sticker.MessageID)); err != nil {
			logger.Warn("Could not delete loading sticker", "error", err)
		}
	}

	refs := b.resolver.ResolveProducts(ctx, text)
	if len(refs) == 0 {
		b.sendText(chatID, noProductsMessage)
		removeSticker()
		metrics.MessagesProcessed.WithLabelValues("no_products").Inc()
		return
	}
	if len(refs) > 1 {
		b.sendText(chatID, processingMessage(len(refs)))
	}

	logger.Info("Processing products", "chat_id", chatID, "count", len(refs))
	for _, reply := range b.processor.ProcessAll(ctx, refs) {
		b.sendReply(chatID, reply)
	}
	removeSticker()
	metrics.MessagesProcessed.WithLabelValues("processed").Inc()
}

// sendReply delivers one product message, as a photo when an image is
// available. A failed photo send falls back to plain text so the offers
// are never lost to a broken image URL.
func (b *Bot) sendReply(chatID int64, reply Reply) {
	markup := inlineKeyboard()

	if reply.Failed {
		b.sendText(chatID, errorMessage(reply.Product.ID))
		return
	}

	if reply.SuccessCount == 0 {
		msg := tgbotapi.NewMessage(chatID, formatNoOffers(reply.Product))
		msg.ParseMode = tgbotapi.ModeHTML
		msg.DisableWebPagePreview = true
		msg.ReplyMarkup = markup
		if _, err := b.send.Send(msg); err != nil {
			logger.Error("Could not send no-offers message", "chat_id", chatID, "error", err)
		}
		return
	}

	text := formatReply(reply, b.processor.Offers())

	if reply.Product.ImageURL != "" {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(reply.Product.ImageURL))
		photo.Caption = text
		photo.ParseMode = tgbotapi.ModeHTML
		photo.ReplyMarkup = markup
		_, err := b.send.Send(photo)
		if err == nil {
			return
		}
		logger.Error("Photo send failed, falling back to text",
			"chat_id", chatID, "product_id", reply.Product.ID, "error", err)
		text = "⚠️ حدث خطأ أثناء إرسال الرسالة. إليك العروض المتوفرة:\n\n" + text
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	msg.ReplyMarkup = markup
	if _, err := b.send.Send(msg); err != nil {
		logger.Error("Could not send product message", "chat_id", chatID, "error", err)
		errorreporting.CaptureError(err)
	}
}

func (b *Bot) sendText(chatID int64, text string) {
	if _, err := b.send.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		logger.Error("Could not send message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) sendHTML(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := b.send.Send(msg); err != nil {
		logger.Error("Could not send message", "chat_id", chatID, "error", err)
	}
}
