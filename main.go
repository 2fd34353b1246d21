package main

import (
	"WaRelay/ai/app"
	"WaRelay/ai/gpt"
	"WaRelay/bot"
	"WaRelay/bot/whatsapp"
	"WaRelay/impl/core"
	"WaRelay/internal/config"
	"WaRelay/internal/database"
	"WaRelay/internal/http-server/api"
	"WaRelay/internal/lib/logger"
	"WaRelay/internal/lib/sl"
	"WaRelay/internal/ws"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
)

func main() {

	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	flag.Parse()

	// .env is optional, values already in the environment win
	_ = godotenv.Load()

	conf := config.MustLoad(*configPath)
	lg := logger.SetupLogger(conf.Env, *logPath)

	if conf.Telegram.Enabled {
		tgBot, err := bot.NewTgBot(conf.Telegram.BotName, conf.Telegram.ApiKey, conf.Telegram.AdminId, lg)
		if err != nil {
			lg.Error("failed to initialize telegram bot", sl.Err(err))
		} else {
			lg = logger.SetupTelegramHandler(lg, tgBot, slog.LevelError)
			lg.With(
				slog.String("bot_name", conf.Telegram.BotName),
			).Info("telegram bot initialized")

			go func() {
				if err := tgBot.Start(); err != nil {
					lg.Error("telegram bot error", sl.Err(err))
				}
			}()
		}
	}

	lg.Info("starting warelay", slog.String("config", *configPath), slog.String("env", conf.Env))
	lg.Debug("debug messages enabled")

	webhook := conf.Webhook()

	handler := core.New(webhook, lg)
	handler.SetAuthKey(conf.Listen.ApiKey)
	handler.SetRelayTimeout(conf.WhatsApp.RelayTimeout)
	handler.SetSender(whatsapp.NewClient(webhook, lg))

	lg.With(
		slog.String("phone_number_id", webhook.PhoneNumberID),
		slog.String("api_version", conf.WhatsApp.ApiVersion),
		sl.Secret("access_token", webhook.AccessToken),
		slog.Bool("signature_check", webhook.AppSecret != ""),
		slog.Bool("can_reply", webhook.CanReply()),
	).Info("whatsapp client initialized")

	if webhook.HasApp() {
		switch conf.App.Provider {
		case config.ProviderOpenAI:
			handler.SetReplier(gpt.NewReplier(conf.App.ApiKey, conf.App.BaseURL, conf.App.Model, conf.App.Prompt, lg))
		default:
			handler.SetReplier(app.NewClient(conf.App.ID, conf.App.BaseURL, conf.App.ApiKey, conf.App.Timeout, lg))
		}
		lg.With(
			slog.String("app_id", conf.App.ID),
			slog.String("provider", conf.App.Provider),
			sl.Secret("api_key", conf.App.ApiKey),
		).Info("reply app configured")
	} else {
		lg.Info("no reply app configured, echoing inbound text")
	}

	db, err := repository.NewMongoClient(conf, lg)
	if err != nil {
		lg.With(
			sl.Err(err),
		).Error("mongo client")
	}
	if db != nil {
		handler.SetConversationStore(db)
		lg.With(
			slog.String("host", conf.Mongo.Host),
			slog.String("port", conf.Mongo.Port),
			slog.String("user", conf.Mongo.User),
			slog.String("database", conf.Mongo.Database),
		).Info("mongo client initialized")
	} else {
		handler.SetConversationStore(repository.NewMemoryStore())
	}

	hub := ws.NewHub(lg)
	go hub.Run()
	handler.SetEventPublisher(hub)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// *** blocking start with http server ***
	if err = api.New(conf, lg, handler, hub).Serve(ctx); err != nil {
		lg.Error("server start", sl.Err(err))
	}

	handler.Wait()
	hub.Stop()
	lg.Info("service stopped")
}
