package config

import (
	"WaRelay/entity"
	"fmt"
	"github.com/ilyakaznacheev/cleanenv"
	"log"
	"sync"
	"time"
)

const (
	ProviderApp    = "app"
	ProviderOpenAI = "openai"
)

type Config struct {
	Env      string `yaml:"env" env:"ENV" env-default:"local"`
	Telegram struct {
		ApiKey  string `yaml:"api_key" env:"TELEGRAM_API_KEY" env-default:""`
		AdminId int64  `yaml:"admin_id" env:"TELEGRAM_ADMIN_ID" env-default:"0"`
		BotName string `yaml:"bot_name" env-default:"WaRelayBot"`
		Enabled bool   `yaml:"enabled" env:"TELEGRAM_ENABLED" env-default:"false"`
	} `yaml:"telegram"`
	WhatsApp struct {
		AccessToken   string        `yaml:"access_token" env:"WHATSAPP_ACCESS_TOKEN" env-default:""`
		VerifyToken   string        `yaml:"verify_token" env:"WHATSAPP_VERIFY_TOKEN" env-default:""`
		AppSecret     string        `yaml:"app_secret" env:"WHATSAPP_APP_SECRET" env-default:""`
		PhoneNumberID string        `yaml:"phone_number_id" env:"WHATSAPP_PHONE_NUMBER_ID" env-default:""`
		ApiVersion    string        `yaml:"api_version" env-default:"v24.0"`
		BaseURL       string        `yaml:"base_url" env-default:"https://graph.facebook.com"`
		RelayTimeout  time.Duration `yaml:"relay_timeout" env-default:"30s"`
	} `yaml:"whatsapp"`
	App struct {
		ID       string        `yaml:"id" env:"APP_ID" env-default:""`
		Provider string        `yaml:"provider" env-default:"app"`
		BaseURL  string        `yaml:"base_url" env:"APP_BASE_URL" env-default:""`
		ApiKey   string        `yaml:"api_key" env:"APP_API_KEY" env-default:""`
		Model    string        `yaml:"model" env-default:"gpt-4o-mini"`
		Prompt   string        `yaml:"prompt" env-default:""`
		Timeout  time.Duration `yaml:"timeout" env-default:"20s"`
	} `yaml:"app"`
	Mongo struct {
		Enabled  bool   `yaml:"enabled" env-default:"false"`
		Host     string `yaml:"host" env-default:"127.0.0.1"`
		Port     string `yaml:"port" env-default:"27017"`
		User     string `yaml:"user" env-default:""`
		Password string `yaml:"password" env-default:""`
		Database string `yaml:"database" env-default:"warelay"`
	} `yaml:"mongo"`
	Listen struct {
		BindIP string `yaml:"bind_ip" env-default:"127.0.0.1"`
		Port   string `yaml:"port" env:"PORT" env-default:"9100"`
		ApiKey string `yaml:"key" env:"API_KEY" env-default:""`
	} `yaml:"listen"`
}

// Webhook returns the immutable relay settings derived from the config.
func (c *Config) Webhook() entity.WebhookConfig {
	return entity.WebhookConfig{
		AccessToken:   c.WhatsApp.AccessToken,
		VerifyToken:   c.WhatsApp.VerifyToken,
		AppSecret:     c.WhatsApp.AppSecret,
		PhoneNumberID: c.WhatsApp.PhoneNumberID,
		ApiVersion:    c.WhatsApp.ApiVersion,
		BaseURL:       c.WhatsApp.BaseURL,
		AppID:         c.App.ID,
	}
}

var instance *Config
var once sync.Once

func MustLoad(path string) *Config {
	once.Do(func() {
		conf, err := Load(path)
		if err != nil {
			log.Fatal(err)
		}
		instance = conf
	})
	return instance
}

func Load(path string) (*Config, error) {
	conf := &Config{}
	if err := cleanenv.ReadConfig(path, conf); err != nil {
		desc, _ := cleanenv.GetDescription(conf, nil)
		return nil, fmt.Errorf("%s; %s", err, desc)
	}
	switch conf.App.Provider {
	case ProviderApp, ProviderOpenAI:
	default:
		return nil, fmt.Errorf("unknown app provider %q", conf.App.Provider)
	}
	return conf, nil
}
