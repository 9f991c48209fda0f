package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"docFetcher/internal/acquire"

	"github.com/joho/godotenv"
)

type Cfg struct {
	Database   Database
	Logger     Logger
	Browser    Browser
	Migrations Migrations
	Portal     Portal
	Acquire    Acquire
}

type Database struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
}

// Enabled журнал выгрузок ведется только при настроенной БД.
func (d Database) Enabled() bool {
	return d.Host != ""
}

func (d Database) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", d.User, d.Password, d.Host, d.Port, d.Name)
}

type Migrations struct {
	Path string
}

type Logger struct {
	Env   string
	Level string
}

type Browser struct {
	Display      string
	Headless     bool
	UserDataDir  string
	BrowsersPath string
	Timeout      time.Duration
}

type Portal struct {
	LoginURL         string
	Username         string
	Password         string
	UsernameSelector string
	PasswordSelector string
	SubmitSelector   string
	DetailURL        string
	Filters          map[string]string
	SourceParam      string
	ItemSelector     string
	BaseDate         time.Time
	DayOffset        int
}

type Acquire struct {
	DestinationRoot  string
	DownloadEndpoint string
	IDField          string
	TokenField       string
	TriggerSelector  string
	ViewerSelectors  []string
	SaveShortcut     string

	DirectReplayTimeout   time.Duration
	NativeDownloadTimeout time.Duration
	ViewerSettleTimeout   time.Duration
	ViewerProbeTimeout    time.Duration
	ViewerDownloadTimeout time.Duration
	ResourceFetchTimeout  time.Duration
	ReplicationTimeout    time.Duration
}

func Load() (*Cfg, error) {
	_ = godotenv.Load()

	var baseDate time.Time
	if v := os.Getenv("PORTAL_BASE_DATE"); v != "" {
		d, err := time.ParseInLocation("2006-01-02", v, time.Local)
		if err != nil {
			return nil, fmt.Errorf("неверный PORTAL_BASE_DATE %q: %w", v, err)
		}
		baseDate = d
	}

	cfg := &Cfg{
		Database: Database{
			Host:     os.Getenv("DB_HOST"),
			Port:     env("DB_PORT", "5432"),
			Name:     os.Getenv("DB_NAME"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASS"),
		},
		Logger: Logger{
			Env:   env("ENV", "dev"),
			Level: env("LOG_LEVEL", "info"),
		},
		Browser: Browser{
			Display:      env("DISPLAY", ":0"),
			Headless:     envBool("PW_HEADLESS"),
			UserDataDir:  env("PW_USER_DATA_DIR", "./userdata"),
			BrowsersPath: env("PLAYWRIGHT_BROWSERS_PATH", ""),
			Timeout:      envDuration("PW_TIMEOUT", 30*time.Second),
		},
		Migrations: Migrations{
			Path: env("MIGRATIONS_PATH", "file://migrations"),
		},
		Portal: Portal{
			LoginURL:         os.Getenv("PORTAL_LOGIN_URL"),
			Username:         os.Getenv("PORTAL_USERNAME"),
			Password:         os.Getenv("PORTAL_PASSWORD"),
			UsernameSelector: env("PORTAL_USERNAME_SELECTOR", "input[name='username']"),
			PasswordSelector: env("PORTAL_PASSWORD_SELECTOR", "input[type='password']"),
			SubmitSelector:   env("PORTAL_SUBMIT_SELECTOR", "button[type='submit']"),
			DetailURL:        os.Getenv("PORTAL_DETAIL_URL"),
			Filters:          envPairs("PORTAL_FILTERS"),
			SourceParam:      env("PORTAL_SOURCE_PARAM", "id"),
			ItemSelector:     os.Getenv("PORTAL_ITEM_SELECTOR"),
			BaseDate:         baseDate,
			DayOffset:        envInt("PORTAL_DAY_OFFSET", 0),
		},
		Acquire: Acquire{
			DestinationRoot:  env("DOWNLOAD_ROOT", "./downloads"),
			DownloadEndpoint: os.Getenv("DOWNLOAD_ENDPOINT"),
			IDField:          env("DOWNLOAD_ID_FIELD", "id"),
			TokenField:       env("DOWNLOAD_TOKEN_FIELD", "token"),
			TriggerSelector:  os.Getenv("DOWNLOAD_TRIGGER_SELECTOR"),
			ViewerSelectors:  envList("VIEWER_SELECTORS"),
			SaveShortcut:     os.Getenv("VIEWER_SAVE_SHORTCUT"),

			DirectReplayTimeout:   envDuration("DIRECT_REPLAY_TIMEOUT", 30*time.Second),
			NativeDownloadTimeout: envDuration("NATIVE_DOWNLOAD_TIMEOUT", 5*time.Second),
			ViewerSettleTimeout:   envDuration("VIEWER_SETTLE_TIMEOUT", 10*time.Second),
			ViewerProbeTimeout:    envDuration("VIEWER_PROBE_TIMEOUT", 10*time.Second),
			ViewerDownloadTimeout: envDuration("VIEWER_DOWNLOAD_TIMEOUT", 30*time.Second),
			ResourceFetchTimeout:  envDuration("RESOURCE_FETCH_TIMEOUT", 30*time.Second),
			ReplicationTimeout:    envDuration("REPLICATION_TIMEOUT", 30*time.Second),
		},
	}

	return cfg, nil
}

// AcquireConfig переводит секцию Acquire в конфигурацию движка выгрузки.
func (c *Cfg) AcquireConfig() acquire.Config {
	a := c.Acquire
	return acquire.Config{
		Artifact:              acquire.PDF,
		DownloadEndpoint:      a.DownloadEndpoint,
		IDField:               a.IDField,
		TokenField:            a.TokenField,
		TriggerSelector:       a.TriggerSelector,
		ViewerSelectors:       a.ViewerSelectors,
		SaveShortcut:          a.SaveShortcut,
		DirectReplayTimeout:   a.DirectReplayTimeout,
		NativeDownloadTimeout: a.NativeDownloadTimeout,
		ViewerSettleTimeout:   a.ViewerSettleTimeout,
		ViewerProbeTimeout:    a.ViewerProbeTimeout,
		ViewerDownloadTimeout: a.ViewerDownloadTimeout,
		ResourceFetchTimeout:  a.ResourceFetchTimeout,
		ReplicationTimeout:    a.ReplicationTimeout,
	}
}

func env(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func envInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "true" || v == "1" || v == "yes"
}

// envDuration принимает "15s", "2m" или целое число секунд.
func envDuration(key string, defaultValue time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return defaultValue
}

// envList разбирает список через ";", так как запятые встречаются в CSS селекторах.
func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var items []string
	for _, item := range strings.Split(v, ";") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// envPairs разбирает "class=5;subject=math" в словарь. Записи без "=" пропускаются.
func envPairs(key string) map[string]string {
	items := envList(key)
	if len(items) == 0 {
		return nil
	}
	pairs := make(map[string]string, len(items))
	for _, item := range items {
		k, v, ok := strings.Cut(item, "=")
		if k = strings.TrimSpace(k); !ok || k == "" {
			continue
		}
		pairs[k] = strings.TrimSpace(v)
	}
	return pairs
}
