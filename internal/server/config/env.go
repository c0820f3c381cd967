package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// loadDotEnv is a seam for tests.
var loadDotEnv = func() { _ = godotenv.Load() }

// parseEnv overlays values from the process environment. A .env file in the
// working directory is loaded first when present; variables already set in
// the environment take precedence over it.
//
// DATABASE_URL wins over the split DB_HOST/DB_PORT/DB_NAME/DB_USER/DB_PASS
// form. PORT sets the HTTP listen port. Malformed numeric or duration values
// panic, like a malformed config file does.
func parseEnv(config *Config) {
	loadDotEnv()

	setString(&config.EndpointAddrGRPC, "GRPC_ADDR")
	if port := env("PORT"); port != "" {
		config.EndpointAddrHTTP = ":" + port
	}
	setString(&config.EndpointAddrHTTP, "HTTP_ADDR")

	if dsn := env("DATABASE_URL"); dsn != "" {
		config.DatabaseDSN = dsn
	} else if host := env("DB_HOST"); host != "" {
		config.DatabaseDSN = buildDSN(host, getEnv("DB_PORT", "5432"), getEnv("DB_NAME", "postgres"), env("DB_USER"), env("DB_PASS"))
	}

	setString(&config.SecretKey, "SECRET_KEY")
	setString(&config.DeviceIDKey, "DEVICE_ID_KEY")
	setString(&config.BotToken, "BOT_TOKEN")
	setString(&config.BotUsername, "BOT_USERNAME")
	setString(&config.TelegramAPIBase, "TELEGRAM_API_BASE")
	if base := env("PUBLIC_BASE_URL"); base != "" {
		config.PublicBaseURL = strings.TrimRight(base, "/")
	}
	if ids := env("ADMIN_IDS"); ids != "" {
		config.AdminIDs = parseIDList(ids)
	}

	setString(&config.S3RootUser, "S3_ROOT_USER")
	setString(&config.S3RootPassword, "S3_ROOT_PASSWORD")
	setString(&config.S3Bucket, "S3_BUCKET")
	setString(&config.S3Region, "S3_REGION")
	setString(&config.S3BaseEndpoint, "S3_BASE_ENDPOINT")

	setDuration(&config.StockCheckInterval, "STOCK_CHECK_INTERVAL")
	setInt(&config.StockAlertThreshold, "STOCK_ALERT_THRESHOLD")
	setInt(&config.VerifyRateBurst, "VERIFY_RATE_BURST")
	setInt(&config.NotifyQueueSize, "NOTIFY_QUEUE_SIZE")
	if v := env("VERIFY_RATE_LIMIT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			panic(fmt.Errorf("VERIFY_RATE_LIMIT: %w", err))
		}
		config.VerifyRateLimit = f
	}

	setString(&config.LogLevel, "LOG_LEVEL")
	setString(&config.LogFile, "LOG_FILE")
}

func buildDSN(host, port, name, user, pass string) string {
	u := url.URL{
		Scheme:   "postgres",
		Host:     host + ":" + port,
		Path:     "/" + name,
		RawQuery: "sslmode=prefer",
	}
	if user != "" {
		u.User = url.UserPassword(user, pass)
	}
	return u.String()
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	if v := env(key); v != "" {
		return v
	}
	return defaultValue
}

func setString(dst *string, key string) {
	if v := env(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	v := env(key)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Errorf("%s: %w", key, err))
	}
	*dst = n
}

func setDuration(dst *time.Duration, key string) {
	v := env(key)
	if v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(fmt.Errorf("%s: %w", key, err))
	}
	*dst = d
}
