package config

import (
	"encoding/json"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/couponkeeper/internal/flagx"
)

// Duration accepts either a Go duration string ("90s", "1h") or an integer
// number of nanoseconds when unmarshalled from JSON.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
		return nil
	case string:
		var err error
		d.Duration, err = time.ParseDuration(value)
		return err
	default:
		return errors.New("invalid duration")
	}
}

// JsonConfig is the on-disk shape of the configuration file. Fields left
// out of the file keep the value they had before the file was read.
type JsonConfig struct {
	EndpointAddrGRPC            *string   `json:"endpoint_addr_grpc"`
	EndpointAddrHTTP            *string   `json:"endpoint_addr_http"`
	DatabaseDSN                 *string   `json:"database_dsn"`
	SecretKey                   *string   `json:"secret_key"`
	DeviceIDKey                 *string   `json:"device_id_key"`
	AccessTokenValidityDuration *Duration `json:"access_token_validity_duration"`
	BotToken                    *string   `json:"bot_token"`
	BotUsername                 *string   `json:"bot_username"`
	TelegramAPIBase             *string   `json:"telegram_api_base"`
	PublicBaseURL               *string   `json:"public_base_url"`
	AdminIDs                    []int64   `json:"admin_ids"`
	S3RootUser                  *string   `json:"s3_root_user"`
	S3RootPassword              *string   `json:"s3_root_password"`
	S3Bucket                    *string   `json:"s3_bucket"`
	S3Region                    *string   `json:"s3_region"`
	S3BaseEndpoint              *string   `json:"s3_base_endpoint"`
	StockCheckInterval          *Duration `json:"stock_check_interval"`
	StockAlertThreshold         *int      `json:"stock_alert_threshold"`
	VerifyRateLimit             *float64  `json:"verify_rate_limit"`
	VerifyRateBurst             *int      `json:"verify_rate_burst"`
	NotifyQueueSize             *int      `json:"notify_queue_size"`
	LogLevel                    *string   `json:"log_level"`
	LogFile                     *string   `json:"log_file"`
}

// parseJson loads configuration values from the JSON file named by the -c or
// -config flag into config. Without the flag nothing is loaded. An unreadable
// file or invalid JSON panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigPath(os.Args[1:])
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	setFrom(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setFrom(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setFrom(&config.DatabaseDSN, c.DatabaseDSN)
	setFrom(&config.SecretKey, c.SecretKey)
	setFrom(&config.DeviceIDKey, c.DeviceIDKey)
	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	setFrom(&config.BotToken, c.BotToken)
	setFrom(&config.BotUsername, c.BotUsername)
	setFrom(&config.TelegramAPIBase, c.TelegramAPIBase)
	if c.PublicBaseURL != nil {
		config.PublicBaseURL = strings.TrimRight(*c.PublicBaseURL, "/")
	}
	if c.AdminIDs != nil {
		config.AdminIDs = c.AdminIDs
	}
	setFrom(&config.S3RootUser, c.S3RootUser)
	setFrom(&config.S3RootPassword, c.S3RootPassword)
	setFrom(&config.S3Bucket, c.S3Bucket)
	setFrom(&config.S3Region, c.S3Region)
	setFrom(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	if c.StockCheckInterval != nil {
		config.StockCheckInterval = c.StockCheckInterval.Duration
	}
	setFrom(&config.StockAlertThreshold, c.StockAlertThreshold)
	setFrom(&config.VerifyRateLimit, c.VerifyRateLimit)
	setFrom(&config.VerifyRateBurst, c.VerifyRateBurst)
	setFrom(&config.NotifyQueueSize, c.NotifyQueueSize)
	setFrom(&config.LogLevel, c.LogLevel)
	setFrom(&config.LogFile, c.LogFile)
}

func setFrom[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
