package config

import (
	"encoding/json"
	"errors"
	"os"
	"time"

	"github.com/dmitrijs2005/couponkeeper/internal/flagx"
)

type duration struct {
	time.Duration
}

func (d *duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
	case string:
		var err error
		if d.Duration, err = time.ParseDuration(value); err != nil {
			return err
		}
	default:
		return errors.New("invalid duration")
	}
	return nil
}

// JsonConfig is the file shape; absent fields keep their current value.
type JsonConfig struct {
	ServerEndpointAddr *string   `json:"server_endpoint_addr"`
	SecretKey          *string   `json:"secret_key"`
	AdminID            *int64    `json:"admin_id"`
	TokenValidity      *duration `json:"token_validity"`
	RequestTimeout     *duration `json:"request_timeout"`
}

// parseJson overlays cfg with the file named by -c/-config. Read or decode
// errors panic.
func parseJson(cfg *Config) {
	path := flagx.ConfigPath(os.Args[1:])
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}
	jc.apply(cfg)
}

func (jc *JsonConfig) apply(cfg *Config) {
	if jc.ServerEndpointAddr != nil {
		cfg.ServerEndpointAddr = *jc.ServerEndpointAddr
	}
	if jc.SecretKey != nil {
		cfg.SecretKey = *jc.SecretKey
	}
	if jc.AdminID != nil {
		cfg.AdminID = *jc.AdminID
	}
	if jc.TokenValidity != nil {
		cfg.TokenValidity = jc.TokenValidity.Duration
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
}
