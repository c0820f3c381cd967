// Package config loads settings for loyaltyctl, the operator console.
//
// Sources, later ones win:
//
//  1. defaults (LoadDefaults)
//  2. a JSON file named by -c or -config
//  3. command-line flags
//
// Flags:
//
//	-a string   host:port of the loyalty gRPC endpoint
//	-s string   shared HMAC secret used to mint access tokens
//	-u int      admin account id the console acts as
//	-t int      per-request timeout, seconds
//
// JSON:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "secret_key": "secretKey",
//	  "admin_id": 900,
//	  "request_timeout": "30s"
//	}
package config

import "time"

// Config holds runtime settings for the operator console.
type Config struct {
	ServerEndpointAddr string
	SecretKey          string
	AdminID            int64
	TokenValidity      time.Duration
	RequestTimeout     time.Duration
}

// LoadDefaults populates c with development defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.SecretKey = "secretKey"
	c.TokenValidity = 10 * time.Minute
	c.RequestTimeout = 30 * time.Second
}

// LoadConfig applies defaults, then the JSON file, then flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
