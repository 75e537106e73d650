package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/sitecrew/internal/flagx"
	"github.com/dmitrijs2005/sitecrew/internal/timex"
)

// JsonConfig is an intermediate DTO used only for reading JSON configuration
// files. Durations accept both "1s" strings and integer nanoseconds.
// Pointer fields tell an absent key apart from a zero value.
type JsonConfig struct {
	EndpointAddrHTTP            *string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC            *string         `json:"endpoint_addr_grpc"`
	DatabaseDSN                 *string         `json:"database_dsn"`
	SecretKey                   *string         `json:"secret_key"`
	AccessTokenValidityDuration *timex.Duration `json:"access_token_validity_duration"`
	S3RootUser                  *string         `json:"s3_root_user"`
	S3RootPassword              *string         `json:"s3_root_password"`
	S3Bucket                    *string         `json:"s3_bucket"`
	S3Region                    *string         `json:"s3_region"`
	S3BaseEndpoint              *string         `json:"s3_base_endpoint"`
	KafkaBrokers                []string        `json:"kafka_brokers"`
	FallTopic                   *string         `json:"fall_topic"`
	LoginRatePerSecond          *float64        `json:"login_rate_per_second"`
	LoginBurst                  *int            `json:"login_burst"`
	MaxUploadBytes              *int64          `json:"max_upload_bytes"`
	LogLevel                    *string         `json:"log_level"`
}

// parseJson loads configuration values from the JSON file named by the -c
// or -config flag into cfg. Without the flag nothing is loaded. An
// unreadable file or invalid JSON panics.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&cfg.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&cfg.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&cfg.DatabaseDSN, c.DatabaseDSN)
	setString(&cfg.SecretKey, c.SecretKey)
	setString(&cfg.S3RootUser, c.S3RootUser)
	setString(&cfg.S3RootPassword, c.S3RootPassword)
	setString(&cfg.S3Bucket, c.S3Bucket)
	setString(&cfg.S3Region, c.S3Region)
	setString(&cfg.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&cfg.FallTopic, c.FallTopic)
	setString(&cfg.LogLevel, c.LogLevel)

	if c.AccessTokenValidityDuration != nil {
		cfg.AccessTokenValidityDuration = time.Duration(c.AccessTokenValidityDuration.Duration)
	}
	if c.KafkaBrokers != nil {
		cfg.KafkaBrokers = c.KafkaBrokers
	}
	if c.LoginRatePerSecond != nil {
		cfg.LoginRatePerSecond = *c.LoginRatePerSecond
	}
	if c.LoginBurst != nil {
		cfg.LoginBurst = *c.LoginBurst
	}
	if c.MaxUploadBytes != nil {
		cfg.MaxUploadBytes = *c.MaxUploadBytes
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
