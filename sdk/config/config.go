// SPDX-FileCopyrightText: © 2025 Open Archive contributors
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/spf13/viper"
	"gopkg.in/ini.v1"
)

const (
	// Version of the SDK, sent in the User-Agent and default scanner metadata.
	Version = "0.1.0"

	// DefaultBaseURL is the archive's REST front door (metadata, search,
	// download endpoints).
	DefaultBaseURL = "https://archive.org"

	// DefaultS3Endpoint is the storage proxy speaking the S3-compatible
	// upload dialect.
	DefaultS3Endpoint = "https://s3.us.archive.org"

	// IniName is the per-user config file, looked up in the home directory
	// when no explicit path is given.
	IniName = ".ia.ini"

	accessKeyEnv = "IA_ACCESS_KEY"
	secretKeyEnv = "IA_SECRET_KEY"
)

var ErrConfigFileNotFound = errors.New("config file not found")

// Config carries everything a session needs. Credentials are immutable once
// a session is built from the config.
type Config struct {
	AccessKey string
	SecretKey string

	BaseURL    string
	S3Endpoint string

	// Timeout applies to each individual HTTP request. Zero means the
	// http.Client default (no timeout). Timeouts are terminal, never
	// retried as overload.
	Timeout time.Duration
}

// Load resolves a Config with the precedence: explicit values, then the INI
// config file ([s3] access= / secret=), then IA_ACCESS_KEY/IA_SECRET_KEY
// environment variables, then the AWS default credential chain. Anything
// still unset after that stays empty and the session runs unauthenticated.
//
// configFile may be empty; then ~/.ia.ini is tried and silently skipped when
// missing. An explicit path that cannot be read is an error.
func Load(ctx context.Context, explicit *Config, configFile string) (*Config, error) {
	out := &Config{
		BaseURL:    DefaultBaseURL,
		S3Endpoint: DefaultS3Endpoint,
	}
	if explicit != nil {
		overlay(out, explicit)
	}

	if out.AccessKey == "" || out.SecretKey == "" {
		if err := loadIni(out, configFile); err != nil {
			return nil, err
		}
	}

	if out.AccessKey == "" || out.SecretKey == "" {
		loadEnv(out)
	}

	if out.AccessKey == "" || out.SecretKey == "" {
		loadAWSChain(ctx, out)
	}

	return out, nil
}

func overlay(dst, src *Config) {
	if src.AccessKey != "" {
		dst.AccessKey = src.AccessKey
	}
	if src.SecretKey != "" {
		dst.SecretKey = src.SecretKey
	}
	if src.BaseURL != "" {
		dst.BaseURL = src.BaseURL
	}
	if src.S3Endpoint != "" {
		dst.S3Endpoint = src.S3Endpoint
	}
	if src.Timeout != 0 {
		dst.Timeout = src.Timeout
	}
}

func loadIni(out *Config, configFile string) error {
	explicitPath := configFile != ""
	if !explicitPath {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		configFile = filepath.Join(home, IniName)
	}

	cfg, err := ini.Load(configFile)
	if err != nil {
		if !explicitPath {
			return nil
		}
		return fmt.Errorf("%w: %s: %v", ErrConfigFileNotFound, configFile, err)
	}

	s3 := cfg.Section("s3")
	if out.AccessKey == "" {
		out.AccessKey = s3.Key("access").String()
	}
	if out.SecretKey == "" {
		out.SecretKey = s3.Key("secret").String()
	}

	general := cfg.Section("general")
	if v := general.Key("host").String(); v != "" && out.BaseURL == DefaultBaseURL {
		out.BaseURL = v
	}
	if v := general.Key("s3_endpoint").String(); v != "" && out.S3Endpoint == DefaultS3Endpoint {
		out.S3Endpoint = v
	}
	return nil
}

func loadEnv(out *Config) {
	v := viper.New()
	_ = v.BindEnv("access_key", accessKeyEnv)
	_ = v.BindEnv("secret_key", secretKeyEnv)
	if out.AccessKey == "" {
		out.AccessKey = v.GetString("access_key")
	}
	if out.SecretKey == "" {
		out.SecretKey = v.GetString("secret_key")
	}
}

// loadAWSChain falls back to the AWS default credential chain. The archive's
// keys are S3-style, so shared credentials files and AWS_ACCESS_KEY_ID /
// AWS_SECRET_ACCESS_KEY are a conventional place to keep them. Resolution
// failures are ignored; anonymous sessions are valid for read operations.
func loadAWSChain(ctx context.Context, out *Config) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return
	}
	creds, err := awsCfg.Credentials.Retrieve(ctx)
	if err != nil {
		return
	}
	if out.AccessKey == "" {
		out.AccessKey = creds.AccessKeyID
	}
	if out.SecretKey == "" {
		out.SecretKey = creds.SecretAccessKey
	}
}

// AWSCredentials exposes the resolved key pair as a cached static provider,
// for callers that hand the archive's keys to S3-compatible tooling.
func (c *Config) AWSCredentials() aws.CredentialsProvider {
	return aws.NewCredentialsCache(
		credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, ""))
}

// Authenticated reports whether both keys are present.
func (c *Config) Authenticated() bool {
	return c.AccessKey != "" && c.SecretKey != ""
}
