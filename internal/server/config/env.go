package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/productkeeper/internal/flagx"
	"github.com/joho/godotenv"
)

const envPrefix = "PRODUCTKEEPER_"

// parseEnv loads a dotenv file (the -env flag, or ./.env when present) and
// then overlays every PRODUCTKEEPER_* variable onto config. Variables already
// set in the process environment win over the file. Malformed values panic.
func parseEnv(config *Config) {
	envFile := flagx.EnvFileFlags()
	explicit := envFile != ""
	if !explicit {
		envFile = ".env"
	}

	if err := godotenv.Load(envFile); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			panic(err)
		}
	}

	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(envPrefix + key); ok {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := os.LookupEnv(envPrefix + key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				panic(fmt.Errorf("%s%s: %w", envPrefix, key, err))
			}
			*dst = d
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := os.LookupEnv(envPrefix + key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				panic(fmt.Errorf("%s%s: %w", envPrefix, key, err))
			}
			*dst = n
		}
	}

	str("HTTP_ADDR", &config.EndpointAddrHTTP)
	str("GRPC_ADDR", &config.EndpointAddrGRPC)
	str("DATABASE_DSN", &config.DatabaseDSN)
	str("SECRET_KEY", &config.SecretKey)
	dur("TOKEN_VALIDITY", &config.TokenValidityDuration)
	str("STORAGE_BACKEND", &config.StorageBackend)
	str("LOCAL_IMAGE_DIR", &config.LocalImageDir)
	str("S3_ROOT_USER", &config.S3RootUser)
	str("S3_ROOT_PASSWORD", &config.S3RootPassword)
	str("S3_BUCKET", &config.S3Bucket)
	str("S3_REGION", &config.S3Region)
	str("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
	str("REDIS_ADDR", &config.RedisAddr)
	str("REDIS_PASSWORD", &config.RedisPassword)
	integer("REDIS_DB", &config.RedisDB)
	integer("LOGIN_RATE_BURST", &config.LoginRateBurst)
	dur("HEALTH_CHECK_INTERVAL", &config.HealthCheckInterval)

	if v, ok := os.LookupEnv(envPrefix + "MAX_IMAGE_SIZE"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			panic(fmt.Errorf("%sMAX_IMAGE_SIZE: %w", envPrefix, err))
		}
		config.MaxImageSize = n
	}
	if v, ok := os.LookupEnv(envPrefix + "LOGIN_RATE_PER_SECOND"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			panic(fmt.Errorf("%sLOGIN_RATE_PER_SECOND: %w", envPrefix, err))
		}
		config.LoginRatePerSecond = f
	}
	if v, ok := os.LookupEnv(envPrefix + "TRUSTED_PROXIES"); ok {
		config.TrustedProxies = strings.Split(v, ",")
	}
	if v, ok := os.LookupEnv(envPrefix + "EXPOSE_ERRORS"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			panic(fmt.Errorf("%sEXPOSE_ERRORS: %w", envPrefix, err))
		}
		config.ExposeErrors = b
	}
}
