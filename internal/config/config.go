package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	envAppEnv                = "APP_ENV"
	envPort                  = "PORT"
	envServerReadTimeout     = "SERVER_READ_TIMEOUT"
	envServerWriteTimeout    = "SERVER_WRITE_TIMEOUT"
	envServerShutdownTimeout = "SERVER_SHUTDOWN_TIMEOUT"
	envCORSOrigins           = "CORS_ORIGINS"
	envMaxUploadSize         = "MAX_UPLOAD_SIZE"
	envJWTSecret             = "JWT_SECRET"
	envJWTExpiry             = "JWT_EXPIRY_MINUTES"
	envLedgerRPCURL          = "LEDGER_RPC_URL"
	envLedgerContract        = "CONTRACT_ADDRESS"
	envLedgerPrivateKey      = "LEDGER_PRIVATE_KEY"
	envLedgerGasLimit        = "LEDGER_GAS_LIMIT"
	envLedgerProbeTimeout    = "LEDGER_PROBE_TIMEOUT"
	envLedgerReadTimeout     = "LEDGER_READ_TIMEOUT"
	envLedgerWriteTimeout    = "LEDGER_WRITE_TIMEOUT"
	envContentBackend        = "CONTENT_BACKEND"
	envContentTimeout        = "CONTENT_TIMEOUT"
	envIPFSAPIURL            = "IPFS_API_URL"
	envIPFSLocalGateway      = "IPFS_LOCAL_GATEWAY"
	envIPFSPublicGateway     = "IPFS_PUBLIC_GATEWAY"
	envIPFSMFSDir            = "IPFS_MFS_DIR"
	envBoltPath              = "BOLT_PATH"
	envS3Bucket              = "S3_BUCKET"
	envS3Region              = "S3_REGION"
	envS3Endpoint            = "S3_ENDPOINT"
	envS3Prefix              = "S3_PREFIX"
	envAWSAccessKeyID        = "AWS_ACCESS_KEY_ID"
	envAWSSecretAccessKey    = "AWS_SECRET_ACCESS_KEY"
	envDatabaseURL           = "DATABASE_URL"
	envDBMaxConns            = "DB_MAX_CONNS"
	envDBMinConns            = "DB_MIN_CONNS"
	envTracingEnabled        = "TRACING_ENABLED"
	envProfilingEnabled      = "PROFILING_ENABLED"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	BackendIPFS = "ipfs"
	BackendBolt = "bolt"
	BackendS3   = "s3"
)

const (
	defaultServerPort          = "8080"
	defaultServerReadTimeout   = 30 * time.Second
	defaultServerWriteTimeout  = 5 * time.Minute
	defaultServerShutdown      = 10 * time.Second
	defaultMaxUploadSize       = int64(100 * 1024 * 1024)
	defaultJWTExpiry           = 60 * time.Minute
	defaultLedgerRPCURL        = "http://localhost:8545"
	defaultLedgerGasLimit      = uint64(3000000)
	defaultLedgerProbeTimeout  = 5 * time.Second
	defaultLedgerReadTimeout   = 15 * time.Second
	defaultLedgerWriteTimeout  = 2 * time.Minute
	defaultContentTimeout      = 30 * time.Second
	defaultIPFSAPIURL          = "http://127.0.0.1:5001"
	defaultIPFSLocalGateway    = "http://127.0.0.1:8080/ipfs"
	defaultIPFSPublicGateway   = "https://ipfs.io/ipfs"
	defaultIPFSMFSDir          = "/uploads"
	defaultBoltPath            = "data/blobs.db"
	defaultS3Region            = "us-east-1"
	defaultDBMaxConns          = 10
	defaultDBMinConns          = 1
	minJWTSecretLength         = 32
	minUniqueCharsInSecret     = 16
	minRepeatedCharThreshold   = 4
	maxRepeatedChars           = 2
	errPortRequiredFmt         = "PORT must be set"
	errAppEnvInvalidFmt        = "APP_ENV must be %q or %q, got %q"
	errJWTSecretRequiredFmt    = "JWT_SECRET must be set"
	errJWTSecretMinLengthFmt   = "JWT_SECRET must be at least %d characters"
	errJWTSecretLowEntropyFmt  = "JWT_SECRET has insufficient entropy (appears non-random). Use a cryptographically secure random string."
	errMaxUploadSizeFmt        = "MAX_UPLOAD_SIZE must be positive"
	errContentBackendFmt       = "CONTENT_BACKEND must be one of ipfs, bolt, s3, got %q"
	errS3BucketRequiredFmt     = "S3_BUCKET must be set when CONTENT_BACKEND=s3"
	errBoltPathRequiredFmt     = "BOLT_PATH must be set when CONTENT_BACKEND=bolt"
	errLedgerGasLimitFmt       = "LEDGER_GAS_LIMIT must be positive"
	errInvalidConfigurationFmt = "invalid configuration: %w"
	errRequiredEnvNotSetFmt    = "required environment variable %s is not set"
)

type Config struct {
	Server        ServerConfig
	App           AppConfig
	JWT           JWTConfig
	Ledger        LedgerConfig
	Content       ContentConfig
	Database      DatabaseConfig
	Observability ObservabilityConfig
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CORSOrigins     []string
}

type AppConfig struct {
	Environment   string
	MaxUploadSize int64
}

// Production disables every development fallback.
func (a AppConfig) Production() bool {
	return a.Environment == EnvProduction
}

type JWTConfig struct {
	Secret         string
	ExpiryDuration time.Duration
}

type LedgerConfig struct {
	RPCURL          string
	ContractAddress string
	PrivateKey      string
	GasLimit        uint64
	ProbeTimeout    time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
}

type ContentConfig struct {
	Backend string
	Timeout time.Duration
	IPFS    IPFSConfig
	Bolt    BoltConfig
	S3      S3Config
}

type IPFSConfig struct {
	APIURL        string
	LocalGateway  string
	PublicGateway string
	MFSDir        string
}

type BoltConfig struct {
	Path string
}

type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	Prefix          string
	AccessKeyID     string
	SecretAccessKey string
}

// DatabaseConfig backs the optional audit trail; an empty URL disables it.
type DatabaseConfig struct {
	URL      string
	MaxConns int
	MinConns int
}

func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

type ObservabilityConfig struct {
	TracingEnabled bool
	// ProfilingEnabled exposes pprof under /debug. Keep off in production.
	ProfilingEnabled bool
}

func Load() (*Config, error) {
	secret, err := requireEnv(envJWTSecret)
	if err != nil {
		return nil, fmt.Errorf(errInvalidConfigurationFmt, err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv(envPort, defaultServerPort),
			ReadTimeout:     getDurationEnv(envServerReadTimeout, defaultServerReadTimeout),
			WriteTimeout:    getDurationEnv(envServerWriteTimeout, defaultServerWriteTimeout),
			ShutdownTimeout: getDurationEnv(envServerShutdownTimeout, defaultServerShutdown),
			CORSOrigins:     getListEnv(envCORSOrigins, []string{"*"}),
		},
		App: AppConfig{
			Environment:   strings.ToLower(getEnv(envAppEnv, EnvDevelopment)),
			MaxUploadSize: getInt64Env(envMaxUploadSize, defaultMaxUploadSize),
		},
		JWT: JWTConfig{
			Secret:         secret,
			ExpiryDuration: getDurationEnv(envJWTExpiry, defaultJWTExpiry),
		},
		Ledger: LedgerConfig{
			RPCURL:          getEnv(envLedgerRPCURL, defaultLedgerRPCURL),
			ContractAddress: getEnv(envLedgerContract, ""),
			PrivateKey:      getEnv(envLedgerPrivateKey, ""),
			GasLimit:        getUint64Env(envLedgerGasLimit, defaultLedgerGasLimit),
			ProbeTimeout:    getDurationEnv(envLedgerProbeTimeout, defaultLedgerProbeTimeout),
			ReadTimeout:     getDurationEnv(envLedgerReadTimeout, defaultLedgerReadTimeout),
			WriteTimeout:    getDurationEnv(envLedgerWriteTimeout, defaultLedgerWriteTimeout),
		},
		Content: ContentConfig{
			Backend: strings.ToLower(getEnv(envContentBackend, BackendIPFS)),
			Timeout: getDurationEnv(envContentTimeout, defaultContentTimeout),
			IPFS: IPFSConfig{
				APIURL:        getEnv(envIPFSAPIURL, defaultIPFSAPIURL),
				LocalGateway:  getEnv(envIPFSLocalGateway, defaultIPFSLocalGateway),
				PublicGateway: getEnv(envIPFSPublicGateway, defaultIPFSPublicGateway),
				MFSDir:        getEnv(envIPFSMFSDir, defaultIPFSMFSDir),
			},
			Bolt: BoltConfig{
				Path: getEnv(envBoltPath, defaultBoltPath),
			},
			S3: S3Config{
				Bucket:          getEnv(envS3Bucket, ""),
				Region:          getEnv(envS3Region, defaultS3Region),
				Endpoint:        getEnv(envS3Endpoint, ""),
				Prefix:          getEnv(envS3Prefix, ""),
				AccessKeyID:     getEnv(envAWSAccessKeyID, ""),
				SecretAccessKey: getEnv(envAWSSecretAccessKey, ""),
			},
		},
		Database: DatabaseConfig{
			URL:      getEnv(envDatabaseURL, ""),
			MaxConns: getIntEnv(envDBMaxConns, defaultDBMaxConns),
			MinConns: getIntEnv(envDBMinConns, defaultDBMinConns),
		},
		Observability: ObservabilityConfig{
			TracingEnabled:   getBoolEnv(envTracingEnabled, false),
			ProfilingEnabled: getBoolEnv(envProfilingEnabled, false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf(errInvalidConfigurationFmt, err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf(errPortRequiredFmt)
	}

	if c.App.Environment != EnvDevelopment && c.App.Environment != EnvProduction {
		return fmt.Errorf(errAppEnvInvalidFmt, EnvDevelopment, EnvProduction, c.App.Environment)
	}

	if c.App.MaxUploadSize <= 0 {
		return fmt.Errorf(errMaxUploadSizeFmt)
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf(errJWTSecretRequiredFmt)
	}

	if len(c.JWT.Secret) < minJWTSecretLength {
		return fmt.Errorf(errJWTSecretMinLengthFmt, minJWTSecretLength)
	}

	if !hasMinimumEntropy(c.JWT.Secret) {
		return fmt.Errorf(errJWTSecretLowEntropyFmt)
	}

	if c.Ledger.GasLimit == 0 {
		return fmt.Errorf(errLedgerGasLimitFmt)
	}

	switch c.Content.Backend {
	case BackendIPFS:
	case BackendBolt:
		if c.Content.Bolt.Path == "" {
			return fmt.Errorf(errBoltPathRequiredFmt)
		}
	case BackendS3:
		if c.Content.S3.Bucket == "" {
			return fmt.Errorf(errS3BucketRequiredFmt)
		}
	default:
		return fmt.Errorf(errContentBackendFmt, c.Content.Backend)
	}

	return nil
}

func hasMinimumEntropy(secret string) bool {
	if len(secret) < minJWTSecretLength {
		return false
	}

	charCounts := make(map[rune]int)
	for _, char := range secret {
		charCounts[char]++
	}

	uniqueChars := len(charCounts)
	if uniqueChars < minUniqueCharsInSecret {
		return false
	}

	repeatedChars := 0
	for _, count := range charCounts {
		if count > len(secret)/minRepeatedCharThreshold {
			repeatedChars++
		}
	}

	return repeatedChars <= maxRepeatedChars
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func requireEnv(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf(errRequiredEnvNotSetFmt, key)
	}
	return value, nil
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getUint64Env(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseUint(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		if minutes, err := strconv.Atoi(value); err == nil {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}
