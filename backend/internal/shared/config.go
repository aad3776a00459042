// ============================================================================
// backend/internal/shared/config.go
// Shared configuration management and environment variable helpers
// ============================================================================

package shared

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ============================================================================
// Configuration Structs
// ============================================================================

// ServiceConfig holds common configuration for all binaries
type ServiceConfig struct {
	ServiceName string
	ServicePort string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error

	MongoDB   MongoConfig
	GRPC      GRPCConfig
	Security  SecurityConfig
	Mail      MailConfig
	Reporting ReportingConfig
}

// GRPCConfig holds gRPC-specific configuration
type GRPCConfig struct {
	MaxRecvMsgSize    int
	MaxSendMsgSize    int
	ConnectionTimeout time.Duration
	RequestTimeout    time.Duration
}

// SecurityConfig holds token and one-time-password settings
type SecurityConfig struct {
	JWTSecret          string
	JWTExpirationHours int
	BCryptCost         int
	OTPLength          int
	OTPTTL             time.Duration
	OTPMaxAttempts     int
}

// MailConfig selects and configures the OTP mailer
type MailConfig struct {
	SendGridAPIKey string
	FromEmail      string
	FromName       string
}

// ReportingConfig configures error reporting
type ReportingConfig struct {
	RollbarToken string
	CodeVersion  string
}

// GatewayConfig holds gateway-specific configuration
type GatewayConfig struct {
	ServiceConfig
	HTTPPort         string
	GradeServiceAddr string
	PublicURL        string // base URL used in magic links

	CORS CORSConfig
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
	MaxAge           int // in seconds
}

// ============================================================================
// Configuration Loading Functions
// ============================================================================

// LoadEnv loads environment variables from a .env file
func LoadEnv(envFile string) error {
	if envFile == "" {
		envFile = ".env"
	}

	if err := godotenv.Load(envFile); err != nil {
		return fmt.Errorf("loading %s: %w", envFile, err)
	}

	slog.Debug("loaded environment file", "path", envFile)
	return nil
}

// LoadServiceConfig loads common service configuration from the optional
// CONFIG_FILE and the environment; environment variables win.
func LoadServiceConfig(serviceName string) (*ServiceConfig, error) {
	file, err := ReadConfigFile(GetEnv("CONFIG_FILE", ""))
	if err != nil {
		return nil, err
	}

	config := &ServiceConfig{
		ServiceName: serviceName,
		ServicePort: GetEnv("SERVICE_PORT", orDefault(file.Service.Port, GetServicePort(serviceName))),
		Environment: GetEnv("ENVIRONMENT", orDefault(file.Service.Environment, "development")),
		LogLevel:    GetEnv("LOG_LEVEL", orDefault(file.Service.LogLevel, "info")),
	}

	mongoURI := GetEnv("MONGO_URI", file.MongoDB.URI)
	if mongoURI == "" {
		return nil, fmt.Errorf("MONGO_URI environment variable is required")
	}

	config.MongoDB = MongoConfig{
		URI:            mongoURI,
		Database:       GetEnv("MONGO_DB_NAME", orDefault(file.MongoDB.Database, "smartgrade")),
		ConnectTimeout: GetDurationEnv("MONGO_CONNECT_TIMEOUT", 20*time.Second),
		MaxPoolSize:    uint64(GetIntEnv("MONGO_MAX_POOL_SIZE", orDefaultInt(file.MongoDB.MaxPoolSize, 50))),
		MinPoolSize:    uint64(GetIntEnv("MONGO_MIN_POOL_SIZE", orDefaultInt(file.MongoDB.MinPoolSize, 5))),
		MaxIdleTime:    GetDurationEnv("MONGO_MAX_IDLE_TIME", 30*time.Second),
	}

	config.GRPC = GRPCConfig{
		MaxRecvMsgSize:    GetIntEnv("GRPC_MAX_RECV_MSG_SIZE", 4*1024*1024),
		MaxSendMsgSize:    GetIntEnv("GRPC_MAX_SEND_MSG_SIZE", 4*1024*1024),
		ConnectionTimeout: GetDurationEnv("GRPC_CONNECTION_TIMEOUT", 10*time.Second),
		RequestTimeout:    GetDurationEnv("GRPC_REQUEST_TIMEOUT", 10*time.Second),
	}

	config.Security = SecurityConfig{
		JWTSecret:          GetEnv("JWT_SECRET", ""),
		JWTExpirationHours: GetIntEnv("JWT_EXPIRATION_HOURS", orDefaultInt(file.Security.JWTExpirationHours, 12)),
		BCryptCost:         GetIntEnv("BCRYPT_COST", orDefaultInt(file.Security.BCryptCost, 10)),
		OTPLength:          GetIntEnv("OTP_LENGTH", 6),
		OTPTTL:             GetDurationEnv("OTP_TTL", 10*time.Minute),
		OTPMaxAttempts:     GetIntEnv("OTP_MAX_ATTEMPTS", 5),
	}

	config.Mail = MailConfig{
		SendGridAPIKey: GetEnv("SENDGRID_API_KEY", ""),
		FromEmail:      GetEnv("MAIL_FROM_EMAIL", orDefault(file.Mail.FromEmail, "no-reply@plpasig.edu.ph")),
		FromName:       GetEnv("MAIL_FROM_NAME", orDefault(file.Mail.FromName, "PLP SmartGrade")),
	}

	config.Reporting = ReportingConfig{
		RollbarToken: GetEnv("ROLLBAR_TOKEN", ""),
		CodeVersion:  GetEnv("CODE_VERSION", "dev"),
	}

	if config.Security.JWTSecret == "" && serviceName == "gateway" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required for the gateway")
	}

	return config, nil
}

// LoadGatewayConfig loads gateway-specific configuration
func LoadGatewayConfig() (*GatewayConfig, error) {
	baseConfig, err := LoadServiceConfig("gateway")
	if err != nil {
		return nil, err
	}

	config := &GatewayConfig{
		ServiceConfig:    *baseConfig,
		HTTPPort:         GetEnv("HTTP_PORT", DefaultGatewayHTTPPort),
		GradeServiceAddr: GetEnv("GRADE_SERVICE_ADDR", "localhost:"+DefaultGradeServicePort),
		PublicURL:        strings.TrimRight(GetEnv("PUBLIC_URL", "http://localhost:5173"), "/"),
	}

	config.CORS = CORSConfig{
		AllowedOrigins:   GetStringSliceEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
		AllowedMethods:   GetStringSliceEnv("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
		AllowedHeaders:   GetStringSliceEnv("CORS_ALLOWED_HEADERS", []string{"Accept", "Authorization", "Content-Type"}),
		AllowCredentials: GetBoolEnv("CORS_ALLOW_CREDENTIALS", true),
		MaxAge:           GetIntEnv("CORS_MAX_AGE", 300),
	}

	return config, nil
}

// ============================================================================
// Environment Variable Helper Functions
// ============================================================================

// GetEnv retrieves an environment variable or returns a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetIntEnv retrieves an integer environment variable or returns a default value
func GetIntEnv(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		slog.Warn("invalid integer env value, using default", "key", key, "value", valueStr, "default", defaultValue)
		return defaultValue
	}
	return value
}

// GetFloatEnv retrieves a float environment variable or returns a default value
func GetFloatEnv(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		slog.Warn("invalid float env value, using default", "key", key, "value", valueStr, "default", defaultValue)
		return defaultValue
	}
	return value
}

// GetBoolEnv retrieves a boolean environment variable or returns a default value
func GetBoolEnv(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		slog.Warn("invalid boolean env value, using default", "key", key, "value", valueStr, "default", defaultValue)
		return defaultValue
	}
	return value
}

// GetDurationEnv retrieves a duration environment variable ("30s", "5m") or returns a default value
func GetDurationEnv(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		slog.Warn("invalid duration env value, using default", "key", key, "value", valueStr, "default", defaultValue)
		return defaultValue
	}
	return value
}

// GetStringSliceEnv retrieves a comma-separated string list or returns a default value
func GetStringSliceEnv(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var result []string
	for _, part := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}
	return result
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func orDefaultInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

// ============================================================================
// Configuration Validation
// ============================================================================

// ValidateServiceConfig validates service configuration
func ValidateServiceConfig(config *ServiceConfig) error {
	if config.ServiceName == "" {
		return fmt.Errorf("service name is required")
	}
	if config.ServicePort == "" {
		return fmt.Errorf("service port is required")
	}
	if config.MongoDB.URI == "" {
		return fmt.Errorf("MongoDB URI is required")
	}
	if config.MongoDB.Database == "" {
		return fmt.Errorf("MongoDB database name is required")
	}
	if config.Security.OTPLength < 4 || config.Security.OTPLength > 10 {
		return fmt.Errorf("OTP length must be between 4 and 10, got %d", config.Security.OTPLength)
	}
	return nil
}

// ValidateGatewayConfig validates gateway configuration
func ValidateGatewayConfig(config *GatewayConfig) error {
	if err := ValidateServiceConfig(&config.ServiceConfig); err != nil {
		return err
	}
	if config.HTTPPort == "" {
		return fmt.Errorf("HTTP port is required")
	}
	if config.GradeServiceAddr == "" {
		return fmt.Errorf("grade service address is required")
	}
	if config.Security.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	return nil
}

// PrintConfig logs the configuration without secrets
func PrintConfig(config *ServiceConfig) {
	slog.Info("service configuration",
		"service", config.ServiceName,
		"port", config.ServicePort,
		"environment", config.Environment,
		"log_level", config.LogLevel,
		"mongo_database", config.MongoDB.Database,
		"mongo_max_pool", config.MongoDB.MaxPoolSize,
		"grpc_request_timeout", config.GRPC.RequestTimeout,
		"jwt_expiration_hours", config.Security.JWTExpirationHours,
		"otp_ttl", config.Security.OTPTTL,
		"sendgrid_enabled", config.Mail.SendGridAPIKey != "",
		"rollbar_enabled", config.Reporting.RollbarToken != "",
	)
}

// PrintGatewayConfig logs the gateway configuration without secrets
func PrintGatewayConfig(config *GatewayConfig) {
	PrintConfig(&config.ServiceConfig)
	slog.Info("gateway configuration",
		"http_port", config.HTTPPort,
		"grade_service", config.GradeServiceAddr,
		"public_url", config.PublicURL,
		"cors_origins", config.CORS.AllowedOrigins,
	)
}

// ============================================================================
// Default Port Mapping
// ============================================================================

const (
	DefaultGatewayHTTPPort  = "8080"
	DefaultGradeServicePort = "50054"
)

// GetServicePort returns the default port for a service
func GetServicePort(serviceName string) string {
	switch serviceName {
	case "gateway":
		return DefaultGatewayHTTPPort
	case "grade-service":
		return DefaultGradeServicePort
	}
	return "50051"
}

// ============================================================================
// Configuration File Support (Optional)
// ============================================================================

// ConfigFile is the optional YAML configuration file
type ConfigFile struct {
	Service  ServiceFileConfig  `yaml:"service"`
	MongoDB  MongoFileConfig    `yaml:"mongodb"`
	Security SecurityFileConfig `yaml:"security"`
	Mail     MailFileConfig     `yaml:"mail"`
}

// ServiceFileConfig represents service config in file
type ServiceFileConfig struct {
	Port        string `yaml:"port"`
	Environment string `yaml:"environment"`
	LogLevel    string `yaml:"log_level"`
}

// MongoFileConfig represents MongoDB config in file
type MongoFileConfig struct {
	URI         string `yaml:"uri"`
	Database    string `yaml:"database"`
	MaxPoolSize int    `yaml:"max_pool_size"`
	MinPoolSize int    `yaml:"min_pool_size"`
}

// SecurityFileConfig represents security config in file
type SecurityFileConfig struct {
	JWTExpirationHours int `yaml:"jwt_expiration_hours"`
	BCryptCost         int `yaml:"bcrypt_cost"`
}

// MailFileConfig represents mail config in file
type MailFileConfig struct {
	FromEmail string `yaml:"from_email"`
	FromName  string `yaml:"from_name"`
}

// ReadConfigFile parses a YAML config file. An empty path yields an empty config.
func ReadConfigFile(path string) (*ConfigFile, error) {
	cfg := &ConfigFile{}
	if path == "" {
		return cfg, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

// ============================================================================
// Environment-Specific Configuration
// ============================================================================

// IsDevelopment checks if running in development environment
func IsDevelopment(config *ServiceConfig) bool {
	return config.Environment == "development"
}

// IsProduction checks if running in production environment
func IsProduction(config *ServiceConfig) bool {
	return config.Environment == "production"
}
