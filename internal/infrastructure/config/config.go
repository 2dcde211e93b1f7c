package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config アプリケーション全体の設定
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	SQLite        SQLiteConfig
	Save          SaveConfig
	JWT           JWTConfig
	AdminAPI      AdminAPIConfig
	OpenTelemetry OpenTelemetryConfig
	Economy       EconomyConfig
	Environment   string
	LogLevel      string
}

// ServerConfig サーバー設定
type ServerConfig struct {
	Port         int
	GRPCPort     int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig データベース設定
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// SQLiteConfig ローカル保存用SQLite設定
type SQLiteConfig struct {
	Path string
}

// SaveBackend セーブスロットの保存先
type SaveBackend string

const (
	SaveBackendMySQL  SaveBackend = "mysql"
	SaveBackendSQLite SaveBackend = "sqlite"
)

// SaveConfig セーブデータ設定
type SaveConfig struct {
	Backend SaveBackend
}

// JWTConfig JWT設定
type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

// AdminAPIConfig 管理API（スペシャル編集・開発メニュー・セーブ）設定
type AdminAPIConfig struct {
	Enabled    bool
	APIKey     string
	AllowedIPs []string
}

// OpenTelemetryConfig OpenTelemetry設定
type OpenTelemetryConfig struct {
	Enabled         bool
	ServiceName     string
	ServiceVersion  string
	OTLPEndpoint    string
	OTLPInsecure    bool
	TraceExporter   string // "otlp", "stdout"
	MetricsExporter string // "otlp", "stdout"
	// TraceSampleRatio 親スパンを持たないトレースの採取率（0〜1）
	TraceSampleRatio float64
	// MetricInterval メトリクス送信間隔
	MetricInterval time.Duration
	// DeploymentEnvironment リソース属性 deployment.environment
	DeploymentEnvironment string
}

// EconomyConfig 価格計算・開発ツール設定
type EconomyConfig struct {
	PriceFloor      int64  // 実効価格の下限
	PriceCeiling    int64  // 実効価格の上限。0は上限なし
	PriceCacheSize  int    // 価格キャッシュの最大件数
	CatalogPath     string // アイテムカタログ(TOML)のパス
	DevToolsEnabled bool   // 開発メニューにスペシャル作成ツールを登録するか
}

// Load 設定を読み込む
func Load() (*Config, error) {
	// .envファイルを読み込む（存在しない場合は無視）
	_ = godotenv.Load()

	env := getEnv("ENVIRONMENT", "development")
	port := getEnvAsInt("SERVER_PORT", 8080)

	cfg := &Config{
		Environment: env,
		LogLevel:    getEnv("LOG_LEVEL", defaultLogLevel(env)),
		Server: ServerConfig{
			Port:         port,
			GRPCPort:     getEnvAsInt("GRPC_PORT", port+1),
			ReadTimeout:  getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:  getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 3306),
			User:            getEnv("DB_USER", "root"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "shop_economy"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 10*time.Minute),
		},
		SQLite: SQLiteConfig{
			Path: getEnv("SQLITE_PATH", "saves.db"),
		},
		Save: SaveConfig{
			Backend: SaveBackend(getEnv("SAVE_BACKEND", string(SaveBackendSQLite))),
		},
		JWT: JWTConfig{
			Secret:     getEnv("JWT_SECRET", ""),
			Expiration: getEnvAsDuration("JWT_EXPIRATION", 24*time.Hour),
			Issuer:     getEnv("JWT_ISSUER", "shop-economy"),
		},
		AdminAPI: AdminAPIConfig{
			Enabled:    getEnvAsBool("ADMIN_API_ENABLED", false),
			APIKey:     getEnv("ADMIN_API_KEY", ""),
			AllowedIPs: getEnvAsList("ADMIN_API_ALLOWED_IPS"),
		},
		OpenTelemetry: OpenTelemetryConfig{
			Enabled:         getEnvAsBool("OTEL_ENABLED", true),
			ServiceName:     getEnv("OTEL_SERVICE_NAME", "shop-economy"),
			ServiceVersion:  getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			OTLPEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4318"),
			OTLPInsecure:    getEnvAsBool("OTEL_EXPORTER_OTLP_INSECURE", true),
			TraceExporter:   getEnv("OTEL_TRACES_EXPORTER", "otlp"),
			MetricsExporter: getEnv("OTEL_METRICS_EXPORTER", "otlp"),

			// 価格照会は高頻度なので本番では採取率を下げる想定
			TraceSampleRatio:      getEnvAsFloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
			MetricInterval:        getEnvAsDuration("OTEL_METRIC_EXPORT_INTERVAL", 30*time.Second),
			DeploymentEnvironment: env,
		},
		Economy: EconomyConfig{
			PriceFloor:      getEnvAsInt64("ECONOMY_PRICE_FLOOR", 1),
			PriceCeiling:    getEnvAsInt64("ECONOMY_PRICE_CEILING", 0),
			PriceCacheSize:  getEnvAsInt("ECONOMY_PRICE_CACHE_SIZE", 4096),
			CatalogPath:     getEnv("ECONOMY_CATALOG_PATH", "items.toml"),
			DevToolsEnabled: getEnvAsBool("ECONOMY_DEVTOOLS_ENABLED", env == "development"),
		},
	}

	// 必須設定の検証
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate 設定の検証
func (c *Config) validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.Save.Backend {
	case SaveBackendMySQL:
		if c.Database.Host == "" || c.Database.Database == "" {
			return fmt.Errorf("DB_HOST and DB_NAME are required for the mysql save backend")
		}
	case SaveBackendSQLite:
		if c.SQLite.Path == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite save backend")
		}
	default:
		return fmt.Errorf("SAVE_BACKEND must be mysql or sqlite, got %q", c.Save.Backend)
	}
	if c.AdminAPI.Enabled && c.AdminAPI.APIKey == "" {
		return fmt.Errorf("ADMIN_API_KEY is required when the admin API is enabled")
	}
	if r := c.OpenTelemetry.TraceSampleRatio; r < 0 || r > 1 {
		return fmt.Errorf("OTEL_TRACES_SAMPLER_ARG must be between 0 and 1, got %v", r)
	}
	if c.Economy.PriceFloor < 0 {
		return fmt.Errorf("ECONOMY_PRICE_FLOOR must not be negative")
	}
	if c.Economy.PriceCeiling != 0 && c.Economy.PriceCeiling < c.Economy.PriceFloor {
		return fmt.Errorf("ECONOMY_PRICE_CEILING must be 0 or at least ECONOMY_PRICE_FLOOR")
	}
	if c.Economy.PriceCacheSize <= 0 {
		return fmt.Errorf("ECONOMY_PRICE_CACHE_SIZE must be positive")
	}
	return nil
}

// DSN データベース接続文字列を返す
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// DSN SQLite接続文字列を返す
func (c *SQLiteConfig) DSN() string {
	return "file:" + c.Path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// AllowsIP ipが許可リスト（単一IPまたはCIDR）に含まれているか
func (c *AdminAPIConfig) AllowsIP(ip string) bool {
	parsed := net.ParseIP(ip)
	for _, allowed := range c.AllowedIPs {
		if strings.Contains(allowed, "/") {
			_, network, err := net.ParseCIDR(allowed)
			if err == nil && parsed != nil && network.Contains(parsed) {
				return true
			}
			continue
		}
		if ip == allowed {
			return true
		}
		if other := net.ParseIP(allowed); other != nil && parsed != nil && other.Equal(parsed) {
			return true
		}
	}
	return false
}

// defaultLogLevel 開発環境ではDEBUGまで出す
func defaultLogLevel(env string) string {
	if env == "development" {
		return "DEBUG"
	}
	return "INFO"
}

// getEnv 環境変数を取得（デフォルト値付き）
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt 環境変数を整数として取得
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsInt64 環境変数を64bit整数として取得
func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat 環境変数を浮動小数点数として取得
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool 環境変数を真偽値として取得
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration 環境変数を時間として取得
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsList カンマ区切りの環境変数をリストとして取得
func getEnvAsList(key string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return nil
	}
	var out []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
