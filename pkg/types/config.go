package types

import "time"

// AppConfig is the root configuration for the hookified gateway.
type AppConfig struct {
	DebugMode  bool `key:"debugMode" json:"debug_mode"`
	PrettyLogs bool `key:"prettyLogs" json:"pretty_logs"`

	Database DatabaseConfig `key:"database" json:"database"`
	Gateway  GatewayConfig  `key:"gateway" json:"gateway"`
	Cron     CronConfig     `key:"cron" json:"cron"`
	Onchain  OnchainConfig  `key:"onchain" json:"onchain"`
	Telegram TelegramConfig `key:"telegram" json:"telegram"`
	Executor ExecutorConfig `key:"executor" json:"executor"`
}

// ----------------------------------------------------------------------------
// Database Configuration
// ----------------------------------------------------------------------------

type DatabaseConfig struct {
	Redis    RedisConfig    `key:"redis" json:"redis"`
	Postgres PostgresConfig `key:"postgres" json:"postgres"`
}

type RedisConfig struct {
	Addrs        []string      `key:"addrs" json:"addrs"`
	Username     string        `key:"username" json:"username"`
	Password     string        `key:"password" json:"password"`
	ClientName   string        `key:"clientName" json:"client_name"`
	PoolSize     int           `key:"poolSize" json:"pool_size"`
	MinIdleConns int           `key:"minIdleConns" json:"min_idle_conns"`
	DialTimeout  time.Duration `key:"dialTimeout" json:"dial_timeout"`
	ReadTimeout  time.Duration `key:"readTimeout" json:"read_timeout"`
	WriteTimeout time.Duration `key:"writeTimeout" json:"write_timeout"`
	MaxRetries   int           `key:"maxRetries" json:"max_retries"`
}

type PostgresConfig struct {
	Host            string        `key:"host" json:"host"`
	Port            int           `key:"port" json:"port"`
	User            string        `key:"user" json:"user"`
	Password        string        `key:"password" json:"password"`
	Database        string        `key:"database" json:"database"`
	SSLMode         string        `key:"sslMode" json:"ssl_mode"`
	MaxOpenConns    int           `key:"maxOpenConns" json:"max_open_conns"`
	MaxIdleConns    int           `key:"maxIdleConns" json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `key:"connMaxLifetime" json:"conn_max_lifetime"`
}

// ----------------------------------------------------------------------------
// Gateway Configuration
// ----------------------------------------------------------------------------

type GatewayConfig struct {
	HTTP            HTTPConfig    `key:"http" json:"http"`
	ShutdownTimeout time.Duration `key:"shutdownTimeout" json:"shutdown_timeout"`
	JWTSecret       string        `key:"jwtSecret" json:"jwt_secret"`
	// PublicBaseURL is the externally reachable base URL, used when
	// registering scheduler jobs and provider webhooks that call back in.
	PublicBaseURL string `key:"publicBaseUrl" json:"public_base_url"`
}

type HTTPConfig struct {
	Host             string     `key:"host" json:"host"`
	Port             int        `key:"port" json:"port"`
	EnablePrettyLogs bool       `key:"enablePrettyLogs" json:"enable_pretty_logs"`
	CORS             CORSConfig `key:"cors" json:"cors"`
}

type CORSConfig struct {
	AllowedOrigins []string `key:"allowOrigins" json:"allow_origins"`
	AllowedMethods []string `key:"allowMethods" json:"allow_methods"`
	AllowedHeaders []string `key:"allowHeaders" json:"allow_headers"`
}

// ----------------------------------------------------------------------------
// Engine Configuration
// ----------------------------------------------------------------------------

// CronConfig configures the scheduler bridge. Secret is the shared value
// scheduled jobs present on the execution endpoint.
type CronConfig struct {
	Secret        string        `key:"secret" json:"secret"`
	JobPrefix     string        `key:"jobPrefix" json:"job_prefix"`
	SetupCacheTTL time.Duration `key:"setupCacheTtl" json:"setup_cache_ttl"`
}

// OnchainConfig configures the log-notification provider (Alchemy Notify).
type OnchainConfig struct {
	AuthToken     string `key:"authToken" json:"auth_token"`
	DashboardURL  string `key:"dashboardUrl" json:"dashboard_url"` // override for tests
	SigningKey    string `key:"signingKey" json:"signing_key"`
	DedupeWindowS int    `key:"dedupeWindowS" json:"dedupe_window_s"`
}

type TelegramConfig struct {
	BotToken string `key:"botToken" json:"bot_token"`
	APIBase  string `key:"apiBase" json:"api_base"` // override for tests
}

// ExecutorConfig bounds the async firing pool and per-action calls.
type ExecutorConfig struct {
	Workers       int           `key:"workers" json:"workers"`
	QueueSize     int           `key:"queueSize" json:"queue_size"`
	ActionTimeout time.Duration `key:"actionTimeout" json:"action_timeout"`
	MaxChainDepth int           `key:"maxChainDepth" json:"max_chain_depth"`
}
