package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	pkgconfig "github.com/dnlflores/starter-ios-app-backend/pkg/config"
)

type Config struct {
	Server    ServerConfig
	WebSocket WebSocketConfig
	JWT       JWTConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Push      PushConfig
	Tokens    TokenConfig
	Internal  InternalConfig
	Log       LogConfig
}

type ServerConfig struct {
	Host             string
	Port             int
	AdvertiseAddress string `mapstructure:"advertise_address"`
}

type WebSocketConfig struct {
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
	SendBuffer     int           `mapstructure:"send_buffer"`
	// AuthTimeout closes connections that have not authenticated in time.
	// Zero disables the bound.
	AuthTimeout time.Duration `mapstructure:"auth_timeout"`
}

type JWTConfig struct {
	Secret        string
	Issuer        string
	RequireExpiry bool `mapstructure:"require_expiry"`
}

type DatabaseConfig struct {
	Driver          string
	DSN             string
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	FilePath        string `mapstructure:"file_path"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
	LogLevel        string `mapstructure:"log_level"`
}

type RedisConfig struct {
	Enabled           bool
	Address           string
	Password          string
	DB                int
	PresencePrefix    string        `mapstructure:"presence_prefix"`
	PresenceTTL       time.Duration `mapstructure:"presence_ttl"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	IdentityCacheTTL  time.Duration `mapstructure:"identity_cache_ttl"`
}

type KafkaConfig struct {
	Enabled         bool
	Brokers         string
	Topic           string
	GroupID         string `mapstructure:"group_id"`
	AutoOffsetReset string `mapstructure:"auto_offset_reset"`
}

type PushConfig struct {
	SendTimeout time.Duration `mapstructure:"send_timeout"`
	APNs        APNsConfig    `mapstructure:"apns"`
	FCM         FCMConfig     `mapstructure:"fcm"`
}

type APNsConfig struct {
	KeyPath    string `mapstructure:"key_path"`
	KeyID      string `mapstructure:"key_id"`
	TeamID     string `mapstructure:"team_id"`
	CertPath   string `mapstructure:"cert_path"`
	Passphrase string
	BundleID   string `mapstructure:"bundle_id"`
	Production bool
}

// Enabled reports whether enough APNs credentials are configured to build a client.
func (c APNsConfig) Enabled() bool {
	if c.BundleID == "" {
		return false
	}
	if c.KeyPath != "" && c.KeyID != "" && c.TeamID != "" {
		return true
	}
	return c.CertPath != ""
}

type FCMConfig struct {
	CredentialsFile string `mapstructure:"credentials_file"`
	ProjectID       string `mapstructure:"project_id"`
}

func (c FCMConfig) Enabled() bool {
	return c.CredentialsFile != ""
}

type TokenConfig struct {
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	MaxAgeDays      int           `mapstructure:"max_age_days"`
}

type InternalConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type LogConfig struct {
	Level  string
	Pretty bool
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "config")
	if err != nil {
		return nil, err
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	bindEnv(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.WebSocket.PingInterval = parseDuration(v, "websocket.ping_interval", 30*time.Second)
	cfg.WebSocket.PongWait = parseDuration(v, "websocket.pong_wait", 60*time.Second)
	cfg.WebSocket.WriteWait = parseDuration(v, "websocket.write_wait", 10*time.Second)
	cfg.WebSocket.AuthTimeout = parseDuration(v, "websocket.auth_timeout", 0)
	cfg.Redis.PresenceTTL = parseDuration(v, "redis.presence_ttl", 30*time.Second)
	cfg.Redis.HeartbeatInterval = parseDuration(v, "redis.heartbeat_interval", 10*time.Second)
	cfg.Redis.IdentityCacheTTL = parseDuration(v, "redis.identity_cache_ttl", 5*time.Minute)
	cfg.Push.SendTimeout = parseDuration(v, "push.send_timeout", 15*time.Second)
	cfg.Tokens.CleanupInterval = parseDuration(v, "tokens.cleanup_interval", 24*time.Hour)

	if cfg.Server.AdvertiseAddress == "" {
		cfg.Server.AdvertiseAddress = cfg.Server.Host
	}
	cfg.Kafka.Brokers = strings.TrimSpace(cfg.Kafka.Brokers)

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3001)
	v.SetDefault("server.advertise_address", "")
	v.SetDefault("websocket.ping_interval", "30s")
	v.SetDefault("websocket.pong_wait", "60s")
	v.SetDefault("websocket.write_wait", "10s")
	v.SetDefault("websocket.max_message_size", 4096)
	v.SetDefault("websocket.send_buffer", 256)
	v.SetDefault("websocket.auth_timeout", "0s")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "")
	v.SetDefault("jwt.require_expiry", false)
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "starter")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.file_path", "starter.db")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.conn_max_lifetime", 30)
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.presence_prefix", "presence:user")
	v.SetDefault("redis.presence_ttl", "30s")
	v.SetDefault("redis.heartbeat_interval", "10s")
	v.SetDefault("redis.identity_cache_ttl", "5m")
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", "localhost:9092")
	v.SetDefault("kafka.topic", "chat-events")
	v.SetDefault("kafka.group_id", "realtime-delivery")
	v.SetDefault("kafka.auto_offset_reset", "latest")
	v.SetDefault("push.send_timeout", "15s")
	v.SetDefault("push.apns.key_path", "")
	v.SetDefault("push.apns.key_id", "")
	v.SetDefault("push.apns.team_id", "")
	v.SetDefault("push.apns.cert_path", "")
	v.SetDefault("push.apns.passphrase", "")
	v.SetDefault("push.apns.bundle_id", "")
	v.SetDefault("push.apns.production", false)
	v.SetDefault("push.fcm.credentials_file", "")
	v.SetDefault("push.fcm.project_id", "")
	v.SetDefault("tokens.cleanup_interval", "24h")
	v.SetDefault("tokens.max_age_days", 30)
	v.SetDefault("internal.api_key", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
}

// Override from environment, using the variable names the REST layer already sets.
func bindEnv(v *viper.Viper) {
	v.BindEnv("server.port", "PORT")
	v.BindEnv("jwt.secret", "JWT_SECRET")
	v.BindEnv("database.dsn", "DATABASE_URL")
	v.BindEnv("redis.address", "REDIS_ADDRESS")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("kafka.topic", "KAFKA_TOPIC")
	v.BindEnv("push.apns.key_path", "APNS_KEY_PATH")
	v.BindEnv("push.apns.key_id", "APNS_KEY_ID")
	v.BindEnv("push.apns.team_id", "APNS_TEAM_ID")
	v.BindEnv("push.apns.cert_path", "APNS_CERT_PATH")
	v.BindEnv("push.apns.passphrase", "APNS_PASSPHRASE")
	v.BindEnv("push.apns.bundle_id", "APNS_BUNDLE_ID")
	v.BindEnv("push.fcm.credentials_file", "GOOGLE_APPLICATION_CREDENTIALS")
	v.BindEnv("internal.api_key", "INTERNAL_API_KEY")
}

func parseDuration(v *viper.Viper, key string, defaultVal time.Duration) time.Duration {
	str := v.GetString(key)
	d, err := time.ParseDuration(str)
	if err != nil {
		return defaultVal
	}
	return d
}
