package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	DB        DBConfig        `mapstructure:"db"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWTConfig JWTConfig       `mapstructure:"jwt"`
	RabbitMQ  RabbitMQConfig  `mapstructure:"rabbitmq"`
	Carrier   CarrierConfig   `mapstructure:"carrier"`
	Refresh   RefreshConfig   `mapstructure:"refresh"`
	Order     OrderConfig     `mapstructure:"order"`
	SMS       SMSConfig       `mapstructure:"sms"`
	Log       LogConfig       `mapstructure:"log"`
	Media     MediaConfig     `mapstructure:"media"`
	Snowflake SnowflakeConfig `mapstructure:"snowflake"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DBConfig struct {
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// JWTConfig 令牌配置，TTL单位为小时
type JWTConfig struct {
	SecretKey       string `mapstructure:"secret_key"`
	AccessTokenTTL  int    `mapstructure:"access_token_ttl"`
	RefreshTokenTTL int    `mapstructure:"refresh_token_ttl"`
}

type RabbitMQConfig struct {
	URL           string `mapstructure:"url"`
	OrderExchange string `mapstructure:"order_exchange"`
}

// CarrierConfig 物流商查询接口配置
type CarrierConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// RefreshConfig 物流状态刷新任务配置
type RefreshConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Interval       time.Duration `mapstructure:"interval"`
	StaleAfter     time.Duration `mapstructure:"stale_after"`
	BatchSize      int           `mapstructure:"batch_size"`
	LockTTL        time.Duration `mapstructure:"lock_ttl"`
	PollConcurrent int           `mapstructure:"poll_concurrent"`
}

type OrderConfig struct {
	MaxNumberAttempts int `mapstructure:"max_number_attempts"`
}

// SMSConfig 阿里云短信配置，AccessKeyID为空时不发送
type SMSConfig struct {
	AccessKeyID     string   `mapstructure:"access_key_id"`
	AccessKeySecret string   `mapstructure:"access_key_secret"`
	Endpoint        string   `mapstructure:"endpoint"`
	SignName        string   `mapstructure:"sign_name"`
	TemplateCode    string   `mapstructure:"template_code"`
	AlertPhones     []string `mapstructure:"alert_phones"`
}

type LogConfig struct {
	Dir   string `mapstructure:"dir"`
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

type MediaConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type SnowflakeConfig struct {
	Node int64 `mapstructure:"node"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8088")
	v.SetDefault("server.mode", "release")
	v.SetDefault("db.dsn", "root:root@tcp(127.0.0.1:3306)/rto_engine?charset=utf8mb4&parseTime=True&loc=Local")
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("jwt.access_token_ttl", 24)
	v.SetDefault("jwt.refresh_token_ttl", 168)
	v.SetDefault("rabbitmq.order_exchange", "orders_exchange")
	v.SetDefault("carrier.timeout", 10*time.Second)
	v.SetDefault("refresh.enabled", false)
	v.SetDefault("refresh.interval", 5*time.Minute)
	v.SetDefault("refresh.stale_after", time.Hour)
	v.SetDefault("refresh.batch_size", 100)
	v.SetDefault("refresh.lock_ttl", 4*time.Minute)
	v.SetDefault("refresh.poll_concurrent", 4)
	v.SetDefault("order.max_number_attempts", 50)
	v.SetDefault("sms.endpoint", "dysmsapi.aliyuncs.com")
	v.SetDefault("log.dir", "./logs")
	v.SetDefault("log.file", "app.log")
	v.SetDefault("log.level", "info")
	v.SetDefault("snowflake.node", 1)
}

// Load 从config.yaml及RTO_前缀的环境变量读取配置，配置文件不存在时使用默认值
func Load() (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./")
	v.AddConfigPath("./config/")
	v.AddConfigPath("/etc/rto-engine/")

	v.SetEnvPrefix("RTO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}
