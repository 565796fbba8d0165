package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/goccy/go-yaml"
)

type ServerConfig struct {
	Addr string `yaml:"addr"`
	Mode string `yaml:"mode"` // gin 的 debug / release
}

type MySQLConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type JWTConfig struct {
	AccessSecret  string `yaml:"access_secret"`
	RefreshSecret string `yaml:"refresh_secret"`
}

type ModerationConfig struct {
	ReportTTLDays    int `yaml:"report_ttl_days"`    // 举报保留天数，超过即被清理
	SweepIntervalSec int `yaml:"sweep_interval_sec"` // 清理任务周期
}

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	MySQL      MySQLConfig      `yaml:"mysql"`
	Redis      RedisConfig      `yaml:"redis"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	SMTP       SMTPConfig       `yaml:"smtp"`
	JWT        JWTConfig        `yaml:"jwt"`
	Moderation ModerationConfig `yaml:"moderation"`
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080", Mode: "release"},
		Redis:  RedisConfig{Addr: "127.0.0.1:6379"},
		Moderation: ModerationConfig{
			ReportTTLDays:    10,
			SweepIntervalSec: 3600,
		},
	}
}

// Load 读 yaml 配置文件，环境变量覆盖敏感项。path 为空只用默认值+环境变量。
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(raw, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	applyEnv(cfg)

	if cfg.Moderation.ReportTTLDays <= 0 {
		cfg.Moderation.ReportTTLDays = 10
	}
	if cfg.Moderation.SweepIntervalSec <= 0 {
		cfg.Moderation.SweepIntervalSec = 3600
	}
	return cfg, nil
}

// 环境变量优先于文件，密钥类配置建议只走环境变量
func applyEnv(cfg *Config) {
	if v := os.Getenv("MYSQL_DSN"); v != "" {
		cfg.MySQL.DSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("JWT_ACCESS_SECRET"); v != "" {
		cfg.JWT.AccessSecret = v
	}
	if v := os.Getenv("JWT_REFRESH_SECRET"); v != "" {
		cfg.JWT.RefreshSecret = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		cfg.SMTP.Password = v
	}
	if v := os.Getenv("REPORT_TTL_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Moderation.ReportTTLDays = n
		}
	}
}

func (c *Config) ReportTTL() time.Duration {
	return time.Duration(c.Moderation.ReportTTLDays) * 24 * time.Hour
}

func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Moderation.SweepIntervalSec) * time.Second
}
