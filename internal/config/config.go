package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

type Config struct {
	App struct {
		Port        string   `mapstructure:"port"`
		Env         string   `mapstructure:"env"`
		CORSOrigins []string `mapstructure:"cors_origins"`
	} `mapstructure:"app"`
	DB struct {
		Driver string `mapstructure:"driver"`
		DSN    string `mapstructure:"dsn"`
	} `mapstructure:"db"`
	Mongo struct {
		URI      string `mapstructure:"uri"`
		Database string `mapstructure:"database"`
	} `mapstructure:"mongo"`
	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
	} `mapstructure:"redis"`
	Kafka struct {
		Brokers []string `mapstructure:"brokers"`
		Topic   string   `mapstructure:"topic"`
	} `mapstructure:"kafka"`
	Auth struct {
		JWTSecret     string        `mapstructure:"jwt_secret"`
		TokenLifespan time.Duration `mapstructure:"token_lifespan"`
		Header        string        `mapstructure:"header"`
	} `mapstructure:"auth"`
	Github struct {
		BaseURL      string        `mapstructure:"base_url"`
		ClientID     string        `mapstructure:"client_id"`
		ClientSecret string        `mapstructure:"client_secret"`
		Timeout      time.Duration `mapstructure:"timeout"`
	} `mapstructure:"github"`
	Jaeger struct {
		OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	} `mapstructure:"jaeger"`
}

// LoadConfig reads config.yaml from paths (default: the working directory),
// then overlays .env and process environment variables.
func LoadConfig(paths ...string) (cfg Config, err error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}

	if err = godotenv.Load(); err != nil {
		log.Println("warning: .env file not found, use default.")
	}

	v := viper.New()
	setDefaults(v)

	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if err = v.ReadInConfig(); err != nil {
		log.Printf("note: config.yaml not found, read env only. Error: %v", err)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindings := map[string]string{
		"app.port":             "APP_PORT",
		"app.env":              "APP_ENV",
		"app.cors_origins":     "CORS_ORIGINS",
		"db.driver":            "DB_DRIVER",
		"db.dsn":               "DB_DSN",
		"mongo.uri":            "MONGO_URI",
		"mongo.database":       "MONGO_DATABASE",
		"redis.addr":           "REDIS_ADDR",
		"redis.password":       "REDIS_PASSWORD",
		"kafka.brokers":        "KAFKA_BROKERS",
		"kafka.topic":          "KAFKA_TOPIC",
		"auth.jwt_secret":      "JWT_SECRET",
		"auth.token_lifespan":  "TOKEN_LIFESPAN",
		"auth.header":          "AUTH_HEADER",
		"github.base_url":      "GITHUB_BASE_URL",
		"github.client_id":     "GITHUB_CLIENT_ID",
		"github.client_secret": "GITHUB_SECRET",
		"github.timeout":       "GITHUB_TIMEOUT",
		"jaeger.otlp_endpoint": "OTLP_ENDPOINT",
	}
	for key, env := range bindings {
		if err = v.BindEnv(key, env); err != nil {
			return
		}
	}

	err = v.Unmarshal(&cfg)
	return
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.port", "5000")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("db.driver", DriverPostgres)
	v.SetDefault("mongo.database", "devconnector")
	v.SetDefault("kafka.topic", "profile.events")
	v.SetDefault("auth.token_lifespan", 10*time.Hour)
	v.SetDefault("auth.header", "x-auth-token")
	v.SetDefault("github.base_url", "https://api.github.com")
	v.SetDefault("github.timeout", 10*time.Second)
}
