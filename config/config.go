package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config armazena todas as configurações do serviço.
// Os campos são agrupados por recurso (DB, Cache, Segurança, Robustez).
type Config struct {
	// Geral
	Port        string
	Environment string
	LogLevel    string

	// Banco de Dados (PostgreSQL)
	DatabaseURL string
	DBTimeout   time.Duration // timeout por comando SQL
	TxTimeout   time.Duration // tempo máximo de vida de uma transação

	// Cache (Redis)
	RedisAddr    string
	CacheTimeout time.Duration
	CacheTTL     time.Duration

	// Segurança (JWT)
	JWTSecretKey string
	TokenExpiry  time.Duration

	// Administrador inicial (opcional)
	AdminEmail    string
	AdminPassword string

	// Rate Limiting
	RateLimitMaxRequests int
	RateLimitPeriod      time.Duration
}

// LoadConfig carrega as configurações a partir das variáveis de ambiente.
// O .env (se existir) já foi carregado pelo godotenv no main; o viper só lê o ambiente.
func LoadConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		// 1. Geral
		Port:        v.GetString("PORT"),
		Environment: v.GetString("ENV"),
		LogLevel:    v.GetString("LOG_LEVEL"),

		// 2. Banco de Dados (PostgreSQL)
		// mustGet garante que a aplicação não inicie sem credenciais de DB
		DatabaseURL: mustGet(v, "DATABASE_URL"),
		DBTimeout:   seconds(v, "DB_TIMEOUT_SEC"),
		TxTimeout:   seconds(v, "DB_TX_TIMEOUT_SEC"),

		// 3. Cache (Redis)
		RedisAddr:    v.GetString("REDIS_ADDR"),
		CacheTimeout: seconds(v, "CACHE_TIMEOUT_SEC"),
		CacheTTL:     seconds(v, "CACHE_TTL_SEC"),

		// 4. Segurança (JWT)
		JWTSecretKey: mustGet(v, "JWT_SECRET_KEY"),
		TokenExpiry:  time.Duration(v.GetInt("JWT_EXPIRY_MIN")) * time.Minute,

		AdminEmail:    v.GetString("ADMIN_EMAIL"),
		AdminPassword: v.GetString("ADMIN_PASSWORD"),

		// 5. Rate Limiting
		RateLimitMaxRequests: v.GetInt("RATE_LIMIT_MAX_REQUESTS"),
		RateLimitPeriod:      seconds(v, "RATE_LIMIT_PERIOD_SEC"),
	}

	return cfg
}

// LoadDatabaseURL lê apenas a DSN; usado pelo CLI de migração, que não precisa do resto.
func LoadDatabaseURL() string {
	v := viper.New()
	v.AutomaticEnv()
	return mustGet(v, "DATABASE_URL")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_TIMEOUT_SEC", 5)
	v.SetDefault("DB_TX_TIMEOUT_SEC", 15)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("CACHE_TIMEOUT_SEC", 2)
	v.SetDefault("CACHE_TTL_SEC", 60)
	v.SetDefault("JWT_EXPIRY_MIN", 60)
	v.SetDefault("RATE_LIMIT_MAX_REQUESTS", 100)
	v.SetDefault("RATE_LIMIT_PERIOD_SEC", 1)
}

// mustGet lê a variável de ambiente, fatal se não estiver presente.
func mustGet(v *viper.Viper, key string) string {
	value := v.GetString(key)
	if value == "" {
		log.Fatalf("❌ Erro de Configuração: A variável de ambiente %s deve ser definida.", key)
	}
	return value
}

// seconds lê uma variável numérica (em segundos) e a converte para time.Duration.
func seconds(v *viper.Viper, key string) time.Duration {
	n := v.GetInt(key)
	if n <= 0 {
		log.Printf("⚠️ Aviso: Valor de %s ('%s') não é um inteiro positivo. Usando 1s.", key, v.GetString(key))
		n = 1
	}
	return time.Duration(n) * time.Second
}
