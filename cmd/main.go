package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"stockledger/config"
	_ "stockledger/docs" // registra a especificação Swagger
	"stockledger/internal/pkg/cache"
	"stockledger/internal/pkg/database"
	"stockledger/internal/pkg/logger"
	"stockledger/internal/pkg/metrics"
	"stockledger/internal/pkg/token"

	"stockledger/internal/api/inquiry"
	"stockledger/internal/api/inventory"
	"stockledger/internal/api/product"
	"stockledger/internal/api/router"
	"stockledger/internal/api/shipment"
	"stockledger/internal/api/user"
	"stockledger/internal/repository/inquiryrepo"
	"stockledger/internal/repository/inventoryrepo"
	"stockledger/internal/repository/productrepo"
	"stockledger/internal/repository/shipmentrepo"
	"stockledger/internal/repository/userrepo"
	"stockledger/internal/service/inquiryservice"
	"stockledger/internal/service/inventoryservice"
	"stockledger/internal/service/productservice"
	"stockledger/internal/service/shipmentservice"
	"stockledger/internal/service/userservice"
)

func main() {
	// 0. CARREGAR VARIÁVEIS DE AMBIENTE (.env)
	// Sem .env seguimos só com o ambiente do sistema (ex: Docker).
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ Aviso: Arquivo .env não encontrado ou erro de leitura. Carregando configs apenas do ambiente do sistema.")
	}

	// 1. Configuração e Logger
	cfg := config.LoadConfig()
	var appLog logger.Logger
	if cfg.Environment == "development" {
		appLog = logger.NewConsoleLogger(cfg.LogLevel)
	} else {
		appLog = logger.NewLogger(cfg.LogLevel)
	}
	appLog.Info("⚡ Inicializando serviço stockledger...", map[string]interface{}{"env": cfg.Environment})

	ctx := context.Background()

	// 2. Conexão com Recursos de Infraestrutura

	// A. Banco de Dados (PostgreSQL)
	db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL, database.DefaultPool)
	if err != nil {
		appLog.Fatal("Falha ao conectar ao banco de dados.", err)
	}
	defer db.Close()
	appLog.Info("Conexão PostgreSQL estabelecida.", nil)

	// B. Cache (Redis) atrás do circuit breaker; sem REDIS_ADDR o cache fica desligado.
	var cacheClient cache.Client = cache.NopClient{}
	if cfg.RedisAddr != "" {
		redisClient, err := cache.NewRedisClient(ctx, cfg.RedisAddr)
		if err != nil {
			appLog.Warn("Redis indisponível na subida; o breaker abre até ele voltar.", map[string]interface{}{"addr": cfg.RedisAddr, "error": err.Error()})
		} else {
			appLog.Info("Conexão Redis estabelecida.", map[string]interface{}{"addr": cfg.RedisAddr})
		}
		defer redisClient.Close()
		cacheClient = cache.NewBreakerClient(redisClient, cfg.CacheTimeout, appLog)
	}

	m := metrics.New("stockledger")
	txManager := database.NewTxManager(db, cfg.TxTimeout, appLog)

	// 3. INJEÇÃO DE DEPENDÊNCIAS
	// Ordem: Repository -> Service -> Handler

	// A. Repositórios
	inventoryRepo := inventoryrepo.NewInventoryRepository(db, cfg.DBTimeout, appLog)
	shipmentRepo := shipmentrepo.NewShipmentRepository(db, cfg.DBTimeout, appLog)
	productRepo := productrepo.NewProductRepository(db, cacheClient, cfg.DBTimeout, cfg.CacheTTL, m, appLog)
	userRepo := userrepo.NewUserRepository(db, cfg.DBTimeout, appLog)
	inquiryRepo := inquiryrepo.NewInquiryRepository(db, cfg.DBTimeout, appLog)

	// B. Serviços
	groupedView := inventoryservice.NewGroupedView(inventoryRepo, cacheClient, cfg.CacheTTL, m, appLog)
	inventorySvc := inventoryservice.NewService(txManager, inventoryRepo, shipmentRepo, groupedView, m, appLog)
	shipmentSvc := shipmentservice.NewService(txManager, shipmentRepo, inventoryRepo, groupedView, m, appLog)
	productSvc := productservice.NewService(productRepo, appLog)
	tokenSvc := token.NewService(cfg.JWTSecretKey, cfg.TokenExpiry)
	userSvc := userservice.NewService(userRepo, tokenSvc, appLog)
	inquirySvc := inquiryservice.NewService(inquiryRepo, productRepo, appLog)

	if cfg.AdminEmail != "" {
		if err := userSvc.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			appLog.Fatal("Falha ao garantir o administrador inicial.", err)
		}
		appLog.Info("Administrador inicial garantido.", map[string]interface{}{"email": cfg.AdminEmail})
	}

	// C. Handlers e Roteador
	handler := router.NewRouter(router.Handlers{
		Product:   product.NewHandler(productSvc, appLog),
		User:      user.NewHandler(userSvc, appLog),
		Inventory: inventory.NewHandler(inventorySvc, appLog),
		Shipment:  shipment.NewHandler(shipmentSvc, appLog),
		Inquiry:   inquiry.NewHandler(inquirySvc, appLog),
	}, router.Options{
		Tokens:          tokenSvc,
		Cache:           cacheClient,
		Metrics:         m,
		Logger:          appLog,
		RateLimit:       cfg.RateLimitMaxRequests,
		RateLimitPeriod: cfg.RateLimitPeriod,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 4. Execução e Graceful Shutdown
	go func() {
		appLog.Info("Servidor stockledger ouvindo na porta", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal("Servidor falhou.", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	appLog.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLog.Error("Desligamento do servidor forçado.", err)
	}

	appLog.Info("Servidor encerrado com sucesso.", nil)
}
