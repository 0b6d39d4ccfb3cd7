package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/AnshRaj112/brift-backend/internal/auth"
	"github.com/AnshRaj112/brift-backend/internal/config"
	"github.com/AnshRaj112/brift-backend/internal/database"
	"github.com/AnshRaj112/brift-backend/internal/docstore"
	"github.com/AnshRaj112/brift-backend/internal/handlers"
	"github.com/AnshRaj112/brift-backend/internal/logger"
	"github.com/AnshRaj112/brift-backend/internal/middleware"
	"github.com/AnshRaj112/brift-backend/internal/routes"
	"github.com/AnshRaj112/brift-backend/internal/services"
	"github.com/AnshRaj112/brift-backend/pkg/clientip"
	"github.com/AnshRaj112/brift-backend/pkg/utils"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	appLog := logger.New(logger.Config{
		Level:     logger.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: logger.ComponentApp,
	})
	logger.SetDefault(appLog)

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	cipher, err := utils.NewCipher(cfg.EncryptionKey)
	if err != nil {
		log.Fatalf("Invalid ENCRYPTION_KEY: %v", err)
	}
	log.Println("✅ Encryption key configured")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := openStore(ctx, cfg)
	defer database.Disconnect()

	// Redis is optional: cache, sessions, shared rate limit and notification fan-out
	var (
		cache    *services.CacheService
		sessions *services.SessionStore
		limiter  *middleware.RedisRateLimiter
	)
	if cfg.RedisURI != "" {
		log.Printf("Connecting to Redis...")
		if err := database.ConnectRedis(cfg.RedisURI); err != nil {
			log.Printf("⚠️  WARNING: Redis unavailable, continuing without cache and sessions: %v", err)
		} else {
			defer database.DisconnectRedis()
			cache = services.NewCacheService(database.RedisClient, cfg.SpendingCacheTTL, appLog)
			sessions = services.NewSessionStore(database.RedisClient)
			limiter = middleware.NewRedisRateLimiter(database.RedisClient, appLog)
		}
	} else {
		log.Println("Warning: REDIS_URI not set. Spending cache and token revocation are disabled")
	}
	hub := services.NewNotificationHub(database.RedisClient, appLog)
	hub.Start(ctx)

	// PostgreSQL is optional: audit trail
	var audit *services.AuditLog
	if cfg.PostgresURI != "" {
		log.Printf("Connecting to PostgreSQL...")
		if err := database.ConnectPostgres(cfg.PostgresURI); err != nil {
			log.Printf("⚠️  WARNING: PostgreSQL unavailable, audit trail disabled: %v", err)
		} else {
			defer database.DisconnectPostgres()
			audit = services.NewAuditLog(database.PostgresDB, appLog)
			defer audit.Close()
		}
	}

	hooks := services.Hooks{Notifier: hub}
	if audit != nil {
		hooks.Audit = audit
	}
	if cache != nil {
		hooks.Spending = cache
	}

	entities := services.NewEntityService(store, hooks, appLog)
	users := services.NewUserService(store, cipher, hooks, appLog)

	var spendingCache services.SpendingCache
	if cache != nil {
		spendingCache = cache
	}
	spending := services.NewSpendingAggregator(store, spendingCache, appLog)

	var assistant services.Assistant
	if cfg.GeminiAPIKey != "" {
		gemini, err := services.NewGeminiAssistant(ctx, services.GeminiConfig{
			APIKey:     cfg.GeminiAPIKey,
			Model:      cfg.GeminiModel,
			HTTPClient: &http.Client{Timeout: 30 * time.Second},
		}, appLog)
		if err != nil {
			log.Printf("⚠️  WARNING: Gemini assistant disabled: %v", err)
		} else {
			assistant = gemini
			log.Println("✅ Gemini assistant configured")
		}
	} else {
		log.Println("Warning: GEMINI_API_KEY not set. /dashboard/qna will not be available")
	}

	defaultLoc, _ := time.LoadLocation(cfg.DefaultTimezone)
	dashboard := services.NewDashboardService(entities, users, spending, assistant, defaultLoc)

	var uploader services.Uploader
	if cfg.CloudinaryEnabled() {
		cld, err := services.NewCloudinaryService(cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			log.Printf("Warning: Failed to initialize Cloudinary: %v", err)
		} else {
			uploader = cld
			log.Println("✅ Cloudinary service initialized")
		}
	} else {
		log.Println("Warning: Cloudinary credentials not found. Receipt uploads will not be available")
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, "brift", cfg.AccessTokenExpiry)
	var validator auth.SessionValidator
	if sessions != nil {
		validator = sessions
	}

	h := handlers.New(handlers.Deps{
		Entities:      entities,
		Users:         users,
		Dashboard:     dashboard,
		Receipts:      services.NewReceiptService(uploader, entities),
		Sessions:      sessions,
		Hub:           hub,
		Tokens:        tokens,
		Authenticator: auth.NewAuthenticator(tokens, validator, appLog),
		StoreTimeout:  cfg.StoreTimeout,
		Log:           appLog,
	})

	// Setup router
	ips := clientip.Resolver{TrustProxy: cfg.TrustProxy}
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(logger.RequestLogger(appLog, ips.ClientIP))
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(services.WithClientIP(r.Context(), ips.ClientIP(r))))
		})
	})
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	opts := routes.Options{RequireAuth: cfg.RequireAuth}
	// Production: SecurityHeaders → HostCheck → GlobalRateLimit → LoginRateLimit
	// Non-production: Redis-based rate limit on the data routes only
	if cfg.IsProduction() {
		for _, mw := range middleware.ProductionSecurity(cfg.AllowedHost) {
			r.Use(mw)
		}
		log.Println("✅ Production security enabled (security headers, host check, per-IP + login rate limiting)")
	} else if limiter != nil {
		opts.RateLimit = limiter.Middleware
	}

	routes.SetupRoutes(r, h, opts)
	if cfg.RequireAuth {
		log.Println("✅ Bearer tokens required on data routes")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("🚀 Brift backend running on :%s (store: %s)", cfg.Port, cfg.StoreBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server:", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
}

// openStore connects the configured document store backend.
func openStore(ctx context.Context, cfg *config.Config) docstore.Store {
	switch cfg.StoreBackend {
	case config.StoreFirebase:
		log.Printf("Connecting to Firebase Realtime Database at %s...", cfg.FirebaseURL)
		var tokens *docstore.TokenCache
		if cfg.FirebaseCredentialsFile != "" {
			creds, err := os.ReadFile(cfg.FirebaseCredentialsFile)
			if err != nil {
				log.Fatal("Failed to read Firebase credentials:", err)
			}
			tokens, err = docstore.NewServiceAccountTokenCache(ctx, creds)
			if err != nil {
				log.Fatal("Failed to load Firebase credentials:", err)
			}
		} else {
			log.Println("⚠️  WARNING: FIREBASE_CREDENTIALS_FILE not set. Requests are unauthenticated")
		}
		store, err := docstore.NewFirebaseStore(ctx, docstore.FirebaseConfig{
			URL:       cfg.FirebaseURL,
			ProjectID: cfg.FirebaseProjectID,
			Tokens:    tokens,
			Timeout:   cfg.StoreTimeout,
		})
		if err != nil {
			log.Fatal("Failed to initialize Firebase:", err)
		}
		log.Println("✅ Firebase Realtime Database client ready")
		return store

	case config.StoreMemory:
		log.Println("⚠️  WARNING: using the in-memory store. Data is lost on restart")
		return docstore.NewMemoryStore()

	default:
		log.Printf("Connecting to MongoDB...")
		if err := database.Connect(cfg.MongoURI, cfg.MongoDatabase); err != nil {
			log.Println("\nTroubleshooting tips:")
			log.Println("1. Check if your IP is whitelisted in MongoDB Atlas")
			log.Println("2. Verify your connection string format (should use mongodb+srv:// for Atlas)")
			log.Println("3. Ensure username and password are correct")
			log.Fatal("Failed to connect to MongoDB:", err)
		}
		store := docstore.NewMongoStore(database.DB)
		if err := store.EnsureIndexes(ctx); err != nil {
			log.Printf("⚠️  WARNING: failed to ensure MongoDB indexes: %v", err)
		} else {
			log.Println("✅ MongoDB indexes ensured")
		}
		return store
	}
}
