package httpapi

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"time"

	"legal-contracts/internal/application/audit"
	"legal-contracts/internal/application/auth"
	"legal-contracts/internal/application/document"
	auditDomain "legal-contracts/internal/domain/audit"
	authDomain "legal-contracts/internal/domain/auth"
	docDomain "legal-contracts/internal/domain/document"
	"legal-contracts/internal/infra/memory"
	authinfra "legal-contracts/internal/infrastructure/auth"
	"legal-contracts/internal/infrastructure/config"
	"legal-contracts/internal/infrastructure/notify"
	"legal-contracts/internal/infrastructure/persistence/postgres"
	"legal-contracts/internal/infrastructure/ratelimit"
	"legal-contracts/internal/infrastructure/storage"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const seedTimeout = 5 * time.Second

// userStore 登入、換發與重設密碼共用的使用者存取。
type userStore interface {
	auth.UserRepository
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// Server 封裝 gin 路由與依賴。
type Server struct {
	engine    *gin.Engine
	cfg       config.Config
	db        *sql.DB
	store     *memory.Store
	users     userStore
	tokenSvc  *authinfra.JWTIssuer
	loginUC   *auth.LoginUseCase
	sessions  *auth.SessionService
	resetUC   *auth.PasswordResetUseCase
	profileUC *auth.ProfileUseCase
	documents *document.Service
	files     *storage.LocalStore
	recorder  *audit.Recorder
	limiter   *ratelimit.LoginLimiter
	sweeper   *auth.SessionSweeper
}

// NewServer 建立 API 伺服器；db 為 nil 時使用記憶體存儲並建立示範帳號，rdb 為 nil 時不限制登入次數。
func NewServer(cfg config.Config, db *sql.DB, rdb redis.UniversalClient) *Server {
	cfg = config.ApplyDefaults(cfg)

	store := memory.NewStore()
	var (
		users     userStore
		sessions  authDomain.SessionStore
		docs      docDomain.Repository
		auditRepo auditDomain.Repository
		statsRepo auth.StatsReader
	)
	if db != nil {
		authRepo := postgres.NewAuthRepo(db)
		users = authRepo
		sessions = postgres.NewSessionRepo(db)
		docs = postgres.NewDocumentRepo(db)
		auditRepo = postgres.NewAuditRepo(db)
		statsRepo = postgres.NewStatsRepo(db)

		ctx, cancel := context.WithTimeout(context.Background(), seedTimeout)
		defer cancel()
		if err := authRepo.SeedDefaults(ctx, authinfra.HashPassword); err != nil {
			log.Printf("warning: seed users failed: %v", err)
		}
	} else {
		users = store.Users()
		sessions = store.Sessions()
		docs = store.Documents()
		auditRepo = store.Audit()
		statsRepo = store.Stats()
		if err := store.SeedUsers(postgres.DefaultSeedUsers(), authinfra.HashPassword); err != nil {
			log.Printf("warning: seed memory users failed: %v", err)
		}
	}

	tokenSvc := authinfra.NewJWTIssuer(cfg.Auth.Secret, cfg.Auth.TokenTTL, cfg.Auth.RefreshTTL, sessions)
	limiter := ratelimit.NewLoginLimiter(nil, cfg.RateLimit.Max, cfg.RateLimit.Window)
	if rdb != nil && cfg.RateLimit.On() {
		limiter = ratelimit.NewLoginLimiter(rdb, cfg.RateLimit.Max, cfg.RateLimit.Window)
	}
	loginUC := auth.NewLoginUseCase(users, authinfra.BcryptHasher{}, tokenSvc, cfg.Auth.ExpiresIn).WithLimiter(limiter)

	var mailer auth.Mailer
	if cfg.Mail.Enabled() {
		mailer = notify.NewSMTPMailer(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.Username, cfg.Mail.Password, cfg.Mail.From)
	}
	files := storage.NewLocalStore(cfg.Upload.Dir)

	s := &Server{
		cfg:       cfg,
		db:        db,
		store:     store,
		users:     users,
		tokenSvc:  tokenSvc,
		loginUC:   loginUC,
		sessions:  auth.NewSessionService(sessions, users, tokenSvc, cfg.Auth.ExpiresIn),
		resetUC:   auth.NewPasswordResetUseCase(users, authinfra.BcryptHasher{}, authinfra.PasswordGenerator{}, mailer, cfg.HTTP.FrontendURL),
		profileUC: auth.NewProfileUseCase(users, statsRepo),
		documents: document.NewService(docs, files, cfg.Upload.MaxSize),
		files:     files,
		recorder:  audit.NewRecorder(auditRepo),
		limiter:   limiter,
	}
	if cfg.Cron.Enabled {
		s.sweeper = auth.NewSessionSweeper(sessions, cfg.Cron.SweepInterval)
	}
	s.engine = s.setupRoutes()
	return s
}

// Handler 回傳路由處理器，供 HTTP server 掛載。
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Store 記憶體模式下的資料，主要用於測試檢查。
func (s *Server) Store() *memory.Store {
	return s.store
}

// Start 啟動背景排程（過期 session 清理）。
func (s *Server) Start() {
	if s.sweeper != nil {
		s.sweeper.Start()
		log.Printf("[Sweeper] expired session cleanup every %s", s.cfg.Cron.SweepInterval)
	}
}

// Close 停止排程並等待尚未寫完的稽核紀錄。
func (s *Server) Close() {
	if s.sweeper != nil {
		s.sweeper.Stop()
	}
	s.recorder.Wait()
}

func (s *Server) setupRoutes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.ginLogger())
	r.Use(s.corsMiddleware())
	r.Use(s.identify())
	r.Use(s.auditMiddleware())

	r.Static("/uploads", s.files.Dir())

	api := r.Group("/api")
	{
		api.GET("/health", s.handleHealth)

		authGroup := api.Group("/auth")
		authGroup.POST("/local", s.handleLogin)
		authGroup.POST("/refresh", s.handleRefresh)
		authGroup.POST("/logout", s.handleLogout)
		authGroup.POST("/revoke", s.requireAuth(), s.handleRevoke)
		authGroup.GET("/sessions", s.requireAuth(), s.handleSessions)

		users := api.Group("/users", s.requireAuth())
		users.GET("/me", s.handleMe)
		users.POST("/:id/generate-password", s.handleGeneratePassword)

		docs := api.Group("/documents", s.requireAuth())
		docs.GET("", s.handleListDocuments)
		docs.POST("/upload-base64", s.handleUploadBase64)
		docs.GET("/:id", s.handleGetDocument)
		docs.POST("/:id/sign", s.handleSignDocument)
		docs.GET("/:id/download", s.handleDownloadDocument)
	}
	return r
}
