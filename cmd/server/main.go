package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tradesdesk/workspace-api/internal/authz"
	"github.com/tradesdesk/workspace-api/internal/config"
	"github.com/tradesdesk/workspace-api/internal/database"
	"github.com/tradesdesk/workspace-api/internal/handlers"
	"github.com/tradesdesk/workspace-api/internal/logger"
	"github.com/tradesdesk/workspace-api/internal/metrics"
	"github.com/tradesdesk/workspace-api/internal/middleware"
	"github.com/tradesdesk/workspace-api/internal/password"
	"github.com/tradesdesk/workspace-api/internal/repository"
	"github.com/tradesdesk/workspace-api/internal/services"
	"github.com/tradesdesk/workspace-api/internal/token"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	app := fx.New(
		fx.Provide(
			config.Load,
			newLogger,
			newDatabase,

			// Repositories
			repository.NewUserRepository,
			repository.NewTenantRepository,
			repository.NewMembershipRepository,
			repository.NewPasswordResetRepository,
			repository.NewAuditLogRepository,

			// Services
			newHasher,
			newTokenService,
			services.NewCredentialService,
			services.NewAuditService,
			services.NewMembershipService,
			services.NewTenantService,
			newAuthService,
			newPasswordResetService,

			authz.NewPolicy,
			metrics.New,
			newRateLimiter,
			newRouter,
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
		fx.Invoke(warnInsecureSecret),
		fx.Invoke(runHTTP),
	)
	app.Run()
}

func newLogger(lc fx.Lifecycle, cfg *config.Config) (*zap.Logger, error) {
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			_ = log.Sync()
			return nil
		},
	})
	return log, nil
}

func newDatabase(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	// Connect to database
	db, err := database.Connect(cfg, log)
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := database.Migrate(db, log); err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})
	return db, nil
}

func newHasher() *password.Hasher {
	return password.NewHasher(password.DefaultParams())
}

func newTokenService(cfg *config.Config) *token.Service {
	return token.NewService(cfg.JWTSecret, token.WithDefaultTTL(cfg.TokenTTL))
}

type authDeps struct {
	fx.In

	Config      *config.Config
	Credentials *services.CredentialService
	Tenants     *services.TenantService
	Memberships *services.MembershipService
	Audit       *services.AuditService
	Tokens      *token.Service
	Log         *zap.Logger
}

func newAuthService(d authDeps) *services.AuthService {
	return services.NewAuthService(services.AuthParams{
		Credentials:           d.Credentials,
		Tenants:               d.Tenants,
		Memberships:           d.Memberships,
		Audit:                 d.Audit,
		Tokens:                d.Tokens,
		TokenTTL:              d.Config.TokenTTL,
		PlatformAdminUsername: d.Config.PlatformAdminUsername,
		Log:                   d.Log,
	})
}

func newPasswordResetService(
	cfg *config.Config,
	resets repository.PasswordResetRepository,
	credentials *services.CredentialService,
	audit *services.AuditService,
	log *zap.Logger,
) *services.PasswordResetService {
	return services.NewPasswordResetService(services.PasswordResetParams{
		Resets:      resets,
		Credentials: credentials,
		Audit:       audit,
		Notifier:    services.NewLogResetNotifier(log),
		Secret:      cfg.JWTSecret,
		TTL:         cfg.ResetTokenTTL,
		Log:         log,
	})
}

func newRateLimiter(cfg *config.Config, m *metrics.Metrics) *middleware.RateLimiter {
	return middleware.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateBurst, m)
}

type routerDeps struct {
	fx.In

	Config      *config.Config
	Auth        *services.AuthService
	Resets      *services.PasswordResetService
	Tenants     *services.TenantService
	Memberships *services.MembershipService
	Policy      *authz.Policy
	Metrics     *metrics.Metrics
	RateLimiter *middleware.RateLimiter
	Log         *zap.Logger
}

func newRouter(d routerDeps) *gin.Engine {
	// Set Gin mode
	gin.SetMode(d.Config.GinMode)

	return handlers.NewRouter(handlers.RouterDeps{
		Auth:        d.Auth,
		Resets:      d.Resets,
		Tenants:     d.Tenants,
		Memberships: d.Memberships,
		Policy:      d.Policy,
		Metrics:     d.Metrics,
		RateLimiter: d.RateLimiter,
		Log:         d.Log,
	})
}

func warnInsecureSecret(cfg *config.Config, log *zap.Logger) {
	if cfg.UsesInsecureSecret() {
		log.Warn("JWT_SECRET is unset or uses the development default; do not run this configuration in production")
	}
}

func runHTTP(lc fx.Lifecycle, cfg *config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			log.Info("server starting", zap.String("addr", srv.Addr))
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("server stopped unexpectedly", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
