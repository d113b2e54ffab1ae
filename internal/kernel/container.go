// Package kernel wires the shared service objects of the UniConnect backend:
// the document store, the snapshot cache, the real-time hub and the services
// built on top of them. Nothing in the backend reaches these through globals.
package kernel

import (
	"context"
	"sync"

	"github.com/uniconnect/backend/internal/auth"
	"github.com/uniconnect/backend/internal/cache"
	"github.com/uniconnect/backend/internal/chat"
	"github.com/uniconnect/backend/internal/config"
	"github.com/uniconnect/backend/internal/email"
	"github.com/uniconnect/backend/internal/groups"
	"github.com/uniconnect/backend/internal/logger"
	"github.com/uniconnect/backend/internal/notifications"
	"github.com/uniconnect/backend/internal/repository"
	"github.com/uniconnect/backend/internal/storage"
	"github.com/uniconnect/backend/internal/websocket"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Kernel holds all application dependencies and provides type-safe access.
// Infrastructure is registered with Set* methods, then Wire builds the
// repositories and services on top of it.
type Kernel struct {
	// Core infrastructure
	db       *gorm.DB
	logger   *zap.Logger
	cache    *cache.Cache
	hub      *websocket.Hub
	uploader storage.Uploader
	mailer   email.Sender
	authCfg  config.AuthConfig

	// Repositories
	users         repository.UserRepository
	posts         repository.PostRepository
	connections   repository.ConnectionRepository
	groupRepo     repository.GroupRepository
	messages      repository.MessageRepository
	notifications repository.NotificationRepository

	// Services
	auth      *auth.Service
	notifier  *notifications.Service
	groups    *groups.Service
	chat      *chat.Service
	wsHandler *websocket.Handler

	// Lifecycle hooks
	cleanupFuncs []func(context.Context) error
	wired        bool
	mu           sync.RWMutex
}

// New creates a new empty kernel
func New() *Kernel {
	return &Kernel{
		cleanupFuncs: make([]func(context.Context) error, 0),
	}
}

// SetDB registers the database connection
func (k *Kernel) SetDB(db *gorm.DB) *Kernel {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.db = db
	return k
}

// DB returns the database connection
func (k *Kernel) DB() *gorm.DB {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.db
}

// SetLogger registers the logger
func (k *Kernel) SetLogger(l *zap.Logger) *Kernel {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.logger = l
	return k
}

// Logger returns the logger instance
func (k *Kernel) Logger() *zap.Logger {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.logger == nil {
		return logger.Log
	}
	return k.logger
}

// SetCache registers the snapshot cache. A nil cache disables caching.
func (k *Kernel) SetCache(c *cache.Cache) *Kernel {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.cache = c
	return k
}

// Cache returns the snapshot cache (possibly nil)
func (k *Kernel) Cache() *cache.Cache {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.cache
}

// SetHub registers the real-time fan-out hub
func (k *Kernel) SetHub(hub *websocket.Hub) *Kernel {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.hub = hub
	return k
}

// Hub returns the real-time fan-out hub
func (k *Kernel) Hub() *websocket.Hub {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.hub
}

// SetUploader registers object storage
func (k *Kernel) SetUploader(u storage.Uploader) *Kernel {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.uploader = u
	return k
}

// Uploader returns object storage (possibly nil)
func (k *Kernel) Uploader() storage.Uploader {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.uploader
}

// SetMailer registers the verification mail sender
func (k *Kernel) SetMailer(m email.Sender) *Kernel {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.mailer = m
	return k
}

// SetAuthConfig registers token and verification settings
func (k *Kernel) SetAuthConfig(cfg config.AuthConfig) *Kernel {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.authCfg = cfg
	return k
}

// SetWebSocketHandler registers the socket upgrade handler
func (k *Kernel) SetWebSocketHandler(h *websocket.Handler) *Kernel {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.wsHandler = h
	return k
}

// WebSocketHandler returns the socket upgrade handler
func (k *Kernel) WebSocketHandler() *websocket.Handler {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.wsHandler
}

// Wire validates the registered infrastructure and builds repositories and
// services. Calling it again is a no-op.
func (k *Kernel) Wire() error {
	if err := k.Validate(); err != nil {
		return err
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	if k.wired {
		return nil
	}

	k.users = repository.NewUserRepository(k.db)
	k.posts = repository.NewPostRepository(k.db)
	k.connections = repository.NewConnectionRepository(k.db)
	k.groupRepo = repository.NewGroupRepository(k.db)
	k.messages = repository.NewMessageRepository(k.db)
	k.notifications = repository.NewNotificationRepository(k.db)

	k.auth = auth.NewService(k.users, k.mailer, k.authCfg)
	k.notifier = notifications.NewService(k.notifications, k.cache, k.hub)
	k.groups = groups.NewService(k.groupRepo, k.users, k.messages, k.cache, k.hub, k.notifier)
	k.chat = chat.NewService(k.hub, k.messages, k.groupRepo, k.cache)
	k.chat.Register()

	k.wired = true
	return nil
}

// Users returns the user repository
func (k *Kernel) Users() repository.UserRepository {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.users
}

// Posts returns the post repository
func (k *Kernel) Posts() repository.PostRepository {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.posts
}

// Connections returns the connection repository
func (k *Kernel) Connections() repository.ConnectionRepository {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.connections
}

// Messages returns the message repository
func (k *Kernel) Messages() repository.MessageRepository {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.messages
}

// Auth returns the authentication service
func (k *Kernel) Auth() *auth.Service {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.auth
}

// Notifications returns the notification service
func (k *Kernel) Notifications() *notifications.Service {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.notifier
}

// Groups returns the group service
func (k *Kernel) Groups() *groups.Service {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.groups
}

// OnCleanup registers a cleanup function to be called during shutdown.
// Cleanup functions are called in LIFO order (last registered, first cleaned up).
func (k *Kernel) OnCleanup(fn func(context.Context) error) *Kernel {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.cleanupFuncs = append(k.cleanupFuncs, fn)
	return k
}

// Cleanup runs every registered cleanup function in reverse order.
// Failures are logged and do not stop the remaining cleanups.
func (k *Kernel) Cleanup(ctx context.Context) error {
	k.mu.Lock()
	funcs := k.cleanupFuncs
	k.cleanupFuncs = nil
	k.mu.Unlock()

	log := k.Logger()
	for i := len(funcs) - 1; i >= 0; i-- {
		if err := funcs[i](ctx); err != nil {
			log.Error("Cleanup function failed", zap.Int("index", i), zap.Error(err))
		}
	}
	return nil
}

// Validate checks that all required dependencies are registered.
// Cache, uploader and mailer are optional.
func (k *Kernel) Validate() error {
	k.mu.RLock()
	defer k.mu.RUnlock()

	missingDeps := []string{}
	if k.db == nil {
		missingDeps = append(missingDeps, "database (DB)")
	}
	if k.hub == nil {
		missingDeps = append(missingDeps, "websocket hub")
	}
	if k.authCfg.JWTSecret == "" {
		missingDeps = append(missingDeps, "JWT secret")
	}

	if len(missingDeps) > 0 {
		return MissingDepsError(missingDeps)
	}

	log := k.logger
	if log == nil {
		log = logger.Log
	}
	optionalDeps := []struct {
		name    string
		missing bool
	}{
		{"Redis cache", k.cache == nil},
		{"object storage", k.uploader == nil},
		{"email sender", k.mailer == nil},
	}
	for _, dep := range optionalDeps {
		if dep.missing {
			log.Warn("Optional dependency not configured", zap.String("dependency", dep.name))
		}
	}

	return nil
}
