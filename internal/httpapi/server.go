package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ticktock/internal/model"
	"ticktock/internal/service"
)

const serviceName = "ticktock-backend"

// Authenticator is the identity store and session manager behind /api/auth.
type Authenticator interface {
	Register(ctx context.Context, email, password string) (*service.Session, error)
	Login(ctx context.Context, email, password string) (*service.Session, error)
	Logout(ctx context.Context, token string)
	Authenticate(ctx context.Context, token string) (service.Identity, error)
}

// TaskManager is the per-user task repository behind /api/tasks.
type TaskManager interface {
	List(ctx context.Context, ident service.Identity) ([]model.Task, error)
	Create(ctx context.Context, ident service.Identity, draft service.TaskDraft) (string, error)
	Update(ctx context.Context, ident service.Identity, taskID string, patch service.TaskPatch) error
	Delete(ctx context.Context, ident service.Identity, taskID string) error
}

// PushRegistry is the subscription bookkeeping behind /api/push.
type PushRegistry interface {
	PublicKey() (string, error)
	Subscribe(ctx context.Context, ident service.Identity, endpoint string, keys service.PushKeys) error
	Unsubscribe(ctx context.Context, ident service.Identity, endpoint string) error
}

// Options holds the transport settings taken from configuration.
type Options struct {
	CORSOrigins []string
	// SecureCookies marks the session cookie Secure and SameSite=None.
	SecureCookies bool
	SessionTTL    time.Duration
	// AuthRateLimit is the number of register/login attempts allowed per
	// client IP in authRateWindow. Zero disables limiting.
	AuthRateLimit int
	// TrustedProxies lists proxies whose X-Forwarded-For is honoured when
	// resolving the client IP. Empty trusts none.
	TrustedProxies []string
}

type handler struct {
	auth  Authenticator
	tasks TaskManager
	push  PushRegistry
	opts  Options
}

// NewRouter wires every route of the API. Each path also answers with a
// trailing slash.
func NewRouter(auth Authenticator, tasks TaskManager, push PushRegistry, opts Options) (*gin.Engine, error) {
	h := &handler{auth: auth, tasks: tasks, push: push, opts: opts}

	r := gin.New()
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	if err := r.SetTrustedProxies(opts.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}

	r.Use(recoveryWithLog())
	r.Use(requestLogger())
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     opts.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	handle(r, http.MethodGet, "/healthz", h.healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.Use(h.identify())
	handle(api, http.MethodGet, "/ping", h.ping)

	authRoutes := api.Group("/auth")
	{
		limit := authRateLimiter(opts.AuthRateLimit)
		handle(authRoutes, http.MethodPost, "/register", limit, h.register)
		handle(authRoutes, http.MethodPost, "/login", limit, h.login)
		handle(authRoutes, http.MethodPost, "/logout", h.logout)
		handle(authRoutes, http.MethodGet, "/me", h.me)
	}

	taskRoutes := api.Group("/tasks")
	taskRoutes.Use(requireSession())
	{
		handle(taskRoutes, http.MethodGet, "", h.listTasks)
		handle(taskRoutes, http.MethodPost, "", h.createTask)
		handle(taskRoutes, http.MethodPut, "/:id", h.updateTask)
		handle(taskRoutes, http.MethodDelete, "/:id", h.deleteTask)
	}

	pushRoutes := api.Group("/push")
	{
		handle(pushRoutes, http.MethodGet, "/vapid-public-key", h.vapidPublicKey)
		handle(pushRoutes, http.MethodPost, "/subscribe", requireSession(), h.subscribe)
		handle(pushRoutes, http.MethodDelete, "/subscribe", requireSession(), h.unsubscribe)
	}

	return r, nil
}

// handle registers path and its trailing-slash alias.
func handle(r gin.IRoutes, method, path string, handlers ...gin.HandlerFunc) {
	r.Handle(method, path, handlers...)
	r.Handle(method, path+"/", handlers...)
}

func (h *handler) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *handler) ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "service": serviceName})
}

// routeLabel is the matched route template, used as a metrics label.
func routeLabel(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return strings.TrimSuffix(p, "/")
	}
	return "unmatched"
}
