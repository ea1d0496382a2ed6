package admin

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/beachd/app/beachd/internal/admission"
	"github.com/lk2023060901/beachd/app/beachd/internal/booking"
	"github.com/lk2023060901/beachd/app/beachd/internal/session"
	"github.com/lk2023060901/beachd/pkg/logger"
	"github.com/lk2023060901/beachd/pkg/metrics/system"
	"github.com/lk2023060901/beachd/pkg/otel"
	"github.com/lk2023060901/beachd/pkg/prometheus"
	"github.com/lk2023060901/beachd/pkg/web"
	"github.com/lk2023060901/beachd/pkg/web/middleware"
	"go.opentelemetry.io/otel/trace"
)

// Deps 管理接口依赖的组件
type Deps struct {
	Admission *admission.Controller
	Sessions  *session.Manager
	Booking   *booking.Service
	Metrics   *prometheus.Client
	// Process 可为 nil，此时 /v1/process 返回 404
	Process *system.Collector
	// Tracing 为 nil 时不挂载链路追踪中间件
	Tracing trace.TracerProvider
}

// NewServer 创建只读管理 HTTP 服务
func NewServer(cfg *web.Config, deps Deps, l logger.Logger) (*web.Server, error) {
	requests, err := deps.Metrics.NewCounter("admin_http_requests_total", "Admin HTTP requests.", []string{"path", "method", "status"})
	if err != nil {
		return nil, err
	}
	duration, err := deps.Metrics.NewHistogram("admin_http_request_duration_seconds", "Admin HTTP latency.", []string{"path", "method"}, nil)
	if err != nil {
		return nil, err
	}

	mws := []gin.HandlerFunc{middleware.Metrics(requests, duration)}
	if deps.Tracing != nil {
		mws = append([]gin.HandlerFunc{middleware.Tracing(deps.Tracing, otel.Propagator(), "beachd-admin")}, mws...)
	}

	srv, err := web.NewServer(cfg, l.Named("admin"), mws...)
	if err != nil {
		return nil, err
	}
	Register(srv.Router(), deps)
	return srv, nil
}

// Register 注册管理路由
func Register(r gin.IRouter, deps Deps) {
	h := &handlers{deps: deps}

	r.GET("/healthz", h.health)
	r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	v1 := r.Group("/v1")
	v1.GET("/stats", h.stats)
	v1.GET("/sessions", h.sessions)
	v1.GET("/process", h.process)
	v1.GET("/available", h.available)
	v1.GET("/resources/:id/reservations", h.reservations)
}

type handlers struct {
	deps Deps
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Stats 服务器运行状态
type Stats struct {
	Active       int    `json:"active"`
	Capacity     int    `json:"capacity"`
	Sessions     int    `json:"sessions"`
	LoggedIn     int    `json:"logged_in"`
	LocksHeld    int    `json:"locks_held"`
	Reservations int    `json:"reservations"`
	Resources    int    `json:"resources"`
	SeasonStart  string `json:"season_start"`
	SeasonEnd    string `json:"season_end"`
	Today        string `json:"today"`
}

func (h *handlers) stats(c *gin.Context) {
	cat := h.deps.Booking.Catalog()
	web.Success(c, Stats{
		Active:       h.deps.Admission.Active(),
		Capacity:     h.deps.Admission.Capacity(),
		Sessions:     h.deps.Sessions.Count(),
		LoggedIn:     h.deps.Sessions.LoggedInCount(),
		LocksHeld:    h.deps.Booking.Locks().HeldCount(),
		Reservations: h.deps.Booking.Store().Count(),
		Resources:    cat.Size(),
		SeasonStart:  cat.Season().Start.String(),
		SeasonEnd:    cat.Season().End.String(),
		Today:        cat.Today().String(),
	})
}

func (h *handlers) process(c *gin.Context) {
	if h.deps.Process == nil {
		web.Error(c, http.StatusNotFound, http.StatusNotFound, "process stats disabled")
		return
	}
	web.Success(c, h.deps.Process.Stats())
}

func (h *handlers) sessions(c *gin.Context) {
	list := make([]session.Snapshot, 0, h.deps.Sessions.Count())
	h.deps.Sessions.Range(func(s *session.Session) bool {
		list = append(list, s.Snapshot())
		return true
	})
	web.Success(c, list)
}

func (h *handlers) available(c *gin.Context) {
	var dates []string
	if from := web.GetQuery(c, "from", ""); from != "" {
		dates = append(dates, from)
		if to := web.GetQuery(c, "to", ""); to != "" {
			dates = append(dates, to)
		}
	}
	ids, err := h.deps.Booking.Available(dates)
	if err != nil {
		web.Error(c, http.StatusBadRequest, http.StatusBadRequest, err.Error())
		return
	}
	web.Success(c, ids)
}

// ReservationView 预订的 JSON 视图
type ReservationView struct {
	ID        int64  `json:"id"`
	Resource  int    `json:"resource"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Owner     string `json:"owner"`
	CreatedAt string `json:"created_at"`
}

func (h *handlers) reservations(c *gin.Context) {
	var req struct {
		ID int `uri:"id" binding:"min=0"`
	}
	if !web.BindURI(c, &req) {
		return
	}
	list, err := h.deps.Booking.Store().List(req.ID)
	if err != nil {
		web.Error(c, http.StatusNotFound, http.StatusNotFound, err.Error())
		return
	}

	views := make([]ReservationView, 0, len(list))
	for _, r := range list {
		views = append(views, ReservationView{
			ID:        r.ID,
			Resource:  r.Resource,
			Start:     r.Range.Start.String(),
			End:       r.Range.End.String(),
			Owner:     r.Owner,
			CreatedAt: r.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	web.Success(c, views)
}
