package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux（避免引入第三方路由依赖）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterAlertRoutes 注册告警相关路由
func (r *Router) RegisterAlertRoutes(h *AlertHandler) {
	r.mux.Handle("/api/v1/alerts", h)
	r.mux.Handle("/api/v1/alerts/", h)
}

// RegisterHealthRoute 注册健康检查路由
func (r *Router) RegisterHealthRoute() {
	r.mux.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		respond(w, Ok(map[string]string{"status": "ok"}))
	})
}
