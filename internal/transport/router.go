package transport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/ons3/Pfe-Project-Final/internal/domain/event"
	porteventbus "github.com/ons3/Pfe-Project-Final/internal/port/eventbus"
	projectsvc "github.com/ons3/Pfe-Project-Final/internal/service/project"

	mcptransport "github.com/ons3/Pfe-Project-Final/internal/transport/mcp"
	projecthandler "github.com/ons3/Pfe-Project-Final/internal/transport/project"
	wshandler "github.com/ons3/Pfe-Project-Final/internal/transport/ws"
)

func NewRouter(
	ctx context.Context,
	projectSvc *projectsvc.Service,
	limiter *rate.Limiter,
	mcpServer *mcptransport.Server,
	eventBus porteventbus.EventBus,
	metricsHandler http.Handler,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(RequestLogger())
	r.Use(CORSMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if metricsHandler != nil {
		r.GET("/metrics", gin.WrapH(metricsHandler))
	}
	if mcpServer != nil {
		r.Any("/mcp", gin.WrapH(mcpServer.Handler()))
	}

	api := r.Group("/api")

	projecthandler.Register(api.Group("/projects"), projectSvc, limiter)
	projecthandler.RegisterTeams(api.Group("/teams"), projectSvc)
	projecthandler.RegisterCache(api.Group("/cache"), projectSvc)

	hub := wshandler.NewHub()
	hub.Register(api.Group("/ws"))

	// Bridge: one subscription per domain channel. Events raised by this
	// instance are forwarded to WS clients and MCP sessions; event.Type lets
	// the client filter. Peer events only invalidate the local cache, so
	// forwarding them would point clients at data this instance lacks.
	for _, ch := range []event.Channel{
		event.ChannelProjects,
		event.ChannelCache,
	} {
		c := ch
		if _, err := eventBus.Subscribe(ctx, c, func(ctx context.Context, e event.Event) {
			if !e.From(projectSvc.Origin()) {
				return
			}
			hub.Broadcast(e)
			if mcpServer == nil {
				return
			}
			if err := mcpServer.Registry().Notify(ctx, e); err != nil {
				slog.WarnContext(ctx, "failed to notify MCP sessions", "event", e.Type, "error", err)
			}
		}); err != nil {
			slog.Error("failed to subscribe channel to WS hub", "channel", c, "error", err)
		}
	}

	return r
}
