package project

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/ons3/Pfe-Project-Final/internal/domain/fetch"
	domainproject "github.com/ons3/Pfe-Project-Final/internal/domain/project"
	portcache "github.com/ons3/Pfe-Project-Final/internal/port/cache"
	projectsvc "github.com/ons3/Pfe-Project-Final/internal/service/project"
)

// StatusClientClosedRequest is returned when the caller went away first.
const StatusClientClosedRequest = 499

func Register(rg *gin.RouterGroup, svc *projectsvc.Service, limiter *rate.Limiter) {
	rg.GET("", listProjects(svc))
	rg.GET("/:id", getProject(svc))
	rg.POST("/refetch", refetchProjects(svc, limiter))
}

func RegisterTeams(rg *gin.RouterGroup, svc *projectsvc.Service) {
	rg.GET("/:id", getTeam(svc))
}

func RegisterCache(rg *gin.RouterGroup, svc *projectsvc.Service) {
	rg.DELETE("", resetCache(svc))
}

type listResponse struct {
	State     fetch.State             `json:"state"`
	FromCache bool                    `json:"from_cache"`
	Projects  []domainproject.Project `json:"projects"`
}

func listProjects(svc *projectsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		// An empty policy selects the service default.
		var policy fetch.Policy
		if raw := c.Query("policy"); raw != "" {
			p, err := fetch.ParsePolicy(raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			policy = p
		}
		respond(c, svc.FetchProjects(c.Request.Context(), policy))
	}
}

func refetchProjects(svc *projectsvc.Service, limiter *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter != nil && !limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "refetch rate limit exceeded"})
			return
		}
		respond(c, svc.Refetch(c.Request.Context()))
	}
}

func respond(c *gin.Context, h *projectsvc.Handle) {
	snap, err := h.Wait(c.Request.Context())
	if err != nil {
		h.Cancel()
		writeError(c, err)
		return
	}
	if snap.State == fetch.StateError {
		writeError(c, snap.Err)
		return
	}
	c.JSON(http.StatusOK, listResponse{
		State:     snap.State,
		FromCache: snap.FromCache,
		Projects:  snap.Projects,
	})
}

func getProject(svc *projectsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := svc.Project(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

func getTeam(svc *projectsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, err := svc.Team(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, t)
	}
}

func resetCache(svc *projectsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Reset(c.Request.Context()); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func writeError(c *gin.Context, err error) {
	body := gin.H{"error": err.Error()}
	if kind := fetch.KindOf(err); kind != "" {
		body["kind"] = kind
	}
	c.JSON(StatusFor(err), body)
}

// StatusFor maps fetch and cache errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled), errors.Is(err, fetch.ErrCancelled):
		return StatusClientClosedRequest
	case errors.Is(err, fetch.ErrCacheMiss), errors.Is(err, portcache.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, fetch.ErrNetwork), errors.Is(err, fetch.ErrServer), errors.Is(err, fetch.ErrProtocol):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
