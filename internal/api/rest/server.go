// Package rest exposes the cuebox HTTP API.
package rest

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/cuebox/internal/app/notification"
	"github.com/osa030/cuebox/internal/app/scheduler"
	"github.com/osa030/cuebox/internal/domain/cue"
	"github.com/osa030/cuebox/internal/infra/library"
)

// Server wires the HTTP API to the scheduler.
type Server struct {
	scheduler    *scheduler.Scheduler
	library      *library.Library
	notification *notification.Manager
}

// NewServer creates a REST server over the given components.
func NewServer(sched *scheduler.Scheduler, lib *library.Library, notif *notification.Manager) *Server {
	return &Server{
		scheduler:    sched,
		library:      lib,
		notification: notif,
	}
}

// Router builds the echo router for the API.
func (s *Server) Router() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	api := e.Group("/api")
	api.GET("/health", s.health)
	api.POST("/cues", s.submit)
	api.GET("/queue", s.queue)
	api.GET("/status", s.status)
	api.GET("/events", s.events)

	return e
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

// submit accepts a playback request. An unknown kind is a client error;
// a known kind whose file has gone missing is dropped by the scheduler's
// fail-fast policy, which this endpoint reports as accepted - the queue
// endpoints show the truth.
func (s *Server) submit(c echo.Context) error {
	var req submitRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
	}
	if req.Kind == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "kind is required"})
	}

	entry, ok := s.library.Lookup(cue.Kind(req.Kind))
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"message": fmt.Sprintf("unknown cue kind %q", req.Kind)})
	}

	priority := entry.Priority
	if req.Priority != nil {
		priority = cue.Priority(*req.Priority)
	}
	label := req.Label
	if label == "" {
		label = entry.Label
	}

	zlog.Info().Msgf("api: submit: kind=%s priority=%s", req.Kind, priority)
	s.scheduler.Submit(cue.NewRequest(cue.Kind(req.Kind), priority, label))

	return c.JSON(http.StatusAccepted, queueResponse{
		Queue: toRequestInfos(s.scheduler.Snapshot()),
	})
}

func (s *Server) queue(c echo.Context) error {
	return c.JSON(http.StatusOK, queueResponse{
		Queue: toRequestInfos(s.scheduler.Snapshot()),
	})
}

func (s *Server) status(c echo.Context) error {
	resp := statusResponse{
		State:       s.scheduler.GetState().String(),
		QueueLength: s.scheduler.QueueLen(),
	}
	if current, ok := s.scheduler.Current(); ok {
		info := toRequestInfo(current)
		resp.Current = &info
	}
	return c.JSON(http.StatusOK, resp)
}

// events streams queue updates as server-sent events. Each event carries
// the full ordered queue snapshot plus its broadcast sequence number.
func (s *Server) events(c echo.Context) error {
	stream := notification.NewChannelStream(16)
	id := s.notification.Subscribe(stream)
	defer s.notification.Unsubscribe(id)

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)
	resp.Flush()

	for {
		select {
		case <-c.Request().Context().Done():
			return nil
		case update := <-stream.C:
			payload, err := json.Marshal(toQueueUpdateInfo(update))
			if err != nil {
				zlog.Error().Msgf("api: failed to marshal queue update: %v", err)
				continue
			}
			if _, err := fmt.Fprintf(resp, "data: %s\n\n", payload); err != nil {
				return nil
			}
			resp.Flush()
		}
	}
}
