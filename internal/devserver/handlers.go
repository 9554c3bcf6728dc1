package devserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/colonyops/feedsync/internal/core/entity"
	"github.com/colonyops/feedsync/internal/push"
)

type idsRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,dive,required"`
}

type notifyRequest struct {
	Message   string `json:"message" validate:"required"`
	Type      string `json:"type"`
	ClientRef string `json:"clientRef"`
}

func (s *Server) registerNotificationRoutes(g *echo.Group) {
	// :id is the user id on GET and the notification id on DELETE.
	g.GET("/notifications/:id", s.ListNotifications)
	g.DELETE("/notifications/:id", s.DeleteNotification)
	g.PUT("/notifications/:id/read", s.MarkRead)
	g.PUT("/notifications/read", s.MarkReadMany)
	g.PUT("/notifications/user/:userId/read-all", s.MarkAllRead)
	g.POST("/notifications/delete", s.DeleteMany)
}

func (s *Server) registerReelRoutes(g *echo.Group) {
	g.GET("/reels", s.ListReels)
	g.POST("/reels/:id/like", s.Like)
	g.POST("/reels/:id/unlike", s.Unlike)
}

// ListNotifications returns a user's notifications, newest first.
func (s *Server) ListNotifications(c echo.Context) error {
	return c.JSON(http.StatusOK, s.mem.listNotifications(c.Param("id")))
}

// MarkRead marks one notification read.
func (s *Server) MarkRead(c echo.Context) error {
	id := c.Param("id")
	updated := s.mem.markRead([]string{id})
	if len(updated) == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "Notification not found")
	}
	n := updated[0]
	s.publish(c.Request().Context(), n.UserID, push.Envelope{Type: push.TypeRead, ID: entity.WireID(n.ID)})
	return c.JSON(http.StatusOK, n)
}

// MarkReadMany marks the listed notifications read.
func (s *Server) MarkReadMany(c echo.Context) error {
	var req idsRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	updated := s.mem.markRead(req.IDs)
	for userID, ids := range byUser(updated) {
		s.publish(c.Request().Context(), userID, push.Envelope{Type: push.TypeBulkRead, NotificationIDs: ids})
	}
	return c.JSON(http.StatusOK, updated)
}

// MarkAllRead marks every notification of a user read.
func (s *Server) MarkAllRead(c echo.Context) error {
	userID := c.Param("userId")
	updated := s.mem.markAllRead(userID)
	s.publish(c.Request().Context(), userID, push.Envelope{Type: push.TypeAllRead})
	return c.JSON(http.StatusOK, updated)
}

// DeleteNotification deletes one notification.
func (s *Server) DeleteNotification(c echo.Context) error {
	removed := s.mem.deleteNotifications([]string{c.Param("id")})
	if len(removed) == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "Notification not found")
	}
	n := removed[0]
	s.publish(c.Request().Context(), n.UserID, push.Envelope{Type: push.TypeDeleted, ID: entity.WireID(n.ID)})
	return c.NoContent(http.StatusNoContent)
}

// DeleteMany deletes the listed notifications.
func (s *Server) DeleteMany(c echo.Context) error {
	var req idsRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	removed := s.mem.deleteNotifications(req.IDs)
	for userID, ids := range byUser(removed) {
		s.publish(c.Request().Context(), userID, push.Envelope{Type: push.TypeBulkDeleted, NotificationIDs: ids})
	}
	return c.NoContent(http.StatusNoContent)
}

// Notify creates a notification for a user and pushes NEW_NOTIFICATION.
func (s *Server) Notify(c echo.Context) error {
	var req notifyRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	n := s.Emit(c.Request().Context(), Notification{
		UserID:    c.Param("userId"),
		Type:      req.Type,
		Message:   req.Message,
		ClientRef: req.ClientRef,
	})
	return c.JSON(http.StatusCreated, n)
}

// Emit stores n under a fresh id and publishes it to its user's topic.
func (s *Server) Emit(ctx context.Context, n Notification) Notification {
	if n.Type == "" {
		n.Type = "SYSTEM"
	}
	n.Read = false
	n.CreatedAt = s.now().UTC().Format("2006-01-02T15:04:05.000Z07:00")
	n = s.mem.addNotification(n)
	s.publish(ctx, n.UserID, push.Envelope{
		Type:             push.TypeNew,
		ID:               entity.WireID(n.ID),
		Message:          n.Message,
		CreatedAt:        n.CreatedAt,
		NotificationType: n.Type,
		UserID:           entity.WireID(n.UserID),
		ClientRef:        n.ClientRef,
	})
	return n
}

// ListReels returns the reel feed in server order.
func (s *Server) ListReels(c echo.Context) error {
	return c.JSON(http.StatusOK, s.mem.listReels())
}

// Like likes a reel as the userId query parameter.
func (s *Server) Like(c echo.Context) error { return s.setLike(c, true) }

// Unlike removes the userId query parameter's like.
func (s *Server) Unlike(c echo.Context) error { return s.setLike(c, false) }

func (s *Server) setLike(c echo.Context, like bool) error {
	userID := c.QueryParam("userId")
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "userId is required")
	}
	r, ok := s.mem.setLike(c.Param("id"), userID, like)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Reel not found")
	}
	return c.JSON(http.StatusOK, entity.LikeState{LikedBy: r.LikedBy, LikeCount: r.LikeCount})
}

func bindValid(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func byUser(ns []Notification) map[string][]entity.WireID {
	out := make(map[string][]entity.WireID)
	for _, n := range ns {
		out[n.UserID] = append(out[n.UserID], entity.WireID(n.ID))
	}
	return out
}
