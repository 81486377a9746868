package http

import (
	"errors"
	"net/http"

	"github.com/dkeye/Relay/internal/adapters/signal"
	"github.com/dkeye/Relay/internal/adapters/store"
	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

type SessionRequest struct {
	Token string `json:"token"`
}

type SessionResponse struct {
	User   domain.Identity  `json:"user"`
	Groups []domain.GroupID `json:"groups"`
}

type ICEResponse struct {
	ICEServers []webrtc.ICEServer `json:"iceServers"`
}

type MembersResponse struct {
	GroupID domain.GroupID  `json:"groupId"`
	Members []domain.Member `json:"members"`
}

// PublishRequest is what the persistence side posts once a message is stored.
type PublishRequest struct {
	Type core.EventType     `json:"type"`
	Msg  domain.ChatMessage `json:"msg"`
}

type PublishResponse struct {
	ID        string `json:"id"`
	Delivered int    `json:"delivered"`
	Duplicate bool   `json:"duplicate"`
}

func (h *Handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"connections": h.Orch.Registry.ConnectionCount(),
	})
}

// login verifies the token once and keeps it in the cookie session for later WS handshakes.
func (h *Handlers) login(c *gin.Context) {
	var req SessionRequest
	_ = c.ShouldBindJSON(&req)
	if req.Token == "" {
		req.Token = signal.BearerToken(c)
	}
	who, groups, err := h.Orch.Authenticate(c.Request.Context(), req.Token)
	if err != nil {
		status := http.StatusUnauthorized
		if errors.Is(err, store.ErrUserNotFound) {
			status = http.StatusForbidden
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	s := sessions.Default(c)
	s.Set(signal.SessionTokenKey, req.Token)
	if err := s.Save(); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("session save")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session save failed"})
		return
	}
	c.JSON(http.StatusOK, SessionResponse{User: who, Groups: groups})
}

func (h *Handlers) logout(c *gin.Context) {
	s := sessions.Default(c)
	s.Clear()
	s.Options(sessions.Options{Path: "/", MaxAge: -1})
	_ = s.Save()
	c.Status(http.StatusNoContent)
}

func (h *Handlers) ice(c *gin.Context) {
	c.JSON(http.StatusOK, ICEResponse{ICEServers: h.ICEServers})
}

func (h *Handlers) presence(c *gin.Context) {
	c.JSON(http.StatusOK, h.Orch.Presence.Current())
}

func (h *Handlers) groupMembers(c *gin.Context) {
	room := domain.GroupID(c.Param("id"))
	if !h.Orch.Rooms.IsMember(room, identityOf(c).ID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member"})
		return
	}
	c.JSON(http.StatusOK, MembersResponse{
		GroupID: room,
		Members: h.Orch.Rooms.MembersSnapshot(room, h.Orch.Registry),
	})
}

// putUser syncs a user record from the persistence side. Live connections pick it up on reconnect.
func (h *Handlers) putUser(c *gin.Context) {
	var rec domain.UserRecord
	rec.ID = domain.UserID(c.Param("id"))
	if err := c.ShouldBindJSON(&rec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rec.ID = domain.UserID(c.Param("id"))
	if err := h.Orch.Directory.Put(c.Request.Context(), rec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *Handlers) deleteUser(c *gin.Context) {
	err := h.Orch.Directory.Delete(c.Request.Context(), domain.UserID(c.Param("id")))
	switch {
	case errors.Is(err, store.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.Status(http.StatusNoContent)
	}
}

func (h *Handlers) publish(group bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PublishRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}
		if req.Type == "" {
			req.Type = defaultKind(group, req.Msg)
		}
		if req.Type.IsGroupChat() != group {
			c.JSON(http.StatusBadRequest, gin.H{"error": "type does not match endpoint"})
			return
		}
		out, err := h.Orch.Publish(req.Type, req.Msg)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusAccepted, PublishResponse{ID: out.Msg.ID, Delivered: out.SendTo, Duplicate: out.Duplicate})
	}
}

func defaultKind(group bool, msg domain.ChatMessage) core.EventType {
	switch {
	case group && msg.FileURL != "":
		return core.EventGroupFile
	case group:
		return core.EventGroupMessage
	case msg.FileURL != "":
		return core.EventPrivateFile
	}
	return core.EventPrivateMessage
}
