package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gopherai-docchat/internal/app"
	"gopherai-docchat/internal/transport/http/response"
)

type SessionHandler struct {
	sessions *app.SessionService
}

type CreateSessionRequest struct {
	Title string `json:"title" binding:"max=128"`
}

func NewSessionHandler(sessions *app.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

func (h *SessionHandler) Create(c *gin.Context) {
	documentID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req CreateSessionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
			return
		}
	}

	session, err := h.sessions.CreateSession(c.Request.Context(), documentID, req.Title)
	if err != nil {
		respondError(c, err, "create session failed")
		return
	}
	response.Created(c, session)
}

func (h *SessionHandler) ListByDocument(c *gin.Context) {
	documentID, ok := parseID(c, "id")
	if !ok {
		return
	}
	list, err := h.sessions.ListSessions(c.Request.Context(), documentID)
	if err != nil {
		respondError(c, err, "list sessions failed")
		return
	}
	response.OK(c, list)
}

func (h *SessionHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	session, err := h.sessions.GetSession(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "get session failed")
		return
	}
	response.OK(c, session)
}

func (h *SessionHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.sessions.DeleteSession(c.Request.Context(), id); err != nil {
		respondError(c, err, "delete session failed")
		return
	}
	response.OK(c, gin.H{"deleted_session_id": id})
}
