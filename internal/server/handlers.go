package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/apoorv/socratic/internal/quiz"
)

type startSessionRequest struct {
	UserID  uuid.UUID  `json:"user_id" binding:"required"`
	TopicID *uuid.UUID `json:"topic_id"`
}

type actionRequest struct {
	QuestionID string `json:"question_id"`
	Action     string `json:"action" binding:"required"`
	Answer     string `json:"answer"`
}

func (s *Server) handleStartSession(c *gin.Context) {
	var req startSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	view, err := s.quiz.Start(c.Request.Context(), req.UserID, req.TopicID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (s *Server) handleNextQuestion(c *gin.Context) {
	id, ok := pathUUID(c, "sessionID")
	if !ok {
		return
	}
	view, err := s.quiz.Next(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) handleAction(c *gin.Context) {
	id, ok := pathUUID(c, "sessionID")
	if !ok {
		return
	}
	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.quiz.Act(c.Request.Context(), id, req.QuestionID, req.Action, req.Answer)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleProgress(c *gin.Context) {
	id, ok := pathUUID(c, "sessionID")
	if !ok {
		return
	}
	sum, err := s.quiz.Progress(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (s *Server) handleEndSession(c *gin.Context) {
	id, ok := pathUUID(c, "sessionID")
	if !ok {
		return
	}
	sum, err := s.quiz.End(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (s *Server) handleTopicTree(c *gin.Context) {
	userID, ok := pathUUID(c, "userID")
	if !ok {
		return
	}
	tree, err := s.quiz.TopicTree(c.Request.Context(), userID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"topics": tree})
}

func (s *Server) handleMasteryOverview(c *gin.Context) {
	userID, ok := pathUUID(c, "userID")
	if !ok {
		return
	}
	overview, err := s.quiz.MasteryOverview(c.Request.Context(), userID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"mastery": overview})
}

func (s *Server) handleMasteryStatus(c *gin.Context) {
	userID, ok := pathUUID(c, "userID")
	if !ok {
		return
	}
	topicID, ok := pathUUID(c, "topicID")
	if !ok {
		return
	}
	status, err := s.quiz.MasteryStatus(c.Request.Context(), userID, topicID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (s *Server) handleLevels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"levels": quiz.Levels()})
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

// writeError maps service errors onto HTTP statuses.
func (s *Server) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, quiz.ErrSessionNotFound),
		errors.Is(err, quiz.ErrUserNotFound),
		errors.Is(err, quiz.ErrTopicNotFound):
		status = http.StatusNotFound
	case errors.Is(err, quiz.ErrSessionEnded),
		errors.Is(err, quiz.ErrSessionExpired):
		status = http.StatusGone
	case errors.Is(err, quiz.ErrTopicLocked):
		status = http.StatusForbidden
	case errors.Is(err, quiz.ErrNoPendingQuestion),
		errors.Is(err, quiz.ErrQuestionMismatch),
		errors.Is(err, quiz.ErrUnknownAction),
		errors.Is(err, quiz.ErrNoTopicsAvailable):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
