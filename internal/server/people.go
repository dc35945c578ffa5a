package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pmtrack/internal/dto"
)

func (s *Server) handleListTeams(c *gin.Context) {
	teams, err := s.store.ListTeams(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"teams": teams})
}

func (s *Server) handleCreateTeam(c *gin.Context) {
	var req dto.CreateTeamDto
	if !s.bindJSON(c, &req) {
		return
	}
	team, err := s.store.CreateTeam(c.Request.Context(), req.Name, req.ProjectID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"team": team})
}

func (s *Server) handleListUsers(c *gin.Context) {
	users, err := s.store.ListUsers(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"users": users})
}

func (s *Server) handleGetUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	user, err := s.store.GetUser(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"user": user})
}

func (s *Server) handleCreateUser(c *gin.Context) {
	var req dto.CreateUserDto
	if !s.bindJSON(c, &req) {
		return
	}
	user, err := s.store.CreateUser(c.Request.Context(), req.Model())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"user": user})
}
