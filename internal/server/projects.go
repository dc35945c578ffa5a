package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pmtrack/internal/dto"
	"pmtrack/internal/ui"
)

// handleListProjects returns all available projects.
func (s *Server) handleListProjects(c *gin.Context) {
	projects, err := s.store.ListProjects(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"projects": projects})
}

// handleProjectCards returns the card view model of every project.
func (s *Server) handleProjectCards(c *gin.Context) {
	ctx := c.Request.Context()
	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		s.respondError(c, err)
		return
	}
	stats, err := s.store.ProjectStats(ctx)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"cards": ui.BuildProjectCards(projects, stats, s.tokens)})
}

// handleGetProject returns one project.
func (s *Server) handleGetProject(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	project, err := s.store.GetProject(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"project": project})
}

// handleCreateProject creates a new project together with its board columns.
func (s *Server) handleCreateProject(c *gin.Context) {
	var req dto.CreateProjectDto
	if !s.bindJSON(c, &req) {
		return
	}

	project, err := s.store.CreateProject(c.Request.Context(), req.Model())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"project": project})
}

// handleUpdateProject changes the given fields of an existing project.
func (s *Server) handleUpdateProject(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateProjectDto
	if !s.bindJSON(c, &req) {
		return
	}

	project, err := s.store.UpdateProject(c.Request.Context(), id, req.Update())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"project": project})
}

// handleDeleteProject removes a project and all related tasks.
func (s *Server) handleDeleteProject(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := s.store.DeleteProject(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}

// handleListStatuses returns the board columns of a project in order.
func (s *Server) handleListStatuses(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		s.respondError(c, err)
		return
	}
	statuses, err := s.store.ListStatuses(ctx, projectID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"statuses": statuses})
}

// handleCreateStatus appends a column to a project board.
func (s *Server) handleCreateStatus(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.CreateStatusDto
	if !s.bindJSON(c, &req) {
		return
	}
	status, err := s.store.CreateStatus(c.Request.Context(), projectID, req.Code, req.Name)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"status": status})
}

// handleReorderStatuses moves board columns to new positions.
func (s *Server) handleReorderStatuses(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.ReorderStatusDto
	if !s.bindJSON(c, &req) {
		return
	}
	statuses, err := s.store.ReorderStatuses(c.Request.Context(), projectID, req.Orders())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"statuses": statuses})
}

// handleListSprints returns the sprints of a project.
func (s *Server) handleListSprints(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}
	sprints, err := s.store.ListSprints(c.Request.Context(), projectID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"sprints": sprints})
}

// handleCreateSprint adds a sprint to a project.
func (s *Server) handleCreateSprint(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.CreateSprintDto
	if !s.bindJSON(c, &req) {
		return
	}
	sprint, err := s.store.CreateSprint(c.Request.Context(), req.Model(projectID))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"sprint": sprint})
}
