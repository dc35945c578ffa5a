package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pmtrack/internal/dto"
	"pmtrack/internal/models"
)

// handleListTasks fetches tasks for a project.
func (s *Server) handleListTasks(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}

	tasks, err := s.store.ListTasks(c.Request.Context(), projectID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"tasks": tasks})
}

// handleCreateTask inserts a new task into a project column.
func (s *Server) handleCreateTask(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req dto.CreateTaskDto
	if !s.bindJSON(c, &req) {
		return
	}

	task, err := s.store.CreateTask(c.Request.Context(), req.Model(projectID))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"task": task})
}

// handleGetTask returns one task.
func (s *Server) handleGetTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	task, err := s.store.GetTask(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task})
}

// handleUpdateTask updates task fields such as status or description.
func (s *Server) handleUpdateTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateTaskDto
	if !s.bindJSON(c, &req) {
		return
	}

	task, err := s.store.UpdateTask(c.Request.Context(), id, req.Update())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task})
}

// handleDeleteTask removes a task completely.
func (s *Server) handleDeleteTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := s.store.DeleteTask(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}

// handleDeleteTasks removes the listed tasks in one transaction.
func (s *Server) handleDeleteTasks(c *gin.Context) {
	var req dto.DeleteTasksBulkDto
	if !s.bindJSON(c, &req) {
		return
	}
	deleted, err := s.store.DeleteTasks(c.Request.Context(), req.TaskIDs)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"deleted": deleted})
}

// handleListHours returns the hours history of a task.
func (s *Server) handleListHours(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	hours, err := s.store.ListHours(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"hours": hours})
}

// handleLogHours books time on a task.
func (s *Server) handleLogHours(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.LogHoursDto
	if !s.bindJSON(c, &req) {
		return
	}
	entry, err := s.store.LogHours(c.Request.Context(), req.Model(id))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"entry": entry})
}

// handleListComments returns the discussion of a task.
func (s *Server) handleListComments(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	comments, err := s.store.ListComments(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"comments": comments})
}

// handleAddComment posts a comment on a task.
func (s *Server) handleAddComment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.AddCommentDto
	if !s.bindJSON(c, &req) {
		return
	}
	comment, err := s.store.AddComment(c.Request.Context(), models.TaskComment{TaskID: id, AuthorID: req.AuthorID, Body: req.Body})
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"comment": comment})
}

// handleListAttachments returns the files linked to a task.
func (s *Server) handleListAttachments(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	files, err := s.store.ListAttachments(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"attachments": files})
}

// handleAddAttachment links a file to a task.
func (s *Server) handleAddAttachment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.AddAttachmentDto
	if !s.bindJSON(c, &req) {
		return
	}
	file, err := s.store.AddAttachment(c.Request.Context(), models.TaskAttachment{
		TaskID:    id,
		FileName:  req.FileName,
		URL:       req.URL,
		SizeBytes: req.SizeBytes,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"attachment": file})
}
