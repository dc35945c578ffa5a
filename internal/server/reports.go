package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pmtrack/internal/dto"
	"pmtrack/internal/reports"
)

// reportWindow binds the report query string and validates its window.
func (s *Server) reportWindow(c *gin.Context) (dto.ReportQuery, reports.Window, bool) {
	var q dto.ReportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		s.respondError(c, queryError(err))
		return q, reports.Window{}, false
	}
	w, err := reports.ParseWindow(q.From, q.To, s.maxWindowDays)
	if err != nil {
		s.respondError(c, err)
		return q, reports.Window{}, false
	}
	return q, w, true
}

// queryError reports every query string binding failure as invalid input.
func queryError(err error) error {
	err = dto.Describe(err)
	var ve *dto.ValidationError
	if errors.As(err, &ve) {
		return ve
	}
	return &dto.ValidationError{Fields: []dto.FieldError{{Message: err.Error()}}}
}

// handleOverviewReport answers GET /api/reports/overview?from=&to=[&projectId=&assigneeId=].
// The body is a ReportsOverview.
func (s *Server) handleOverviewReport(c *gin.Context) {
	q, w, ok := s.reportWindow(c)
	if !ok {
		return
	}
	overview, err := s.store.OverviewReport(c.Request.Context(), w, q.Filter(), s.now())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, overview)
}

// handleDailyHoursReport answers GET /api/reports/daily-hours?from=&to=[&assigneeId=&projectId=].
// The body is a list of DailyHoursReportDto, one per assignee.
func (s *Server) handleDailyHoursReport(c *gin.Context) {
	q, w, ok := s.reportWindow(c)
	if !ok {
		return
	}
	daily, err := s.store.DailyHoursReport(c.Request.Context(), w, q.Filter())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, daily)
}
