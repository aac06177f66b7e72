package handler

import (
	"net/http"
	"time"

	"invoicer/internal/middleware"
	"invoicer/internal/service"
	"invoicer/pkg/response"

	"github.com/gin-gonic/gin"
)

type StatisticsHandler struct {
	statisticsService service.StatisticsService
	revenueService    service.RevenueService
}

func NewStatisticsHandler(statisticsService service.StatisticsService, revenueService service.RevenueService) *StatisticsHandler {
	return &StatisticsHandler{
		statisticsService: statisticsService,
		revenueService:    revenueService,
	}
}

func (h *StatisticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	stats := router.Group("/api/statistics")
	{
		stats.GET("", h.GetStatistics)
		stats.GET("/revenue", h.GetRevenueStatistics)
	}
}

// @Summary      Get invoice statistics
// @Description  Counts and totals per status, amounts invoiced, paid and outstanding, and the top customers of the workspace
// @Tags         statistics
// @Produce      json
// @Param        X-Workspace-ID  header  string  false  "Workspace ID"
// @Param        start_date      query   string  false  "Start Date (RFC3339), open when omitted"
// @Param        end_date        query   string  false  "End Date (RFC3339), open when omitted"
// @Success      200  {object}  response.Response{data=model.StatisticsResponse}
// @Failure      400  {object}  response.Response  "Invalid date format"
// @Failure      500  {object}  response.Response
// @Router       /api/statistics [get]
func (h *StatisticsHandler) GetStatistics(c *gin.Context) {
	startDate, endDate, ok := dateRange(c)
	if !ok {
		return
	}

	stats, err := h.statisticsService.GetStatistics(c.Request.Context(), middleware.GetWorkspaceID(c), startDate, endDate)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}

// GetRevenueStatistics returns invoiced, tax and paid amounts grouped by period
// @Summary      Get revenue statistics
// @Description  Drafts are left out; periods are keyed by their first day
// @Tags         statistics
// @Produce      json
// @Param        X-Workspace-ID  header    string  false  "Workspace ID"
// @Param        group_by        query     string  false  "Group by period: week, month, quarter, year (default: month)"
// @Param        start_date      query     string  false  "Start date (RFC3339)"
// @Param        end_date        query     string  false  "End date (RFC3339)"
// @Success      200             {object}  response.Response{data=[]service.RevenueDataPoint}
// @Failure      400             {object}  response.Response
// @Router       /api/statistics/revenue [get]
func (h *StatisticsHandler) GetRevenueStatistics(c *gin.Context) {
	startDate, endDate, ok := dateRange(c)
	if !ok {
		return
	}

	filter := service.RevenueFilter{
		GroupBy:   c.DefaultQuery("group_by", "month"),
		StartDate: startDate,
		EndDate:   endDate,
	}
	data, err := h.revenueService.GetRevenueStatistics(c.Request.Context(), middleware.GetWorkspaceID(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, data))
}

// dateRange reads start_date and end_date. A missing bound leaves that side open.
func dateRange(c *gin.Context) (time.Time, time.Time, bool) {
	var startDate, endDate time.Time
	var err error
	if s := c.Query("start_date"); s != "" {
		startDate, err = time.Parse(time.RFC3339, s)
		if err != nil {
			badRequest(c, "invalid start_date format, expected RFC3339")
			return startDate, endDate, false
		}
	}
	if s := c.Query("end_date"); s != "" {
		endDate, err = time.Parse(time.RFC3339, s)
		if err != nil {
			badRequest(c, "invalid end_date format, expected RFC3339")
			return startDate, endDate, false
		}
	}
	return startDate, endDate, true
}
