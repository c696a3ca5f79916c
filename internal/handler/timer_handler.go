package handler

import (
	"bytes"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"campus/companion/internal/middleware"
	"campus/companion/internal/notify"
	"campus/companion/internal/service"
	"campus/companion/internal/timer"
)

type TimerHandler struct {
	timerService *service.TimerService
	authService  *service.AuthService
	hub          *notify.Hub
}

type versionRequest struct {
	BaseVersion int `json:"baseVersion"`
}

type switchModeRequest struct {
	BaseVersion int    `json:"baseVersion"`
	Mode        string `json:"mode"`
}

type updateSettingsRequest struct {
	BaseVersion       int `json:"baseVersion"`
	FocusMinutes      int `json:"focusMinutes"`
	ShortBreakMinutes int `json:"shortBreakMinutes"`
	LongBreakMinutes  int `json:"longBreakMinutes"`
	LongBreakInterval int `json:"longBreakInterval"`
}

func NewTimerHandler(timerService *service.TimerService, authService *service.AuthService, hub *notify.Hub) *TimerHandler {
	return &TimerHandler{timerService: timerService, authService: authService, hub: hub}
}

func (h *TimerHandler) GetState(c *gin.Context) {
	state, apiErr := h.timerService.GetState(c.Request.Context(), middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (h *TimerHandler) Start(c *gin.Context) {
	var req versionRequest
	if !bindVersioned(c, &req, &req.BaseVersion) {
		return
	}
	state, apiErr := h.timerService.Start(c.Request.Context(), middleware.UserID(c), req.BaseVersion)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (h *TimerHandler) Pause(c *gin.Context) {
	var req versionRequest
	if !bindVersioned(c, &req, &req.BaseVersion) {
		return
	}
	state, apiErr := h.timerService.Pause(c.Request.Context(), middleware.UserID(c), req.BaseVersion)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (h *TimerHandler) Reset(c *gin.Context) {
	var req versionRequest
	if !bindVersioned(c, &req, &req.BaseVersion) {
		return
	}
	state, apiErr := h.timerService.Reset(c.Request.Context(), middleware.UserID(c), req.BaseVersion)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (h *TimerHandler) Skip(c *gin.Context) {
	var req versionRequest
	if !bindVersioned(c, &req, &req.BaseVersion) {
		return
	}
	state, apiErr := h.timerService.Skip(c.Request.Context(), middleware.UserID(c), req.BaseVersion)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (h *TimerHandler) SwitchMode(c *gin.Context) {
	var req switchModeRequest
	if !bindVersioned(c, &req, &req.BaseVersion) {
		return
	}
	state, apiErr := h.timerService.SwitchMode(c.Request.Context(), middleware.UserID(c), req.Mode, req.BaseVersion)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (h *TimerHandler) UpdateSettings(c *gin.Context) {
	var req updateSettingsRequest
	if !bindVersioned(c, &req, &req.BaseVersion) {
		return
	}

	state, apiErr := h.timerService.UpdateSettings(c.Request.Context(), middleware.UserID(c), service.UpdateSettingsInput{
		BaseVersion: req.BaseVersion,
		Config: timer.Config{
			FocusMinutes:      req.FocusMinutes,
			ShortBreakMinutes: req.ShortBreakMinutes,
			LongBreakMinutes:  req.LongBreakMinutes,
			LongBreakInterval: req.LongBreakInterval,
		},
	})
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (h *TimerHandler) GetHistory(c *gin.Context) {
	// zero lets the service apply its default
	limit := 0
	if rawLimit := c.Query("limit"); rawLimit != "" {
		if parsed, err := strconv.Atoi(rawLimit); err == nil {
			limit = parsed
		}
	}

	records, apiErr := h.timerService.GetHistory(c.Request.Context(), middleware.UserID(c), limit)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": records})
}

func (h *TimerHandler) GetStats(c *gin.Context) {
	stats, apiErr := h.timerService.GetStats(c.Request.Context(), middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

func (h *TimerHandler) Report(c *gin.Context) {
	userID := middleware.UserID(c)
	historyReport, apiErr := h.timerService.BuildReport(c.Request.Context(), userID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	if user, apiErr := h.authService.CurrentUser(c.Request.Context(), userID); apiErr == nil {
		historyReport.UserEmail = user.Email
	}

	var buf bytes.Buffer
	if err := historyReport.Write(&buf); err != nil {
		writeError(c, nil)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="focus-report.pdf"`)
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// Events streams mode completions as Server-Sent Events until the client
// disconnects.
func (h *TimerHandler) Events(c *gin.Context) {
	events, cancel := h.hub.Subscribe(middleware.UserID(c))
	defer cancel()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case event, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent("mode_completed", event)
			return true
		}
	})
}

// bindVersioned decodes the JSON body into req and requires a positive
// baseVersion.
func bindVersioned(c *gin.Context, req interface{}, baseVersion *int) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		writeInvalidJSON(c)
		return false
	}
	if *baseVersion <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "invalid_base_version", "message": "baseVersion is required"},
		})
		return false
	}
	return true
}
