package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/victornm/interviewprep/internal/auth"
	"github.com/victornm/interviewprep/internal/history"
	"github.com/victornm/interviewprep/internal/progress"
)

type ListSessionsRequest struct {
	Technology string `form:"technology"`
	Limit      int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

func (a *API) ListSessions(c *gin.Context) {
	var req ListSessionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		invalid(c, err)
		return
	}

	ss, err := a.hs.ListSessions(c.Request.Context(), history.ListSessionsRequest{
		UserID:     auth.UserID(c),
		Technology: req.Technology,
		Limit:      req.Limit,
	})
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"sessions": ss})
}

func (a *API) GetSession(c *gin.Context) {
	s, err := a.hs.GetSession(c.Request.Context(), history.GetSessionRequest{
		UserID:    auth.UserID(c),
		SessionID: c.Param("id"),
	})
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, s)
}

func (a *API) GetStats(c *gin.Context) {
	st, err := a.hs.GetStats(c.Request.Context(), history.GetStatsRequest{
		UserID: auth.UserID(c),
	})
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, st)
}

func (a *API) GetProgress(c *gin.Context) {
	p, err := a.ps.GetProgress(c.Request.Context(), progress.GetProgressRequest{
		UserID: auth.UserID(c),
	})
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"progress": p})
}
