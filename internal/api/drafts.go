package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/victornm/interviewprep/internal/auth"
	"github.com/victornm/interviewprep/internal/domain"
	"github.com/victornm/interviewprep/internal/errors"
	"github.com/victornm/interviewprep/internal/practice"
)

type (
	DraftResponse struct {
		ID string `json:"id"`
		practice.Snapshot
	}

	QuestionResponse struct {
		Question domain.Question `json:"question"`
		Draft    DraftResponse   `json:"draft"`
	}

	CreateDraftRequest struct {
		Technology string `json:"technology"`
		// Quick starts right away with the default difficulty and question count.
		Quick bool `json:"quick"`
	}

	SelectTechnologyRequest struct {
		Technology string `json:"technology" binding:"required"`
	}

	StartInterviewRequest struct {
		Difficulty    domain.Difficulty `json:"difficulty" binding:"omitempty,difficulty"`
		QuestionCount int               `json:"questionCount" binding:"omitempty,min=1"`
	}

	SubmitAnswerRequest struct {
		Answer string `json:"answer"`
		// Source tells a typed answer from a voice transcript. Both are handled alike.
		Source string `json:"source" binding:"omitempty,oneof=text voice"`
	}
)

func (a *API) CreateDraft(c *gin.Context) {
	var req CreateDraftRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			invalid(c, err)
			return
		}
	}

	if req.Quick && req.Technology == "" {
		abort(c, errors.New(errors.CodeInvalidArgument, errors.WithMessagef("quick start requires a technology")))
		return
	}
	if req.Technology != "" {
		if err := a.checkTechnology(req.Technology); err != nil {
			abort(c, err)
			return
		}
	}

	d, err := a.registry.Create(auth.UserID(c))
	if err != nil {
		abort(c, err)
		return
	}

	switch {
	case req.Quick:
		err = d.Machine.QuickStart(c.Request.Context(), req.Technology)
	case req.Technology != "":
		err = d.Machine.SelectTechnology(req.Technology)
	}
	if err != nil {
		// The draft stays usable in the setup step, so the caller learns its id.
		c.Header("Location", "/v1/drafts/"+d.ID)
		abort(c, err)
		return
	}

	c.JSON(http.StatusCreated, draft(d))
}

func (a *API) GetDraft(c *gin.Context) {
	d, ok := a.draft(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, draft(d))
}

func (a *API) DeleteDraft(c *gin.Context) {
	if err := a.registry.Delete(c.Param("id"), auth.UserID(c)); err != nil {
		abort(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (a *API) SelectTechnology(c *gin.Context) {
	var req SelectTechnologyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalid(c, err)
		return
	}

	if err := a.checkTechnology(req.Technology); err != nil {
		abort(c, err)
		return
	}

	d, ok := a.draft(c)
	if !ok {
		return
	}

	if err := d.Machine.SelectTechnology(req.Technology); err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, draft(d))
}

func (a *API) StartInterview(c *gin.Context) {
	var req StartInterviewRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			invalid(c, err)
			return
		}
	}

	if req.Difficulty == "" {
		req.Difficulty = practice.DefaultDifficulty
	}
	if req.QuestionCount == 0 {
		req.QuestionCount = practice.DefaultQuestionCount
	}
	if !a.catalog.AllowsCount(req.QuestionCount) {
		abort(c, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("questionCount must be one of %v", a.catalog.QuestionCounts)))
		return
	}

	d, ok := a.draft(c)
	if !ok {
		return
	}

	if err := d.Machine.StartInterview(c.Request.Context(), req.Difficulty, req.QuestionCount); err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, draft(d))
}

func (a *API) SubmitAnswer(c *gin.Context) {
	var req SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalid(c, err)
		return
	}

	d, ok := a.draft(c)
	if !ok {
		return
	}

	q, err := d.Machine.SubmitAnswer(c.Request.Context(), req.Answer)
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, QuestionResponse{Question: q, Draft: draft(d)})
}

func (a *API) SkipQuestion(c *gin.Context) {
	d, ok := a.draft(c)
	if !ok {
		return
	}

	q, err := d.Machine.Skip()
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, QuestionResponse{Question: q, Draft: draft(d)})
}

func (a *API) GoBack(c *gin.Context) {
	d, ok := a.draft(c)
	if !ok {
		return
	}

	if err := d.Machine.GoBack(); err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, draft(d))
}

func (a *API) CompleteInterview(c *gin.Context) {
	d, ok := a.draft(c)
	if !ok {
		return
	}

	s, err := d.Machine.Complete(c.Request.Context())
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, s)
}

// SignOut discards every draft of the current user.
func (a *API) SignOut(c *gin.Context) {
	n := a.registry.DeleteUser(auth.UserID(c))
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}

func (a *API) draft(c *gin.Context) (practice.Draft, bool) {
	d, err := a.registry.Get(c.Param("id"), auth.UserID(c))
	if err != nil {
		abort(c, err)
		return practice.Draft{}, false
	}
	return d, true
}

func (a *API) checkTechnology(id string) error {
	if _, ok := a.catalog.Technology(id); !ok {
		return errors.New(errors.CodeInvalidArgument, errors.WithMessagef("unknown technology: %s", id))
	}
	return nil
}

func draft(d practice.Draft) DraftResponse {
	return DraftResponse{ID: d.ID, Snapshot: d.Machine.Snapshot()}
}
