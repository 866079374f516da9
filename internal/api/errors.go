package api

import (
	"context"
	stderrors "errors"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/victornm/interviewprep/internal/errors"
	"github.com/victornm/interviewprep/internal/interviewer"
	"github.com/victornm/interviewprep/internal/practice"
)

// toError maps domain errors to coded errors. Coded errors pass through.
func toError(err error) *errors.Error {
	var e *errors.Error
	if stderrors.As(err, &e) {
		return e
	}

	code := errors.CodeInternal
	switch {
	case stderrors.Is(err, practice.ErrEmptyAnswer),
		stderrors.Is(err, practice.ErrInvalidArgument):
		code = errors.CodeInvalidArgument
	case stderrors.Is(err, practice.ErrDraftNotFound):
		code = errors.CodeNotFound
	case stderrors.Is(err, practice.ErrInvalidTransition),
		stderrors.Is(err, practice.ErrQuestionTerminal):
		code = errors.CodeFailedPrecondition
	case stderrors.Is(err, practice.ErrBusy):
		code = errors.CodeAborted
	case stderrors.Is(err, interviewer.ErrGeneration),
		stderrors.Is(err, interviewer.ErrEvaluation),
		stderrors.Is(err, interviewer.ErrSummary),
		stderrors.Is(err, context.DeadlineExceeded):
		code = errors.CodeUnavailable
	default:
		return errors.Internal(err)
	}

	return errors.New(code, errors.WithMessagef("%s", err.Error()), errors.WithCause(err))
}

func abort(c *gin.Context, err error) {
	e := toError(err)
	if e.Code == errors.CodeInternal {
		slog.ErrorContext(c.Request.Context(), "api: request failed", "path", c.FullPath(), "error", err)
	}
	c.AbortWithStatusJSON(e.HTTPStatusCode(), e)
}

func invalid(c *gin.Context, err error) {
	abort(c, errors.New(errors.CodeInvalidArgument, errors.WithMessagef("%s", describe(err)), errors.WithCause(err)))
}
