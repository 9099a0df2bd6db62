package httpadapter

import (
	"errors"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"github.com/andrescamacho/autobuild-go/internal/adapters/gamedata"
	"github.com/andrescamacho/autobuild-go/internal/application/planner"
	"github.com/andrescamacho/autobuild-go/internal/domain/dispatch"
	"github.com/andrescamacho/autobuild-go/internal/domain/shared"
)

func writeError(ctx *app.RequestContext, err error) {
	var (
		notFound       *shared.NotFoundError
		actionNotFound *dispatch.ErrActionNotFound
		unknownName    *gamedata.ErrUnknownName
		validation     *shared.ValidationError
		unknownStrat   *planner.ErrUnknownStrategy
		notRunning     *planner.ErrSessionNotRunning
		sessionErr     *shared.SessionError
		transition     *dispatch.ErrInvalidActionTransition
	)

	switch {
	case errors.As(err, &notFound), errors.As(err, &actionNotFound):
		writeErrorBody(ctx, consts.StatusNotFound, "not_found", err.Error())
	case errors.As(err, &unknownStrat):
		writeErrorBody(ctx, consts.StatusBadRequest, "unknown_strategy", err.Error())
	case errors.As(err, &unknownName), errors.As(err, &validation):
		writeErrorBody(ctx, consts.StatusBadRequest, "bad_request", err.Error())
	case errors.As(err, &notRunning):
		writeErrorBody(ctx, consts.StatusConflict, "session_not_running", err.Error())
	case errors.As(err, &sessionErr):
		writeErrorBody(ctx, consts.StatusConflict, "session_conflict", err.Error())
	case errors.As(err, &transition):
		writeErrorBody(ctx, consts.StatusConflict, "invalid_transition", err.Error())
	default:
		writeErrorBody(ctx, consts.StatusInternalServerError, "internal_error", err.Error())
	}
}

func writeErrorBody(ctx *app.RequestContext, status int, code, message string) {
	ctx.JSON(status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
