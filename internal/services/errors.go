package services

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/apierr"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/ctxutil"
)

var ErrNotAuthorized = apierr.Msg(http.StatusUnauthorized, "not_authorized", "Not authorized")

func badRequest(msg string) error {
	return apierr.Msg(http.StatusBadRequest, "bad_request", msg)
}

func unauthorized(msg string) error {
	return apierr.Msg(http.StatusUnauthorized, "unauthorized", msg)
}

func notFound(msg string) error {
	return apierr.Msg(http.StatusNotFound, "not_found", msg)
}

func unprocessable(msg string) error {
	return apierr.Msg(http.StatusUnprocessableEntity, "unprocessable", msg)
}

// currentUser returns the authenticated caller's id.
func currentUser(ctx context.Context) (uuid.UUID, error) {
	id := ctxutil.UserID(ctx)
	if id == uuid.Nil {
		return uuid.Nil, ErrNotAuthorized
	}
	return id, nil
}

// parseID treats malformed ids like missing rows.
func parseID(raw, notFoundMsg string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, notFound(notFoundMsg)
	}
	return id, nil
}
