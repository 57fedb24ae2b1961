package handler

import (
	"context"
	"net/http"

	"github.com/kiranshivaraju/hiretrack/internal/api/response"
	"github.com/kiranshivaraju/hiretrack/pkg/models"
)

type ActivityFeed interface {
	Recent(ctx context.Context, limit int) ([]models.Activity, error)
}

// NewActivityHandler serves GET /api/activity, newest first. Without a limit the
// whole feed is returned.
func NewActivityHandler(feed ActivityFeed) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := queryInt(r, "limit")
		if err != nil {
			badRequest(w, err.Error())
			return
		}
		list, err := feed.Recent(r.Context(), limit)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		if list == nil {
			list = []models.Activity{}
		}
		response.JSON(w, list)
	}
}
