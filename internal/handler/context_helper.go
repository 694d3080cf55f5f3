package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/internal/middleware"
	"github.com/noah-isme/timetable-api/internal/models"
)

const anonymousActor = "anonymous"

func actorFromContext(c *gin.Context) models.Actor {
	return middleware.ActorFromContext(c, anonymousActor)
}

// listParams holds the query parameters shared by resource listings.
type listParams struct {
	Search          string
	IncludeInactive bool
	Page            int
	PageSize        int
}

func parseListParams(c *gin.Context) listParams {
	params := listParams{Search: strings.TrimSpace(c.Query("search"))}
	if include, err := strconv.ParseBool(c.DefaultQuery("include_inactive", "false")); err == nil {
		params.IncludeInactive = include
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		params.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		params.PageSize = size
	}
	return params
}
