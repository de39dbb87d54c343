package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/devdeck/internal/listing"
	"github.com/geocoder89/devdeck/internal/utils"
)

// pathID reads a positive id path param, answering 400 when it is malformed.
func pathID(ctx *gin.Context, name string) (int64, bool) {
	id, err := utils.ParseID(ctx.Param(name))
	if err != nil {
		RespondError(ctx, http.StatusBadRequest, "invalid_id", name+" must be a positive integer", nil)
		return 0, false
	}
	return id, true
}

// listParams reads page, limit and the first non-empty of filterKeys.
func listParams(ctx *gin.Context, defaultLimit int, filterKeys ...string) listing.Params {
	filters := make([]string, 0, len(filterKeys))
	for _, k := range filterKeys {
		filters = append(filters, ctx.Query(k))
	}
	return listing.Parse(ctx.Query("page"), ctx.Query("limit"), utils.FirstNonEmpty(filters...), defaultLimit)
}
