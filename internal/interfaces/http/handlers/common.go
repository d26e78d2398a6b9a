// Package handlers implements the gin handlers of the compliance API.
package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/ComplianceSentinel/internal/domain/obligation"
	"github.com/turtacn/ComplianceSentinel/pkg/errors"
	"github.com/turtacn/ComplianceSentinel/pkg/types/common"
)

// ActorHeader carries the id of the user performing a mutation. Identity is
// established upstream; the API only records it.
const ActorHeader = "X-Actor-ID"

// parsePagination reads page and page_size, defaulting to 1 and 20.
func parsePagination(c *gin.Context) common.Pagination {
	p := common.Pagination{Page: 1, PageSize: 20}
	if v, err := strconv.Atoi(c.Query("page")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(c.Query("page_size")); err == nil && v > 0 && v <= 500 {
		p.PageSize = v
	}
	return p
}

// parseTier reads an optional tier query parameter.
func parseTier(c *gin.Context, key string) (*obligation.Tier, error) {
	v := c.Query(key)
	if v == "" {
		return nil, nil
	}
	t, err := obligation.ParseTier(v)
	if err != nil {
		return nil, errors.InvalidParam("invalid " + key).WithDetail(v)
	}
	return &t, nil
}

// splitList splits a comma-separated query parameter.
func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func requestID(c *gin.Context) string {
	return c.GetString(string(common.ContextKeyRequestID))
}

func respond[T any](c *gin.Context, status int, data T) {
	resp := common.NewSuccessResponse(data)
	resp.RequestID = requestID(c)
	c.JSON(status, resp)
}

func respondPage[T any](c *gin.Context, data T, p common.Pagination, total int64) {
	p.Total = total
	resp := common.NewPaginatedResponse(data, p)
	resp.RequestID = requestID(c)
	c.JSON(http.StatusOK, resp)
}

// respondError maps an error onto its HTTP status. Messages of 500s are
// masked.
func respondError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	status := errors.HTTPStatusForCode(code)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		code, msg = errors.ErrCodeInternal, "internal server error"
	}
	_ = c.Error(err)
	resp := common.NewErrorResponse(string(code), msg)
	resp.RequestID = requestID(c)
	c.AbortWithStatusJSON(status, resp)
}

//Personal.AI order the ending
