package httputil

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ParseLimit parses the limit query parameter, defaulting to def. The limit must be
// between 1 and maxLimit.
func ParseLimit(c *gin.Context, def, maxLimit int) (int, error) {
	limitStr := c.DefaultQuery("limit", strconv.Itoa(def))
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 1 || limit > maxLimit {
		return 0, fmt.Errorf("invalid limit parameter: must be between 1 and %d", maxLimit)
	}
	return limit, nil
}
