package utils

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

func GetProjectID(ctx *gin.Context) (string, error) {
	return requiredParam(ctx, "project_id", "Project ID not found")
}

func GetTaskID(ctx *gin.Context) (string, error) {
	return requiredParam(ctx, "task_id", "Task ID not found")
}

func requiredParam(ctx *gin.Context, name, missing string) (string, error) {
	value := strings.TrimSpace(ctx.Param(name))

	if value == "" {
		return "", errors.New(missing)
	}

	return value, nil
}

// GetPagination reads page and limit from the query string. Missing or
// unparsable values come back as 0 and are defaulted by the services.
func GetPagination(ctx *gin.Context) (int, int) {
	page, _ := strconv.Atoi(ctx.Query("page"))
	limit, _ := strconv.Atoi(ctx.Query("limit"))

	return page, limit
}

// GetTags accepts both ?tags=a,b and ?tags=a&tags=b.
func GetTags(ctx *gin.Context) []string {
	var tags []string

	for _, raw := range ctx.QueryArray("tags") {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
	}

	return tags
}

func GetBool(ctx *gin.Context, name string) bool {
	value, err := strconv.ParseBool(ctx.Query(name))
	return err == nil && value
}
