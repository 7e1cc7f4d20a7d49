package cache

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// NoFilter stands in for the filter hash when a list query has no filters.
const NoFilter = "all"

// Keys builds the namespaced cache keys. The formats are shared with other
// deployments and must not change.
type Keys struct {
	Prefix string
}

func (k Keys) Project(id string) string {
	return k.Prefix + ":project:" + id
}

func (k Keys) ProjectList(page, limit int, filterHash string) string {
	return fmt.Sprintf("%s:projects:list:p%d_l%d_%s", k.Prefix, page, limit, filterHash)
}

func (k Keys) ProjectListPattern() string {
	return k.Prefix + ":projects:list:*"
}

func (k Keys) Task(id string) string {
	return k.Prefix + ":task:" + id
}

// TaskPattern matches every task point key and nothing under tasks:.
func (k Keys) TaskPattern() string {
	return k.Prefix + ":task:*"
}

func (k Keys) TasksByProject(projectID string) string {
	return k.Prefix + ":tasks:project:" + projectID
}

func (k Keys) TasksByProjectPattern() string {
	return k.Prefix + ":tasks:project:*"
}

func (k Keys) TaskList(page, limit int, filterHash string) string {
	return fmt.Sprintf("%s:tasks:list:p%d_l%d_%s", k.Prefix, page, limit, filterHash)
}

func (k Keys) TaskListPattern() string {
	return k.Prefix + ":tasks:list:*"
}

func (k Keys) GitHubRepos(username string) string {
	return k.Prefix + ":github:repos:" + strings.ToLower(username)
}

type emptiable interface {
	IsEmpty() bool
}

// FilterHash returns the hex MD5 of the JSON encoding of filter, or NoFilter
// when filter is nil or reports itself empty.
func FilterHash(filter any) string {
	if filter == nil {
		return NoFilter
	}

	if e, ok := filter.(emptiable); ok && e.IsEmpty() {
		return NoFilter
	}

	data, err := json.Marshal(filter)
	if err != nil {
		return NoFilter
	}

	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}
