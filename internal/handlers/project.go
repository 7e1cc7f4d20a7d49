package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/monocle-dev/taskhub/internal/services"
	"github.com/monocle-dev/taskhub/internal/utils"
)

type CreateProjectRequest struct {
	Title       string   `json:"title" binding:"required,max=200"`
	Description string   `json:"description" binding:"max=2000"`
	Tags        []string `json:"tags" binding:"omitempty,dive,required,max=50"`
}

// UpdateProjectRequest distinguishes an omitted or null tags field, which
// keeps the current tags, from an empty array, which clears them.
type UpdateProjectRequest struct {
	Title       *string   `json:"title" binding:"omitempty,max=200"`
	Description *string   `json:"description" binding:"omitempty,max=2000"`
	Tags        *[]string `json:"tags" binding:"omitempty,dive,required,max=50"`
}

type LinkGitHubRequest struct {
	Username string `json:"username" binding:"required,max=39"`
}

type ProjectHandler struct {
	projects *services.ProjectService
	github   *services.GitHubService
}

func NewProjectHandler(projects *services.ProjectService, github *services.GitHubService) *ProjectHandler {
	return &ProjectHandler{projects: projects, github: github}
}

func (h *ProjectHandler) CreateProject(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body CreateProjectRequest
	if !bindJSON(ctx, &body) {
		return
	}

	project, err := h.projects.Create(ctx.Request.Context(), services.CreateProjectInput{
		Title:       body.Title,
		Description: body.Description,
		Tags:        body.Tags,
		OwnerID:     userID,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, project)
}

func (h *ProjectHandler) GetProject(ctx *gin.Context) {
	projectID, err := utils.GetProjectID(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := h.projects.Get(ctx.Request.Context(), projectID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, project)
}

func (h *ProjectHandler) ListProjects(ctx *gin.Context) {
	page, limit := utils.GetPagination(ctx)

	list, err := h.projects.GetAll(ctx.Request.Context(), services.ListProjectsInput{
		Page:   page,
		Limit:  limit,
		Tags:   utils.GetTags(ctx),
		Search: ctx.Query("search"),
	})
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, list)
}

func (h *ProjectHandler) UpdateProject(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	projectID, err := utils.GetProjectID(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var body UpdateProjectRequest
	if !bindJSON(ctx, &body) {
		return
	}

	in := services.UpdateProjectInput{
		ProjectID:   projectID,
		OwnerID:     userID,
		Title:       body.Title,
		Description: body.Description,
	}
	if body.Tags != nil {
		in.Tags = *body.Tags
		if in.Tags == nil {
			in.Tags = []string{}
		}
	}

	project, err := h.projects.Update(ctx.Request.Context(), in)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, project)
}

func (h *ProjectHandler) DeleteProject(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	projectID, err := utils.GetProjectID(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.projects.Delete(ctx.Request.Context(), services.DeleteProjectInput{
		ProjectID: projectID,
		OwnerID:   userID,
		Force:     utils.GetBool(ctx, "force"),
	})
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, result)
}

func (h *ProjectHandler) LinkGitHub(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	projectID, err := utils.GetProjectID(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var body LinkGitHubRequest
	if !bindJSON(ctx, &body) {
		return
	}

	project, err := h.github.SyncRepositories(ctx.Request.Context(), services.SyncRepositoriesInput{
		ProjectID: projectID,
		OwnerID:   userID,
		Username:  body.Username,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, project)
}

func (h *ProjectHandler) ListUserRepositories(ctx *gin.Context) {
	repos, err := h.github.ListRepositories(ctx.Request.Context(), ctx.Param("username"))
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"repositories": repos})
}
