package services

import (
	"context"

	"github.com/monocle-dev/taskhub/internal/apperrors"
	"github.com/monocle-dev/taskhub/internal/repository"
)

// OwnershipGuard decides whether a user owns a project. Ownership of a task is
// always the ownership of its project.
type OwnershipGuard struct {
	projects repository.ProjectRepository
}

func NewOwnershipGuard(projects repository.ProjectRepository) *OwnershipGuard {
	return &OwnershipGuard{projects: projects}
}

// CheckOwnership fails with a NotFoundError when the project does not exist;
// otherwise it reports whether ownerID owns it.
func (g *OwnershipGuard) CheckOwnership(ctx context.Context, projectID, ownerID string) (bool, error) {
	project, err := g.projects.FindByID(ctx, projectID)
	if err != nil {
		return false, err
	}

	if project == nil {
		return false, apperrors.NewNotFound("project", projectID)
	}

	return project.IsOwnedBy(ownerID), nil
}

// Require turns a negative ownership check into an UnauthorizedError.
func (g *OwnershipGuard) Require(ctx context.Context, projectID, ownerID, action, resource string) error {
	owned, err := g.CheckOwnership(ctx, projectID, ownerID)
	if err != nil {
		return err
	}

	if !owned {
		return apperrors.NewUnauthorized(action, resource, ownerID)
	}

	return nil
}
