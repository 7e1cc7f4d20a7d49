package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/monocle-dev/taskhub/internal/auth"
	"github.com/monocle-dev/taskhub/internal/middleware"
	"github.com/monocle-dev/taskhub/internal/services"
	"github.com/monocle-dev/taskhub/internal/types"
	"github.com/monocle-dev/taskhub/internal/utils"
)

type CreateUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UpdateUserRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email" binding:"omitempty,email"`
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password" binding:"omitempty,min=8"`
}

type AuthHandler struct {
	users  *services.UserService
	tokens *auth.TokenIssuer
	domain string
}

func NewAuthHandler(users *services.UserService, tokens *auth.TokenIssuer, domain string) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, domain: domain}
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var body CreateUserRequest
	if !bindJSON(ctx, &body) {
		return
	}

	user, err := h.users.Register(ctx.Request.Context(), services.RegisterInput{
		Email:    body.Email,
		Name:     body.Name,
		Password: body.Password,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}

	token, err := h.tokens.Generate(user.ID, user.Email().String())
	if err != nil {
		log.Printf("Failed to generate JWT: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	h.setTokenCookie(ctx, token, int(h.tokens.TTL().Seconds()))

	ctx.JSON(http.StatusCreated, gin.H{
		"user":  types.NewUserResponse(user),
		"token": token,
	})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var body LoginUserRequest
	if !bindJSON(ctx, &body) {
		return
	}

	user, err := h.users.Authenticate(ctx.Request.Context(), body.Email, body.Password)
	if err != nil {
		respondError(ctx, err)
		return
	}

	token, err := h.tokens.Generate(user.ID, user.Email().String())
	if err != nil {
		log.Printf("Failed to generate JWT: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	h.setTokenCookie(ctx, token, int(h.tokens.TTL().Seconds()))

	ctx.JSON(http.StatusOK, gin.H{
		"user":  types.NewUserResponse(user),
		"token": token,
	})
}

func (h *AuthHandler) Logout(ctx *gin.Context) {
	h.setTokenCookie(ctx, "", -1)

	ctx.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func (h *AuthHandler) Me(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	user, err := h.users.Get(ctx.Request.Context(), userID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": types.NewUserResponse(user)})
}

func (h *AuthHandler) UpdateMe(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body UpdateUserRequest
	if !bindJSON(ctx, &body) {
		return
	}

	user, err := h.users.Update(ctx.Request.Context(), services.UpdateUserInput{
		UserID:          userID,
		Name:            body.Name,
		Email:           body.Email,
		CurrentPassword: body.CurrentPassword,
		NewPassword:     body.NewPassword,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "User updated successfully",
		"user":    types.NewUserResponse(user),
	})
}

func (h *AuthHandler) setTokenCookie(ctx *gin.Context, token string, maxAge int) {
	http.SetCookie(ctx.Writer, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    token,
		Path:     "/",
		Domain:   h.domain,
		MaxAge:   maxAge,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteNoneMode,
	})
}
