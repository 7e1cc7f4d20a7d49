package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/monocle-dev/taskhub/internal/middleware"
	"github.com/monocle-dev/taskhub/internal/types"
)

func TestGetCurrentUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		stored  any
		set     bool
		want    string
		wantErr bool
	}{
		{"stored by auth", middleware.AuthenticatedUser{ID: "u-1", Email: "a@example.com"}, true, "u-1", false},
		{"missing", nil, false, "", true},
		{"wrong type", "u-1", true, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, _ := gin.CreateTestContext(httptest.NewRecorder())
			if tt.set {
				ctx.Set(types.ContextUserKey, tt.stored)
			}

			got, err := GetCurrentUserID(ctx)
			if (err != nil) != tt.wantErr {
				t.Fatalf("GetCurrentUserID() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("GetCurrentUserID() = %q, want %q", got, tt.want)
			}
		})
	}
}
