package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/pratik-mahalle/darkwatch/internal/collection"
	"github.com/pratik-mahalle/darkwatch/internal/task"
	"github.com/pratik-mahalle/darkwatch/pkg/client"
)

func TestPresent(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantExit    int
		wantMessage string
		wantSilent  bool
	}{
		{
			name:        "auth",
			err:         &client.APIError{StatusCode: 401, Detail: "Could not validate credentials"},
			wantCode:    ErrCodeUnauthorized,
			wantExit:    ExitAuth,
			wantMessage: "darkwatch auth login",
		},
		{
			name:        "missing token",
			err:         fmt.Errorf("%w: no token", client.ErrAuth),
			wantCode:    ErrCodeUnauthorized,
			wantExit:    ExitAuth,
			wantMessage: "not authenticated",
		},
		{
			name:        "permission shows only access denied",
			err:         &client.APIError{StatusCode: 403, Detail: "admin role required for billing"},
			wantCode:    ErrCodeForbidden,
			wantExit:    ExitPermission,
			wantMessage: "access denied",
			wantSilent:  true,
		},
		{
			name:        "validation shows backend detail",
			err:         fmt.Errorf("create company: %w", &client.APIError{StatusCode: 422, Detail: "Domain already registered"}),
			wantCode:    ErrCodeValidation,
			wantExit:    ExitValidation,
			wantMessage: "Domain already registered",
		},
		{
			name:        "not found suggests refresh",
			err:         &client.APIError{StatusCode: 404},
			wantCode:    ErrCodeNotFound,
			wantExit:    ExitNotFound,
			wantMessage: "Refresh",
		},
		{
			name:        "remote",
			err:         fmt.Errorf("%w: connection refused", client.ErrRemote),
			wantCode:    ErrCodeRemote,
			wantExit:    ExitGeneric,
			wantMessage: "try again",
		},
		{
			name:        "declined confirmation",
			err:         collection.ErrCanceled,
			wantCode:    ErrCodeCanceled,
			wantExit:    ExitCanceled,
			wantMessage: "canceled",
		},
		{
			name:     "canceled watch",
			err:      task.ErrCanceled,
			wantCode: ErrCodeCanceled,
			wantExit: ExitCanceled,
		},
		{
			name:     "interrupted",
			err:      context.Canceled,
			wantCode: ErrCodeCanceled,
			wantExit: ExitCanceled,
		},
		{
			name:        "task failure",
			err:         fmt.Errorf("%w: scraper crashed", task.ErrFailed),
			wantCode:    ErrCodeTaskFailed,
			wantExit:    ExitGeneric,
			wantMessage: "scraper crashed",
		},
		{
			name:        "anything else",
			err:         stderrors.New("disk full"),
			wantCode:    ErrCodeInternal,
			wantExit:    ExitGeneric,
			wantMessage: "disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Present(tt.err)
			if got == nil {
				t.Fatal("Present() = nil")
			}
			if got.Code != tt.wantCode {
				t.Errorf("Present() code = %s, want %s", got.Code, tt.wantCode)
			}
			if got.ExitCode != tt.wantExit {
				t.Errorf("Present() exit = %d, want %d", got.ExitCode, tt.wantExit)
			}
			if !strings.Contains(got.Message, tt.wantMessage) {
				t.Errorf("Present() message = %q, want it to contain %q", got.Message, tt.wantMessage)
			}
			if got.Silent != tt.wantSilent {
				t.Errorf("Present() silent = %v, want %v", got.Silent, tt.wantSilent)
			}
		})
	}
}

func TestPresent_PermissionHidesDetail(t *testing.T) {
	got := Present(&client.APIError{StatusCode: 403, Detail: "admin role required for billing"})
	if strings.Contains(got.Error(), "billing") {
		t.Errorf("Present() leaked detail: %q", got.Error())
	}
}

func TestPresent_Nil(t *testing.T) {
	if got := Present(nil); got != nil {
		t.Errorf("Present(nil) = %v, want nil", got)
	}
}

func TestPresent_AppErrorPassesThrough(t *testing.T) {
	in := &AppError{Code: "CUSTOM", Message: "custom", ExitCode: 9}
	if got := Present(fmt.Errorf("wrapped: %w", in)); got != in {
		t.Errorf("Present() = %v, want the original AppError", got)
	}
}
