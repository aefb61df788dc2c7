package console

import (
	"context"

	"github.com/pratik-mahalle/darkwatch/internal/collection"
	"github.com/pratik-mahalle/darkwatch/pkg/client"
)

// PlatformUsers is the operator accounts page
type PlatformUsers struct {
	*collection.Synchronizer[client.PlatformUser, client.CreatePlatformUserRequest, client.UpdatePlatformUserRequest]
	svc *client.PlatformUserService
}

// NewPlatformUsers creates the users page
func NewPlatformUsers(d Deps) *PlatformUsers {
	svc := d.Client.PlatformUsers()
	return &PlatformUsers{
		Synchronizer: collection.New[client.PlatformUser, client.CreatePlatformUserRequest, client.UpdatePlatformUserRequest](
			"users", svc, d.options(UserSearchFields)...),
		svc: svc,
	}
}

// Suspend blocks an operator from signing in
func (u *PlatformUsers) Suspend(ctx context.Context, id int64) (*client.PlatformUser, error) {
	return u.setStatus(ctx, id, StatusSuspended)
}

// Activate re-enables an operator
func (u *PlatformUsers) Activate(ctx context.Context, id int64) (*client.PlatformUser, error) {
	return u.setStatus(ctx, id, StatusActive)
}

func (u *PlatformUsers) setStatus(ctx context.Context, id int64, status string) (*client.PlatformUser, error) {
	return u.Apply(ctx, "update_status", id, func(ctx context.Context) (*client.PlatformUser, error) {
		return u.svc.UpdateStatus(ctx, id, status)
	})
}
