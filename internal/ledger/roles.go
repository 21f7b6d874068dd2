package ledger

import (
	"context"
	"log/slog"
	"strings"

	v1 "github.com/aevon-lab/ticket-ledger/internal/api/v1"
	"github.com/aevon-lab/ticket-ledger/internal/core/auth"
	"github.com/aevon-lab/ticket-ledger/internal/core/storage"
)

// GetRole returns the role of identity; identities never assigned a role are Users.
func (e *Engine) GetRole(ctx context.Context, identity string) (v1.Role, error) {
	var role v1.Role
	err := e.store.View(ctx, func(tx storage.ReadTx) error {
		var err error
		role, err = tx.Role(ctx, identity)
		return err
	})
	if err != nil {
		return "", internalError("read role", err)
	}
	return role, nil
}

// AssignOrganizer grants target the Organizer role.
func (e *Engine) AssignOrganizer(ctx context.Context, caller Caller, target string) error {
	return e.setOrganizer(ctx, caller, target, "assign_organizer", v1.RoleOrganizer)
}

// RevokeOrganizer returns target to the User role.
func (e *Engine) RevokeOrganizer(ctx context.Context, caller Caller, target string) error {
	return e.setOrganizer(ctx, caller, target, "revoke_organizer", v1.RoleUser)
}

func (e *Engine) setOrganizer(ctx context.Context, caller Caller, target, op string, role v1.Role) error {
	m := mutation{
		op:     op,
		caller: caller,
		locks:  storage.Locks().Role(caller.Identity).Role(target),
		params: []any{target},
	}
	_, err := mutate(ctx, e, m, func(ctx context.Context, tx storage.Tx, _ *settlementRun) (struct{}, error) {
		callerRole, err := tx.Role(ctx, caller.Identity)
		if err != nil {
			return struct{}{}, internalError("read caller role", err)
		}
		if !auth.Can(callerRole, auth.ManageRoles) {
			return struct{}{}, newError(KindPermissionDenied, "%s requires %s", op, auth.ManageRoles)
		}
		if strings.TrimSpace(target) == "" {
			return struct{}{}, newError(KindInvalidArgument, "target identity is required")
		}

		current, err := tx.Role(ctx, target)
		if err != nil {
			return struct{}{}, internalError("read target role", err)
		}
		if current == v1.RoleAdmin {
			return struct{}{}, newError(KindInvalidArgument, "admin roles are managed by configuration")
		}

		if err := tx.PutRole(ctx, target, role); err != nil {
			return struct{}{}, internalError("write role", err)
		}
		return struct{}{}, nil
	})
	if err == nil {
		slog.Info("[Ledger] Role changed", "caller", caller.Identity, "target", target, "role", role)
	}
	return err
}

// BootstrapAdmins stores the Admin role for every configured identity. It runs
// at startup, outside the capability checks.
func (e *Engine) BootstrapAdmins(ctx context.Context, identities []string) error {
	for _, id := range identities {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		err := e.store.Update(ctx, storage.Locks().Role(id), func(tx storage.Tx) error {
			return tx.PutRole(ctx, id, v1.RoleAdmin)
		})
		if err != nil {
			return internalError("bootstrap admin "+id, err)
		}
		slog.Info("[Ledger] Bootstrapped admin", "identity", id)
	}
	return nil
}
