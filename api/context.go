package api

import (
	"context"
)

type keyType string

const (
	workspaceKey keyType = "workspace"
	confirmedKey keyType = "confirmed"
)

// ctxWithWorkspace adds the caller's workspace to the context
func ctxWithWorkspace(ctx context.Context, ws *workspace) context.Context {
	return context.WithValue(ctx, workspaceKey, ws)
}

// ctxGetWorkspace retrieves the caller's workspace, or nil when the request has no session
func ctxGetWorkspace(ctx context.Context) *workspace {
	ws, _ := ctx.Value(workspaceKey).(*workspace)
	return ws
}

// ctxWithConfirmed records whether the user confirmed a destructive action
func ctxWithConfirmed(ctx context.Context, confirmed bool) context.Context {
	return context.WithValue(ctx, confirmedKey, confirmed)
}

func ctxConfirmed(ctx context.Context) bool {
	confirmed, _ := ctx.Value(confirmedKey).(bool)
	return confirmed
}
