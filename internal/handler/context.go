package handler

import (
	"net/http"

	"github.com/s2c2-dev/staffing/backend/internal/domain"
)

type ContextKey string

var (
	RequestIDCtxKey ContextKey = "requestID"
	RoleCtxKey      ContextKey = "role"
	ActorCtxKey     ContextKey = "actor"
	MyInfoCtx       ContextKey = "myInfo"
	StaffInfoCtx    ContextKey = "staffInfo"
	LocationCtx     ContextKey = "location"
	NeedCtx         ContextKey = "need"
)

func actorFrom(r *http.Request) domain.Actor {
	return r.Context().Value(ActorCtxKey).(domain.Actor)
}
