package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/s2c2-dev/staffing/backend/internal/domain"
)

type myInfoResponse struct {
	*domain.User
	DisplayName string `json:"displayName"`
	CanManage   bool   `json:"canManage"`
}

func (h *Handler) GetMyInfo(w http.ResponseWriter, r *http.Request) {
	me := r.Context().Value(MyInfoCtx).(*domain.User)
	h.successResponse(w, r, "ok", myInfoResponse{
		User:        me,
		DisplayName: me.DisplayName(),
		CanManage:   actorFrom(r).IsManager(),
	})
}

func (h *Handler) UpdateMyPassword(w http.ResponseWriter, r *http.Request) {
	me := r.Context().Value(MyInfoCtx).(*domain.User)

	var req struct {
		OldPassword string `json:"oldPassword" validate:"required"`
		NewPassword string `json:"newPassword" validate:"required,min=8,nefield=OldPassword"`
	}
	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(me.PasswordHash), []byte(req.OldPassword)) != nil {
		h.errorResponse(w, r, "current password does not match")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if err := h.repository.UpdatePassword(r.Context(), me, string(hash)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.errorResponse(w, r, "account changed, please sign in again")
			return
		}
		h.internalServerError(w, r, err)
		return
	}

	slog.Info("password changed", "userID", me.ID, "requestID", requestIDFrom(r))
	h.successResponse(w, r, "password updated", nil)
}
