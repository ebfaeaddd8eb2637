package http_handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/baechuer/chatcpe-service/internal/application/faq"
	"github.com/baechuer/chatcpe-service/internal/domain"
	"github.com/baechuer/chatcpe-service/internal/transport/http/dto"
	"github.com/baechuer/chatcpe-service/internal/transport/http/middleware"
	"github.com/baechuer/chatcpe-service/internal/transport/http/response"
	"github.com/baechuer/chatcpe-service/internal/transport/http/validate"
)

type FAQService interface {
	List(ctx context.Context, active *bool) ([]domain.FAQ, error)
	Get(ctx context.Context, id int64) (domain.FAQ, error)
	Create(ctx context.Context, actor domain.User, in faq.CreateInput) (domain.FAQ, error)
	Update(ctx context.Context, actor domain.User, id int64, patch domain.FAQPatch) (domain.FAQ, error)
	Delete(ctx context.Context, actor domain.User, id int64) error
}

type FAQHandler struct {
	svc FAQService
}

func NewFAQHandler(svc FAQService) *FAQHandler {
	return &FAQHandler{svc: svc}
}

// List handles GET /faq?active=true|false.
func (h *FAQHandler) List(w http.ResponseWriter, r *http.Request) {
	var active *bool
	if raw := r.URL.Query().Get("active"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			response.WriteError(w, r, domain.ErrInvalidField("active", "must be true or false"))
			return
		}
		active = &v
	}

	list, err := h.svc.List(r.Context(), active)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.NewFAQList(list))
}

func (h *FAQHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	f, err := h.svc.Get(r.Context(), id)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.NewFAQView(f))
}

func (h *FAQHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.WriteError(w, r, domain.ErrTokenMissing())
		return
	}

	var req dto.CreateFAQRequest
	if err := response.DecodeJSON(w, r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		response.WriteError(w, r, err)
		return
	}

	f, err := h.svc.Create(r.Context(), actor, req.Input())
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.Created(w, dto.NewFAQView(f))
}

func (h *FAQHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.WriteError(w, r, domain.ErrTokenMissing())
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	var req dto.UpdateFAQRequest
	if err := response.DecodeJSON(w, r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		response.WriteError(w, r, err)
		return
	}

	f, err := h.svc.Update(r.Context(), actor, id, req.Patch())
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.NewFAQView(f))
}

func (h *FAQHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.WriteError(w, r, domain.ErrTokenMissing())
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	if err := h.svc.Delete(r.Context(), actor, id); err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.NoContent(w)
}
