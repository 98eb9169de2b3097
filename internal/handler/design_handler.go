package handler

import (
	"net/http"

	"tee-studio/internal/model"
	"tee-studio/internal/service"
)

type DesignHandler struct {
	service *service.DesignService
}

func NewDesignHandler(service *service.DesignService) *DesignHandler {
	return &DesignHandler{service: service}
}

func (h *DesignHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload model.CreateDesignRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	design, err := h.service.Create(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, design)
}

func (h *DesignHandler) List(w http.ResponseWriter, r *http.Request) {
	designs, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, designs)
}
