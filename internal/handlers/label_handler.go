package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/custodia/backend/internal/services"
)

type LabelHandler struct {
	service *services.LabelService
}

func NewLabelHandler(service *services.LabelService) *LabelHandler {
	return &LabelHandler{service: service}
}

// GenerateLabel produces a QR label for a badge
// @Summary Generate badge QR label
// @Description Generate a scannable QR label encoding the badge and its custody state
// @Tags labels
// @Produce json
// @Security BearerAuth
// @Param numeroLegajo path string true "Badge number (5-6 digits)"
// @Success 200 {object} object{token=string,qrImage=string}
// @Failure 400 {object} services.ErrorResponse
// @Router /ledger/legajos/{numeroLegajo}/label [get]
func (h *LabelHandler) GenerateLabel(w http.ResponseWriter, r *http.Request) {
	badgeID := chi.URLParam(r, "numeroLegajo")

	token, qrImage, err := h.service.GenerateBadgeLabel(r.Context(), badgeID)
	if err != nil {
		var vErr *services.ValidationError
		if errors.As(err, &vErr) {
			services.SendErrorResponse(w, "Validación fallida", http.StatusBadRequest, vErr.Fields)
			return
		}
		services.SendErrorResponse(w, "No se pudo generar la etiqueta", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"token":   token,
		"qrImage": qrImage,
	})
}

// VerifyLabel resolves a scanned label token
// @Summary Verify a scanned label
// @Description Resolve a scanned QR label token to the badge it was printed for
// @Tags labels
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{token=string} true "Label verification request"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} services.ErrorResponse
// @Router /ledger/labels/verify [post]
func (h *LabelHandler) VerifyLabel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if !decodeRequest(w, r, &req) {
		return
	}
	if req.Token == "" {
		services.SendErrorResponse(w, "Solicitud inválida", http.StatusBadRequest, nil)
		return
	}

	payload, err := h.service.VerifyBadgeLabel(r.Context(), req.Token)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payload)
}
