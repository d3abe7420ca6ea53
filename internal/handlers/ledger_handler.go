package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/custodia/backend/internal/lock"
	"github.com/custodia/backend/internal/models"
	"github.com/custodia/backend/internal/services"
)

// LedgerHandler exposes check-out, check-in, reconciliation and status
// queries. Domain validation lives in the service; handlers only decode,
// dispatch and map outcomes onto HTTP statuses.
type LedgerHandler struct {
	service *services.LedgerService
}

func NewLedgerHandler(service *services.LedgerService) *LedgerHandler {
	return &LedgerHandler{service: service}
}

// RecordExit registers a badge check-out
// @Summary Record a check-out (salida)
// @Description Register that a badge left custody, with the taking credential and division
// @Tags ledger
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.ExitRequest true "Exit submission"
// @Success 200 {object} models.ExitResult
// @Failure 400 {object} services.ErrorResponse
// @Failure 409 {object} models.ExitResult "Duplicate or pending checkout"
// @Failure 503 {object} services.ErrorResponse "Ledger busy"
// @Router /ledger/salidas [post]
func (h *LedgerHandler) RecordExit(w http.ResponseWriter, r *http.Request) {
	var req models.ExitRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	res, err := h.service.RecordExit(r.Context(), req)
	if err != nil {
		writeOperationError(w, err, "Error al guardar salida")
		return
	}
	writeResult(w, res, res.Success)
}

// RecordEntry registers a badge check-in
// @Summary Record a check-in (entrada)
// @Description Register that a badge was returned; closes every open checkout for the badge
// @Tags ledger
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.EntryRequest true "Entry submission"
// @Success 200 {object} models.EntryResult
// @Failure 400 {object} services.ErrorResponse
// @Failure 409 {object} models.EntryResult "Duplicate or conflicting entry"
// @Failure 503 {object} services.ErrorResponse "Ledger busy"
// @Router /ledger/entradas [post]
func (h *LedgerHandler) RecordEntry(w http.ResponseWriter, r *http.Request) {
	var req models.EntryRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	res, err := h.service.RecordEntry(r.Context(), req)
	if err != nil {
		writeOperationError(w, err, "Error al guardar entrada")
		return
	}
	writeResult(w, res, res.Success)
}

// ReconcileEntry overwrites a conflicting entry after operator confirmation
// @Summary Reconcile a conflicting entry
// @Description Explicitly confirmed overwrite of an existing entry row
// @Tags ledger
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.ReconcileEntryRequest true "Reconciliation request"
// @Success 200 {object} models.EntryResult
// @Failure 400 {object} services.ErrorResponse
// @Failure 503 {object} services.ErrorResponse "Ledger busy"
// @Router /ledger/entradas/reconciliar [post]
func (h *LedgerHandler) ReconcileEntry(w http.ResponseWriter, r *http.Request) {
	var req models.ReconcileEntryRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	res, err := h.service.ReconcileEntry(r.Context(), req)
	if err != nil {
		writeOperationError(w, err, "Error al reemplazar datos de entrada")
		return
	}
	writeResult(w, res, res.Success)
}

// QueryStatus resolves a badge's custody state
// @Summary Query badge status
// @Description Current custody state, most recent record and full history for a badge
// @Tags ledger
// @Produce json
// @Security BearerAuth
// @Param numeroLegajo path string true "Badge number (5-6 digits)"
// @Success 200 {object} models.StatusResult
// @Failure 400 {object} services.ErrorResponse
// @Router /ledger/legajos/{numeroLegajo} [get]
func (h *LedgerHandler) QueryStatus(w http.ResponseWriter, r *http.Request) {
	badgeID := chi.URLParam(r, "numeroLegajo")

	res, err := h.service.QueryStatus(r.Context(), badgeID)
	if err != nil {
		writeOperationError(w, err, "Error interno al consultar el legajo")
		return
	}
	writeResult(w, res, true)
}

func decodeRequest(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		services.SendErrorResponse(w, "Solicitud inválida", http.StatusBadRequest, nil)
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "El cuerpo debe contener un único objeto JSON", http.StatusBadRequest, nil)
		return false
	}
	return true
}

func writeResult(w http.ResponseWriter, res any, success bool) {
	w.Header().Set("Content-Type", "application/json")
	if !success {
		// Rejections still carry the full structured result so the front end
		// can render the conflict details.
		w.WriteHeader(http.StatusConflict)
	}
	json.NewEncoder(w).Encode(res)
}

func writeOperationError(w http.ResponseWriter, err error, fallback string) {
	var vErr *services.ValidationError
	switch {
	case errors.As(err, &vErr):
		services.SendErrorResponse(w, "Validación fallida", http.StatusBadRequest, vErr.Fields)
	case errors.Is(err, lock.ErrBusy):
		services.SendErrorResponse(w, "El sistema está ocupado procesando otra operación. Intente nuevamente en unos segundos.", http.StatusServiceUnavailable, nil)
	default:
		log.Printf("[LEDGER] operation failed: %v", err)
		services.SendErrorResponse(w, fallback, http.StatusInternalServerError, nil)
	}
}
