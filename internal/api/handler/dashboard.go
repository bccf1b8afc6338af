package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/statusboard/statusboard/internal/api/models"
	"github.com/statusboard/statusboard/internal/api/response"
	"github.com/statusboard/statusboard/internal/dashboard"
	"github.com/statusboard/statusboard/internal/statusrow"
)

// DashboardHandler handles dashboard endpoints.
type DashboardHandler struct {
	board *dashboard.Board
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(board *dashboard.Board) *DashboardHandler {
	return &DashboardHandler{board: board}
}

// GetDashboard handles GET /v1/dashboard - render all rows.
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	views, err := h.board.Views(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	rows := make([]models.Row, 0, len(views))
	for _, v := range views {
		rows = append(rows, toRow(v))
	}
	response.JSON(w, r, http.StatusOK, models.Dashboard{
		EditMode: h.board.EditMode(),
		Rows:     rows,
	})
}

// AppearRow handles POST /v1/dashboard/rows/{serviceId}/appear - row displayed.
// Returns 202 when this started the initial check, 200 otherwise.
func (h *DashboardHandler) AppearRow(w http.ResponseWriter, r *http.Request) {
	serviceID := chi.URLParam(r, "serviceId")

	started, err := h.board.Appear(r.Context(), serviceID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	view, err := h.board.View(r.Context(), serviceID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	status := http.StatusOK
	if started {
		status = http.StatusAccepted
	}
	response.JSON(w, r, status, toRow(view))
}

// ActivateRow handles POST /v1/dashboard/rows/{serviceId}/activate - tap a row.
func (h *DashboardHandler) ActivateRow(w http.ResponseWriter, r *http.Request) {
	serviceID := chi.URLParam(r, "serviceId")

	if err := h.board.Activate(r.Context(), serviceID); err != nil {
		writeError(w, r, err)
		return
	}

	view, err := h.board.View(r.Context(), serviceID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Accepted(w, r, "", toRow(view))
}

// SetEditMode handles PUT /v1/dashboard/edit-mode.
func (h *DashboardHandler) SetEditMode(w http.ResponseWriter, r *http.Request) {
	var input models.EditModeRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if input.Enabled == nil {
		response.BadRequest(w, r, "enabled is required", []models.FieldError{
			{Field: "enabled", Message: "enabled is required", Code: "REQUIRED"},
		})
		return
	}

	h.board.SetEditMode(*input.Enabled)
	zerolog.Ctx(r.Context()).Info().
		Str("operator", GetOperator(r.Context())).
		Bool("edit_mode", *input.Enabled).
		Msg("edit mode set")

	response.JSON(w, r, http.StatusOK, models.EditModeResponse{EditMode: h.board.EditMode()})
}

// MoveRow handles PUT /v1/dashboard/rows/{serviceId}/position - reorder in edit mode.
func (h *DashboardHandler) MoveRow(w http.ResponseWriter, r *http.Request) {
	serviceID := chi.URLParam(r, "serviceId")

	var input models.PositionRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if input.Position == nil || *input.Position < 0 {
		response.BadRequest(w, r, "position must be a non-negative integer", []models.FieldError{
			{Field: "position", Message: "position must be a non-negative integer", Code: "INVALID"},
		})
		return
	}

	if err := h.board.Move(r.Context(), serviceID, *input.Position); err != nil {
		writeError(w, r, err)
		return
	}

	h.GetDashboard(w, r)
}

// RemoveRow handles DELETE /v1/dashboard/rows/{serviceId} - remove in edit mode.
func (h *DashboardHandler) RemoveRow(w http.ResponseWriter, r *http.Request) {
	serviceID := chi.URLParam(r, "serviceId")

	if err := h.board.Remove(r.Context(), serviceID); err != nil {
		writeError(w, r, err)
		return
	}
	response.NoContent(w, r)
}

func toRow(v dashboard.RowView) models.Row {
	row := models.Row{
		ServiceID:      v.ServiceID,
		Name:           v.Name,
		URL:            v.URL,
		IconRef:        v.IconRef,
		Icon:           v.Icon,
		Position:       v.Position,
		Glyph:          string(v.Glyph),
		Loading:        v.Loading,
		LastOnlineDate: models.OptionalTimestamp(v.LastOnlineDate),
	}
	if v.Message != "" {
		msg := v.Message
		row.Message = &msg
	}
	if v.Glyph != statusrow.GlyphNone && v.StatusCode != 0 {
		code := v.StatusCode
		row.StatusCode = &code
	}
	if v.ResponseTime != nil {
		ms := v.ResponseTime.Milliseconds()
		row.ResponseTimeMs = &ms
	}
	return row
}
