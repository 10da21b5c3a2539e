package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/apolice/crm/modules/crm/domain/entities/task"
	"github.com/apolice/crm/pkg/composables"
)

func (c *CRMAPIController) registerTaskRoutes(api *mux.Router) {
	api.HandleFunc("/tasks", c.ListTasks).Methods(http.MethodGet)
	api.HandleFunc("/tasks", c.CreateTask).Methods(http.MethodPost)
	api.HandleFunc("/tasks/{id}", c.UpdateTask).Methods(http.MethodPatch)
	api.HandleFunc("/tasks/{id}", c.DeleteTask).Methods(http.MethodDelete)

	api.HandleFunc("/board", c.GetBoard).Methods(http.MethodGet)
	api.HandleFunc("/board:toggle", c.ToggleBoardCard).Methods(http.MethodPost)
}

func (c *CRMAPIController) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks := c.pipeline.Tasks()
	out := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, toTaskResponse(t))
	}
	writeJSON(w, http.StatusOK, out)
}

type taskRequest struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Status        string `json:"status"`
	ClientID      string `json:"client_id"`
	OpportunityID string `json:"opportunity_id"`
	DueDate       string `json:"due_date"`
	Recurrence    string `json:"recurrence"`
}

func (req taskRequest) toEntity() (task.Task, bool) {
	if req.Title == "" {
		return task.Task{}, false
	}
	t := task.Task{
		Title:       req.Title,
		Description: req.Description,
		Status:      task.Status(req.Status),
		Recurrence:  task.Recurrence(req.Recurrence),
	}
	if req.ClientID != "" {
		id, err := uuid.Parse(req.ClientID)
		if err != nil {
			return task.Task{}, false
		}
		t.ClientID = &id
	}
	if req.OpportunityID != "" {
		id, err := uuid.Parse(req.OpportunityID)
		if err != nil {
			return task.Task{}, false
		}
		t.OpportunityID = &id
	}
	if req.DueDate != "" {
		due, err := parseAPIDate(req.DueDate)
		if err != nil {
			return task.Task{}, false
		}
		t.DueDate = &due
	}
	return t, true
}

func (c *CRMAPIController) CreateTask(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)

	var req taskRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_BODY", "invalid json body")
		return
	}
	t, ok := req.toEntity()
	if !ok {
		writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_BODY", "title is required")
		return
	}

	created, err := c.pipeline.AddTask(r.Context(), t)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTaskResponse(created))
}

func (c *CRMAPIController) UpdateTask(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)
	id, ok := pathUUID(r, "id")
	if !ok {
		writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_PATH", "invalid id")
		return
	}

	var req taskRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_BODY", "invalid json body")
		return
	}
	updated, ok := req.toEntity()
	if !ok {
		writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_BODY", "title is required")
		return
	}

	for _, t := range c.pipeline.Tasks() {
		if t.ID == id {
			updated.ID = t.ID
			updated.UserID = t.UserID
			updated.CreatedAt = t.CreatedAt
			if updated.Status == "" {
				updated.Status = t.Status
			}
			if updated.Recurrence == "" {
				updated.Recurrence = t.Recurrence
			}
			if err := c.pipeline.UpdateTask(r.Context(), updated); err != nil {
				writeServiceError(w, requestID, err)
				return
			}
			writeJSON(w, http.StatusOK, toTaskResponse(updated))
			return
		}
	}
	writeAPIError(w, http.StatusNotFound, requestID, "CRM_NOT_FOUND", "task not found")
}

func (c *CRMAPIController) DeleteTask(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)
	id, ok := pathUUID(r, "id")
	if !ok {
		writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_PATH", "invalid id")
		return
	}
	if err := c.pipeline.DeleteTask(r.Context(), id); err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetBoard renders the acting user's unified board. The user query
// parameter carries the display name funnel activities are assigned by.
func (c *CRMAPIController) GetBoard(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)
	u, err := composables.MustUseUser(r.Context())
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}

	cards := c.pipeline.Board(r.URL.Query().Get("user"), u.ID)
	out := make([]boardCardResponse, 0, len(cards))
	for _, card := range cards {
		out = append(out, toBoardCardResponse(card))
	}
	writeJSON(w, http.StatusOK, out)
}

type toggleBoardCardRequest struct {
	ID               string `json:"id"`
	IsFunnelActivity bool   `json:"is_funnel_activity"`
	ActivityID       string `json:"activity_id"`
}

func (c *CRMAPIController) ToggleBoardCard(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)

	var req toggleBoardCardRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_BODY", "invalid json body")
		return
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_BODY", "id is invalid")
		return
	}

	card := task.BoardCard{ID: id, IsFunnelActivity: req.IsFunnelActivity}
	if req.ActivityID != "" {
		actID, err := uuid.Parse(req.ActivityID)
		if err != nil {
			writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_BODY", "activity_id is invalid")
			return
		}
		card.ActivityID = &actID
	}

	if err := c.pipeline.ToggleBoardCard(r.Context(), card); err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
