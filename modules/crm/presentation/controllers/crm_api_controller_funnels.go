package controllers

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (c *CRMAPIController) registerFunnelRoutes(api *mux.Router) {
	api.HandleFunc("/funnels", c.ListFunnels).Methods(http.MethodGet)
	api.HandleFunc("/funnels", c.CreateFunnel).Methods(http.MethodPost)
	api.HandleFunc("/funnels/{id}", c.UpdateFunnel).Methods(http.MethodPatch)
	api.HandleFunc("/funnels/{id}", c.DeleteFunnel).Methods(http.MethodDelete)
	api.HandleFunc("/funnels/{id}:move", c.MoveFunnel).Methods(http.MethodPost)

	api.HandleFunc("/funnels/{key}/stages", c.ListStages).Methods(http.MethodGet)
	api.HandleFunc("/funnels/{key}/stages", c.CreateStage).Methods(http.MethodPost)
	api.HandleFunc("/stages/{id}", c.UpdateStage).Methods(http.MethodPatch)
	api.HandleFunc("/stages/{id}", c.DeleteStage).Methods(http.MethodDelete)
	api.HandleFunc("/stages/{id}:move", c.MoveStage).Methods(http.MethodPost)

	api.HandleFunc("/activity-templates", c.ListTemplates).Methods(http.MethodGet)
	api.HandleFunc("/activity-templates", c.CreateTemplate).Methods(http.MethodPost)
	api.HandleFunc("/activity-templates/{id}", c.DeleteTemplate).Methods(http.MethodDelete)
	api.HandleFunc("/activity-templates/{id}:move", c.MoveTemplate).Methods(http.MethodPost)
}

func (c *CRMAPIController) ListFunnels(w http.ResponseWriter, r *http.Request) {
	funnels := c.pipeline.Funnels()
	out := make([]funnelResponse, 0, len(funnels))
	for _, f := range funnels {
		out = append(out, toFunnelResponse(f))
	}
	writeJSON(w, http.StatusOK, out)
}

type createFunnelRequest struct {
	Name string `json:"name"`
}

func (c *CRMAPIController) CreateFunnel(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)

	var req createFunnelRequest
	if err := decodeJSON(r.Body, &req); err != nil || req.Name == "" {
		writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_BODY", "name is required")
		return
	}

	created, err := c.pipeline.AddFunnel(r.Context(), req.Name)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusCreated, toFunnelResponse(created))
}

type updateFunnelRequest struct {
	Name     string `json:"name"`
	IsActive *bool  `json:"is_active"`
}

func (c *CRMAPIController) UpdateFunnel(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)
	id, ok := pathUUID(r, "id")
	if !ok {
		writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_PATH", "invalid id")
		return
	}

	var req updateFunnelRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_BODY", "invalid json body")
		return
	}

	var target *funnelResponse
	for _, f := range c.pipeline.Funnels() {
		if f.ID == id {
			if req.Name != "" {
				f.Name = req.Name
			}
			if req.IsActive != nil {
				f.IsActive = *req.IsActive
			}
			if err := c.pipeline.UpdateFunnel(r.Context(), f); err != nil {
				writeServiceError(w, requestID, err)
				return
			}
			resp := toFunnelResponse(f)
			target = &resp
			break
		}
	}
	if target == nil {
		writeAPIError(w, http.StatusNotFound, requestID, "CRM_NOT_FOUND", "funnel not found")
		return
	}
	writeJSON(w, http.StatusOK, *target)
}

func (c *CRMAPIController) DeleteFunnel(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)
	id, ok := pathUUID(r, "id")
	if !ok {
		writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_PATH", "invalid id")
		return
	}
	if err := c.pipeline.DeleteFunnel(r.Context(), id); err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type moveRequest struct {
	Direction string `json:"direction"`
}

func (c *CRMAPIController) MoveFunnel(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)
	id, ok := pathUUID(r, "id")
	if !ok {
		writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_PATH", "invalid id")
		return
	}

	var req moveRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_BODY", "invalid json body")
		return
	}
	dir, ok := parseDirection(req.Direction)
	if !ok {
		writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_BODY", "direction must be up or down")
		return
	}

	if err := c.pipeline.MoveFunnel(r.Context(), id, dir); err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	c.ListFunnels(w, r)
}

func (c *CRMAPIController) ListStages(w http.ResponseWriter, r *http.Request) {
	stages := c.pipeline.StagesOf(mux.Vars(r)["key"])
	out := make([]stageResponse, 0, len(stages))
	for _, st := range stages {
		out = append(out, toStageResponse(st))
	}
	writeJSON(w, http.StatusOK, out)
}

type createStageRequest struct {
	Name string `json:"name"`
}

func (c *CRMAPIController) CreateStage(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)

	var req createStageRequest
	if err := decodeJSON(r.Body, &req); err != nil || req.Name == "" {
		writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_BODY", "name is required")
		return
	}

	created, err := c.pipeline.AddStage(r.Context(), mux.Vars(r)["key"], req.Name)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusCreated, toStageResponse(created))
}

type updateStageRequest struct {
	Name string `json:"name"`
}

func (c *CRMAPIController) UpdateStage(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)
	id, ok := pathUUID(r, "id")
	if !ok {
		writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_PATH", "invalid id")
		return
	}

	var req updateStageRequest
	if err := decodeJSON(r.Body, &req); err != nil || req.Name == "" {
		writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_BODY", "name is required")
		return
	}

	for _, st := range c.pipeline.Stages() {
		if st.ID == id {
			st.Name = req.Name
			if err := c.pipeline.UpdateStage(r.Context(), st); err != nil {
				writeServiceError(w, requestID, err)
				return
			}
			writeJSON(w, http.StatusOK, toStageResponse(st))
			return
		}
	}
	writeAPIError(w, http.StatusNotFound, requestID, "CRM_NOT_FOUND", "stage not found")
}

func (c *CRMAPIController) DeleteStage(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)
	id, ok := pathUUID(r, "id")
	if !ok {
		writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_PATH", "invalid id")
		return
	}
	if err := c.pipeline.DeleteStage(r.Context(), id); err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *CRMAPIController) MoveStage(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)
	id, ok := pathUUID(r, "id")
	if !ok {
		writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_PATH", "invalid id")
		return
	}

	var req moveRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_BODY", "invalid json body")
		return
	}
	dir, ok := parseDirection(req.Direction)
	if !ok {
		writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_BODY", "direction must be up or down")
		return
	}

	if err := c.pipeline.MoveStage(r.Context(), id, dir); err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *CRMAPIController) ListTemplates(w http.ResponseWriter, r *http.Request) {
	funnelKey := r.URL.Query().Get("funnel")
	stageKey := r.URL.Query().Get("stage")

	templates := c.pipeline.Templates()
	out := make([]templateResponse, 0, len(templates))
	for _, t := range templates {
		if funnelKey != "" && t.FunnelKey != funnelKey {
			continue
		}
		if stageKey != "" && t.StageKey != stageKey {
			continue
		}
		out = append(out, toTemplateResponse(t))
	}
	writeJSON(w, http.StatusOK, out)
}

type createTemplateRequest struct {
	FunnelKey string `json:"funnel_key"`
	StageKey  string `json:"stage_key"`
	Text      string `json:"text"`
}

func (c *CRMAPIController) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)

	var req createTemplateRequest
	if err := decodeJSON(r.Body, &req); err != nil || req.Text == "" {
		writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_BODY", "text is required")
		return
	}

	created, err := c.pipeline.AddTemplate(r.Context(), req.FunnelKey, req.StageKey, req.Text)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTemplateResponse(created))
}

func (c *CRMAPIController) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)
	id, ok := pathUUID(r, "id")
	if !ok {
		writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_PATH", "invalid id")
		return
	}
	if err := c.pipeline.DeleteTemplate(r.Context(), id); err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *CRMAPIController) MoveTemplate(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)
	id, ok := pathUUID(r, "id")
	if !ok {
		writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_PATH", "invalid id")
		return
	}

	var req moveRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_BODY", "invalid json body")
		return
	}
	dir, ok := parseDirection(req.Direction)
	if !ok {
		writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_BODY", "direction must be up or down")
		return
	}

	if err := c.pipeline.MoveTemplate(r.Context(), id, dir); err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
