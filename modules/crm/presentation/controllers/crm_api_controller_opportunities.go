package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/apolice/crm/modules/crm/domain/aggregates/opportunity"
)

func (c *CRMAPIController) registerOpportunityRoutes(api *mux.Router) {
	api.HandleFunc("/opportunities", c.ListOpportunities).Methods(http.MethodGet)
	api.HandleFunc("/opportunities", c.CreateOpportunity).Methods(http.MethodPost)
	api.HandleFunc("/opportunities/{id}", c.UpdateOpportunity).Methods(http.MethodPatch)
	api.HandleFunc("/opportunities/{id}", c.DeleteOpportunity).Methods(http.MethodDelete)
	api.HandleFunc("/opportunities/{id}:move-stage", c.MoveOpportunityStage).Methods(http.MethodPost)

	api.HandleFunc("/activities", c.CreateActivity).Methods(http.MethodPost)
	api.HandleFunc("/activities/{id}", c.UpdateActivity).Methods(http.MethodPatch)
	api.HandleFunc("/activities/{id}", c.DeleteActivity).Methods(http.MethodDelete)
	api.HandleFunc("/activities/{id}:toggle", c.ToggleActivity).Methods(http.MethodPost)
}

func (c *CRMAPIController) ListOpportunities(w http.ResponseWriter, r *http.Request) {
	opportunities := c.pipeline.Opportunities()
	funnelKey := r.URL.Query().Get("funnel")

	out := make([]opportunityResponse, 0, len(opportunities))
	for _, o := range opportunities {
		if funnelKey != "" && o.FunnelKey != funnelKey {
			continue
		}
		out = append(out, toOpportunityResponse(o))
	}
	writeJSON(w, http.StatusOK, out)
}

type opportunityRequest struct {
	Title             string `json:"title"`
	FunnelKey         string `json:"funnel_key"`
	ClientID          string `json:"client_id"`
	Value             string `json:"value"`
	Commission        string `json:"commission"`
	ExpectedCloseDate string `json:"expected_close_date"`
	DealType          string `json:"deal_type"`
	Salesperson       string `json:"salesperson"`
	Origin            string `json:"origin"`
	TechnicalResp     string `json:"technical_responsible"`
	RenewalResp       string `json:"renewal_responsible"`
	InsuranceType     string `json:"insurance_type"`
	InsuranceCompany  string `json:"insurance_company"`
	Notes             string `json:"notes"`
}

func (req opportunityRequest) toEntity() (opportunity.Opportunity, bool) {
	if req.Title == "" || req.FunnelKey == "" {
		return opportunity.Opportunity{}, false
	}

	o := opportunity.Opportunity{
		Title:                req.Title,
		FunnelKey:            req.FunnelKey,
		DealType:             req.DealType,
		Salesperson:          req.Salesperson,
		Origin:               req.Origin,
		TechnicalResponsible: req.TechnicalResp,
		RenewalResponsible:   req.RenewalResp,
		InsuranceType:        req.InsuranceType,
		InsuranceCompany:     req.InsuranceCompany,
		Notes:                req.Notes,
	}
	if req.ClientID != "" {
		id, err := uuid.Parse(req.ClientID)
		if err != nil {
			return opportunity.Opportunity{}, false
		}
		o.ClientID = id
	}
	if req.Value != "" {
		d, err := decimal.NewFromString(req.Value)
		if err != nil {
			return opportunity.Opportunity{}, false
		}
		o.Value = d
	}
	if req.Commission != "" {
		d, err := decimal.NewFromString(req.Commission)
		if err != nil {
			return opportunity.Opportunity{}, false
		}
		o.Commission = d
	}
	if req.ExpectedCloseDate != "" {
		t, err := parseAPIDate(req.ExpectedCloseDate)
		if err != nil {
			return opportunity.Opportunity{}, false
		}
		o.ExpectedCloseDate = &t
	}
	return o, true
}

func (c *CRMAPIController) CreateOpportunity(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)

	var req opportunityRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_BODY", "invalid json body")
		return
	}
	o, ok := req.toEntity()
	if !ok {
		writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_BODY", "title and funnel_key are required")
		return
	}

	created, err := c.pipeline.AddOpportunity(r.Context(), o)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOpportunityResponse(created))
}

func (c *CRMAPIController) UpdateOpportunity(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)
	id, ok := pathUUID(r, "id")
	if !ok {
		writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_PATH", "invalid id")
		return
	}

	var req opportunityRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_BODY", "invalid json body")
		return
	}

	var existing *opportunity.Opportunity
	for _, o := range c.pipeline.Opportunities() {
		if o.ID == id {
			existing = &o
			break
		}
	}
	if existing == nil {
		writeAPIError(w, http.StatusNotFound, requestID, "CRM_NOT_FOUND", "opportunity not found")
		return
	}

	updated, ok := req.toEntity()
	if !ok {
		writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_BODY", "title and funnel_key are required")
		return
	}
	// The stage and funnel are not editable here; moving between
	// stages goes through the move endpoint where the gate runs.
	updated.ID = existing.ID
	updated.UserID = existing.UserID
	updated.FunnelKey = existing.FunnelKey
	updated.Stage = existing.Stage
	updated.Activities = existing.Activities
	updated.CreatedAt = existing.CreatedAt

	if err := c.pipeline.UpdateOpportunity(r.Context(), updated); err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, toOpportunityResponse(updated))
}

func (c *CRMAPIController) DeleteOpportunity(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)
	id, ok := pathUUID(r, "id")
	if !ok {
		writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_PATH", "invalid id")
		return
	}
	if err := c.pipeline.DeleteOpportunity(r.Context(), id); err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type moveStageRequest struct {
	Stage string `json:"stage"`
}

func (c *CRMAPIController) MoveOpportunityStage(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)
	id, ok := pathUUID(r, "id")
	if !ok {
		writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_PATH", "invalid id")
		return
	}

	var req moveStageRequest
	if err := decodeJSON(r.Body, &req); err != nil || req.Stage == "" {
		writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_BODY", "stage is required")
		return
	}

	if err := c.pipeline.MoveOpportunityStage(r.Context(), id, req.Stage); err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type activityRequest struct {
	OpportunityID string `json:"opportunity_id"`
	Text          string `json:"text"`
	Stage         string `json:"stage"`
	AssignedTo    string `json:"assigned_to"`
	DueDate       string `json:"due_date"`
	DueTime       string `json:"due_time"`
}

func (c *CRMAPIController) CreateActivity(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)

	var req activityRequest
	if err := decodeJSON(r.Body, &req); err != nil || req.Text == "" || req.Stage == "" {
		writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_BODY", "text and stage are required")
		return
	}
	oppID, err := uuid.Parse(req.OpportunityID)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_BODY", "opportunity_id is invalid")
		return
	}

	a := opportunity.Activity{
		ID:            uuid.New(),
		OpportunityID: oppID,
		Text:          req.Text,
		Stage:         req.Stage,
		AssignedTo:    req.AssignedTo,
		DueTime:       req.DueTime,
	}
	if req.DueDate != "" {
		t, err := parseAPIDate(req.DueDate)
		if err != nil {
			writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_BODY", "due_date is invalid")
			return
		}
		a.DueDate = &t
	}

	created, err := c.pipeline.AddActivity(r.Context(), a)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusCreated, activityResponse{
		ID:         created.ID,
		Text:       created.Text,
		Stage:      created.Stage,
		Completed:  created.Completed,
		AssignedTo: created.AssignedTo,
		DueDate:    created.DueDate,
		DueTime:    created.DueTime,
	})
}

func (c *CRMAPIController) UpdateActivity(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)
	id, ok := pathUUID(r, "id")
	if !ok {
		writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_PATH", "invalid id")
		return
	}

	var req activityRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_BODY", "invalid json body")
		return
	}

	var existing *opportunity.Activity
	for _, o := range c.pipeline.Opportunities() {
		for _, a := range o.Activities {
			if a.ID == id {
				found := a
				existing = &found
				break
			}
		}
	}
	if existing == nil {
		writeAPIError(w, http.StatusNotFound, requestID, "CRM_NOT_FOUND", "activity not found")
		return
	}

	updated := *existing
	if req.Text != "" {
		updated.Text = req.Text
	}
	updated.AssignedTo = req.AssignedTo
	updated.DueTime = req.DueTime
	if req.DueDate != "" {
		t, err := parseAPIDate(req.DueDate)
		if err != nil {
			writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_BODY", "due_date is invalid")
			return
		}
		updated.DueDate = &t
	}

	if err := c.pipeline.UpdateActivity(r.Context(), updated); err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *CRMAPIController) DeleteActivity(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)
	id, ok := pathUUID(r, "id")
	if !ok {
		writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_PATH", "invalid id")
		return
	}
	if err := c.pipeline.DeleteActivity(r.Context(), id); err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *CRMAPIController) ToggleActivity(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)
	id, ok := pathUUID(r, "id")
	if !ok {
		writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_PATH", "invalid id")
		return
	}
	if err := c.pipeline.ToggleActivity(r.Context(), id); err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
