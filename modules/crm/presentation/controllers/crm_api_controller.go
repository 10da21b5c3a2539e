package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/apolice/crm/modules/crm/domain/aggregates/client"
	"github.com/apolice/crm/modules/crm/services"
	"github.com/apolice/crm/pkg/application"
	"github.com/apolice/crm/pkg/middleware"
)

// CRMAPIController exposes the pipeline over JSON. All handlers run
// inside a request transaction with a resolved user; mutation semantics
// (validation, stage gate, reorder rollback) live in the service.
type CRMAPIController struct {
	app       application.Application
	pipeline  *services.PipelineService
	apiPrefix string
}

func NewCRMAPIController(app application.Application) application.Controller {
	return &CRMAPIController{
		app:       app,
		pipeline:  app.Service(services.PipelineService{}).(*services.PipelineService),
		apiPrefix: "/crm/api",
	}
}

func (c *CRMAPIController) Key() string {
	return c.apiPrefix
}

func (c *CRMAPIController) Register(r *mux.Router) {
	api := r.PathPrefix(c.apiPrefix).Subrouter()
	api.Use(middleware.RequireUser())

	api.HandleFunc("/clients", c.ListClients).Methods(http.MethodGet)
	api.HandleFunc("/clients", c.CreateClient).Methods(http.MethodPost)
	api.HandleFunc("/clients/{id}", c.UpdateClient).Methods(http.MethodPatch)
	api.HandleFunc("/clients/{id}", c.DeleteClient).Methods(http.MethodDelete)

	api.HandleFunc("/policies", c.ListPolicies).Methods(http.MethodGet)
	api.HandleFunc("/policies", c.CreatePolicy).Methods(http.MethodPost)
	api.HandleFunc("/policies/{id}", c.UpdatePolicy).Methods(http.MethodPatch)
	api.HandleFunc("/policies/{id}", c.DeletePolicy).Methods(http.MethodDelete)

	api.HandleFunc("/renewals", c.ListRenewals).Methods(http.MethodGet)
	api.HandleFunc("/renewals", c.CreateRenewal).Methods(http.MethodPost)
	api.HandleFunc("/renewals/{id}", c.UpdateRenewal).Methods(http.MethodPatch)
	api.HandleFunc("/renewals/{id}", c.DeleteRenewal).Methods(http.MethodDelete)

	c.registerFunnelRoutes(api)
	c.registerOpportunityRoutes(api)
	c.registerTaskRoutes(api)
	c.registerImportRoutes(api)
}

func (c *CRMAPIController) ListClients(w http.ResponseWriter, r *http.Request) {
	clients := c.pipeline.Clients()
	out := make([]clientResponse, 0, len(clients))
	for _, cl := range clients {
		out = append(out, toClientResponse(cl))
	}
	writeJSON(w, http.StatusOK, out)
}

func (c *CRMAPIController) CreateClient(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)

	var dto client.CreateDTO
	if err := decodeJSON(r.Body, &dto); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_BODY", "invalid json body")
		return
	}

	created, err := c.pipeline.AddClient(r.Context(), &dto)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusCreated, toClientResponse(created))
}

type updateClientRequest struct {
	client.CreateDTO
}

func (c *CRMAPIController) UpdateClient(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)
	id, ok := pathUUID(r, "id")
	if !ok {
		writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_PATH", "invalid id")
		return
	}

	var req updateClientRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_BODY", "invalid json body")
		return
	}
	if fields, ok := req.Ok(); !ok {
		writeServiceError(w, requestID, services.ErrValidation.WithTemplateData(fields))
		return
	}

	existing := findClient(c.pipeline.Clients(), id)
	if existing == nil {
		writeAPIError(w, http.StatusNotFound, requestID, "CRM_NOT_FOUND", "client not found")
		return
	}

	updated := req.ToEntity()
	updated.ID = existing.ID
	updated.UserID = existing.UserID
	updated.CreatedAt = existing.CreatedAt

	if err := c.pipeline.UpdateClient(r.Context(), updated); err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, toClientResponse(updated))
}

func (c *CRMAPIController) DeleteClient(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)
	id, ok := pathUUID(r, "id")
	if !ok {
		writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_PATH", "invalid id")
		return
	}
	if err := c.pipeline.DeleteClient(r.Context(), id); err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *CRMAPIController) ListPolicies(w http.ResponseWriter, r *http.Request) {
	policies := c.pipeline.Policies()
	out := make([]policyResponse, 0, len(policies))
	for _, p := range policies {
		out = append(out, toPolicyResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

type policyRequest struct {
	ClientID         string  `json:"client_id"`
	PolicyNumber     string  `json:"policy_number"`
	InsuranceType    string  `json:"insurance_type"`
	InsuranceCompany string  `json:"insurance_company"`
	StartDate        string  `json:"start_date"`
	EndDate          string  `json:"end_date"`
	Premium          string  `json:"premium"`
	Commission       *string `json:"commission"`
	Status           string  `json:"status"`
}

func (c *CRMAPIController) CreatePolicy(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)

	var req policyRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_BODY", "invalid json body")
		return
	}
	p, err := req.toEntity()
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_BODY", err.Error())
		return
	}

	created, err := c.pipeline.AddPolicy(r.Context(), p)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPolicyResponse(created))
}

func (c *CRMAPIController) UpdatePolicy(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)
	id, ok := pathUUID(r, "id")
	if !ok {
		writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_PATH", "invalid id")
		return
	}

	var req policyRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_BODY", "invalid json body")
		return
	}
	p, err := req.toEntity()
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_BODY", err.Error())
		return
	}
	p.ID = id

	if err := c.pipeline.UpdatePolicy(r.Context(), p); err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, toPolicyResponse(p))
}

func (c *CRMAPIController) DeletePolicy(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)
	id, ok := pathUUID(r, "id")
	if !ok {
		writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_PATH", "invalid id")
		return
	}
	if err := c.pipeline.DeletePolicy(r.Context(), id); err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *CRMAPIController) ListRenewals(w http.ResponseWriter, r *http.Request) {
	renewals := c.pipeline.Renewals()
	out := make([]renewalResponse, 0, len(renewals))
	for _, rn := range renewals {
		out = append(out, toRenewalResponse(rn))
	}
	writeJSON(w, http.StatusOK, out)
}

type renewalRequest struct {
	PolicyID string `json:"policy_id"`
	ClientID string `json:"client_id"`
	DueDate  string `json:"due_date"`
	Status   string `json:"status"`
	Notes    string `json:"notes"`
}

func (c *CRMAPIController) CreateRenewal(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)

	var req renewalRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_BODY", "invalid json body")
		return
	}
	rn, err := req.toEntity()
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_BODY", err.Error())
		return
	}

	created, err := c.pipeline.AddRenewal(r.Context(), rn)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRenewalResponse(created))
}

func (c *CRMAPIController) UpdateRenewal(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)
	id, ok := pathUUID(r, "id")
	if !ok {
		writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_PATH", "invalid id")
		return
	}

	var req renewalRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_BODY", "invalid json body")
		return
	}
	rn, err := req.toEntity()
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_BODY", err.Error())
		return
	}
	rn.ID = id

	if err := c.pipeline.UpdateRenewal(r.Context(), rn); err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, toRenewalResponse(rn))
}

func (c *CRMAPIController) DeleteRenewal(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)
	id, ok := pathUUID(r, "id")
	if !ok {
		writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_PATH", "invalid id")
		return
	}
	if err := c.pipeline.DeleteRenewal(r.Context(), id); err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func findClient(clients []client.Client, id uuid.UUID) *client.Client {
	for i := range clients {
		if clients[i].ID == id {
			return &clients[i]
		}
	}
	return nil
}
