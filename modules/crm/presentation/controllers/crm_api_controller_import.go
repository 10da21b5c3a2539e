package controllers

import (
	"context"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/apolice/crm/modules/crm/importing"
	"github.com/apolice/crm/pkg/configuration"
)

func (c *CRMAPIController) registerImportRoutes(api *mux.Router) {
	api.HandleFunc("/import/clients", c.ImportClients).Methods(http.MethodPost)
	api.HandleFunc("/import/policies", c.ImportPolicies).Methods(http.MethodPost)
}

// ImportClients accepts a multipart upload under the "file" field and
// answers with the per-row import report. A bad row never fails the
// request; an unparsable file does.
func (c *CRMAPIController) ImportClients(w http.ResponseWriter, r *http.Request) {
	c.runImport(w, r, c.pipeline.ImportClients)
}

func (c *CRMAPIController) ImportPolicies(w http.ResponseWriter, r *http.Request) {
	c.runImport(w, r, c.pipeline.ImportPolicies)
}

type importFunc func(ctx context.Context, filename string, data []byte, maxRows int) (importing.Report, error)

func (c *CRMAPIController) runImport(w http.ResponseWriter, r *http.Request, run importFunc) {
	requestID := requestIDFrom(r)
	conf := configuration.Use()

	if err := r.ParseMultipartForm(conf.Import.MaxUploadSize); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_UPLOAD", "invalid multipart body")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_UPLOAD", "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(io.LimitReader(file, conf.Import.MaxUploadSize))
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "CRM_INVALID_UPLOAD", "could not read upload")
		return
	}

	report, err := run(r.Context(), header.Filename, data, conf.Import.MaxRows)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
