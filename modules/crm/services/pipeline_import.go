package services

import (
	"context"

	"github.com/apolice/crm/modules/crm/importing"
	"github.com/apolice/crm/pkg/composables"
)

// ImportClients runs the client upload through the normalizer and
// inserts row by row through AddClient, so imported rows get the same
// ownership tagging and duplicate handling as manual creation. maxRows
// caps the batch size (0 = unlimited); callers pass the configured
// import limit.
func (s *PipelineService) ImportClients(ctx context.Context, filename string, data []byte, maxRows int) (importing.Report, error) {
	if _, err := composables.MustUseUser(ctx); err != nil {
		return importing.Report{}, err
	}
	return importing.ImportClients(ctx, s, filename, data, maxRows)
}

// ImportPolicies matches each row against the current client snapshot
// and inserts through AddPolicy.
func (s *PipelineService) ImportPolicies(ctx context.Context, filename string, data []byte, maxRows int) (importing.Report, error) {
	if _, err := composables.MustUseUser(ctx); err != nil {
		return importing.Report{}, err
	}
	return importing.ImportPolicies(ctx, s, s.Clients(), filename, data, maxRows)
}
