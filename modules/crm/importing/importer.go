// Package importing turns uploaded CSV and spreadsheet payloads into
// validated CRM records. Rows are processed independently: one bad row
// is reported and skipped, never aborting the batch.
package importing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/apolice/crm/modules/crm/domain/aggregates/client"
	"github.com/apolice/crm/modules/crm/domain/aggregates/policy"
)

// Report is the import result contract consumers rely on: how many rows
// made it in, and one human-readable message per failed row, in input
// order.
type Report struct {
	Success int      `json:"success"`
	Errors  []string `json:"errors"`
}

type ClientAdder interface {
	AddClient(ctx context.Context, dto *client.CreateDTO) (client.Client, error)
}

type PolicyAdder interface {
	AddPolicy(ctx context.Context, p policy.Policy) (policy.Policy, error)
}

// ImportClients parses the upload and inserts one client per valid row,
// sequentially, so the error list's order matches the input order. A
// batch larger than maxRows (0 = unlimited) is a hard failure before
// any row is processed.
func ImportClients(ctx context.Context, adder ClientAdder, filename string, data []byte, maxRows int) (Report, error) {
	table, err := ParseTable(filename, data)
	if err != nil {
		return Report{}, err
	}
	if err := checkRowCap(table, maxRows); err != nil {
		return Report{}, err
	}

	cols := resolveHeader(table.Header, clientColumnSynonyms)

	report := Report{Errors: []string{}}
	for n, row := range table.Rows {
		rowNum := n + 1

		dto, err := mapClientRow(row, cols)
		if err != nil {
			report.Errors = append(report.Errors, rowError(rowNum, err.Error()))
			continue
		}
		if fields, ok := dto.Ok(); !ok {
			report.Errors = append(report.Errors, rowError(rowNum, firstMessage(fields)))
			continue
		}
		if _, err := adder.AddClient(ctx, dto); err != nil {
			report.Errors = append(report.Errors, rowError(rowNum, err.Error()))
			continue
		}
		report.Success++
	}
	return report, nil
}

// ImportPolicies parses the upload and inserts one policy per valid
// row. Each row is matched to an existing client by document or name.
func ImportPolicies(ctx context.Context, adder PolicyAdder, clients []client.Client, filename string, data []byte, maxRows int) (Report, error) {
	table, err := ParseTable(filename, data)
	if err != nil {
		return Report{}, err
	}
	if err := checkRowCap(table, maxRows); err != nil {
		return Report{}, err
	}

	cols := resolveHeader(table.Header, policyColumnSynonyms)

	report := Report{Errors: []string{}}
	for n, row := range table.Rows {
		rowNum := n + 1

		p, err := mapPolicyRow(row, cols, clients)
		if err != nil {
			report.Errors = append(report.Errors, rowError(rowNum, err.Error()))
			continue
		}
		if _, err := adder.AddPolicy(ctx, p); err != nil {
			report.Errors = append(report.Errors, rowError(rowNum, err.Error()))
			continue
		}
		report.Success++
	}
	return report, nil
}

func checkRowCap(table Table, maxRows int) error {
	if maxRows > 0 && len(table.Rows) > maxRows {
		return fmt.Errorf("too many rows: %d (limit %d)", len(table.Rows), maxRows)
	}
	return nil
}

func rowError(rowNum int, reason string) string {
	return fmt.Sprintf("Linha %d: %s", rowNum, reason)
}

func firstMessage(fields map[string]string) string {
	// Required fields first, in a stable order, so the message names
	// the most actionable problem.
	for _, f := range []string{"Name", "Email", "Phone", "Address"} {
		if msg, ok := fields[f]; ok {
			return msg
		}
	}
	for _, msg := range fields {
		return msg
	}
	return "invalid row"
}

// mapClientRow builds the candidate record from the matched columns.
// Mapping is deterministic: the same row with the same header always
// yields the same candidate.
func mapClientRow(row []string, cols map[string]int) (*client.CreateDTO, error) {
	get := func(col string) string {
		pos, ok := cols[col]
		return cell(row, pos, ok)
	}

	dto := &client.CreateDTO{
		Name:           get(colName),
		Email:          get(colEmail),
		Phone:          get(colPhone),
		Address:        get(colAddress),
		PersonType:     get(colPersonType),
		Document:       get(colDocument),
		City:           get(colCity),
		State:          get(colState),
		ZipCode:        get(colZipCode),
		Salesperson:    get(colSalesperson),
		Gender:         get(colGender),
		MaritalStatus:  get(colMaritalStatus),
		Profession:     get(colProfession),
		BusinessSector: get(colBusinessSector),
	}

	if raw := get(colBirthDate); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			return nil, err
		}
		dto.BirthDate = &t
	}
	if raw := get(colLicenseExpiry); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			return nil, err
		}
		dto.LicenseExpiry = &t
	}
	// Empty optional numerics stay absent rather than becoming zero.
	if raw := get(colMonthlyIncome); raw != "" {
		d, err := parseDecimal(raw)
		if err != nil {
			return nil, err
		}
		dto.MonthlyIncome = &d
	}
	return dto, nil
}

func mapPolicyRow(row []string, cols map[string]int, clients []client.Client) (policy.Policy, error) {
	get := func(col string) string {
		pos, ok := cols[col]
		return cell(row, pos, ok)
	}

	matched, err := matchClient(clients, get(colName), get(colDocument))
	if err != nil {
		return policy.Policy{}, err
	}

	rawStart := get(colStartDate)
	rawEnd := get(colEndDate)
	if rawStart == "" || rawEnd == "" {
		return policy.Policy{}, fmt.Errorf("vigência é obrigatória")
	}
	start, err := parseDate(rawStart)
	if err != nil {
		return policy.Policy{}, err
	}
	end, err := parseDate(rawEnd)
	if err != nil {
		return policy.Policy{}, err
	}

	rawPremium := get(colPremium)
	if rawPremium == "" {
		return policy.Policy{}, fmt.Errorf("prêmio é obrigatório")
	}
	premium, err := parseDecimal(rawPremium)
	if err != nil {
		return policy.Policy{}, err
	}

	p := policy.Policy{
		ClientID:         matched.ID,
		PolicyNumber:     get(colPolicyNumber),
		InsuranceType:    get(colInsuranceType),
		InsuranceCompany: get(colInsurer),
		StartDate:        start,
		EndDate:          end,
		Premium:          premium,
		Status:           statusForEnd(end),
	}

	if raw := get(colCommission); raw != "" {
		d, err := parseDecimal(raw)
		if err != nil {
			return policy.Policy{}, err
		}
		p.Commission = &d
	}
	return p, nil
}

func matchClient(clients []client.Client, name, document string) (client.Client, error) {
	if document != "" {
		digits := onlyDigits(document)
		for _, c := range clients {
			if digits != "" && onlyDigits(c.Document) == digits {
				return c, nil
			}
		}
	}
	if name != "" {
		folded := client.Fold(name)
		for _, c := range clients {
			if client.Fold(c.Name) == folded {
				return c, nil
			}
		}
	}
	return client.Client{}, fmt.Errorf("cliente não encontrado: %q", name)
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func statusForEnd(end time.Time) policy.Status {
	if end.Before(time.Now().UTC()) {
		return policy.StatusExpired
	}
	return policy.StatusActive
}
