package importing

import (
	"github.com/apolice/crm/modules/crm/domain/aggregates/client"
)

// Column identifiers shared by the client and policy importers.
const (
	colName           = "name"
	colEmail          = "email"
	colPhone          = "phone"
	colAddress        = "address"
	colPersonType     = "person_type"
	colDocument       = "document"
	colCity           = "city"
	colState          = "state"
	colZipCode        = "zip_code"
	colSalesperson    = "salesperson"
	colBirthDate      = "birth_date"
	colGender         = "gender"
	colMaritalStatus  = "marital_status"
	colProfession     = "profession"
	colBusinessSector = "business_sector"
	colMonthlyIncome  = "monthly_income"
	colLicenseExpiry  = "license_expiry"

	colPolicyNumber  = "policy_number"
	colInsuranceType = "insurance_type"
	colInsurer       = "insurance_company"
	colStartDate     = "start_date"
	colEndDate       = "end_date"
	colPremium       = "premium"
	colCommission    = "commission"
)

// Spreadsheets arrive with Portuguese headers in every spelling the
// field has ever had; headers are matched case- and accent-insensitively
// against these synonym tables. Unmatched headers are ignored.
var clientColumnSynonyms = map[string]string{
	"nome":               colName,
	"nome completo":      colName,
	"cliente":            colName,
	"name":               colName,
	"email":              colEmail,
	"e-mail":             colEmail,
	"telefone":           colPhone,
	"celular":            colPhone,
	"fone":               colPhone,
	"phone":              colPhone,
	"endereco":           colAddress,
	"address":            colAddress,
	"tipo de pessoa":     colPersonType,
	"tipo pessoa":        colPersonType,
	"pessoa":             colPersonType,
	"documento":          colDocument,
	"cpf":                colDocument,
	"cnpj":               colDocument,
	"cpf/cnpj":           colDocument,
	"cidade":             colCity,
	"estado":             colState,
	"uf":                 colState,
	"cep":                colZipCode,
	"vendedor":           colSalesperson,
	"produtor":           colSalesperson,
	"data de nascimento": colBirthDate,
	"nascimento":         colBirthDate,
	"genero":             colGender,
	"sexo":               colGender,
	"estado civil":       colMaritalStatus,
	"profissao":          colProfession,
	"ramo de atuacao":    colBusinessSector,
	"setor":              colBusinessSector,
	"ramo":               colBusinessSector,
	"renda mensal":       colMonthlyIncome,
	"renda":              colMonthlyIncome,
	"vencimento cnh":     colLicenseExpiry,
	"validade cnh":       colLicenseExpiry,
}

var policyColumnSynonyms = map[string]string{
	"cliente":           colName,
	"nome":              colName,
	"nome do cliente":   colName,
	"documento":         colDocument,
	"cpf":               colDocument,
	"cnpj":              colDocument,
	"numero da apolice": colPolicyNumber,
	"apolice":           colPolicyNumber,
	"numero":            colPolicyNumber,
	"tipo de seguro":    colInsuranceType,
	"tipo":              colInsuranceType,
	"seguradora":        colInsurer,
	"companhia":         colInsurer,
	"inicio de vigencia": colStartDate,
	"data de inicio":     colStartDate,
	"inicio":             colStartDate,
	"fim de vigencia":    colEndDate,
	"data de fim":        colEndDate,
	"vencimento":         colEndDate,
	"fim":                colEndDate,
	"premio":             colPremium,
	"premio liquido":     colPremium,
	"valor":              colPremium,
	"comissao":           colCommission,
}

// resolveHeader maps raw header cells to column identifiers using the
// given synonym table. The returned map is column -> cell position.
func resolveHeader(header []string, synonyms map[string]string) map[string]int {
	out := map[string]int{}
	for i, cell := range header {
		folded := client.Fold(cell)
		if col, ok := synonyms[folded]; ok {
			if _, taken := out[col]; !taken {
				out[col] = i
			}
		}
	}
	return out
}
