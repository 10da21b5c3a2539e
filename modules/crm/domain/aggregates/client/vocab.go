package client

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases and strips diacritics so vocabulary matching accepts
// the spellings found in real spreadsheets ("Física", "fisica", "FISICA").
func Fold(s string) string {
	out, _, err := transform.String(deaccent, strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(s))
	}
	return out
}

// ParsePersonType maps free-form input onto the person-type vocabulary.
// Unrecognized values land in the unspecified bucket.
func ParsePersonType(s string) PersonType {
	switch Fold(s) {
	case "fisica", "pessoa fisica", "pf", "individual":
		return PersonTypeIndividual
	case "juridica", "pessoa juridica", "pj", "empresa", "company":
		return PersonTypeCompany
	default:
		return PersonTypeUnspecified
	}
}

func ParseGender(s string) Gender {
	switch Fold(s) {
	case "masculino", "m", "male":
		return GenderMale
	case "feminino", "f", "female":
		return GenderFemale
	default:
		return GenderUnspecified
	}
}

func ParseMaritalStatus(s string) MaritalStatus {
	switch Fold(s) {
	case "solteiro", "solteira", "single":
		return MaritalSingle
	case "casado", "casada", "married":
		return MaritalMarried
	case "divorciado", "divorciada", "divorced":
		return MaritalDivorced
	case "viuvo", "viuva", "widowed":
		return MaritalWidowed
	default:
		return MaritalUnspecified
	}
}
