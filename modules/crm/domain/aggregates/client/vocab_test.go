package client

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFold(t *testing.T) {
	require.Equal(t, "fisica", Fold("Física"))
	require.Equal(t, "endereco", Fold("ENDEREÇO"))
	require.Equal(t, "viuva", Fold(" Viúva "))
}

func TestParsePersonType(t *testing.T) {
	require.Equal(t, PersonTypeIndividual, ParsePersonType("Pessoa Física"))
	require.Equal(t, PersonTypeIndividual, ParsePersonType("PF"))
	require.Equal(t, PersonTypeCompany, ParsePersonType("jurídica"))
	require.Equal(t, PersonTypeUnspecified, ParsePersonType("???"))
	require.Equal(t, PersonTypeUnspecified, ParsePersonType(""))
}

func TestParseGender(t *testing.T) {
	require.Equal(t, GenderMale, ParseGender("Masculino"))
	require.Equal(t, GenderFemale, ParseGender("F"))
	require.Equal(t, GenderUnspecified, ParseGender("x"))
}

func TestParseMaritalStatus(t *testing.T) {
	require.Equal(t, MaritalMarried, ParseMaritalStatus("Casada"))
	require.Equal(t, MaritalWidowed, ParseMaritalStatus("viúvo"))
	require.Equal(t, MaritalUnspecified, ParseMaritalStatus("desconhecido"))
}

func TestCreateDTO_Ok(t *testing.T) {
	dto := &CreateDTO{
		Name:    "  Maria Souza ",
		Email:   "MARIA@EXAMPLE.COM",
		Phone:   "11 99999-0000",
		Address: "Rua A, 10",
	}
	errs, ok := dto.Ok()
	require.True(t, ok)
	require.Empty(t, errs)
	require.Equal(t, "Maria Souza", dto.Name)
	require.Equal(t, "maria@example.com", dto.Email)
}

func TestCreateDTO_MissingRequired(t *testing.T) {
	dto := &CreateDTO{Email: "a@b.com", Phone: "123", Address: "X"}
	errs, ok := dto.Ok()
	require.False(t, ok)
	require.Contains(t, errs, "Name")
}
