package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/fixitforward/internal/model"
)

func TestFormatRupiah(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"abc", ""},
		{"abc500abc", "Rp500"},
		{"0", "Rp0"},
		{"1000", "Rp1.000"},
		{"150000", "Rp150.000"},
		{"500000", "Rp500.000"},
		{"1234567", "Rp1.234.567"},
		{"Rp400.000", "Rp400.000"},
		{"Rp 12,345", "Rp12.345"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatRupiah(tt.in), "FormatRupiah(%q)", tt.in)
	}
}

func TestFormatRupiahIdempotent(t *testing.T) {
	inputs := []string{"", "x", "7", "99", "100", "12345678901", "Rp1.000", "a1b2c3d4", "--5--"}
	for _, in := range inputs {
		once := FormatRupiah(in)
		assert.Equal(t, once, FormatRupiah(once), "not idempotent for %q", in)
	}
}

func TestValidCurrency(t *testing.T) {
	assert.True(t, ValidCurrency("Rp400.000"))
	assert.True(t, ValidCurrency("Rp5"))
	assert.False(t, ValidCurrency(""))
	assert.False(t, ValidCurrency("400000"))
	assert.False(t, ValidCurrency("Rp4000"))
	assert.False(t, ValidCurrency("Rp"))
}

func TestValidEmail(t *testing.T) {
	assert.True(t, ValidEmail("a@b.com"))
	assert.True(t, ValidEmail("A@B.COM"))
	assert.False(t, ValidEmail("a@b.net"))
	assert.False(t, ValidEmail("ab.com"))
	assert.False(t, ValidEmail("@b.com"))
	assert.False(t, ValidEmail(""))
}

func TestCheckLogin(t *testing.T) {
	require.NoError(t, CheckLogin(model.Credentials{Email: "a@b.com", Password: "x"}))

	err := CheckLogin(model.Credentials{Email: "a@b.com"})
	require.ErrorIs(t, err, model.ErrValidation)

	err = CheckLogin(model.Credentials{Email: "a@b.net", Password: "x"})
	require.ErrorIs(t, err, model.ErrValidation)
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "email", verr.Field)
}

func TestCheckSignupOrder(t *testing.T) {
	valid := model.SignupForm{
		Username:   "budi",
		Email:      "budi@mail.com",
		Phone:      "0812",
		Password:   "secret",
		RePassword: "secret",
	}
	require.NoError(t, CheckSignup(valid))

	// Empty field wins over a bad email and a mismatch.
	f := valid
	f.Phone = ""
	f.Email = "bad"
	f.RePassword = "other"
	var verr *model.ValidationError
	require.ErrorAs(t, CheckSignup(f), &verr)
	assert.Equal(t, "", verr.Field)

	// Bad email wins over a mismatch.
	f = valid
	f.Email = "bad"
	f.RePassword = "other"
	require.ErrorAs(t, CheckSignup(f), &verr)
	assert.Equal(t, "email", verr.Field)

	f = valid
	f.RePassword = "other"
	require.ErrorAs(t, CheckSignup(f), &verr)
	assert.Equal(t, "re_password", verr.Field)
}

func TestDigitsOnly(t *testing.T) {
	assert.Equal(t, "0812345", DigitsOnly("+0812-345"))
	assert.Equal(t, "", DigitsOnly("phone"))
	assert.Equal(t, "081", NormalizeSignup(model.SignupForm{Phone: "(0)81"}).Phone)
}
