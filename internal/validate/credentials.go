package validate

import (
	"regexp"

	"github.com/erazemk/fixitforward/internal/model"
)

// emailPattern is a loose gate, not an email grammar: a non-space run, '@',
// a non-space run, then ".com" anywhere after it.
var emailPattern = regexp.MustCompile(`(?i)\S+@\S+\.com`)

// ValidEmail reports whether s passes the loose email check.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// CheckLogin validates the login form. Only the format is checked.
func CheckLogin(c model.Credentials) error {
	if c.Email == "" || c.Password == "" {
		return model.Invalid("", "please fill in both email and password")
	}
	if !ValidEmail(c.Email) {
		return model.Invalid("email", "must contain '@' and end in '.com'")
	}
	return nil
}

// CheckSignup validates the signup form and reports the first unmet
// condition: empty field, bad email, then password mismatch.
func CheckSignup(f model.SignupForm) error {
	if f.Username == "" || f.Email == "" || f.Phone == "" || f.Password == "" || f.RePassword == "" {
		return model.Invalid("", "please fill in all fields")
	}
	if !ValidEmail(f.Email) {
		return model.Invalid("email", "must contain '@' and end in '.com'")
	}
	if f.Password != f.RePassword {
		return model.Invalid("re_password", "passwords do not match")
	}
	return nil
}

// NormalizeSignup applies the as-you-type filters to a signup form.
func NormalizeSignup(f model.SignupForm) model.SignupForm {
	f.Phone = DigitsOnly(f.Phone)
	return f
}
