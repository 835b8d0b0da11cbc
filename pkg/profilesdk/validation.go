package profilesdk

import "strings"

const (
	requiredReason    = "required"
	minPasswordLength = 8
)

// Validate checks the login form. Returns a map of field names to error
// messages, or nil if all fields are valid.
func (r LoginRequest) Validate() map[string]string {
	errs := make(map[string]string)

	validateEmail(errs, r.Email)
	validatePassword(errs, r.Password)

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Validate checks the signup form. Returns a map of field names to error
// messages, or nil if all fields are valid.
func (r SignupRequest) Validate() map[string]string {
	errs := make(map[string]string)

	validateEmail(errs, r.Email)
	validatePassword(errs, r.Password)
	validateRequired(errs, "username", r.Username)
	validateRequired(errs, "first_name", r.FirstName)
	validateRequired(errs, "last_name", r.LastName)

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func validateEmail(errs map[string]string, email string) {
	validateRequired(errs, "email", email)
}

// validatePassword measures the trimmed password, matching what the forms
// have always checked.
func validatePassword(errs map[string]string, pw string) {
	pw = strings.TrimSpace(pw)
	switch {
	case pw == "":
		errs["password"] = requiredReason
	case len(pw) < minPasswordLength:
		errs["password"] = "too short (min 8)"
	}
}

func validateRequired(errs map[string]string, field, value string) {
	if strings.TrimSpace(value) == "" {
		errs[field] = requiredReason
	}
}
