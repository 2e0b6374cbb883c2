package admitkit

import (
	"regexp"

	"github.com/admitkit/admitkit/internal/validate"
)

// Conservative address shape. Deliverability is not the validator's
// problem; this only rejects obvious garbage.
var emailPattern = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)

const (
	maxEmailLen = 254
	minPassword = 8
	maxPassword = 128
	maxNameLen  = 50
)

// schemaSet holds the compiled rule tables, built once per Pipeline.
type schemaSet struct {
	register      validate.Schema
	login         validate.Schema
	profileUpdate validate.Schema
}

func newSchemaSet(cfg Config) schemaSet {
	emailField := func(required bool) validate.Field {
		return validate.Field{
			Path:            "email",
			Required:        required,
			RequiredMessage: "email is required",
			Normalizers:     []validate.Normalizer{validate.TrimSpace, validate.Lowercase},
			Checks: []validate.Check{
				validate.MaxLen(maxEmailLen, "email must be at most 254 characters"),
				validate.Pattern(emailPattern, "email must be a valid address"),
			},
		}
	}

	nameField := func(path, label string, required bool) validate.Field {
		return validate.Field{
			Path:            path,
			Required:        required,
			RequiredMessage: label + " is required",
			Normalizers:     []validate.Normalizer{validate.TrimSpace},
			Checks: []validate.Check{
				validate.MaxLen(maxNameLen, label+" must be at most 50 characters"),
			},
		}
	}

	return schemaSet{
		register: validate.Schema{
			Name: "register",
			Fields: []validate.Field{
				emailField(true),
				{
					Path:            "password",
					Required:        true,
					RequiredMessage: "password is required",
					Checks: []validate.Check{
						validate.MinLen(minPassword, "password must be at least 8 characters"),
						validate.MaxLen(maxPassword, "password must be at most 128 characters"),
						validate.ContainsLower("password must contain a lowercase letter"),
						validate.ContainsUpper("password must contain an uppercase letter"),
						validate.ContainsDigit("password must contain a digit"),
					},
				},
				nameField("firstName", "firstName", true),
				nameField("lastName", "lastName", true),
			},
		},
		login: validate.Schema{
			Name: "login",
			Fields: []validate.Field{
				emailField(true),
				{
					Path:            "password",
					Required:        true,
					RequiredMessage: "password is required",
				},
			},
		},
		profileUpdate: validate.Schema{
			Name: "profile_update",
			Fields: []validate.Field{
				emailField(false),
				nameField("firstName", "firstName", false),
				nameField("lastName", "lastName", false),
			},
		},
	}
}

// validationFault turns a failed schema result into a VALIDATION fault
// carrying every violation.
func validationFault(res validate.Result) *Fault {
	return newFault(KindValidation, ErrValidationFailed.Error(), FieldErrors(res.FieldErrors), ErrValidationFailed)
}
