package auth

import (
	"errors"
	"reflect"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Settings is the minimal OIDC client configuration needed to authenticate.
type Settings struct {
	IssuerURL string `validate:"required" key:"issuerUrl"`
	ClientID  string `validate:"required" key:"clientId"`
	Origin    string `validate:"required" key:"origin"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func settingsValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			return f.Tag.Get("key")
		})
	})
	return validate
}

// ValidateSettings returns the missing required keys, in declaration order.
// An empty slice means s is usable.
func ValidateSettings(s Settings) []string {
	missing := []string{}
	err := settingsValidator().Struct(s)
	if err == nil {
		return missing
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return missing
	}
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Field())
		}
	}
	return missing
}
