// Package validation turns bad input into INVALID_INPUT *errors.AppError
// values with a "fields" detail listing each failure.
//
// Config structs are checked through go-playground/validator tags:
//
//	type Config struct {
//	    Endpoint string        `json:"endpoint" validate:"required,url"`
//	    Window   time.Duration `json:"window" validate:"gt=0"`
//	}
//	err := validation.Validate(cfg)
//
// Query parameters are checked with a chaining Validator:
//
//	if appErr := validation.New().Range("limit", n, 1, 1000).MaxLength("q", q, 100).Validate(); appErr != nil {
//	    server.RespondWithError(c, appErr)
//	}
package validation
