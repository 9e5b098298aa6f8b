package router

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/medhaven/hospital-api/internal/model"
)

// registerValidations installs the domain validations on gin's binding
// engine. Runs once at router construction, before any binding happens.
func registerValidations() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("workstatus", workStatus)
}

// workStatus accepts the two lifecycle states a client may request.
func workStatus(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case model.StatusActive, model.StatusOnLeave:
		return true
	default:
		return false
	}
}
