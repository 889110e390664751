package router

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/avitalak/salon-api/internal/model"
)

// registerValidators adds the custom binding validations used in request
// structs: "hhmm" for wall-clock strings and "dayset" for weekday lists.
func registerValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		_, err := model.MinutesOfDay(fl.Field().String())
		return err == nil
	})
	v.RegisterValidation("dayset", func(fl validator.FieldLevel) bool {
		_, err := model.ParseDaySet(fl.Field().String())
		return err == nil
	})
}
