package model

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Custom binding rules shared by the request DTOs.
func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("connection_quality", func(fl validator.FieldLevel) bool {
			return ConnectionQuality(fl.Field().String()).Valid()
		})
	}
}
