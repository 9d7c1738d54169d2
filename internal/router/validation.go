package router

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/eventops/backoffice-api/internal/model"
)

// registerValidations installs enum checks for template fields on gin's
// binding engine.
func registerValidations() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	v.RegisterValidation("trigger", func(fl validator.FieldLevel) bool {
		switch model.TriggerType(fl.Field().String()) {
		case model.TriggerScheduledCheck,
			model.TriggerEntityCreate,
			model.TriggerEntityUpdate,
			model.TriggerSupplierAssignmentCreate,
			model.TriggerSupplierAssignmentDelete,
			model.TriggerAssignmentStatusChange,
			model.TriggerEventCriticalUpdate:
			return true
		}
		return false
	})

	v.RegisterValidation("audience", func(fl validator.FieldLevel) bool {
		switch model.Audience(fl.Field().String()) {
		case model.AudienceSupplier, model.AudienceClient, model.AudienceAdmin:
			return true
		}
		return false
	})

	v.RegisterValidation("channel", func(fl validator.FieldLevel) bool {
		switch model.Channel(fl.Field().String()) {
		case model.ChannelPush, model.ChannelWhatsApp:
			return true
		}
		return false
	})
}
