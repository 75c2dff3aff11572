// Package validator provides composable validation rules with
// translation-ready error reporting.
//
// Rules are evaluated eagerly and applied in batch:
//
//	err := validator.Apply(
//		validator.RequiredString("email", form.Email),
//		validator.MinLenString("password", form.Password, 8),
//	)
//	if validator.IsValidationError(err) {
//		ve := validator.ExtractValidationErrors(err)
//		ve.Translate(translateFn) // optional i18n pass
//	}
//
// Struct tags offer a declarative alternative via [ValidateStruct]:
//
//	type SignupForm struct {
//		Email    string `form:"email"    validate:"required;email"`
//		Password string `form:"password" validate:"required;min:8;max:128"`
//	}
//
// Every failure carries a stable TranslationKey (validation.required,
// validation.min_length, ...) plus the values needed to render it, so
// messages can be localized after the fact without losing field
// context.
package validator
