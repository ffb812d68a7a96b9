package handler

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/s2c2-dev/staffing/backend/internal/slot"
)

// registerTokenValidators adds the struct tags used by request bodies:
//
//	timetoken  HHMM on a 30 minute boundary, 0000..2400
//	daytoken   YYYYMMDD or w1..w7
//	dated      YYYYMMDD only
func registerTokenValidators(validate *validator.Validate, trans ut.Translator) error {
	rules := []struct {
		tag     string
		fn      validator.Func
		message string
	}{
		{"timetoken", func(fl validator.FieldLevel) bool {
			_, err := slot.ParseTimeToken(fl.Field().String())
			return err == nil
		}, "{0} must be a time like 0930 on a half hour"},
		{"daytoken", func(fl validator.FieldLevel) bool {
			_, err := slot.ParseDayToken(fl.Field().String())
			return err == nil
		}, "{0} must be a date like 20151005 or a weekday w1 to w7"},
		{"dated", func(fl validator.FieldLevel) bool {
			d, err := slot.ParseDayToken(fl.Field().String())
			return err == nil && !d.IsRegular()
		}, "{0} must be a date like 20151005"},
	}

	for _, rule := range rules {
		if err := validate.RegisterValidation(rule.tag, rule.fn); err != nil {
			return err
		}

		message := rule.message
		tag := rule.tag
		err := validate.RegisterTranslation(tag, trans,
			func(ut ut.Translator) error {
				return ut.Add(tag, message, true)
			},
			func(ut ut.Translator, fe validator.FieldError) string {
				t, _ := ut.T(tag, fe.Field())
				return t
			},
		)
		if err != nil {
			return err
		}
	}

	return nil
}

// slotRange is the body shared by the offer, need and assign endpoints.
type slotRange struct {
	Day   string `json:"day" validate:"required,daytoken"`
	Start string `json:"start" validate:"required,timetoken"`
	End   string `json:"end" validate:"required,timetoken"`
}

// parse converts a validated body. Start must come before End.
func (s slotRange) parse() (slot.DayToken, slot.TimeToken, slot.TimeToken, error) {
	day, err := slot.ParseDayToken(s.Day)
	if err != nil {
		return day, slot.TimeToken{}, slot.TimeToken{}, err
	}
	start, err := slot.ParseTimeToken(s.Start)
	if err != nil {
		return day, start, slot.TimeToken{}, err
	}
	end, err := slot.ParseTimeToken(s.End)
	if err != nil {
		return day, start, end, err
	}
	if _, err := slot.Interval(start, end); err != nil {
		return day, start, end, err
	}
	return day, start, end, nil
}
