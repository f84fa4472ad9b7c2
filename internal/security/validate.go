package security

import (
	"regexp"
	"slices"
	"time"
	"unicode/utf8"

	"github.com/runreward/runreward/internal/models"
)

var (
	emailRe   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe   = regexp.MustCompile(`^[+]?[0-9\s\-()]{10,15}$`)
	fieldIDRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)
)

func IsValidEmail(email string) bool {
	return emailRe.MatchString(email) && len(email) <= 254
}

// IsValidPassword requires 8 to 128 characters with at least one upper case
// letter, one lower case letter, one digit and one other character.
func IsValidPassword(password string) bool {
	n := utf8.RuneCountInString(password)
	if n < 8 || n > 128 {
		return false
	}

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			special = true
		}
	}
	return upper && lower && digit && special
}

func IsValidPhone(phone string) bool {
	return phoneRe.MatchString(phone)
}

// IsValidBirthDate accepts a YYYY-MM-DD date placing the person between 13
// and 100 years old on now, both bounds inclusive.
func IsValidBirthDate(s string, now time.Time) bool {
	d, err := time.ParseInLocation(time.DateOnly, s, now.Location())
	if err != nil {
		return false
	}

	oldest := time.Date(now.Year()-100, now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	youngest := time.Date(now.Year()-13, now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return !d.Before(oldest) && !d.After(youngest)
}

// ValidateCourseField checks the shape of a custom registration field.
func ValidateCourseField(f models.CourseField) bool {
	return fieldIDRe.MatchString(f.ID) &&
		f.Label != "" && utf8.RuneCountInString(f.Label) <= 100 &&
		slices.Contains(models.FieldKinds, f.Type)
}

// RegistrationForm is the sign-up form as typed by the user.
type RegistrationForm struct {
	FirstName       string
	LastName        string
	Email           string
	Password        string
	ConfirmPassword string
}

// Messages returned by ValidateRegistration.
const (
	MsgFirstNameTooShort = "Le prénom doit contenir au moins 2 caractères"
	MsgLastNameTooShort  = "Le nom doit contenir au moins 2 caractères"
	MsgInvalidEmail      = "Email invalide"
	MsgInvalidPhone      = "Numéro de téléphone invalide"
	MsgWeakPassword      = "Le mot de passe doit contenir au moins 8 caractères, une majuscule, une minuscule, un chiffre et un caractère spécial"
	MsgPasswordMismatch  = "Les mots de passe ne correspondent pas"
)

// ValidateRegistration returns one message per failed rule, or nil.
func ValidateRegistration(f RegistrationForm) []string {
	var errs []string

	if utf8.RuneCountInString(f.FirstName) < 2 {
		errs = append(errs, MsgFirstNameTooShort)
	}
	if utf8.RuneCountInString(f.LastName) < 2 {
		errs = append(errs, MsgLastNameTooShort)
	}
	if !IsValidEmail(f.Email) {
		errs = append(errs, MsgInvalidEmail)
	}
	if !IsValidPassword(f.Password) {
		errs = append(errs, MsgWeakPassword)
	}
	if f.Password != f.ConfirmPassword {
		errs = append(errs, MsgPasswordMismatch)
	}

	return errs
}
