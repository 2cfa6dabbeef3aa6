package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsEmail applies the same shape check the login form uses.
func IsEmail(s string) bool {
	return emailPattern.MatchString(s)
}

func FormatValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		var messages []string
		for _, fieldError := range validationErrors {
			messages = append(messages, getFieldErrorMessage(fieldError))
		}
		return strings.Join(messages, "; ")
	}
	return "requête invalide: " + err.Error()
}

func getFieldErrorMessage(fe validator.FieldError) string {
	field := getFieldName(fe.Field())

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s est requis", field)
	case "email":
		return fmt.Sprintf("%s doit être un email valide", field)
	case "min", "gte":
		if fe.Type().String() == "string" {
			return fmt.Sprintf("%s doit contenir au moins %s caractères", field, fe.Param())
		}
		return fmt.Sprintf("%s doit être supérieur ou égal à %s", field, fe.Param())
	case "max", "lte":
		if fe.Type().String() == "string" {
			return fmt.Sprintf("%s ne doit pas dépasser %s caractères", field, fe.Param())
		}
		return fmt.Sprintf("%s doit être inférieur ou égal à %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s doit être supérieur à %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s doit valoir l'une des valeurs: %s", field, fe.Param())
	case "uuid":
		return fmt.Sprintf("%s doit être un identifiant valide", field)
	default:
		return fmt.Sprintf("%s n'est pas valide", field)
	}
}

func getFieldName(field string) string {
	fieldNames := map[string]string{
		"FirstName":       "Le prénom",
		"LastName":        "Le nom",
		"Email":           "L'email",
		"Password":        "Le mot de passe",
		"CurrentPassword": "Le mot de passe actuel",
		"NewPassword":     "Le nouveau mot de passe",
		"Name":            "Le nom",
		"Title":           "Le titre",
		"Quantity":        "La quantité",
		"UnitPrice":       "Le prix unitaire",
		"Category":        "La catégorie",
		"Status":          "Le statut",
		"Score":           "La note",
		"Notes":           "Les remarques",
		"StartDate":       "La date de début",
		"EndDate":         "La date de fin",
		"ClassroomID":     "La classe",
		"EvaluationType":  "Le type d'évaluation",
		"DocumentType":    "Le type de document",
	}

	if name, ok := fieldNames[field]; ok {
		return name
	}
	return field
}
