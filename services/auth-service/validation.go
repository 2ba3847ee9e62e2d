package main

import (
	"regexp"
	"strings"

	"blood-donation-backend/services/auth-service/models"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func isValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// validateRegister returns field-level problems; an empty map means the
// input is acceptable.
func validateRegister(name, email, phone, password string) map[string]string {
	fields := map[string]string{}

	if strings.TrimSpace(name) == "" {
		fields["name"] = "Name is required"
	}
	if email == "" {
		fields["email"] = "Email is required"
	} else if !isValidEmail(email) {
		fields["email"] = "Invalid email format"
	}
	if strings.TrimSpace(phone) == "" {
		fields["phone"] = "Phone is required"
	}
	if password == "" {
		fields["password"] = "Password is required"
	} else if len(password) < 8 {
		fields["password"] = "Password must be at least 8 characters"
	}

	return fields
}

// validateAddUser covers the privileged creation path. Password may be
// empty there; a credential is generated in that case.
func validateAddUser(name, email, phone, role string) map[string]string {
	fields := map[string]string{}

	if strings.TrimSpace(name) == "" {
		fields["name"] = "Name is required"
	}
	if email == "" {
		fields["email"] = "Email is required"
	} else if !isValidEmail(email) {
		fields["email"] = "Invalid email format"
	}
	if strings.TrimSpace(phone) == "" {
		fields["phone"] = "Phone is required"
	}
	if role == "" {
		fields["role"] = "Role is required"
	} else if !models.IsValidRole(role) {
		fields["role"] = "Role must be one of Partisipan, Admin, Institusi Kesehatan"
	}

	return fields
}
