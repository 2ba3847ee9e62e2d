package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateRegister(t *testing.T) {
	t.Run("accepts complete input", func(t *testing.T) {
		fields := validateRegister("Budi Santoso", "budi@example.com", "081234567890", "supersecret")
		assert.Empty(t, fields)
	})

	t.Run("flags every missing field", func(t *testing.T) {
		fields := validateRegister("", "", "", "")
		assert.Len(t, fields, 4)
		assert.Contains(t, fields, "name")
		assert.Contains(t, fields, "email")
		assert.Contains(t, fields, "phone")
		assert.Contains(t, fields, "password")
	})

	t.Run("rejects malformed email", func(t *testing.T) {
		fields := validateRegister("Budi", "not-an-email", "0812", "supersecret")
		assert.Equal(t, "Invalid email format", fields["email"])
	})

	t.Run("rejects short password", func(t *testing.T) {
		fields := validateRegister("Budi", "budi@example.com", "0812", "short")
		assert.Equal(t, "Password must be at least 8 characters", fields["password"])
	})

	t.Run("rejects whitespace-only name", func(t *testing.T) {
		fields := validateRegister("   ", "budi@example.com", "0812", "supersecret")
		assert.Contains(t, fields, "name")
	})
}

func TestValidateAddUser(t *testing.T) {
	t.Run("accepts without password", func(t *testing.T) {
		fields := validateAddUser("RS Harapan", "rs@example.com", "0218765432", "Institusi Kesehatan")
		assert.Empty(t, fields)
	})

	t.Run("rejects unknown role", func(t *testing.T) {
		fields := validateAddUser("Budi", "budi@example.com", "0812", "Superuser")
		assert.Contains(t, fields, "role")
	})

	t.Run("requires role", func(t *testing.T) {
		fields := validateAddUser("Budi", "budi@example.com", "0812", "")
		assert.Equal(t, "Role is required", fields["role"])
	})
}
