package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blood-donation-backend/pkg/queue"
)

func TestRenderVerifyEmail(t *testing.T) {
	content, err := renderTemplate(queue.TemplateVerifyEmail, map[string]string{
		"name":      "Budi",
		"verifyUrl": "http://localhost:8081/api/verify-email?token=abc",
	})
	require.NoError(t, err)
	assert.Contains(t, content, "Hi Budi,")
	assert.Contains(t, content, "http://localhost:8081/api/verify-email?token=abc")
}

func TestRenderAddUser(t *testing.T) {
	content, err := renderTemplate(queue.TemplateAddUser, map[string]string{
		"name":     "RS Harapan",
		"role":     "Institusi Kesehatan",
		"email":    "rs@example.com",
		"password": "a1b2c3d4e5f6a7b8",
	})
	require.NoError(t, err)
	assert.Contains(t, content, "Institusi Kesehatan")
	assert.Contains(t, content, "a1b2c3d4e5f6a7b8")
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, err := renderTemplate("no-such-template", nil)
	assert.Error(t, err)
}

func TestRenderEscapesHTML(t *testing.T) {
	content, err := renderTemplate(queue.TemplateVerifyEmail, map[string]string{
		"name":      "<script>alert(1)</script>",
		"verifyUrl": "http://localhost:8081/api/verify-email?token=abc",
	})
	require.NoError(t, err)
	assert.NotContains(t, content, "<script>")
}
