package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveName(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"jane.doe@example.com", "Jane Doe"},
		{"jane_doe@example.com", "Jane Doe"},
		{"jane+spam@example.com", "Jane Spam"},
		{"jane@example.com", "Jane"},
		{"@example.com", "User"},
		{"...@example.com", "User"},
		{"", "User"},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveName(tt.email))
		})
	}
}
