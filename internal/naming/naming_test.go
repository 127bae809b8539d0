package naming_test

import (
	"testing"

	"github.com/mickamy/elucify/internal/naming"
)

func TestCamelToSnake(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{"ID", "id"},
		{"Name", "name"},
		{"CreatedAt", "created_at"},
		{"UserID", "user_id"},
		{"HTTPServer", "http_server"},
		{"userProfile", "user_profile"},
		{"LastLogin", "last_login"},
		{"OAuth2Token", "o_auth2_token"},
		{"A", "a"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got := naming.CamelToSnake(tt.input)
			if got != tt.want {
				t.Errorf("CamelToSnake(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSnakeToCamel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{"id", "ID"},
		{"user_id", "UserID"},
		{"users", "Users"},
		{"user_profiles", "UserProfiles"},
		{"credentials", "Credentials"},
		{"api_key_url", "APIKeyURL"},
		{"__x", "X"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got := naming.SnakeToCamel(tt.input)
			if got != tt.want {
				t.Errorf("SnakeToCamel(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTableName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{"User", "users"},
		{"UserProfile", "user_profiles"},
		{"Credentials", "credentials"},
		{"Category", "categories"},
		{"Person", "people"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			if got := naming.TableName(tt.input); got != tt.want {
				t.Errorf("TableName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
