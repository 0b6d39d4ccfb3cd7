package database

import "testing"

func TestDatabaseFromURI(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{"mongodb://localhost:27017", "brift"},
		{"mongodb://localhost:27017/", "brift"},
		{"mongodb://localhost:27017/finance", "finance"},
		{"mongodb+srv://u:p@cluster0.x.net/prod?retryWrites=1", "prod"},
		{"mongodb+srv://u:p@cluster0.x.net/?retryWrites=true", "brift"},
	}
	for _, tt := range tests {
		if got := databaseFromURI(tt.uri); got != tt.want {
			t.Errorf("databaseFromURI(%q) = %q, want %q", tt.uri, got, tt.want)
		}
	}
}
