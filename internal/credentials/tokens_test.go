package credentials

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func mapLookup(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestLoadPriority(t *testing.T) {
	dir := t.TempDir()
	cookies := filepath.Join(dir, "cookies.txt")
	jar := "# Netscape HTTP Cookie File\n" +
		".tiktok.com\tTRUE\t/\tTRUE\t0\tttwid\tabc\n" +
		"#HttpOnly_.tiktok.com\tTRUE\t/\tTRUE\t0\tmsToken\tfrom-cookie\n"
	if err := os.WriteFile(cookies, []byte(jar), 0o600); err != nil {
		t.Fatalf("write cookies: %v", err)
	}

	tests := []struct {
		name    string
		env     map[string]string
		cookies string
		want    []string
		wantErr error
	}{
		{
			name: "numbered tokens stop at first gap",
			env:  map[string]string{"MS_TOKEN_1": "a", "MS_TOKEN_2": "b", "MS_TOKEN_4": "d", "MS_TOKEN": "single"},
			want: []string{"a", "b"},
		},
		{
			name: "single token fallback",
			env:  map[string]string{"MS_TOKEN": " single "},
			want: []string{"single"},
		},
		{
			name:    "cookies fallback",
			env:     map[string]string{"MS_TOKEN": ""},
			cookies: cookies,
			want:    []string{"from-cookie"},
		},
		{
			name:    "missing cookies file",
			env:     map[string]string{},
			cookies: filepath.Join(dir, "absent.txt"),
			wantErr: ErrNoCredentials,
		},
		{
			name:    "nothing configured",
			env:     map[string]string{},
			wantErr: ErrNoCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Source{Lookup: mapLookup(tt.env), CookiesFile: tt.cookies}.Load()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Load() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Load() = %v, want %v", got, tt.want)
			}
		})
	}
}
