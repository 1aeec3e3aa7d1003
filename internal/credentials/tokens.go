package credentials

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

const (
	TOKEN_ENV_PREFIX  = "MS_TOKEN_"
	TOKEN_ENV         = "MS_TOKEN"
	TOKEN_COOKIE_NAME = "msToken"
)

var ErrNoCredentials = errors.New("[Credentials] no session token found: set MS_TOKEN_1..N, MS_TOKEN or provide a cookies.txt")

// Source describes where session tokens may come from. Lookup defaults to os.LookupEnv.
type Source struct {
	Lookup      func(string) (string, bool)
	CookiesFile string
}

// Load returns the session tokens in priority order: numbered variables
// MS_TOKEN_1..N (stopping at the first gap), then MS_TOKEN, then the msToken
// cookie from a Netscape cookies.txt file.
func (s Source) Load() ([]string, error) {
	lookup := s.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}

	var tokens []string
	for i := 1; ; i++ {
		v, ok := lookup(TOKEN_ENV_PREFIX + strconv.Itoa(i))
		v = strings.TrimSpace(v)
		if !ok || v == "" {
			break
		}
		tokens = append(tokens, v)
	}
	if len(tokens) > 0 {
		slog.Info("[Credentials] Loaded numbered session tokens", slog.Int("count", len(tokens)))
		return tokens, nil
	}

	if v, ok := lookup(TOKEN_ENV); ok && strings.TrimSpace(v) != "" {
		slog.Info("[Credentials] Loaded session token from environment")
		return []string{strings.TrimSpace(v)}, nil
	}

	if s.CookiesFile != "" {
		token, err := tokenFromCookies(s.CookiesFile)
		if err != nil {
			slog.Warn("[Credentials] Could not read cookies file",
				slog.String("path", s.CookiesFile),
				slog.String("error", err.Error()))
		} else if token != "" {
			slog.Info("[Credentials] Loaded session token from cookies file", slog.String("path", s.CookiesFile))
			return []string{token}, nil
		}
	}

	return nil, ErrNoCredentials
}

// tokenFromCookies scans a Netscape cookie jar: tab separated lines of
// domain, flag, path, secure, expiry, name, value.
func tokenFromCookies(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("[Credentials] failed to open cookies file: %w", err)
	}
	defer f.Close()

	token := ""
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		line = strings.TrimPrefix(line, "#HttpOnly_")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 7 {
			continue
		}
		if fields[5] == TOKEN_COOKIE_NAME {
			token = strings.TrimSpace(fields[6])
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("[Credentials] failed to scan cookies file: %w", err)
	}
	return token, nil
}
