package common

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"
	"perfectTipsBot/models"
)

// StatusError is returned by ProviderWrapper for any non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d: %s", e.URL, e.StatusCode, e.Body)
}

// ProviderWrapper issues an authenticated GET and hands back the response only
// when the provider answered 2xx. The caller closes the body.
func ProviderWrapper(ctx context.Context, client *http.Client, requestUrl string, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestUrl, nil)
	if err != nil {
		return nil, err
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, &StatusError{URL: requestUrl, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return resp, nil
}

// LogError writes the error to the structured log and keeps a copy in the
// error_logs table for operators.
func LogError(db *gorm.DB, log *zap.Logger, source string, league string, err error) {
	if err == nil {
		return
	}
	log.Error(source+" failed", zap.String("league", league), zap.Error(err))

	if db == nil {
		return
	}
	errLog := models.ErrorLog{
		Source:  source,
		League:  league,
		Message: fmt.Sprintf("%v", err),
	}
	if res := db.Create(&errLog); res.Error != nil {
		log.Warn("failed to persist error log", zap.Error(res.Error))
	}
}

func Contains[T comparable](s []T, e T) bool {
	for _, v := range s {
		if v == e {
			return true
		}
	}
	return false
}

// FirstNonEmpty returns the first value that is not blank, in preference order.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

var foldTeam = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeTeamName folds accents, case and punctuation so that the same club
// reported by two providers compares equal ("Atlético Madrid" == "atletico madrid").
func NormalizeTeamName(name string) string {
	folded, _, err := transform.String(foldTeam, name)
	if err != nil {
		folded = name
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	lastSpace := true
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case !lastSpace:
			b.WriteRune(' ')
			lastSpace = true
		}
	}

	parts := strings.Fields(b.String())
	kept := parts[:0]
	for _, p := range parts {
		if Contains(clubAffixes, p) {
			continue
		}
		kept = append(kept, p)
	}
	if len(kept) == 0 {
		return strings.Join(parts, " ")
	}
	return strings.Join(kept, " ")
}

var clubAffixes = []string{"fc", "cf", "ac", "as", "ssc", "afc", "sc", "calcio"}

// PairKey identifies a fixture by its teams and kickoff day, independent of the
// provider's match id.
func PairKey(home, away string, day string) string {
	return NormalizeTeamName(home) + "|" + NormalizeTeamName(away) + "|" + day
}
