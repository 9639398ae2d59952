package hcaptcha

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/astrafabric/astrafabric/internal/pkg/env"
)

const verifyURL = "https://hcaptcha.com/siteverify"

var httpClient = &http.Client{Timeout: 10 * time.Second}

type verifyResponse struct {
	Success     bool     `json:"success"`
	ChallengeTS string   `json:"challenge_ts"`
	Hostname    string   `json:"hostname"`
	ErrorCodes  []string `json:"error-codes"`
}

// Verify checks a client-side hCaptcha token against the siteverify API.
// It requires HCAPTCHA_SECRET to be configured.
func Verify(token string) (bool, error) {
	if token == "" {
		return false, fmt.Errorf("hCaptcha token is empty")
	}

	secret := env.GetEnv("HCAPTCHA_SECRET", "")
	if secret == "" {
		return false, fmt.Errorf("hCaptcha secret is not set")
	}

	form := url.Values{
		"secret":   {secret},
		"response": {token},
	}

	resp, err := httpClient.PostForm(verifyURL, form)
	if err != nil {
		return false, fmt.Errorf("hCaptcha siteverify request failed: %v", err)
	}
	defer resp.Body.Close()

	var result verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, fmt.Errorf("failed to decode hCaptcha response: %v", err)
	}

	if !result.Success {
		msg := "hCaptcha validation failed"
		if len(result.ErrorCodes) > 0 {
			msg += ": " + strings.Join(result.ErrorCodes, ", ")
		}
		return false, fmt.Errorf("%s", msg)
	}

	return true, nil
}
