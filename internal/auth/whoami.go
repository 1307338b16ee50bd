package auth

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
)

// hubURL is the Hugging Face Hub API base URL.
const hubURL = "https://huggingface.co"

// whoamiTimeout bounds the Hub round trip.
const whoamiTimeout = 15 * time.Second

// Identity describes the account behind a token.
type Identity struct {
	Username string
	Fullname string
	// Orgs lists the organizations the account belongs to.
	Orgs []string
	// CanWrite reports whether the token has write access (needed to
	// publish apps as Spaces).
	CanWrite bool
}

// Whoami validates a token against the Hugging Face Hub and returns the
// account identity.
//
// Parameters:
//   - ctx: Context for cancellation
//   - token: The access token to validate
//
// Returns:
//   - *Identity: The account identity
//   - error: An error if the token is invalid or the Hub is unreachable
func Whoami(ctx context.Context, token string) (*Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, whoamiTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, hubURL+"/api/whoami-v2", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach huggingface.co: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("token rejected by the Hub, run 'reachy-mini auth login' with a fresh token")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("hub returned status %d: %s", resp.StatusCode, gjson.GetBytes(body, "error").String())
	}

	return parseWhoami(body), nil
}

// parseWhoami extracts the identity fields from a whoami-v2 response.
func parseWhoami(body []byte) *Identity {
	id := &Identity{
		Username: gjson.GetBytes(body, "name").String(),
		Fullname: gjson.GetBytes(body, "fullname").String(),
	}

	role := gjson.GetBytes(body, "auth.accessToken.role").String()
	id.CanWrite = role == "write" || role == "fineGrained"

	for _, org := range gjson.GetBytes(body, "orgs.#.name").Array() {
		id.Orgs = append(id.Orgs, org.String())
	}
	return id
}
