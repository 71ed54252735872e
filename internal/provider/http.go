package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// getJSON performs a rate-limited GET and decodes the JSON body into out.
// Transport failures and 429/5xx responses are retryable; a 404 is ErrNoData.
func getJSON(ctx context.Context, client *http.Client, limiter *Limiter, name, url string, out any) error {
	if err := limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return &ProviderError{Provider: name, Err: err, Retryable: true}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		limiter.SignalRateLimited()
		return &ProviderError{Provider: name, Err: fmt.Errorf("rate limited"), Retryable: true}
	case resp.StatusCode == http.StatusNotFound:
		return &ProviderError{Provider: name, Err: ErrNoData}
	case resp.StatusCode >= 500:
		return &ProviderError{Provider: name, Err: fmt.Errorf("status %d", resp.StatusCode), Retryable: true}
	case resp.StatusCode != http.StatusOK:
		return &ProviderError{Provider: name, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	limiter.ResetBackoff()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
