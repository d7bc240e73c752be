package pocket

import (
	"context"
	"fmt"
	"net/url"
)

// Authenticator runs Pocket's consumer authorization flow:
// request token, user approval in a browser, access token.
type Authenticator struct {
	transport *transport
}

// NewAuthenticator creates an authenticator against baseURL.
func NewAuthenticator(baseURL string) *Authenticator {
	return &Authenticator{transport: newTransport(baseURL)}
}

// RequestToken obtains a request token bound to redirectURI.
func (a *Authenticator) RequestToken(ctx context.Context, redirectURI string) (string, error) {
	var resp struct {
		Code string `json:"code"`
	}
	err := a.transport.post(ctx, "/v3/oauth/request", map[string]string{
		"consumer_key": ConsumerKey,
		"redirect_uri": redirectURI,
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("request token: %w", err)
	}
	if resp.Code == "" {
		return "", fmt.Errorf("request token: empty code in response")
	}
	return resp.Code, nil
}

// AuthorizeURL is the page where the user approves requestToken.
func (a *Authenticator) AuthorizeURL(requestToken, redirectURI string) string {
	params := url.Values{
		"request_token": {requestToken},
		"redirect_uri":  {redirectURI},
	}
	return a.transport.baseURL + "/auth/authorize?" + params.Encode()
}

// AccessToken converts an approved request token into an access token.
// It returns the token and the Pocket username.
func (a *Authenticator) AccessToken(ctx context.Context, requestToken string) (string, string, error) {
	var resp struct {
		AccessToken string `json:"access_token"`
		Username    string `json:"username"`
	}
	err := a.transport.post(ctx, "/v3/oauth/authorize", map[string]string{
		"consumer_key": ConsumerKey,
		"code":         requestToken,
	}, &resp)
	if err != nil {
		return "", "", fmt.Errorf("authorize: %w", err)
	}
	if resp.AccessToken == "" {
		return "", "", fmt.Errorf("authorize: empty access token in response")
	}
	return resp.AccessToken, resp.Username, nil
}
