package prometheus

import "net/http"

// AuthMode discriminates the authentication variant of a tenant. Exactly
// one mode is selected at configuration time; config validation rejects
// tenants that set both token and basic-auth fields.
type AuthMode string

const (
	AuthNone   AuthMode = "none"
	AuthBasic  AuthMode = "basic"
	AuthBearer AuthMode = "bearer"
)

// AuthConfig holds the credentials for one tenant.
type AuthConfig struct {
	Mode     AuthMode
	Username string
	Password string
	Token    string
}

// authFromCredentials selects the auth mode from the configured fields.
// Conflicting fields are a startup error and rejected before this runs;
// a username without a password (or vice versa) degrades to AuthNone.
func authFromCredentials(username, password, token string) AuthConfig {
	switch {
	case token != "":
		return AuthConfig{Mode: AuthBearer, Token: token}
	case username != "" && password != "":
		return AuthConfig{Mode: AuthBasic, Username: username, Password: password}
	default:
		return AuthConfig{Mode: AuthNone}
	}
}

// roundTripper decorates rt with the Authorization header for this auth
// mode. AuthNone returns rt unchanged.
func (a AuthConfig) roundTripper(rt http.RoundTripper) http.RoundTripper {
	switch a.Mode {
	case AuthBearer:
		return &bearerTokenRoundTripper{token: a.Token, rt: rt}
	case AuthBasic:
		return &basicAuthRoundTripper{username: a.Username, password: a.Password, rt: rt}
	default:
		return rt
	}
}

// basicAuthRoundTripper adds basic authentication to requests
type basicAuthRoundTripper struct {
	username string
	password string
	rt       http.RoundTripper
}

func (b *basicAuthRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(b.username, b.password)
	return b.rt.RoundTrip(req)
}

// bearerTokenRoundTripper adds bearer token authentication to requests
type bearerTokenRoundTripper struct {
	token string
	rt    http.RoundTripper
}

func (b *bearerTokenRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+b.token)
	return b.rt.RoundTrip(req)
}

// orgIDRoundTripper adds the Organization ID header to requests for
// multi-tenant backends such as Cortex and Mimir
type orgIDRoundTripper struct {
	orgID string
	rt    http.RoundTripper
}

func (o *orgIDRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if o.orgID != "" {
		req.Header.Set("X-Scope-OrgID", o.orgID)
	}
	return o.rt.RoundTrip(req)
}

// headerRoundTripper adds a fixed set of custom headers to every request.
// Headers already present on the request are not overwritten.
type headerRoundTripper struct {
	headers map[string]string
	rt      http.RoundTripper
}

func (h *headerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	for k, v := range h.headers {
		if req.Header.Get(k) == "" {
			req.Header.Set(k, v)
		}
	}
	return h.rt.RoundTrip(req)
}
