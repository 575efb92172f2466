//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	identitymodels "agora/internal/identity/models"
	identitysvc "agora/internal/identity/service"
	jwttoken "agora/internal/jwt_token"
	"agora/internal/platform/config"
	"agora/internal/platform/metrics"
	"agora/internal/server"
)

const (
	// Operator is the admin every scenario starts with.
	Operator = "operator"
	// Observer is a plain member used for reads that must not depend on
	// the caller's own votes or roles.
	Observer = "observer"
)

var placeholder = regexp.MustCompile(`\{([a-zA-Z0-9_-]+)\}`)

// TestContext holds one in-process server and the state shared between the
// steps of a scenario.
type TestContext struct {
	server  *httptest.Server
	svcs    *server.Services
	tokens  *jwttoken.JWTService
	members map[string]*identitymodels.Member
	names   map[string]string

	status int
	body   []byte
}

func NewTestContext() *TestContext {
	return &TestContext{}
}

// Reset starts a fresh server over empty in-memory stores.
func (tc *TestContext) Reset(ctx context.Context) error {
	tc.Close()

	cfg := config.Default()
	cfg.Server.JWTSigningKey = "e2e-signing-key"
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	tc.svcs = server.NewServices(cfg, server.NewMemoryBackend(cfg), logger, m)
	tc.tokens = jwttoken.NewJWTService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer, server.TokenAudience)
	tc.server = httptest.NewServer(server.NewRouter(tc.svcs, tc.tokens, logger, m, registry))
	tc.members = map[string]*identitymodels.Member{}
	tc.names = map[string]string{}
	tc.status, tc.body = 0, nil

	if err := tc.EnsureMember(ctx, Operator, true); err != nil {
		return err
	}
	return tc.EnsureMember(ctx, Observer, false)
}

func (tc *TestContext) Close() {
	if tc.server != nil {
		tc.server.Close()
		tc.server = nil
	}
}

// EnsureMember registers a verified member once per scenario and remembers
// its ID under the handle.
func (tc *TestContext) EnsureMember(ctx context.Context, handle string, admin bool) error {
	if _, ok := tc.members[handle]; ok {
		return nil
	}
	req := identitysvc.RegisterRequest{
		Handle:        handle,
		Email:         handle + "@agora.test",
		EmailVerified: true,
	}
	if admin {
		req.Roles = []identitymodels.Role{identitymodels.RoleAdmin}
	}
	member, err := tc.svcs.Identity.Register(ctx, req)
	if err != nil {
		return fmt.Errorf("register %s: %w", handle, err)
	}
	tc.members[handle] = member
	tc.Remember(handle, member.ID.String())
	return nil
}

// Do sends a request as the named member. An empty name sends it without a
// bearer token. Placeholders like {post} in path and body are expanded.
func (tc *TestContext) Do(as, method, path string, body any) error {
	path, err := tc.Expand(path)
	if err != nil {
		return err
	}

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		expanded, err := tc.Expand(b)
		if err != nil {
			return err
		}
		reader = strings.NewReader(expanded)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, tc.server.URL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if as != "" {
		member, ok := tc.members[as]
		if !ok {
			return fmt.Errorf("unknown member %q", as)
		}
		token, err := tc.tokens.GenerateAccessToken(member.ID, time.Hour)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := tc.server.Client().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	tc.status = resp.StatusCode
	tc.body, err = io.ReadAll(resp.Body)
	return err
}

func (tc *TestContext) Status() int {
	return tc.status
}

func (tc *TestContext) Body() string {
	return string(tc.body)
}

// Field reads a dot-separated path from the last JSON response. Numeric
// segments index into arrays.
func (tc *TestContext) Field(path string) (any, error) {
	var doc any
	if err := json.Unmarshal(tc.body, &doc); err != nil {
		return nil, fmt.Errorf("response is not JSON: %w: %s", err, tc.body)
	}
	cur := doc
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[seg]
			if !ok {
				return nil, fmt.Errorf("field %q not found in %s", path, tc.body)
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil, fmt.Errorf("index %q out of range in %q", seg, path)
			}
			cur = node[i]
		default:
			return nil, fmt.Errorf("field %q not found in %s", path, tc.body)
		}
	}
	return cur, nil
}

// FieldString renders a field the way a feature file spells it: whole
// numbers without a decimal point.
func (tc *TestContext) FieldString(path string) (string, error) {
	v, err := tc.Field(path)
	if err != nil {
		return "", err
	}
	switch x := v.(type) {
	case nil:
		return "", nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	default:
		return fmt.Sprint(x), nil
	}
}

func (tc *TestContext) Remember(name, value string) {
	tc.names[name] = value
}

func (tc *TestContext) Lookup(name string) (string, error) {
	v, ok := tc.names[name]
	if !ok {
		return "", fmt.Errorf("nothing remembered as %q", name)
	}
	return v, nil
}

// Expand replaces {name} placeholders with remembered values.
func (tc *TestContext) Expand(s string) (string, error) {
	var missing error
	out := placeholder.ReplaceAllStringFunc(s, func(m string) string {
		v, err := tc.Lookup(m[1 : len(m)-1])
		if err != nil && missing == nil {
			missing = err
		}
		return v
	})
	return out, missing
}
