// Package guard decides whether a session may enter a view and where to
// send it otherwise.
package guard

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"course_market_backend/logger"
	"course_market_backend/models"
)

const EntryPath = "/"

// Session is the signed-in user; a nil *Session means anonymous.
type Session struct {
	UserID uuid.UUID
}

// Lookup reads the role stored on the user's profile. An empty string means
// no role is set.
type Lookup interface {
	UserType(ctx context.Context, userID uuid.UUID) (string, error)
}

type Route struct {
	Prefix       string
	RequireAuth  bool
	AllowedRoles []string
}

func (r Route) allows(role string) bool {
	if len(r.AllowedRoles) == 0 {
		return true
	}
	for _, allowed := range r.AllowedRoles {
		if allowed == role {
			return true
		}
	}
	return false
}

// DefaultRoutes mirrors the views served by the web client.
func DefaultRoutes() []Route {
	return []Route{
		{Prefix: EntryPath},
		{Prefix: "/course/"},
		{Prefix: "/student", RequireAuth: true, AllowedRoles: []string{models.RoleStudent}},
		{Prefix: "/teacher", RequireAuth: true, AllowedRoles: []string{models.RoleTeacher}},
	}
}

type Decision struct {
	Allow      bool   `json:"allow"`
	RedirectTo string `json:"redirect_to,omitempty"`
}

func allow() Decision {
	return Decision{Allow: true}
}

func redirect(to string) Decision {
	return Decision{RedirectTo: to}
}

type Guard struct {
	routes []Route
	lookup Lookup
	log    *logger.Logger
}

func New(routes []Route, lookup Lookup, log *logger.Logger) *Guard {
	return &Guard{routes: routes, lookup: lookup, log: log.With("component", "guard")}
}

// Landing is the default view for a role, or the entry path when the role
// is unknown.
func Landing(role string) string {
	switch role {
	case models.RoleStudent:
		return "/student"
	case models.RoleTeacher:
		return "/teacher"
	default:
		return EntryPath
	}
}

// Match returns the route with the longest matching prefix. Paths outside
// the table require a session but no particular role.
func (g *Guard) Match(path string) Route {
	best := Route{Prefix: path, RequireAuth: true}
	bestLen := -1
	for _, r := range g.routes {
		if !matches(r.Prefix, path) {
			continue
		}
		if len(r.Prefix) > bestLen {
			best, bestLen = r, len(r.Prefix)
		}
	}
	return best
}

func matches(prefix, path string) bool {
	if prefix == EntryPath {
		return path == EntryPath || path == ""
	}
	if strings.HasSuffix(prefix, "/") {
		return strings.HasPrefix(path, prefix)
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// Check evaluates the route registered for path.
func (g *Guard) Check(ctx context.Context, s *Session, path string) Decision {
	return g.Evaluate(ctx, s, g.Match(path), path)
}

// Evaluate applies route to the session. The role is looked up on every
// call. Only a known role outside AllowedRoles is redirected; a user with no
// role yet, or whose lookup failed, is let through.
func (g *Guard) Evaluate(ctx context.Context, s *Session, route Route, path string) Decision {
	if s == nil {
		if route.RequireAuth {
			return redirect(EntryPath)
		}
		return allow()
	}

	isEntry := path == EntryPath || path == ""
	if len(route.AllowedRoles) == 0 && !isEntry {
		return allow()
	}

	role, err := g.lookup.UserType(ctx, s.UserID)
	if err != nil {
		g.log.Warn("role lookup failed", "user_id", s.UserID, "error", err)
		role = ""
	}

	if isEntry {
		if landing := Landing(role); landing != EntryPath {
			return redirect(landing)
		}
		return allow()
	}
	if role != "" && !route.allows(role) {
		return redirect(Landing(role))
	}
	return allow()
}
