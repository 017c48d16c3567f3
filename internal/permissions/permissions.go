// Package permissions decides whether a request may perform an action on a resource.
package permissions

import "net/http"

// Action names the operation a request performs on a resource collection or item.
type Action string

const (
	List          Action = "list"
	Create        Action = "create"
	Retrieve      Action = "retrieve"
	Update        Action = "update"
	PartialUpdate Action = "partial_update"
	Destroy       Action = "destroy"
)

// Request is what a policy needs to know about the caller.
type Request struct {
	Method string
	Action Action
	// User is empty for anonymous callers.
	User string
}

func (r Request) Authenticated() bool {
	return r.User != ""
}

// Safe reports whether the request method cannot modify state.
func (r Request) Safe() bool {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// Owned is implemented by resources with a single owner.
type Owned interface {
	OwnerName() string
}

// Policy is evaluated twice: once before the handler runs and once per object it touches.
type Policy interface {
	HasPermission(req Request) bool
	HasObjectPermission(req Request, obj Owned) bool
}

// ReadOnly allows safe methods only.
type ReadOnly struct{}

func (ReadOnly) HasPermission(req Request) bool { return req.Safe() }

func (ReadOnly) HasObjectPermission(req Request, _ Owned) bool { return req.Safe() }

// OwnerOrReadOnly lets anyone read, authenticated callers create and owners change their objects.
type OwnerOrReadOnly struct{}

func (OwnerOrReadOnly) HasPermission(req Request) bool {
	return req.Safe() || req.Authenticated()
}

func (OwnerOrReadOnly) HasObjectPermission(req Request, obj Owned) bool {
	if req.Safe() {
		return true
	}
	return req.Authenticated() && obj != nil && obj.OwnerName() == req.User
}

// IsAuthenticated denies every anonymous request.
type IsAuthenticated struct{}

func (IsAuthenticated) HasPermission(req Request) bool { return req.Authenticated() }

func (IsAuthenticated) HasObjectPermission(req Request, _ Owned) bool { return req.Authenticated() }

// Selector returns the policies that apply to an action.
type Selector func(action Action) []Policy

// Static applies the same policies to every action.
func Static(policies ...Policy) Selector {
	return func(Action) []Policy { return policies }
}

// CatPolicies makes single-item reads read-only and guards everything else by ownership.
func CatPolicies(action Action) []Policy {
	if action == Retrieve {
		return []Policy{ReadOnly{}}
	}
	return []Policy{OwnerOrReadOnly{}}
}

// Allowed reports whether every policy grants the request. Evaluation stops at the first denial.
func Allowed(policies []Policy, req Request) bool {
	for _, p := range policies {
		if !p.HasPermission(req) {
			return false
		}
	}
	return true
}

// ObjectAllowed reports whether every policy grants the request on obj.
func ObjectAllowed(policies []Policy, req Request, obj Owned) bool {
	for _, p := range policies {
		if !p.HasObjectPermission(req, obj) {
			return false
		}
	}
	return true
}
