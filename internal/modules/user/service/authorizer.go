package service

import (
	"slices"
	"strings"

	"github.com/Dnl30T/Avisos-FOA/internal/entity"
)

// Authorizer decides whether a principal holds the administrative capability.
type Authorizer interface {
	IsAdmin(principal *entity.Principal) bool
}

// AllowList grants admin to a fixed set of email addresses, matched case-insensitively.
type AllowList struct {
	emails map[string]struct{}
}

func NewAllowList(emails []string) *AllowList {
	set := make(map[string]struct{}, len(emails))
	for _, e := range emails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			set[e] = struct{}{}
		}
	}
	return &AllowList{emails: set}
}

func (a *AllowList) IsAdmin(principal *entity.Principal) bool {
	if principal == nil {
		return false
	}
	_, ok := a.emails[strings.ToLower(principal.Email)]
	return ok
}

// Emails lists the allowed addresses in sorted order. The seeder creates an account
// for each one.
func (a *AllowList) Emails() []string {
	out := make([]string, 0, len(a.emails))
	for e := range a.emails {
		out = append(out, e)
	}
	slices.Sort(out)
	return out
}
