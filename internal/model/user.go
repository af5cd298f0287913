// Package model defines the data structures shared across the gateway.
package model

import "time"

// User is a dashboard account bound to a GitHub identity.
//
// GitHub's numeric user ID is the stable external key: logins can be
// renamed, IDs cannot. We still mint our own internal xid so primary keys
// aren't tied to a third party's numbering scheme.
//
// AccessToken is the user's current GitHub OAuth token. It is refreshed on
// every login (last writer wins) and consumed by the repository registry
// when probing repo permissions. It is never serialized to clients.
type User struct {
	ID          string    `json:"id"`
	GitHubID    int64     `json:"githubId"`
	Login       string    `json:"login"`
	AvatarURL   string    `json:"avatarUrl"`
	AccessToken string    `json:"-"`
	LastLoginAt time.Time `json:"lastLoginAt"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
