// Package cache wraps slow collaborators with in-process caches.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/SscSPs/rosca_app/internal/apperrors"
	"github.com/SscSPs/rosca_app/internal/core/domain"
	portsrepo "github.com/SscSPs/rosca_app/internal/core/ports/repositories"
	"github.com/patrickmn/go-cache"
)

// missingUser marks a cached not-found lookup.
type missingUser struct{}

// CachedUserDirectory memoises profile lookups, including misses, for ttl.
type CachedUserDirectory struct {
	next  portsrepo.UserDirectory
	store *cache.Cache
}

// NewCachedUserDirectory wraps next with a cache whose entries live for ttl.
func NewCachedUserDirectory(next portsrepo.UserDirectory, ttl time.Duration) *CachedUserDirectory {
	return &CachedUserDirectory{
		next:  next,
		store: cache.New(ttl, 2*ttl),
	}
}

var _ portsrepo.UserDirectory = (*CachedUserDirectory)(nil)

func (c *CachedUserDirectory) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	if v, found := c.store.Get(userID); found {
		switch u := v.(type) {
		case domain.User:
			return &u, nil
		case missingUser:
			return nil, apperrors.NewNotFoundError("user " + userID)
		}
	}

	user, err := c.next.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.store.SetDefault(userID, missingUser{})
		}
		return nil, err
	}
	c.store.SetDefault(userID, *user)
	return user, nil
}
