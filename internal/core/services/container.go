package services

import (
	"github.com/SscSPs/rosca_app/internal/adapters/cache"
	portsrepo "github.com/SscSPs/rosca_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/rosca_app/internal/core/ports/services"
	"github.com/SscSPs/rosca_app/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies.
// Extra options (locker, notifier, metrics) are applied after the configured ones.
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, opts ...GroupServiceOption) *portssvc.ServiceContainer {
	options := []GroupServiceOption{
		WithAuditLog(repos.AuditRepo),
		WithMaxRetries(cfg.MutationMaxRetries),
		WithLockWait(cfg.LockWait),
		WithInviteBaseURL(cfg.FrontendBaseURL),
	}
	if repos.UserRepo != nil {
		options = append(options, WithUserDirectory(cache.NewCachedUserDirectory(repos.UserRepo, cfg.UserCacheTTL)))
	}
	options = append(options, opts...)

	return &portssvc.ServiceContainer{
		Group: NewGroupService(repos.GroupRepo, repos.Ledger, options...),
		Audit: NewAuditService(repos.GroupRepo, repos.AuditRepo),
	}
}
