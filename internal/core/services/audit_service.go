package services

import (
	"context"
	"log/slog"

	"github.com/SscSPs/rosca_app/internal/core/domain"
	portsrepo "github.com/SscSPs/rosca_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/rosca_app/internal/core/ports/services"
	"github.com/SscSPs/rosca_app/internal/utils/pagination"
)

const (
	defaultAuditPageSize = 50
	maxAuditPageSize     = 500
)

type auditService struct {
	BaseService
	groups portsrepo.GroupReader
	audit  portsrepo.AuditReader
}

// NewAuditService creates the read side of the audit trail.
func NewAuditService(groups portsrepo.GroupReader, audit portsrepo.AuditReader) portssvc.AuditSvc {
	return &auditService{groups: groups, audit: audit}
}

func (s *auditService) ListGroupAudit(ctx context.Context, groupID string, limit int) ([]domain.AuditEntry, error) {
	if _, err := s.groups.FindGroupByID(ctx, groupID); err != nil {
		return nil, err
	}
	limit = pagination.NormalizeLimit(limit, defaultAuditPageSize, maxAuditPageSize)
	entries, err := s.audit.ListAuditEntries(ctx, groupID, limit)
	if err != nil {
		s.LogError(ctx, err, "Failed to list audit entries", slog.String("group_id", groupID))
		return nil, err
	}
	if entries == nil {
		entries = []domain.AuditEntry{}
	}
	return entries, nil
}
