package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/pulse/internal/audit/domain"
	"github.com/smallbiznis/pulse/internal/auditcontext"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service writes audit log entries for user- and system-triggered actions.
type Service struct {
	log   *zap.Logger
	repo  domain.Repository
	genID *snowflake.Node
}

func NewService(log *zap.Logger, repo domain.Repository, genID *snowflake.Node) *Service {
	return &Service{
		log:   log.Named("audit.service"),
		repo:  repo,
		genID: genID,
	}
}

// AuditLog records one action. A nil tx writes outside any transaction.
// Actor identity falls back to whatever the request middleware stored in
// the context; a missing actor is recorded as the system.
func (s *Service) AuditLog(ctx context.Context, tx *gorm.DB, action, targetType string, targetID *string, metadata map[string]any) error {
	actorType, actorID := auditcontext.ActorFromContext(ctx)
	if strings.TrimSpace(actorType) == "" {
		actorType = string(domain.ActorTypeSystem)
	}

	entry := &domain.AuditLog{
		ID:         s.genID.Generate(),
		ActorType:  actorType,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Metadata:   datatypes.JSONMap{},
	}
	if actorID != "" {
		entry.ActorID = &actorID
	}
	if ip := auditcontext.IPAddressFromContext(ctx); ip != "" {
		entry.IPAddress = &ip
	}
	if ua := auditcontext.UserAgentFromContext(ctx); ua != "" {
		entry.UserAgent = &ua
	}
	for key, value := range metadata {
		if strings.TrimSpace(key) == "" {
			continue
		}
		entry.Metadata[key] = value
	}

	if err := s.repo.Insert(ctx, tx, entry); err != nil {
		s.log.Warn("audit write failed", zap.String("action", action), zap.Error(err))
		return err
	}
	return nil
}

// List reads audit entries for the admin surface.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) ([]*domain.AuditLog, error) {
	return s.repo.List(ctx, nil, filter)
}
