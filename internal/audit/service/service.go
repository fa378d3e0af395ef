// Package service records loyalty audit entries. Recording is best-effort:
// an audit write failure is logged, never surfaced to the operation that
// triggered it.
package service

import (
	"context"
	"strings"

	auditdomain "github.com/brewtab/perka/internal/audit/domain"
	obscontext "github.com/brewtab/perka/internal/observability/context"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Entry describes one action to record.
type Entry struct {
	ActorType  auditdomain.ActorType
	ActorID    string
	Action     string
	TargetType string
	TargetID   string
	Metadata   map[string]any
	IPAddress  string
	UserAgent  string
}

// Service writes and reads the audit log.
type Service interface {
	Record(ctx context.Context, entry Entry)
	RecordTx(ctx context.Context, tx *gorm.DB, entry Entry) error
	List(ctx context.Context, filter auditdomain.ListFilter) ([]*auditdomain.AuditLog, error)
}

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  auditdomain.Repository
}

type service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  auditdomain.Repository
}

func NewService(p ServiceParam) Service {
	return &service{
		db:    p.DB,
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

// Record writes the entry outside any caller transaction and swallows
// failures after logging them.
func (s *service) Record(ctx context.Context, entry Entry) {
	if err := s.RecordTx(ctx, s.db, entry); err != nil {
		s.log.Warn("audit record failed",
			zap.String("action", entry.Action),
			zap.Error(err),
		)
	}
}

// RecordTx writes the entry inside the caller's transaction so the audit row
// commits with the action it describes.
func (s *service) RecordTx(ctx context.Context, tx *gorm.DB, entry Entry) error {
	action := strings.TrimSpace(entry.Action)
	if action == "" {
		return auditdomain.ErrMissingAction
	}
	actorType := entry.ActorType
	if actorType == "" {
		actorType = auditdomain.ActorTypeSystem
	}

	actorID := optional(entry.ActorID)
	if actorID == nil {
		ctxActorType, ctxActorID := obscontext.ActorFromContext(ctx)
		if ctxActorID != "" {
			actorID = &ctxActorID
			if entry.ActorType == "" && ctxActorType != "" {
				actorType = auditdomain.ActorType(ctxActorType)
			}
		}
	}

	metadata := datatypes.JSONMap{}
	for key, value := range entry.Metadata {
		if strings.TrimSpace(key) == "" {
			continue
		}
		metadata[key] = value
	}

	record := &auditdomain.AuditLog{
		ID:         s.genID.Generate(),
		ActorType:  string(actorType),
		ActorID:    actorID,
		Action:     action,
		TargetType: entry.TargetType,
		TargetID:   optional(entry.TargetID),
		Metadata:   metadata,
		IPAddress:  optional(entry.IPAddress),
		UserAgent:  optional(entry.UserAgent),
	}
	return s.repo.Insert(ctx, tx, record)
}

func (s *service) List(ctx context.Context, filter auditdomain.ListFilter) ([]*auditdomain.AuditLog, error) {
	return s.repo.List(ctx, s.db, filter)
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
