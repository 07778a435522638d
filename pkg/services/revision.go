package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/revisio/revisio/pkg/eventbus"
	"github.com/revisio/revisio/pkg/events"
	"github.com/revisio/revisio/pkg/models"
	"github.com/revisio/revisio/pkg/nesting"
	"github.com/revisio/revisio/pkg/otelhelper"
	"github.com/revisio/revisio/pkg/persistence"
)

// Revision is the revision store service: the single write boundary for
// transformation revisions. Versioning, content-type and state-machine
// invariants are enforced here, keeping the closure maintainer free of
// validation concerns.
type Revision struct {
	persistence persistence.Persistence
	validate    *validator.Validate
	eventBus    eventbus.EventPublisher
	logger      *slog.Logger
	tracer      trace.Tracer
}

// NewRevision creates a new revision service. The event bus is optional;
// lifecycle events are skipped when it is nil.
func NewRevision(p persistence.Persistence, eventBus eventbus.EventPublisher, logger *slog.Logger) *Revision {
	return &Revision{
		persistence: p,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		eventBus:    eventBus,
		logger:      logger,
		tracer:      otel.Tracer("github.com/revisio/revisio/pkg/services"),
	}
}

// HealthCheck checks the health of the persistence layer.
func (s *Revision) HealthCheck(ctx context.Context) (string, bool) {
	if s.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := s.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// GetByID retrieves a revision by its ID.
func (s *Revision) GetByID(ctx context.Context, id uuid.UUID) (*models.TransformationRevision, error) {
	revision, err := s.persistence.RevisionRepository().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if revision == nil {
		return nil, ErrRevisionNotFound
	}

	return revision, nil
}

// Create inserts a new revision in DRAFT state. The content-type invariant
// and the (revision_group_id, version_tag) uniqueness invariant are checked;
// workflow revisions get their closure computed and persisted atomically with
// the insert.
func (s *Revision) Create(ctx context.Context, revision *models.TransformationRevision) (*models.TransformationRevision, error) {
	if revision == nil {
		return nil, ErrRevisionNil
	}

	if revision.ID == uuid.Nil {
		revision.ID = uuid.New()
	} else {
		// Save is an upsert; a caller-supplied id must not replace an
		// existing revision.
		existing, err := s.persistence.RevisionRepository().GetByID(ctx, revision.ID)
		if err != nil {
			return nil, err
		}

		if existing != nil {
			return nil, fmt.Errorf("%w: %s", ErrRevisionExists, revision.ID)
		}
	}

	if revision.RevisionGroupID == uuid.Nil {
		revision.RevisionGroupID = uuid.New()
	}

	revision.State = models.StateDraft
	revision.ReleasedTimestamp = nil
	revision.DisabledTimestamp = nil

	if err := s.validateRevision(revision); err != nil {
		return nil, err
	}

	closure, err := s.rebuildClosure(ctx, revision)
	if err != nil {
		return nil, err
	}

	err = s.persistence.RevisionRepository().Save(ctx, revision, closure)
	if err != nil {
		return nil, err
	}

	s.publishRebuilt(ctx, revision, closure)

	s.publish(ctx, events.RevisionCreated{
		BaseEvent:    s.baseEvent(events.RevisionCreatedEvent, revision),
		RevisionType: revision.Type,
		VersionTag:   revision.VersionTag,
	})

	return revision, nil
}

// Update replaces the content and metadata of a DRAFT revision. Released
// revisions are immutable. A workflow's closure is rebuilt and committed with
// the update.
func (s *Revision) Update(ctx context.Context, id uuid.UUID, revision *models.TransformationRevision) (*models.TransformationRevision, error) {
	if revision == nil {
		return nil, ErrRevisionNil
	}

	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if existing.State != models.StateDraft {
		return nil, fmt.Errorf("%w: revision %s is %s", ErrReleasedImmutable, id, existing.State)
	}

	// Identity, kind and lifecycle fields are not updatable.
	revision.ID = existing.ID
	revision.RevisionGroupID = existing.RevisionGroupID
	revision.Type = existing.Type
	revision.State = existing.State
	revision.ReleasedTimestamp = nil
	revision.DisabledTimestamp = nil

	if err := s.validateRevision(revision); err != nil {
		return nil, err
	}

	closure, err := s.rebuildClosure(ctx, revision)
	if err != nil {
		return nil, err
	}

	err = s.persistence.RevisionRepository().Save(ctx, revision, closure)
	if err != nil {
		return nil, err
	}

	s.publishRebuilt(ctx, revision, closure)

	s.publish(ctx, events.RevisionUpdated{
		BaseEvent:  s.baseEvent(events.RevisionUpdatedEvent, revision),
		VersionTag: revision.VersionTag,
	})

	return revision, nil
}

// Release transitions a DRAFT revision to RELEASED and stamps the release
// timestamp. For workflows the closure is re-verified and persisted in the
// same transaction, so a reader never observes a released workflow with a
// stale or missing closure.
func (s *Revision) Release(ctx context.Context, id uuid.UUID) (*models.TransformationRevision, error) {
	revision, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !revision.CanTransition(models.StateReleased) {
		return nil, &StateTransitionError{RevisionID: id, From: revision.State, To: models.StateReleased}
	}

	now := time.Now().UTC()
	revision.State = models.StateReleased
	revision.ReleasedTimestamp = &now

	closure, err := s.rebuildClosure(ctx, revision)
	if err != nil {
		return nil, err
	}

	err = s.persistence.RevisionRepository().Save(ctx, revision, closure)
	if err != nil {
		return nil, err
	}

	s.publishRebuilt(ctx, revision, closure)

	s.publish(ctx, events.RevisionReleased{
		BaseEvent:         s.baseEvent(events.RevisionReleasedEvent, revision),
		VersionTag:        revision.VersionTag,
		ReleasedTimestamp: now,
	})

	return revision, nil
}

// Disable transitions a RELEASED revision to DISABLED and stamps the disable
// timestamp. The revision stays addressable; default listings exclude it.
func (s *Revision) Disable(ctx context.Context, id uuid.UUID) (*models.TransformationRevision, error) {
	revision, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !revision.CanTransition(models.StateDisabled) {
		return nil, &StateTransitionError{RevisionID: id, From: revision.State, To: models.StateDisabled}
	}

	now := time.Now().UTC()
	revision.State = models.StateDisabled
	revision.DisabledTimestamp = &now

	closure, err := s.rebuildClosure(ctx, revision)
	if err != nil {
		return nil, err
	}

	err = s.persistence.RevisionRepository().Save(ctx, revision, closure)
	if err != nil {
		return nil, err
	}

	s.publishRebuilt(ctx, revision, closure)

	s.publish(ctx, events.RevisionDisabled{
		BaseEvent:         s.baseEvent(events.RevisionDisabledEvent, revision),
		VersionTag:        revision.VersionTag,
		DisabledTimestamp: now,
	})

	return revision, nil
}

// Delete removes a DRAFT revision. Deletion is blocked while any workflow
// that is not DISABLED still reaches the revision through its closure.
func (s *Revision) Delete(ctx context.Context, id uuid.UUID) error {
	revision, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if revision.State != models.StateDraft {
		return fmt.Errorf("%w: revision %s is %s", ErrReleasedImmutable, id, revision.State)
	}

	ancestors, err := s.persistence.NestingRepository().Ancestors(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to look up ancestors: %w", err)
	}

	for _, workflowID := range ancestors {
		workflow, err := s.persistence.RevisionRepository().GetByID(ctx, workflowID)
		if err != nil {
			return err
		}

		if workflow != nil && workflow.State != models.StateDisabled {
			return fmt.Errorf("%w: revision %s is nested in workflow %s", ErrRevisionInUse, id, workflowID)
		}
	}

	err = s.persistence.RevisionRepository().Delete(ctx, id)
	if err != nil {
		return err
	}

	s.publish(ctx, events.RevisionDeleted{
		BaseEvent: s.baseEvent(events.RevisionDeletedEvent, revision),
	})

	return nil
}

func (s *Revision) validateRevision(revision *models.TransformationRevision) error {
	if err := s.validate.Struct(revision); err != nil {
		return fmt.Errorf("invalid revision: %w", err)
	}

	if err := revision.ValidateContent(); err != nil {
		return err
	}

	return models.ValidateTestWiring(revision.TestWiring)
}

// rebuildClosure recomputes the closure rows of a workflow revision. A cycle
// aborts before anything is handed to persistence, so prior rows stay intact.
func (s *Revision) rebuildClosure(ctx context.Context, revision *models.TransformationRevision) ([]models.Nesting, error) {
	if revision.Type != models.TypeWorkflow {
		return nil, nil
	}

	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "nesting.rebuild",
		attribute.String(otelhelper.RevisionIDKey, revision.ID.String()))
	defer span.End()

	closure, err := nesting.Closure(ctx, revision, func(ctx context.Context, id uuid.UUID) (*models.TransformationRevision, error) {
		return s.persistence.RevisionRepository().GetByID(ctx, id)
	})
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	return closure, nil
}

// publishRebuilt announces a committed closure rebuild. Callers invoke it
// only after Save succeeds, so a failed save never announces a rebuild.
func (s *Revision) publishRebuilt(ctx context.Context, revision *models.TransformationRevision, closure []models.Nesting) {
	if revision.Type != models.TypeWorkflow {
		return
	}

	maxDepth := 0
	for _, row := range closure {
		if row.Depth > maxDepth {
			maxDepth = row.Depth
		}
	}

	s.publish(ctx, events.NestingRebuilt{
		BaseEvent: s.baseEvent(events.NestingRebuiltEvent, revision),
		RowCount:  len(closure),
		MaxDepth:  maxDepth,
	})
}

func (s *Revision) baseEvent(eventType events.EventType, revision *models.TransformationRevision) events.BaseEvent {
	return events.BaseEvent{
		ID:              uuid.New().String(),
		Type:            eventType,
		Timestamp:       time.Now().UTC(),
		RevisionID:      revision.ID,
		RevisionGroupID: revision.RevisionGroupID,
	}
}

// publish sends a lifecycle event when a bus is attached. Event delivery is
// best effort and never fails the triggering operation.
func (s *Revision) publish(ctx context.Context, event eventbus.Event) {
	if s.eventBus == nil {
		return
	}

	err := s.eventBus.Publish(ctx, string(event.GetType()), event)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to publish lifecycle event",
			"event_type", event.GetType(), "error", err)
	}
}
