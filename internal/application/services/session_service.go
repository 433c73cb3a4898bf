package services

import (
	"context"

	"github.com/AtRiskMedia/beacon-go/internal/domain/events"
	"github.com/AtRiskMedia/beacon-go/internal/domain/session"
	"github.com/AtRiskMedia/beacon-go/internal/infrastructure/observability/logging"
)

// SessionServiceOptions carries the construction-time inputs of the
// SessionService.
type SessionServiceOptions struct {
	Machine    *session.Machine
	Enricher   *Enricher
	Uniqueness *UniquenessService
	Logger     *logging.ChanneledLogger
	Automatic  bool
}

// SessionService translates lifecycle signals into session boundary
// actions: resetting session-scoped state, emitting the automatic boundary
// events, and running the persistence protocol at termination.
type SessionService struct {
	machine    *session.Machine
	enricher   *Enricher
	uniqueness *UniquenessService
	logger     *logging.ChanneledLogger
	automatic  bool
}

// NewSessionService wires the machine to its boundary actions.
func NewSessionService(opts SessionServiceOptions) *SessionService {
	return &SessionService{
		machine:    opts.Machine,
		enricher:   opts.Enricher,
		uniqueness: opts.Uniqueness,
		logger:     opts.Logger,
		automatic:  opts.Automatic,
	}
}

// Start fires the first session's start event. Construction of the tracker
// is the start of the first session.
func (s *SessionService) Start() {
	s.logger.Session().Info("Session started")
	if s.automatic {
		s.enricher.TrackAutomatic(events.EventSessionStart)
	}
}

// Background records the transition into the background. No timer starts;
// the threshold is evaluated at the next foreground signal.
func (s *SessionService) Background() {
	s.machine.Background(s.enricher.clock())
	s.logger.Session().Debug("Application backgrounded")
}

// Foreground resumes the session, or starts a new one when the app stayed
// backgrounded past the threshold. A boundary clears session-scoped state
// before the new session's start event fires.
func (s *SessionService) Foreground() {
	if !s.machine.Foreground(s.enricher.clock()) {
		s.logger.Session().Debug("Application foregrounded, session resumed")
		return
	}
	s.logger.Session().Info("Session boundary crossed")
	s.enricher.ResetSession()
	s.uniqueness.ResetSession()
	if s.automatic {
		s.enricher.TrackAutomatic(events.EventSessionStart)
	}
}

// Terminate freezes the machine, emits the session end event, and runs the
// persistence protocol synchronously. Repeated calls are no-ops.
func (s *SessionService) Terminate(ctx context.Context) error {
	if !s.machine.Terminate() {
		return nil
	}
	s.logger.Session().Info("Session terminated")
	if s.automatic {
		s.enricher.TrackAutomatic(events.EventSessionEnd)
	}
	if err := s.uniqueness.Persist(ctx); err != nil {
		s.logger.Store().Error("Could not persist uniqueness state", "error", err.Error())
		return err
	}
	return nil
}
