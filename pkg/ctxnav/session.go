package ctxnav

import (
	"context"
	"sync"

	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/constants"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/data"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/path"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/router"
	"go.uber.org/atomic"
)

// Session holds the routing state of one Navigator. It is reset by
// InitializeRouting.
type Session struct {
	generation atomic.Uint64
	uiState    atomic.Int32
	exitOnRoot atomic.Bool

	mu sync.Mutex

	// Key sets and draft kind are written once per InitializeRouting.
	entitySet     string
	technicalKeys []path.Key
	semanticKeys  []path.Key
	draft         constants.DraftKind
	messagesPaths map[string]string

	// The single pending-context slot and the flags of the navigation in flight.
	pending       data.Context
	deferred      bool
	async         *data.Future
	cancelAsync   context.CancelFunc
	editable      bool
	persistScroll bool

	firstBefore *router.MatchEvent
}

func newSession() *Session {
	return &Session{messagesPaths: make(map[string]string)}
}

// Generation returns the identifier of the latest navigation request.
func (s *Session) Generation() uint64 {
	return s.generation.Load()
}

// UIState returns whether bound data needs a refresh.
func (s *Session) UIState() constants.UIState {
	return constants.UIState(s.uiState.Load())
}

func (s *Session) setUIState(state constants.UIState) {
	s.uiState.Store(int32(state))
}

// isDirty is true until a started rebind has been cleaned.
func (s *Session) isDirty() bool {
	return s.UIState() != constants.UIStateClean
}

func (s *Session) cleanProcessed() {
	s.uiState.CompareAndSwap(int32(constants.UIStateProcessed), int32(constants.UIStateClean))
}

// ExitOnNavigateBackToRoot reports whether navigating back above the first
// page leaves the application.
func (s *Session) ExitOnNavigateBackToRoot() bool {
	return s.exitOnRoot.Load()
}

func (s *Session) setExitOnRoot() {
	s.exitOnRoot.Store(true)
}

// EntitySet returns the entity set the application routes on.
func (s *Session) EntitySet() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entitySet
}

// TechnicalKeys returns the primary keys of the routing entity set.
func (s *Session) TechnicalKeys() []path.Key {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]path.Key(nil), s.technicalKeys...)
}

// SemanticKeys returns the semantic keys of the routing entity set.
func (s *Session) SemanticKeys() []path.Key {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]path.Key(nil), s.semanticKeys...)
}

// Draft returns the draft annotation of the routing entity set.
func (s *Session) Draft() constants.DraftKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

func (s *Session) messagesPath(entitySet string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messagesPaths[entitySet]
}

// reset returns to the initial state of a routing session and supersedes any
// navigation in flight.
func (s *Session) reset(exitOnRoot bool) {
	s.mu.Lock()
	if s.cancelAsync != nil {
		s.cancelAsync()
	}
	s.entitySet = ""
	s.technicalKeys = nil
	s.semanticKeys = nil
	s.draft = constants.DraftNone
	s.messagesPaths = make(map[string]string)
	s.pending = nil
	s.deferred = false
	s.async = nil
	s.cancelAsync = nil
	s.editable = false
	s.persistScroll = false
	s.firstBefore = nil
	s.mu.Unlock()

	s.generation.Inc()
	s.setUIState(constants.UIStateClean)
	s.exitOnRoot.Store(exitOnRoot)
}

// begin starts a navigation request and returns its generation. It clears
// the flags of the previous request and reports whether an async navigation
// was superseded.
func (s *Session) begin() (uint64, bool) {
	s.mu.Lock()
	superseded := s.cancelAsync != nil
	if superseded {
		s.cancelAsync()
	}
	s.cancelAsync = nil
	s.async = nil
	s.deferred = false
	s.mu.Unlock()
	return s.generation.Inc(), superseded
}

func (s *Session) setKeys(entitySet string, technical, semantic []path.Key, draft constants.DraftKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entitySet = entitySet
	s.technicalKeys = technical
	s.semanticKeys = semantic
	s.draft = draft
}

func (s *Session) setMessagesPath(entitySet, messagesPath string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messagesPaths[entitySet] = messagesPath
}

func (s *Session) setPending(c data.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = c
}

func (s *Session) pendingContext() data.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

func (s *Session) consumePending(c data.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == c {
		s.pending = nil
	}
}

func (s *Session) setTargetOptions(editable, persistScroll bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editable = editable
	s.persistScroll = persistScroll
}

func (s *Session) setEditable() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editable = true
}

func (s *Session) targetOptions() (bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editable, s.persistScroll
}

func (s *Session) setDeferred() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deferred = true
}

func (s *Session) setAsync(f *data.Future, cancel context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.async = f
	s.cancelAsync = cancel
}

// finishAsync forgets the async navigation of f once its context arrived or
// failed.
func (s *Session) finishAsync(f *data.Future) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.async == f {
		s.async = nil
		s.cancelAsync = nil
	}
}

// asyncPending reports whether an async navigation still waits for its context.
func (s *Session) asyncPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.async != nil
}

// shouldCreateDeferred reports whether the target page creates the pending
// record itself: the navigation was deferred, or it was async but the async
// context is gone (the page was reloaded or bookmarked).
func (s *Session) shouldCreateDeferred() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deferred || s.async == nil
}

func (s *Session) deferredCreated() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deferred = false
	s.async = nil
}

func (s *Session) recordFirstBefore(ev router.MatchEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.firstBefore == nil {
		s.firstBefore = &ev
	}
}

func (s *Session) firstBeforeEvent() (router.MatchEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.firstBefore == nil {
		return router.MatchEvent{}, false
	}
	return *s.firstBefore, true
}
