package tripsync

import (
	"context"
	"errors"
	"sync"
	"time"

	apperrors "github.com/NomadCrew/tripsync-backend/errors"
	"github.com/NomadCrew/tripsync-backend/logger"
	"github.com/NomadCrew/tripsync-backend/types"
	"go.uber.org/zap"
)

var (
	// ErrClosed is returned by operations started after Close.
	ErrClosed = errors.New("tripsync: view closed")
	// ErrNotLoaded is returned by writes issued before the first Load.
	ErrNotLoaded = errors.New("tripsync: trip not loaded")
)

// Result is the outcome of a write intent. Writes never panic across the
// view boundary; failures come back here.
type Result struct {
	Success bool
	Error   error
	Trip    *types.Trip
}

func failed(err error) Result {
	return Result{Error: err}
}

// Subscription is a change feed listener registered with Subscribe.
type Subscription interface {
	// Unsubscribe is idempotent and safe to call from any goroutine.
	Unsubscribe()
}

// View is one viewer's synchronized copy of a trip. It is safe for
// concurrent use. There is no shared cache: two views of the same trip
// each hold their own state and feed subscription.
type View struct {
	backend  Backend
	ref      Ref
	viewerID string
	log      *zap.SugaredLogger
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	bg     sync.WaitGroup

	mu        sync.Mutex
	state     *layers
	listeners map[int]func(State)
	nextID    int
	stream    Stream
	triggered bool
	closed    bool
}

// Option configures a View.
type Option func(*View)

// WithViewer names the signed-in viewer so organizer-only and sign-in gates
// can reject locally before anything is written.
func WithViewer(userID string) Option {
	return func(v *View) { v.viewerID = userID }
}

// WithClock overrides the clock used for the link countdown.
func WithClock(now func() time.Time) Option {
	return func(v *View) { v.now = now }
}

func NewView(backend Backend, ref Ref, opts ...Option) *View {
	ctx, cancel := context.WithCancel(context.Background())
	v := &View{
		backend:   backend,
		ref:       ref,
		log:       logger.GetLogger().Named("tripsync"),
		now:       time.Now,
		ctx:       ctx,
		cancel:    cancel,
		state:     newLayers(),
		listeners: make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Load fetches the trip and its reaction counts. A trip found in pending
// status gets a fire-and-forget generation trigger, once per view; other
// viewers may trigger too and the backend tolerates the duplicate.
func (v *View) Load(ctx context.Context) (*types.Trip, error) {
	if v.isClosed() {
		return nil, ErrClosed
	}
	trip, err := v.backend.LoadTrip(ctx, v.ref)
	if err != nil {
		return nil, err
	}

	agg, err := v.backend.LoadReactions(ctx, trip.ID)
	if err != nil {
		v.log.Warnw("Failed to load reactions", "tripID", trip.ID, "error", err)
	}

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return nil, ErrClosed
	}
	v.state.replace(trip)
	if agg != nil {
		v.state.reactions = agg
	}
	trigger := trip.ItineraryStatus == types.ItineraryStatusPending && !v.triggered
	if trigger {
		v.triggered = true
	}
	v.mu.Unlock()

	if trigger {
		v.triggerGeneration(trip.ID)
	}
	v.notify()
	return trip, nil
}

// spawn runs fn on a tracked goroutine unless the view is closed. Close
// waits for every tracked goroutine. Callers hold v.mu.
func (v *View) spawn(fn func()) bool {
	if v.closed {
		return false
	}
	v.bg.Add(1)
	go func() {
		defer v.bg.Done()
		fn()
	}()
	return true
}

func (v *View) triggerGeneration(tripID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.spawn(func() {
		if err := v.backend.TriggerItinerary(v.ctx, tripID); err != nil {
			if apperrors.HasCode(err, apperrors.CodeInvalidTransition) {
				v.log.Debugw("Itinerary generation already started elsewhere", "tripID", tripID)
				return
			}
			v.log.Warnw("Failed to trigger itinerary generation", "tripID", tripID, "error", err)
		}
	})
}

// State returns the merged view as of now. It is the zero State before Load.
func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state.merged(v.now())
}

// Subscribe registers onUpdate for every state change, starting with the
// current state. The feed opens with the first subscription and closes with
// the last. onUpdate runs on the feed goroutine or on whichever goroutine
// issued a write.
func (v *View) Subscribe(ctx context.Context, onUpdate func(State)) (Subscription, error) {
	v.mu.Lock()
	loaded := v.state.snapshot != nil
	v.mu.Unlock()
	if !loaded {
		if _, err := v.Load(ctx); err != nil {
			return nil, err
		}
	}

	if err := v.ensureStream(ctx); err != nil {
		return nil, err
	}

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return nil, ErrClosed
	}
	id := v.nextID
	v.nextID++
	v.listeners[id] = onUpdate
	current := v.state.merged(v.now())
	v.mu.Unlock()

	onUpdate(current)
	return &subscription{view: v, id: id}, nil
}

func (v *View) ensureStream(ctx context.Context) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrClosed
	}
	if v.stream != nil {
		v.mu.Unlock()
		return nil
	}
	tripID := v.state.snapshot.ID
	v.mu.Unlock()

	stream, err := v.backend.Watch(v.ctx, tripID)
	if err != nil {
		return err
	}

	v.mu.Lock()
	if v.closed || v.stream != nil {
		v.mu.Unlock()
		_ = stream.Close()
		if v.isClosed() {
			return ErrClosed
		}
		return nil
	}
	v.stream = stream
	v.spawn(func() { v.pump(stream) })
	v.mu.Unlock()

	// Anything written between Load and the feed opening would otherwise be
	// missed until the next change.
	if trip, err := v.backend.LoadTrip(ctx, ByID(tripID)); err == nil {
		v.applySnapshot(trip)
	}
	return nil
}

func (v *View) pump(stream Stream) {
	for u := range stream.Updates() {
		switch {
		case u.Trip != nil:
			v.applySnapshot(u.Trip)
		case u.ReactionChanged:
			v.reloadReactions()
		}
	}
}

func (v *View) applySnapshot(trip *types.Trip) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.state.replace(trip)
	v.mu.Unlock()
	v.notify()
}

// reloadReactions recomputes the aggregate from scratch; feed events are
// never patched in.
func (v *View) reloadReactions() {
	v.mu.Lock()
	if v.closed || v.state.snapshot == nil {
		v.mu.Unlock()
		return
	}
	tripID := v.state.snapshot.ID
	v.mu.Unlock()

	agg, err := v.backend.LoadReactions(v.ctx, tripID)
	if err != nil {
		v.log.Warnw("Failed to reload reactions", "tripID", tripID, "error", err)
		return
	}

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.state.reactions = agg
	v.mu.Unlock()
	v.notify()
}

func (v *View) notify() {
	v.mu.Lock()
	if v.closed || len(v.listeners) == 0 {
		v.mu.Unlock()
		return
	}
	current := v.state.merged(v.now())
	fns := make([]func(State), 0, len(v.listeners))
	for _, fn := range v.listeners {
		fns = append(fns, fn)
	}
	v.mu.Unlock()

	for _, fn := range fns {
		fn(current)
	}
}

func (v *View) removeListener(id int) {
	v.mu.Lock()
	delete(v.listeners, id)
	var stream Stream
	if len(v.listeners) == 0 && v.stream != nil {
		stream = v.stream
		v.stream = nil
	}
	v.mu.Unlock()

	if stream != nil {
		if err := stream.Close(); err != nil {
			v.log.Debugw("Closing change feed", "ref", v.ref.String(), "error", err)
		}
	}
}

// snapshot returns the current authoritative trip, or an error if the view
// can't take writes.
func (v *View) snapshot() (*types.Trip, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return nil, ErrClosed
	}
	if v.state.snapshot == nil {
		return nil, ErrNotLoaded
	}
	return v.state.snapshot, nil
}

// MarkPaid shows name as paid immediately, then writes it. A failed write
// takes the optimistic entry back out.
func (v *View) MarkPaid(ctx context.Context, name string) Result {
	trip, err := v.snapshot()
	if err != nil {
		return failed(err)
	}
	if !trip.HasTraveler(name) {
		return failed(apperrors.ValidationFailed("Unknown traveler", name))
	}
	if trip.IsExpired(v.now()) {
		return failed(apperrors.LinkExpired(trip.ID))
	}
	if trip.IsPaid(name) {
		return Result{Success: true, Trip: trip}
	}

	v.mu.Lock()
	v.state.addPending(name)
	v.mu.Unlock()
	v.notify()

	updated, err := v.backend.MarkPaid(ctx, trip.ID, name)

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		if err != nil {
			return failed(err)
		}
		return Result{Success: true, Trip: updated}
	}
	v.state.dropPending(name)
	if err == nil && updated != nil {
		v.state.replace(updated)
	}
	v.mu.Unlock()
	v.notify()

	if err != nil {
		v.log.Infow("Payment write failed, rolled back", "tripID", trip.ID, "error", err)
		return failed(err)
	}
	return Result{Success: true, Trip: updated}
}

// React toggles the viewer's reaction and reloads the aggregate.
func (v *View) React(ctx context.Context, day, index int, kind types.ReactionKind) Result {
	trip, err := v.snapshot()
	if err != nil {
		return failed(err)
	}
	if v.viewerID == "" {
		return failed(apperrors.SignInRequired("react to activities"))
	}

	agg, err := v.backend.React(ctx, trip.ID, types.ActivityKey{Day: day, Index: index}, kind)
	if err != nil {
		return failed(err)
	}

	v.mu.Lock()
	if !v.closed {
		v.state.reactions = agg
	}
	v.mu.Unlock()
	v.notify()
	return Result{Success: true, Trip: trip}
}

// Edit reprices the trip with the changed inputs. On success the itinerary
// comes back cleared and pending; generation is restarted server-side.
func (v *View) Edit(ctx context.Context, req types.TripEditRequest) Result {
	return v.organizerWrite("edit this trip", func(tripID string) (*types.Trip, error) {
		return v.backend.EditTrip(ctx, tripID, req)
	})
}

func (v *View) AddActivity(ctx context.Context, day, index int, act types.Activity) Result {
	return v.organizerWrite("edit activities", func(tripID string) (*types.Trip, error) {
		return v.backend.AddActivity(ctx, tripID, day, index, act)
	})
}

func (v *View) RemoveActivity(ctx context.Context, day, index int) Result {
	return v.organizerWrite("edit activities", func(tripID string) (*types.Trip, error) {
		return v.backend.RemoveActivity(ctx, tripID, day, index)
	})
}

func (v *View) organizerWrite(action string, write func(tripID string) (*types.Trip, error)) Result {
	trip, err := v.snapshot()
	if err != nil {
		return failed(err)
	}
	if v.viewerID == "" {
		return failed(apperrors.SignInRequired(action))
	}
	if !trip.IsOrganizer(v.viewerID) {
		return failed(apperrors.OrganizerOnly(action))
	}

	updated, err := write(trip.ID)
	if err != nil {
		return failed(err)
	}
	v.applySnapshot(updated)
	return Result{Success: true, Trip: updated}
}

// ToggleSelection adds or removes one optional activity from the cost
// preview. It reports whether the activity is now selected.
func (v *View) ToggleSelection(day, index int) bool {
	v.mu.Lock()
	var selected bool
	if v.state.snapshot != nil {
		selected = v.state.selection.Toggle(v.state.snapshot.Itinerary, types.ActivityKey{Day: day, Index: index})
	}
	v.mu.Unlock()
	v.notify()
	return selected
}

// SelectDay selects every paid activity on day.
func (v *View) SelectDay(day int) {
	v.editSelection(func(l *layers) { l.selection.AddDay(l.snapshot.Itinerary, day) })
}

func (v *View) DeselectDay(day int) {
	v.editSelection(func(l *layers) { l.selection.RemoveDay(l.snapshot.Itinerary, day) })
}

func (v *View) SelectAll() {
	v.editSelection(func(l *layers) { l.selection.AddAll(l.snapshot.Itinerary) })
}

func (v *View) ClearSelection() {
	v.editSelection(func(l *layers) { l.selection.Clear() })
}

func (v *View) editSelection(fn func(*layers)) {
	v.mu.Lock()
	if v.state.snapshot == nil {
		v.mu.Unlock()
		return
	}
	fn(v.state)
	v.mu.Unlock()
	v.notify()
}

func (v *View) isClosed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closed
}

// Close releases every subscription and the feed, then waits for the feed
// goroutine and any generation trigger to return. Writes still in flight
// complete, but their results no longer touch the view. Close is idempotent.
// It must not be called from an onUpdate callback.
func (v *View) Close() error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return nil
	}
	v.closed = true
	stream := v.stream
	v.stream = nil
	v.listeners = make(map[int]func(State))
	v.mu.Unlock()

	v.cancel()
	var err error
	if stream != nil {
		err = stream.Close()
	}
	v.bg.Wait()
	return err
}

type subscription struct {
	view *View
	id   int
	once sync.Once
}

func (s *subscription) Unsubscribe() {
	s.once.Do(func() { s.view.removeListener(s.id) })
}
