/* Copyright 2025 Dnote Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package notesync is the synchronization engine between a notes
// application and its remote document store. The Service keeps working
// while the store is unreachable: mutations are queued and replayed in
// order once connectivity returns, and reads fall back to the notes last
// seen.
package notesync

import (
	"context"
	"sync"
	"time"

	"github.com/notesync/notesync/pkg/clock"
	"github.com/notesync/notesync/pkg/helpers"
	"github.com/notesync/notesync/pkg/log"
	"github.com/notesync/notesync/pkg/models"
	"github.com/notesync/notesync/pkg/store"
	"github.com/pkg/errors"
)

// DefaultProbeInterval is the default interval between connectivity probes
const DefaultProbeInterval = 5 * time.Second

var (
	// ErrEmptyStore is an error for a missing store in the service parameters
	ErrEmptyStore = errors.New("No store was provided")
)

// Params configures a Service
type Params struct {
	Store store.Store
	// Prober is probed for connectivity. Without one the service stays
	// online unless the network is disabled.
	Prober        Prober
	Clock         clock.Clock
	RetryDelay    time.Duration
	ProbeInterval time.Duration
	// Executor applies operations. It defaults to applying them to Store.
	Executor OperationExecutor
}

// NoteParams is the content of a new note
type NoteParams struct {
	Title      string
	Content    string
	IsPublic   bool
	Tags       []string
	OwnerID    string
	OwnerEmail string
}

// NoteUpdate holds the fields to change. Nil fields are left untouched.
type NoteUpdate struct {
	Title    *string
	Content  *string
	IsPublic *bool
	Tags     *[]string
}

func (u NoteUpdate) empty() bool {
	return u.Title == nil && u.Content == nil && u.IsPublic == nil && u.Tags == nil
}

// Service is the entry point of the engine
type Service struct {
	store      store.Store
	clock      clock.Clock
	monitor    *NetworkMonitor
	queue      *Queue
	status     *StatusPublisher
	aggregator *Aggregator
	directory  *UserDirectory
	sharing    *SharingResolver
	executor   OperationExecutor
	stamps     *stamper

	subscribeMu sync.Mutex

	mu       sync.Mutex
	notes    map[string]models.Note
	viewUID  string
	views    map[int]store.Disposer
	nextView int
}

// New wires the components of the engine together
func New(p Params) (*Service, error) {
	if p.Store == nil {
		return nil, ErrEmptyStore
	}

	c := p.Clock
	if c == nil {
		c = clock.New()
	}
	interval := p.ProbeInterval
	if interval <= 0 {
		interval = DefaultProbeInterval
	}
	executor := p.Executor
	if executor == nil {
		executor = storeExecutor{store: p.Store}
	}

	s := &Service{
		store:      p.Store,
		clock:      c,
		monitor:    NewNetworkMonitor(p.Prober, interval),
		aggregator: NewAggregator(p.Store),
		directory:  NewUserDirectory(p.Store),
		executor:   executor,
		stamps:     newStamper(c),
		notes:      map[string]models.Note{},
		views:      map[int]store.Disposer{},
	}

	s.queue = NewQueue(QueueParams{
		Executor:   executor,
		Clock:      c,
		RetryDelay: p.RetryDelay,
		Online:     s.monitor.Online,
		OnChange: func() {
			s.status.Refresh()
		},
	})
	s.status = NewStatusPublisher(func() Status {
		return ComputeStatus(s.monitor.Online(), s.queue.Count(), s.queue.Stalled())
	})
	s.sharing = &SharingResolver{
		store:     p.Store,
		directory: s.directory,
		online:    s.monitor.Online,
		stamps:    s.stamps,
	}

	s.monitor.OnChange(func(online bool) {
		s.status.Refresh()
		if online {
			s.queue.DrainAsync()
		}
	})

	return s, nil
}

// Start starts watching connectivity and replays anything pending
func (s *Service) Start(ctx context.Context) error {
	if err := s.monitor.Start(ctx); err != nil {
		return errors.Wrap(err, "starting network monitor")
	}

	s.status.Refresh()
	if s.monitor.Online() {
		s.queue.DrainAsync()
	}

	return nil
}

// Stop makes a last attempt at applying pending operations and releases
// every resource of the service. Operations that could not be applied are
// still reported by GetPendingOperationsCount.
func (s *Service) Stop(ctx context.Context) error {
	s.monitor.Stop()

	if s.monitor.Online() && s.queue.Count() > 0 {
		if err := s.queue.Drain(ctx); err != nil {
			log.WithFields(log.Fields{
				"pending": s.queue.Count(),
			}).Warn("Could not apply every pending operation before stopping.")
		}
	}
	s.queue.Stop()

	s.mu.Lock()
	views := s.views
	s.views = map[int]store.Disposer{}
	s.mu.Unlock()

	for _, d := range views {
		d()
	}

	return nil
}

// remember caches the note unless a more recent version is already cached,
// and returns the cached version
func (s *Service) remember(n models.Note) models.Note {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.notes[n.ID]; ok && cur.UpdatedAt.After(n.UpdatedAt) {
		return cur.Clone()
	}
	s.notes[n.ID] = n.Clone()

	return n
}

func (s *Service) rememberAll(notes []models.Note) {
	for _, n := range notes {
		s.remember(n)
	}
}

func (s *Service) cached(noteID string) (models.Note, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notes[noteID]
	if !ok {
		return models.Note{}, false
	}

	return n.Clone(), true
}

func (s *Service) forget(noteID string) {
	s.mu.Lock()
	delete(s.notes, noteID)
	s.mu.Unlock()

	s.stamps.forget(noteID)
}

func visibleTo(n models.Note, uid string) bool {
	if n.IsPublic {
		return true
	}

	return uid != "" && (n.OwnerID == uid || n.IsSharedWith(uid))
}

// replaceVisible makes the notes the cached view of what the user can see.
// Cached notes visible to the user that are missing from notes were deleted
// or revoked elsewhere, and are evicted unless a local change to them is
// still waiting.
func (s *Service) replaceVisible(uid string, notes []models.Note) {
	seen := make(map[string]bool, len(notes))
	for _, n := range notes {
		seen[n.ID] = true
	}

	var gone []string
	s.mu.Lock()
	for id, n := range s.notes {
		if !seen[id] && visibleTo(n, uid) {
			gone = append(gone, id)
		}
	}
	s.mu.Unlock()

	for _, id := range gone {
		if s.queue.HasPending(id) {
			continue
		}
		s.forget(id)
	}

	s.rememberAll(notes)
}

// cachedVisible returns the cached notes visible to the user
func (s *Service) cachedVisible(uid string) []models.Note {
	s.mu.Lock()
	defer s.mu.Unlock()

	var owned, public, shared []models.Note
	for _, n := range s.notes {
		switch {
		case uid != "" && n.OwnerID == uid:
			owned = append(owned, n)
		case n.IsPublic:
			public = append(public, n)
		case uid != "" && n.IsSharedWith(uid):
			shared = append(shared, n)
		}
	}

	return Merge(owned, public, shared)
}

// lookup finds a note, preferring the store when online. It reports false
// when the note cannot be looked up because the store is unreachable and
// the note was never seen.
func (s *Service) lookup(ctx context.Context, noteID string) (models.Note, bool, error) {
	if s.monitor.Online() {
		doc, err := s.store.GetByID(ctx, models.NotesCollection, noteID)
		if err == nil {
			if doc != nil {
				return s.remember(models.NoteFromDocument(*doc)), true, nil
			}

			// created while offline and not replayed yet
			if n, ok := s.cached(noteID); ok && s.queue.HasPending(noteID) {
				return n, true, nil
			}

			return models.Note{}, false, ErrNoteNotFound
		}

		if n, ok := s.cached(noteID); ok {
			return n, true, nil
		}

		return models.Note{}, false, remoteError(err, "finding note")
	}

	if n, ok := s.cached(noteID); ok {
		return n, true, nil
	}

	return models.Note{}, false, nil
}

// lookupForWrite is lookup for queueable mutations. A store failure is
// treated like being offline: the note is reported as unknown and ownership
// is verified when the operation is applied.
func (s *Service) lookupForWrite(ctx context.Context, noteID string) (models.Note, bool, error) {
	n, ok, err := s.lookup(ctx, noteID)
	if err != nil && !IsPermanent(err) {
		log.WithFields(log.Fields{
			"note_id": noteID,
		}).ErrorWrap(err, "finding note, deferring the ownership check")

		return models.Note{}, false, nil
	}

	return n, ok, err
}

// submit applies the operation right away when possible and queues it
// otherwise. Operations are queued whenever others are already waiting so
// that they are applied in the order they were issued.
func (s *Service) submit(ctx context.Context, op PendingOperation) error {
	if s.monitor.Online() && s.queue.Count() == 0 {
		err := Execute(ctx, s.executor, op)
		if err == nil {
			return nil
		}
		if IsPermanent(err) {
			return err
		}

		log.WithFields(log.Fields{
			"kind":    op.Kind,
			"note_id": op.NoteID,
		}).ErrorWrap(err, "applying operation, queueing it for retry")
	}

	if _, err := s.queue.Enqueue(op); err != nil {
		return errors.Wrap(err, "enqueueing operation")
	}

	return nil
}

// AddNote creates a note owned by the given user
func (s *Service) AddNote(ctx context.Context, p NoteParams) (models.Note, error) {
	id, err := helpers.GenUUID()
	if err != nil {
		return models.Note{}, errors.Wrap(err, "generating note id")
	}

	tags := append([]string{}, p.Tags...)
	now := s.stamps.next(id, time.Time{})

	note := models.Note{
		ID:         id,
		Title:      p.Title,
		Content:    p.Content,
		IsPublic:   p.IsPublic,
		Tags:       tags,
		OwnerID:    p.OwnerID,
		OwnerEmail: p.OwnerEmail,
		IsFavorite: false,
		SharedWith: []string{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := note.Validate(); err != nil {
		s.stamps.forget(id)
		return models.Note{}, validationError(err)
	}

	s.remember(note)

	if err := s.submit(ctx, PendingOperation{
		Kind:    OpCreate,
		NoteID:  id,
		ActorID: p.OwnerID,
		Payload: note.Fields(),
	}); err != nil {
		s.forget(id)
		return models.Note{}, err
	}

	log.WithFields(log.Fields{
		"note_id": id,
	}).Debug("Added note.")

	return note.Clone(), nil
}

// GetNote returns a note. Offline, it returns the last version seen.
func (s *Service) GetNote(ctx context.Context, noteID string) (models.Note, error) {
	n, ok, err := s.lookup(ctx, noteID)
	if err != nil {
		return models.Note{}, err
	}
	if !ok {
		return models.Note{}, ErrOffline
	}

	return n, nil
}

// UpdateNote changes the content of a note owned by the acting user
func (s *Service) UpdateNote(ctx context.Context, noteID, actingUID string, u NoteUpdate) (models.Note, error) {
	if actingUID == "" {
		return models.Note{}, ErrAnonymous
	}
	if u.Title != nil {
		if err := models.ValidateTitle(*u.Title); err != nil {
			return models.Note{}, validationError(err)
		}
	}
	if u.Content != nil {
		if err := models.ValidateContent(*u.Content); err != nil {
			return models.Note{}, validationError(err)
		}
	}

	note, known, err := s.lookupForWrite(ctx, noteID)
	if err != nil {
		return models.Note{}, err
	}
	if known && note.OwnerID != actingUID {
		return models.Note{}, ErrNotOwner
	}
	if !known {
		note = models.Note{ID: noteID, OwnerID: actingUID}
	}
	if u.empty() {
		return note, nil
	}

	payload := store.Fields{}
	if u.Title != nil {
		note.Title = *u.Title
		payload[models.FieldTitle] = note.Title
	}
	if u.Content != nil {
		note.Content = *u.Content
		payload[models.FieldContent] = note.Content
	}
	if u.IsPublic != nil {
		note.IsPublic = *u.IsPublic
		payload[models.FieldIsPublic] = note.IsPublic
	}
	if u.Tags != nil {
		note.Tags = append([]string{}, (*u.Tags)...)
		payload[models.FieldTags] = note.Tags
	}
	note.UpdatedAt = s.stamps.next(noteID, note.UpdatedAt)
	payload[models.FieldUpdatedAt] = models.TimeValue(note.UpdatedAt)

	if known {
		s.remember(note)
	}

	if err := s.submit(ctx, PendingOperation{
		Kind:    OpUpdate,
		NoteID:  noteID,
		ActorID: actingUID,
		Payload: store.NormalizeFields(payload),
	}); err != nil {
		return models.Note{}, err
	}

	return note, nil
}

// DeleteNote deletes a note owned by the acting user
func (s *Service) DeleteNote(ctx context.Context, noteID, actingUID string) error {
	if actingUID == "" {
		return ErrAnonymous
	}

	note, known, err := s.lookupForWrite(ctx, noteID)
	if err != nil {
		return err
	}
	if known && note.OwnerID != actingUID {
		return ErrNotOwner
	}

	if err := s.submit(ctx, PendingOperation{
		Kind:    OpDelete,
		NoteID:  noteID,
		ActorID: actingUID,
	}); err != nil {
		return err
	}

	s.forget(noteID)

	return nil
}

// SetFavorite marks or unmarks a note owned by the acting user as favorite
func (s *Service) SetFavorite(ctx context.Context, noteID, actingUID string, favorite bool) (models.Note, error) {
	if actingUID == "" {
		return models.Note{}, ErrAnonymous
	}

	note, known, err := s.lookupForWrite(ctx, noteID)
	if err != nil {
		return models.Note{}, err
	}
	if known && note.OwnerID != actingUID {
		return models.Note{}, ErrNotOwner
	}
	if !known {
		note = models.Note{ID: noteID, OwnerID: actingUID}
	}

	return s.writeFavorite(ctx, note, known, actingUID, favorite)
}

// ToggleFavorite flips the favorite flag of a note owned by the acting user
func (s *Service) ToggleFavorite(ctx context.Context, noteID, actingUID string) (models.Note, error) {
	if actingUID == "" {
		return models.Note{}, ErrAnonymous
	}

	note, known, err := s.lookup(ctx, noteID)
	if err != nil {
		return models.Note{}, err
	}
	if !known {
		return models.Note{}, newError(ErrOffline, errors.Errorf("note %s was never seen", noteID))
	}
	if note.OwnerID != actingUID {
		return models.Note{}, ErrNotOwner
	}

	return s.writeFavorite(ctx, note, true, actingUID, !note.IsFavorite)
}

func (s *Service) writeFavorite(ctx context.Context, note models.Note, known bool, actingUID string, favorite bool) (models.Note, error) {
	note.IsFavorite = favorite
	note.UpdatedAt = s.stamps.next(note.ID, note.UpdatedAt)

	if known {
		s.remember(note)
	}

	if err := s.submit(ctx, PendingOperation{
		Kind:    OpFavorite,
		NoteID:  note.ID,
		ActorID: actingUID,
		Payload: store.Fields{
			models.FieldIsFavorite: favorite,
			models.FieldUpdatedAt:  models.TimeValue(note.UpdatedAt),
		},
	}); err != nil {
		return models.Note{}, err
	}

	return note, nil
}

// ShareNoteWithUser grants the user registered with the email read access to
// a note owned by the acting user
func (s *Service) ShareNoteWithUser(ctx context.Context, noteID, email, actingUID string) (models.Note, error) {
	if actingUID == "" {
		return models.Note{}, ErrAnonymous
	}

	note, err := s.sharing.ShareWith(ctx, noteID, email, actingUID)
	if err != nil {
		return models.Note{}, err
	}

	return s.remember(note), nil
}

// UnshareNoteFromUser revokes the read access of a user to a note owned by
// the acting user
func (s *Service) UnshareNoteFromUser(ctx context.Context, noteID, recipientUID, actingUID string) (models.Note, error) {
	if actingUID == "" {
		return models.Note{}, ErrAnonymous
	}

	note, err := s.sharing.Unshare(ctx, noteID, recipientUID, actingUID)
	if err != nil {
		return models.Note{}, err
	}

	return s.remember(note), nil
}

// GetVisibleNotes returns the public notes. Offline, or when the store
// fails, it returns the public notes last seen.
func (s *Service) GetVisibleNotes(ctx context.Context) ([]models.Note, error) {
	if s.monitor.Online() {
		notes, err := s.aggregator.Fetch(ctx, "")
		if err == nil {
			s.replaceVisible("", notes)
			return notes, nil
		}

		log.ErrorWrap(err, "fetching public notes, using cached ones")
	}

	return s.cachedVisible(""), nil
}

// GetUserNotes returns the notes visible to the user once. Offline, or when
// the store fails, it returns the visible notes last seen.
func (s *Service) GetUserNotes(ctx context.Context, uid string) ([]models.Note, error) {
	if s.monitor.Online() {
		notes, err := s.aggregator.Fetch(ctx, uid)
		if err == nil {
			s.replaceVisible(uid, notes)
			return notes, nil
		}

		log.WithFields(log.Fields{
			"uid": uid,
		}).ErrorWrap(err, "fetching notes, using cached ones")
	}

	return s.cachedVisible(uid), nil
}

// SubscribeToUserNotes keeps the callback informed of the notes visible to
// the user. Subscribing for another user than the previous subscriptions
// ends those first.
func (s *Service) SubscribeToUserNotes(ctx context.Context, uid string, cb func([]models.Note)) (store.Disposer, error) {
	s.subscribeMu.Lock()
	defer s.subscribeMu.Unlock()

	s.mu.Lock()
	var stale []store.Disposer
	if s.viewUID != uid {
		for id, d := range s.views {
			stale = append(stale, d)
			delete(s.views, id)
		}
		s.viewUID = uid
	}
	s.mu.Unlock()

	for _, d := range stale {
		d()
	}

	dispose, err := s.aggregator.Subscribe(ctx, uid, func(notes []models.Note) {
		s.replaceVisible(uid, notes)
		cb(notes)
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.nextView++
	id := s.nextView
	s.views[id] = dispose
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.views, id)
			s.mu.Unlock()

			dispose()
		})
	}, nil
}

// SaveUserProfile registers the identity in the user directory, unless it
// is already known
func (s *Service) SaveUserProfile(ctx context.Context, u models.UserEntry) (bool, error) {
	if !s.monitor.Online() {
		return false, ErrOffline
	}

	created, err := s.directory.SaveUserProfile(ctx, u)
	if err != nil {
		return false, remoteError(err, "saving user profile")
	}

	return created, nil
}

// LookupUser returns the identity registered with the email, or an empty
// string if there is none
func (s *Service) LookupUser(ctx context.Context, email string) (string, error) {
	if !s.monitor.Online() {
		return "", ErrOffline
	}

	uid, err := s.directory.FindUIDByEmail(ctx, email)
	if err != nil {
		return "", remoteError(err, "looking up user")
	}

	return uid, nil
}

// OnSyncStatusChange registers a callback for the sync status. The current
// status is delivered right away.
func (s *Service) OnSyncStatusChange(cb func(Status)) func() {
	return s.status.Subscribe(cb)
}

// Status returns the sync status
func (s *Service) Status() Status {
	return s.status.Current()
}

// Online reports whether the store is considered reachable
func (s *Service) Online() bool {
	return s.monitor.Online()
}

// SetNetworkEnabled turns the network on or off. With the network off the
// service behaves as if the store were unreachable.
func (s *Service) SetNetworkEnabled(enabled bool) {
	s.monitor.SetEnabled(enabled)
}

// SetOnline records a connectivity observation made outside the service
func (s *Service) SetOnline(online bool) {
	s.monitor.SetOnline(online)
}

// GetPendingOperationsCount returns the number of operations waiting to be
// applied
func (s *Service) GetPendingOperationsCount() int {
	return s.queue.Count()
}

// PendingOperations returns the operations waiting to be applied, in order
func (s *Service) PendingOperations() []PendingOperation {
	return s.queue.Pending()
}

// ClearPendingOperations discards every operation waiting to be applied
func (s *Service) ClearPendingOperations() {
	s.queue.Clear()
}

// Sync attempts to apply the pending operations now
func (s *Service) Sync(ctx context.Context) error {
	if !s.monitor.Online() {
		return ErrOffline
	}

	return s.queue.Drain(ctx)
}
