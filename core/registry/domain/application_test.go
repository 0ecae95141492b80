package domain

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"registry/modules/clock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	mu      sync.Mutex
	saved   []Snapshot
	saveErr error
	load    Snapshot
	loadErr error
}

func (s *stubStore) Save(ctx context.Context, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, snap)
	return nil
}

func (s *stubStore) Load(ctx context.Context) (Snapshot, error) {
	if s.loadErr != nil {
		return Snapshot{}, s.loadErr
	}
	return s.load, nil
}

func (s *stubStore) lastSaved(t *testing.T) Snapshot {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.saved)
	return s.saved[len(s.saved)-1]
}

func (s *stubStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saved)
}

type stubEncoder struct {
	url string
	err error

	// when set, Encode signals started and then waits for release
	started chan struct{}
	release chan struct{}
}

func (e *stubEncoder) Encode(ctx context.Context, upload *PhotoUpload) (string, error) {
	if e.started != nil {
		close(e.started)
		e.started = nil
	}
	if e.release != nil {
		<-e.release
	}
	if e.err != nil {
		return "", e.err
	}
	return e.url, nil
}

func newTestApp(t *testing.T, store *stubStore, enc *stubEncoder) *Application {
	t.Helper()
	app := NewApp(store, enc, clock.RealClock{}, WithSearchQuietPeriod(10*time.Millisecond))
	t.Cleanup(app.Close)
	require.NoError(t, app.Bootstrap(context.Background()))
	return app
}

func adaSubmission() Submission {
	return Submission{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "Ada.Lovelace+x@gmail.com",
		Programme: "CS",
		Year:      "2",
		Interests: []string{"math", "chess"},
	}
}

func TestCreateProfileAssignsFreshIDAndPersists(t *testing.T) {
	store := &stubStore{}
	app := newTestApp(t, store, &stubEncoder{})

	rec, err := app.CreateProfile(context.Background(), adaSubmission())
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "Ada.Lovelace+x@gmail.com", rec.Email, "stored email is the literal input")
	assert.False(t, rec.CreatedAt.IsZero())

	snap := store.lastSaved(t)
	assert.Equal(t, 1, snap.NextIDHint)
	require.Contains(t, snap.Profiles, rec.ID)

	st := app.Status()
	assert.Equal(t, StatusSuccess, st.Level)

	// a second record mints a different id
	sub := adaSubmission()
	sub.Email = "other@example.org"
	rec2, err := app.CreateProfile(context.Background(), sub)
	require.NoError(t, err)
	assert.NotEqual(t, rec.ID, rec2.ID)
}

func TestCreateProfileRejectsFoldedDuplicate(t *testing.T) {
	store := &stubStore{}
	app := newTestApp(t, store, &stubEncoder{})

	_, err := app.CreateProfile(context.Background(), adaSubmission())
	require.NoError(t, err)
	saves := store.saveCount()

	dup := adaSubmission()
	dup.Email = "adalovelace@gmail.com"
	_, err = app.CreateProfile(context.Background(), dup)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateProfile)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, FieldDuplicate, verr.Fields["email"])

	// rejected submission mutates nothing
	assert.Len(t, app.Records(), 1)
	assert.Equal(t, saves, store.saveCount())
}

func TestCreateProfileRejectsPlusTagDuplicateOnAnyDomain(t *testing.T) {
	store := &stubStore{}
	app := newTestApp(t, store, &stubEncoder{})

	first := adaSubmission()
	first.Email = "ada+newsletter@example.org"
	_, err := app.CreateProfile(context.Background(), first)
	require.NoError(t, err)
	saves := store.saveCount()

	// plus tags fold on every domain, not just gmail
	dup := adaSubmission()
	dup.Email = "ada@example.org"
	_, err = app.CreateProfile(context.Background(), dup)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateProfile)

	assert.Len(t, app.Records(), 1)
	assert.Equal(t, saves, store.saveCount())
}

func TestCreateProfileValidationFailureMutatesNothing(t *testing.T) {
	store := &stubStore{}
	app := newTestApp(t, store, &stubEncoder{})

	_, err := app.CreateProfile(context.Background(), Submission{Interests: []string{"a", "b", "c", "d"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidData)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, FieldTooMany, verr.Fields["interests"])
	assert.Empty(t, app.Records())
	assert.Equal(t, StatusError, app.Status().Level)
}

func TestUpdateProfileCarriesPhotoOver(t *testing.T) {
	store := &stubStore{}
	enc := &stubEncoder{url: "data:image/png;base64,AAAA"}
	app := newTestApp(t, store, enc)

	sub := adaSubmission()
	sub.Photo = &PhotoUpload{Filename: "a.png", DeclaredType: "image/png", Size: 16}
	rec, err := app.CreateProfile(context.Background(), sub)
	require.NoError(t, err)
	require.Equal(t, enc.url, rec.PhotoURL)

	// edit without a new photo keeps the stored one byte for byte
	_, err = app.BeginEdit(rec.ID)
	require.NoError(t, err)
	edit := adaSubmission()
	edit.Programme = "Maths"
	updated, err := app.UpdateProfile(context.Background(), rec.ID, edit)
	require.NoError(t, err)
	assert.Equal(t, enc.url, updated.PhotoURL)
	assert.Equal(t, "Maths", updated.Programme)
	assert.Equal(t, rec.CreatedAt, updated.CreatedAt)
	assert.Equal(t, "", app.EditingID(), "successful save exits editing mode")

	// explicit clear drops it
	_, err = app.BeginEdit(rec.ID)
	require.NoError(t, err)
	edit.ClearPhoto = true
	updated, err = app.UpdateProfile(context.Background(), rec.ID, edit)
	require.NoError(t, err)
	assert.Empty(t, updated.PhotoURL)

	// a new photo replaces
	_, err = app.BeginEdit(rec.ID)
	require.NoError(t, err)
	enc.url = "data:image/jpeg;base64,BBBB"
	edit.ClearPhoto = false
	edit.Photo = &PhotoUpload{Filename: "b.jpg", DeclaredType: "image/jpeg", Size: 16}
	updated, err = app.UpdateProfile(context.Background(), rec.ID, edit)
	require.NoError(t, err)
	assert.Equal(t, "data:image/jpeg;base64,BBBB", updated.PhotoURL)
}

func TestUpdateProfileRequiresEditingMode(t *testing.T) {
	app := newTestApp(t, &stubStore{}, &stubEncoder{})
	rec, err := app.CreateProfile(context.Background(), adaSubmission())
	require.NoError(t, err)

	_, err = app.UpdateProfile(context.Background(), rec.ID, adaSubmission())
	assert.ErrorIs(t, err, ErrNotEditing)
}

func TestBeginEditSupersedesPriorEdit(t *testing.T) {
	app := newTestApp(t, &stubStore{}, &stubEncoder{})
	a, err := app.CreateProfile(context.Background(), adaSubmission())
	require.NoError(t, err)
	sub := adaSubmission()
	sub.Email = "b@example.org"
	b, err := app.CreateProfile(context.Background(), sub)
	require.NoError(t, err)

	_, err = app.BeginEdit(a.ID)
	require.NoError(t, err)
	_, err = app.BeginEdit(b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, app.EditingID())

	app.CancelEdit()
	assert.Empty(t, app.EditingID())
}

func TestRemovalIsTwoStep(t *testing.T) {
	store := &stubStore{}
	app := newTestApp(t, store, &stubEncoder{})
	rec, err := app.CreateProfile(context.Background(), adaSubmission())
	require.NoError(t, err)

	// confirming without a request is rejected
	err = app.ConfirmRemoval(context.Background(), rec.ID)
	assert.ErrorIs(t, err, ErrNoPendingRemoval)
	assert.Len(t, app.Records(), 1)

	// cancel clears the mark
	_, err = app.RequestRemoval(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, app.PendingRemovalID())
	app.CancelRemoval()
	assert.Empty(t, app.PendingRemovalID())
	err = app.ConfirmRemoval(context.Background(), rec.ID)
	assert.ErrorIs(t, err, ErrNoPendingRemoval)

	// request then confirm removes everywhere
	_, err = app.RequestRemoval(rec.ID)
	require.NoError(t, err)
	require.NoError(t, app.ConfirmRemoval(context.Background(), rec.ID))
	assert.Empty(t, app.Records())

	snap := store.lastSaved(t)
	assert.NotContains(t, snap.Profiles, rec.ID)

	view := app.View(nil)
	assert.Empty(t, view.Cards)
	assert.Empty(t, view.Rows)
}

func TestSecondSubmissionRejectedWhileEncodePending(t *testing.T) {
	enc := &stubEncoder{
		url:     "data:image/png;base64,AAAA",
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	app := newTestApp(t, &stubStore{}, enc)

	sub := adaSubmission()
	sub.Photo = &PhotoUpload{Filename: "a.png", DeclaredType: "image/png", Size: 16}

	done := make(chan error, 1)
	go func() {
		_, err := app.CreateProfile(context.Background(), sub)
		done <- err
	}()
	<-enc.started

	_, err := app.CreateProfile(context.Background(), adaSubmission())
	assert.ErrorIs(t, err, ErrBusy)

	close(enc.release)
	require.NoError(t, <-done)
}

func TestLateEncodeResultDiscardedAfterFormReset(t *testing.T) {
	enc := &stubEncoder{
		url:     "data:image/png;base64,AAAA",
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	store := &stubStore{}
	app := newTestApp(t, store, enc)

	sub := adaSubmission()
	sub.Photo = &PhotoUpload{Filename: "a.png", DeclaredType: "image/png", Size: 16}

	done := make(chan error, 1)
	go func() {
		_, err := app.CreateProfile(context.Background(), sub)
		done <- err
	}()
	<-enc.started

	// resetting the form while the encode is pending invalidates the
	// in-flight submission
	app.CancelEdit()
	close(enc.release)

	err := <-done
	assert.ErrorIs(t, err, ErrStaleSubmission)
	assert.Empty(t, app.Records())
	assert.Zero(t, store.saveCount())
}

func TestSaveFailureIsNonFatal(t *testing.T) {
	store := &stubStore{saveErr: errors.New("disk full")}
	app := newTestApp(t, store, &stubEncoder{})

	rec, err := app.CreateProfile(context.Background(), adaSubmission())
	require.NoError(t, err, "the in-memory mutation must survive a failed write")
	require.NotNil(t, rec)
	assert.Len(t, app.Records(), 1)

	st := app.Status()
	assert.Equal(t, StatusError, st.Level)
	assert.Contains(t, st.Message, "saving failed")
}

func TestSearchCriteriaAreDebouncedToTheLatest(t *testing.T) {
	app := newTestApp(t, &stubStore{}, &stubEncoder{})

	for _, q := range []string{"a", "al", "ali"} {
		app.SetSearchCriteria(Criteria{Query: q})
	}
	assert.Eventually(t, func() bool {
		return app.SearchCriteria().Query == "ali"
	}, time.Second, 5*time.Millisecond)

	app.ClearSearch()
	assert.Empty(t, app.SearchCriteria().Query)
	assert.Equal(t, FieldAll, app.SearchCriteria().Field)
}

func TestBootstrapLoadsPersistedSnapshot(t *testing.T) {
	store := &stubStore{load: Snapshot{
		NextIDHint: 7,
		Profiles: map[string]ProfileRecord{
			"p1": {ID: "p1", FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.org", Programme: "CS", Year: "2"},
		},
	}}
	app := newTestApp(t, store, &stubEncoder{})

	recs := app.Records()
	require.Len(t, recs, 1)
	assert.Equal(t, "p1", recs[0].ID)

	// the restored counter keeps advancing from where it left off
	rec, err := app.CreateProfile(context.Background(), adaSubmission())
	require.NoError(t, err)
	assert.NotNil(t, rec)
	assert.Equal(t, 8, store.lastSaved(t).NextIDHint)
}
