package conversation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/lexibot/app/words"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) ListAll(ctx context.Context, userID int64) ([]words.Entry, error) {
	args := m.Called(ctx, userID)
	entries, _ := args.Get(0).([]words.Entry)
	return entries, args.Error(1)
}

func (m *mockStore) Exists(ctx context.Context, userID int64, word string) (bool, error) {
	args := m.Called(ctx, userID, word)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) Insert(ctx context.Context, userID int64, e words.Entry) error {
	return m.Called(ctx, userID, e).Error(0)
}

func (m *mockStore) Delete(ctx context.Context, userID int64, word string) error {
	return m.Called(ctx, userID, word).Error(0)
}

func (m *mockStore) Update(ctx context.Context, userID int64, oldWord string, e words.Entry) error {
	return m.Called(ctx, userID, oldWord, e).Error(0)
}

var errStorage = errors.New("storage unavailable")

func TestStorageFailureOnExistsStaysIdle(t *testing.T) {
	st := &mockStore{}
	st.On("Exists", mock.Anything, uid, "book").Return(false, errStorage)
	e := New(st, Options{})

	out := say(e, uid, "book")
	require.Len(t, out, 1)
	assert.Equal(t, TextFailure, out[0].Text)
	assert.False(t, e.InProgress(uid))
	st.AssertExpectations(t)
}

func TestStorageFailureOnInsertClearsFlow(t *testing.T) {
	st := &mockStore{}
	st.On("Exists", mock.Anything, uid, "book").Return(false, nil)
	st.On("Insert", mock.Anything, uid, words.Entry{Word: "book", PartOfSpeech: words.Noun, Translation: "книга"}).Return(errStorage)
	e := New(st, Options{})

	say(e, uid, "book: книга")
	out := press(e, uid, "pos.noun")
	require.Len(t, out, 1)
	assert.Equal(t, Render{Text: TextFailure, Mode: EditExisting}, out[0])
	assert.False(t, e.InProgress(uid))
	st.AssertExpectations(t)
}

func TestInsertRaceReportsDuplicate(t *testing.T) {
	st := &mockStore{}
	st.On("Exists", mock.Anything, uid, "book").Return(false, nil)
	st.On("Insert", mock.Anything, uid, mock.Anything).Return(words.ErrDuplicate)
	e := New(st, Options{})

	say(e, uid, "book")
	out := press(e, uid, "pos.verb")
	require.Len(t, out, 1)
	assert.Contains(t, out[0].Text, "already in your dictionary")
	assert.False(t, e.InProgress(uid))
}

func TestStorageFailureOnList(t *testing.T) {
	st := &mockStore{}
	st.On("ListAll", mock.Anything, uid).Return(nil, errStorage)
	e := New(st, Options{})

	out := e.List(context.Background(), uid)
	require.Len(t, out, 1)
	assert.Equal(t, TextFailure, out[0].Text)
	assert.False(t, e.InProgress(uid))
}

func TestStorageFailureOnDeleteKeepsBrowsing(t *testing.T) {
	st := &mockStore{}
	st.On("ListAll", mock.Anything, uid).Return([]words.Entry{{Word: "apple", PartOfSpeech: words.Noun}}, nil).Once()
	st.On("Delete", mock.Anything, uid, "apple").Return(errStorage)
	e := New(st, Options{})

	e.List(context.Background(), uid)
	out := press(e, uid, ActionDelete)
	require.Len(t, out, 1)
	assert.Equal(t, Render{Text: TextFailure, Mode: Notice}, out[0])
	assert.Equal(t, "browsing", e.StateName(uid))
	st.AssertExpectations(t)
}

func TestStorageFailureOnUpdateReturnsToBrowsingWithStaleCard(t *testing.T) {
	st := &mockStore{}
	st.On("ListAll", mock.Anything, uid).Return([]words.Entry{{Word: "book", PartOfSpeech: words.Noun}}, nil).Once()
	st.On("Update", mock.Anything, uid, "book", words.Entry{Word: "book", PartOfSpeech: words.Noun, Translation: "книга"}).Return(errStorage)
	e := New(st, Options{})

	e.List(context.Background(), uid)
	press(e, uid, ActionEdit)
	press(e, uid, ActionEditMeaning)
	out := say(e, uid, "книга")

	require.Len(t, out, 2)
	assert.Equal(t, TextFailure, out[0].Text)
	assert.Equal(t, "*book* _(noun)_\n—\n\n1 / 1", out[1].Text)
	assert.Equal(t, "browsing", e.StateName(uid))
	st.AssertExpectations(t)
}

func TestRefreshFailureAfterDeleteGoesIdle(t *testing.T) {
	st := &mockStore{}
	st.On("ListAll", mock.Anything, uid).Return([]words.Entry{{Word: "apple", PartOfSpeech: words.Noun}}, nil).Once()
	st.On("ListAll", mock.Anything, uid).Return(nil, errStorage).Once()
	st.On("Delete", mock.Anything, uid, "apple").Return(nil)
	e := New(st, Options{})

	e.List(context.Background(), uid)
	out := press(e, uid, ActionDelete)
	require.Len(t, out, 1)
	assert.Equal(t, TextFailure, out[0].Text)
	assert.False(t, e.InProgress(uid))
}

func TestFailureForOneUserDoesNotTouchAnother(t *testing.T) {
	st := &mockStore{}
	st.On("Exists", mock.Anything, int64(1), "bad").Return(false, errStorage)
	st.On("Exists", mock.Anything, int64(2), "good").Return(false, nil)
	e := New(st, Options{})

	say(e, 2, "good")
	say(e, 1, "bad")
	assert.Equal(t, "awaiting_pos", e.StateName(2))
	assert.Equal(t, StateIdle, e.StateName(1))
}
