package conversation_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ties-together/marketplace-backend/internal/domain/entity"
	"github.com/ties-together/marketplace-backend/internal/domain/port"
	"github.com/ties-together/marketplace-backend/internal/domain/valueobject"
	"github.com/ties-together/marketplace-backend/internal/pkg/apperror"
	"github.com/ties-together/marketplace-backend/internal/pkg/clock"
	"github.com/ties-together/marketplace-backend/internal/testutil/memrepo"
	"github.com/ties-together/marketplace-backend/internal/usecase/conversation"
	"github.com/ties-together/marketplace-backend/internal/usecase/effects"
)

type pushed struct {
	userID uuid.UUID
	event  string
	data   map[string]any
}

type recordingPusher struct {
	mu     sync.Mutex
	events []pushed
}

func (p *recordingPusher) BroadcastToUser(userID uuid.UUID, event string, data any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, pushed{userID: userID, event: event, data: data.(map[string]any)})
	return nil
}

func (p *recordingPusher) all() []pushed {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]pushed(nil), p.events...)
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []port.Notification
}

func (n *recordingNotifier) Notify(ctx context.Context, msg port.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return nil
}

func (n *recordingNotifier) count(userID uuid.UUID, kind string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, s := range n.sent {
		if s.UserID == userID && s.Type == kind {
			c++
		}
	}
	return c
}

type fixture struct {
	store    *memrepo.Store
	clock    *clock.Fixed
	pusher   *recordingPusher
	notifier *recordingNotifier
	deps     conversation.Deps
	client   uuid.UUID
	talent   uuid.UUID
	stranger uuid.UUID
}

func newFixture() *fixture {
	store := memrepo.New()
	f := &fixture{
		store:    store,
		clock:    &clock.Fixed{T: time.Date(2030, time.July, 1, 9, 0, 0, 0, time.UTC)},
		pusher:   &recordingPusher{},
		notifier: &recordingNotifier{},
		client:   uuid.New(),
		talent:   uuid.New(),
		stranger: uuid.New(),
	}
	f.deps = conversation.Deps{
		Conversations: store.Conversations(),
		Messages:      store.Messages(),
		Profiles:      store.Profiles(),
		Bookings:      store.Bookings(),
		Offers:        store.Offers(),
		Jobs:          store.Jobs(),
		Tx:            store,
		Clock:         f.clock,
		Effects:       &effects.Effects{Notifier: f.notifier},
		Pusher:        f.pusher,
	}
	store.AddProfile(entity.Profile{ID: f.client, DisplayName: "Casey Client", Email: "casey@example.com"})
	store.AddProfile(entity.Profile{ID: f.talent, DisplayName: "Taylor Talent", Email: "taylor@example.com"})
	store.AddProfile(entity.Profile{ID: f.stranger, DisplayName: "Sam Stranger", Email: "sam@example.com"})
	return f
}

func (f *fixture) start(t *testing.T, userID, otherID uuid.UUID) *entity.Conversation {
	t.Helper()
	conv, err := conversation.NewStartConversationUseCase(f.deps).WithUser(context.Background(), userID, otherID)
	require.NoError(t, err)
	return conv
}

func (f *fixture) send(t *testing.T, conv *entity.Conversation, from uuid.UUID, body string) *entity.Message {
	t.Helper()
	msg, err := conversation.NewSendMessageUseCase(f.deps).Execute(context.Background(), conversation.SendInput{
		ConversationID: conv.ID,
		SenderID:       from,
		Body:           body,
	})
	require.NoError(t, err)
	return msg
}

func (f *fixture) booking(t *testing.T) *entity.Booking {
	t.Helper()
	b, err := entity.NewBooking(entity.NewBookingParams{
		ClientID: f.client,
		TalentID: f.talent,
		Range: valueobject.TimeRange{
			Start: time.Date(2030, time.July, 10, 18, 0, 0, 0, time.UTC),
			End:   time.Date(2030, time.July, 10, 23, 0, 0, 0, time.UTC),
		},
		TotalAmount:        800,
		Currency:           "AUD",
		ServiceDescription: "Wedding DJ set",
		Source:             valueobject.BookingSourceDirect,
	})
	require.NoError(t, err)
	require.NoError(t, f.store.Bookings().Create(context.Background(), b))
	return b
}

func TestStart_OneConversationPerPair(t *testing.T) {
	f := newFixture()

	first := f.start(t, f.client, f.talent)
	second := f.start(t, f.talent, f.client)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, first.IsParticipant(f.client))
	assert.Equal(t, f.talent, first.Other(f.client))

	_, err := conversation.NewStartConversationUseCase(f.deps).WithUser(context.Background(), f.client, f.client)
	assert.True(t, apperror.IsValidation(err))

	_, err = conversation.NewStartConversationUseCase(f.deps).WithUser(context.Background(), f.client, uuid.New())
	assert.ErrorIs(t, err, apperror.ErrProfileNotFound)
}

func TestStart_ConcurrentStartsShareConversation(t *testing.T) {
	f := newFixture()
	start := conversation.NewStartConversationUseCase(f.deps)

	ids := make([]uuid.UUID, 8)
	var wg sync.WaitGroup
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			from, to := f.client, f.talent
			if i%2 == 1 {
				from, to = to, from
			}
			conv, err := start.WithUser(context.Background(), from, to)
			if assert.NoError(t, err) {
				ids[i] = conv.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	convs, err := f.store.Conversations().ListByUser(context.Background(), f.client)
	require.NoError(t, err)
	assert.Len(t, convs, 1)
}

func TestStart_ForBookingAndOfferParties(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	start := conversation.NewStartConversationUseCase(f.deps)
	b := f.booking(t)

	conv, err := start.ForBooking(ctx, b.ID, f.talent)
	require.NoError(t, err)
	assert.True(t, conv.IsParticipant(f.client))

	_, err = start.ForBooking(ctx, b.ID, f.stranger)
	assert.ErrorIs(t, err, apperror.ErrNotParty)

	offer := &entity.JobOffer{ID: uuid.New(), SenderID: f.client, RecipientID: f.talent, Title: "Crew"}
	require.NoError(t, f.store.Offers().Create(ctx, offer))
	same, err := start.ForOffer(ctx, offer.ID, f.client)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, same.ID)

	_, err = start.ForOffer(ctx, offer.ID, f.stranger)
	assert.True(t, apperror.IsForbidden(err))
}

func TestSend_PushesToRecipientAndNotifies(t *testing.T) {
	f := newFixture()
	conv := f.start(t, f.client, f.talent)

	msg := f.send(t, conv, f.client, "  Are you free on the 10th?  ")
	assert.Equal(t, "Are you free on the 10th?", msg.Body)
	assert.Equal(t, f.talent, msg.RecipientID)
	assert.False(t, msg.IsRead)

	events := f.pusher.all()
	require.Len(t, events, 1)
	assert.Equal(t, f.talent, events[0].userID)
	assert.Equal(t, conversation.EventNewMessage, events[0].event)
	assert.Equal(t, msg.ID.String(), events[0].data["id"])
	assert.Equal(t, conv.ID.String(), events[0].data["conversation_id"])

	assert.Eventually(t, func() bool { return f.notifier.count(f.talent, "message_received") == 1 }, time.Second, 10*time.Millisecond)

	stored, err := f.store.Conversations().FindByID(context.Background(), conv.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastMessageAt)
	assert.True(t, stored.LastMessageAt.Equal(msg.CreatedAt))
}

func TestSend_Validation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	send := conversation.NewSendMessageUseCase(f.deps)
	conv := f.start(t, f.client, f.talent)

	_, err := send.Execute(ctx, conversation.SendInput{ConversationID: conv.ID, SenderID: f.stranger, Body: "hi"})
	assert.True(t, apperror.IsForbidden(err))

	_, err = send.Execute(ctx, conversation.SendInput{ConversationID: conv.ID, SenderID: f.client, Body: "   "})
	assert.True(t, apperror.IsValidation(err))

	_, err = send.Execute(ctx, conversation.SendInput{ConversationID: conv.ID, SenderID: f.client, Body: "hi", ContextType: "portfolio"})
	assert.True(t, apperror.IsValidation(err))

	_, err = send.Execute(ctx, conversation.SendInput{ConversationID: uuid.New(), SenderID: f.client, Body: "hi"})
	assert.ErrorIs(t, err, apperror.ErrConversationNotFound)

	assert.Empty(t, f.pusher.all())
}

func TestSend_BookingContextMustBelongToParties(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	send := conversation.NewSendMessageUseCase(f.deps)
	b := f.booking(t)

	conv := f.start(t, f.client, f.talent)
	msg, err := send.Execute(ctx, conversation.SendInput{
		ConversationID: conv.ID, SenderID: f.client, Body: "Confirming the set list", ContextType: "booking", ContextID: &b.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.MessageContextBooking, msg.ContextType)

	other := f.start(t, f.client, f.stranger)
	_, err = send.Execute(ctx, conversation.SendInput{
		ConversationID: other.ID, SenderID: f.client, Body: "About that booking", ContextType: "booking", ContextID: &b.ID,
	})
	assert.True(t, apperror.IsValidation(err))

	_, err = send.Execute(ctx, conversation.SendInput{
		ConversationID: conv.ID, SenderID: f.client, Body: "No id", ContextType: "booking",
	})
	assert.True(t, apperror.IsValidation(err))
}

func TestSendAboutJob_OpensConversationWithJobContext(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	job, err := entity.NewJobPosting(f.client, "Festival crew", "Stage setup and pack down", nil, nil, nil, nil, nil)
	require.NoError(t, err)
	require.NoError(t, f.store.Jobs().CreatePosting(ctx, job))

	msg, err := conversation.NewSendAboutJobUseCase(f.deps).Execute(ctx, f.talent, f.client, job.ID, "Is this still open?")
	require.NoError(t, err)
	assert.Equal(t, entity.MessageContextJob, msg.ContextType)
	require.NotNil(t, msg.ContextID)
	assert.Equal(t, job.ID, *msg.ContextID)

	conv, err := f.store.Conversations().FindByID(ctx, msg.ConversationID)
	require.NoError(t, err)
	require.NotNil(t, conv.JobID)
	assert.Equal(t, job.ID, *conv.JobID)

	_, err = conversation.NewSendAboutJobUseCase(f.deps).Execute(ctx, f.talent, f.client, uuid.New(), "Which job?")
	assert.ErrorIs(t, err, apperror.ErrJobNotFound)
}

func TestList_PreviewsWithUnreadCounts(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	withTalent := f.start(t, f.client, f.talent)
	withStranger := f.start(t, f.client, f.stranger)

	f.send(t, withTalent, f.talent, "First")
	f.clock.Advance(time.Minute)
	last := f.send(t, withTalent, f.talent, "Second")
	f.clock.Advance(time.Minute)
	f.send(t, withStranger, f.client, "Hello there")

	previews, err := conversation.NewListConversationsUseCase(f.deps).Execute(ctx, f.client)
	require.NoError(t, err)
	require.Len(t, previews, 2)

	assert.Equal(t, withStranger.ID, previews[0].Conversation.ID, "most recent activity first")
	assert.Equal(t, 0, previews[0].UnreadCount)
	assert.Equal(t, "Sam Stranger", previews[0].OtherUser.DisplayName)

	assert.Equal(t, withTalent.ID, previews[1].Conversation.ID)
	assert.Equal(t, 2, previews[1].UnreadCount)
	require.NotNil(t, previews[1].LastMessage)
	assert.Equal(t, last.ID, previews[1].LastMessage.ID)
}

func TestListMessages_NewestFirstForParticipants(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	conv := f.start(t, f.client, f.talent)
	for _, body := range []string{"one", "two", "three"} {
		f.send(t, conv, f.client, body)
		f.clock.Advance(time.Second)
	}

	list := conversation.NewListMessagesUseCase(f.deps)
	msgs, err := list.Execute(ctx, conv.ID, f.talent, 2, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "three", msgs[0].Body)
	assert.Equal(t, "two", msgs[1].Body)

	msgs, err = list.Execute(ctx, conv.ID, f.talent, 2, 2)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "one", msgs[0].Body)

	_, err = list.Execute(ctx, conv.ID, f.stranger, 0, 0)
	assert.True(t, apperror.IsForbidden(err))
}

func TestMarkRead_OnlyRecipient(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	conv := f.start(t, f.client, f.talent)
	first := f.send(t, conv, f.client, "one")
	f.send(t, conv, f.client, "two")
	f.send(t, conv, f.talent, "reply")

	mark := conversation.NewMarkReadUseCase(f.deps)
	_, err := mark.Message(ctx, first.ID, f.client)
	assert.True(t, apperror.IsForbidden(err))

	n, err := mark.Message(ctx, first.ID, f.talent)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = mark.Conversation(ctx, conv.ID, f.talent)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "the talent's own reply stays untouched")

	counts, err := f.store.Messages().UnreadCounts(ctx, f.talent)
	require.NoError(t, err)
	assert.Zero(t, counts[conv.ID])
	counts, err = f.store.Messages().UnreadCounts(ctx, f.client)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[conv.ID])

	_, err = mark.Conversation(ctx, conv.ID, f.stranger)
	assert.True(t, apperror.IsForbidden(err))
}

func TestDelete_OnlySender(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	conv := f.start(t, f.client, f.talent)
	msg := f.send(t, conv, f.client, "oops")

	del := conversation.NewDeleteMessageUseCase(f.deps)
	assert.True(t, apperror.IsForbidden(del.Execute(ctx, msg.ID, f.talent)))
	require.NoError(t, del.Execute(ctx, msg.ID, f.client))

	_, err := f.store.Messages().FindByID(ctx, msg.ID)
	assert.ErrorIs(t, err, apperror.ErrMessageNotFound)
}

func TestSearch_UsersAndMessages(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	search := conversation.NewSearchUseCase(f.deps)

	users, err := search.Users(ctx, f.client, "ta")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, f.talent, users[0].ID)

	users, err = search.Users(ctx, f.client, "casey")
	require.NoError(t, err)
	assert.Empty(t, users, "the caller is excluded")

	_, err = search.Users(ctx, f.client, " a ")
	assert.True(t, apperror.IsValidation(err))

	conv := f.start(t, f.client, f.talent)
	f.send(t, conv, f.client, "Bring the smoke machine")
	f.send(t, conv, f.talent, "Will do")
	other := f.start(t, f.talent, f.stranger)
	f.send(t, other, f.stranger, "Smoke machine for sale")

	msgs, err := search.Messages(ctx, f.client, "SMOKE")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Bring the smoke machine", msgs[0].Body)
}
