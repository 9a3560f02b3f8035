package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/zainabubaker/Villages-Management-System/chat-service/internal/domain"
	"github.com/zainabubaker/Villages-Management-System/chat-service/internal/hub"
	"github.com/zainabubaker/Villages-Management-System/pkg/jwt"
	"github.com/zainabubaker/Villages-Management-System/pkg/messagestore"
)

type fakeConn struct {
	id      string
	session *domain.Session
	pushErr error

	mu     sync.Mutex
	frames [][]byte
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id, session: domain.NewSession(id)}
}

func (f *fakeConn) ID() string               { return f.id }
func (f *fakeConn) Session() *domain.Session { return f.session }

func (f *fakeConn) Push(data []byte) error {
	if f.pushErr != nil {
		return f.pushErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, data)
	return nil
}

func (f *fakeConn) pushes(t *testing.T) []domain.MessagePush {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]domain.MessagePush, 0, len(f.frames))
	for _, data := range f.frames {
		var p domain.MessagePush
		require.NoError(t, json.Unmarshal(data, &p))
		out = append(out, p)
	}
	return out
}

type fakeProducer struct {
	mu       sync.Mutex
	messages []*messagestore.Message
	err      error
}

func (p *fakeProducer) ProduceMessage(_ context.Context, msg *messagestore.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
	return p.err
}

func (p *fakeProducer) Close() error { return nil }

type fakeDirectory struct {
	mu     sync.Mutex
	online map[string]bool
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{online: make(map[string]bool)}
}

func (d *fakeDirectory) Announce(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.online[id] = true
	return nil
}

func (d *fakeDirectory) Withdraw(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.online, id)
	return nil
}

func (d *fakeDirectory) IsOnline(_ context.Context, id string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.online[id], nil
}

func (d *fakeDirectory) StartHeartbeat(context.Context) error { return nil }
func (d *fakeDirectory) StopHeartbeat()                       {}
func (d *fakeDirectory) Close() error                         { return nil }

type failingStore struct {
	messagestore.Store
}

func (failingStore) Append(context.Context, string, string, string, string) (*messagestore.Message, error) {
	return nil, errors.New("store unavailable")
}

type fixture struct {
	hub       *hub.Hub
	store     *messagestore.MemoryStore
	producer  *fakeProducer
	directory *fakeDirectory
	svc       ChatService
}

func newFixture(t *testing.T, opts Options, resolver jwt.Resolver) *fixture {
	t.Helper()
	f := &fixture{
		hub:       hub.NewHub(),
		store:     messagestore.NewMemoryStore(),
		producer:  &fakeProducer{},
		directory: newFakeDirectory(),
	}
	f.svc = NewChatService(f.hub, f.store, f.producer, f.directory, resolver, opts)
	t.Cleanup(func() { _ = f.store.Close() })
	return f
}

func (f *fixture) login(t *testing.T, id string) *fakeConn {
	t.Helper()
	c := newFakeConn("conn-" + id)
	require.NoError(t, f.svc.HandleLogin(context.Background(), c, &domain.LoginEvent{UserID: domain.ParticipantID(id)}))
	return c
}

func (f *fixture) history(t *testing.T, conversationID string) []messagestore.Message {
	t.Helper()
	page, err := f.store.QueryByConversation(context.Background(), conversationID, "", 0)
	require.NoError(t, err)
	return page.Messages
}

func message(sender, receiver, body string) *domain.MessageEvent {
	return &domain.MessageEvent{
		ConversationID: domain.ConversationID(domain.ParticipantID(sender), domain.ParticipantID(receiver)),
		SenderID:       domain.ParticipantID(sender),
		ReceiverID:     domain.ParticipantID(receiver),
		Message:        body,
	}
}

func TestHandleLogin(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, Options{}, nil)

	c := f.login(t, "1")
	req.Equal(domain.StateIdentified, c.Session().State())
	req.True(f.hub.IsOnline("1"))

	online, err := f.directory.IsOnline(context.Background(), "1")
	req.NoError(err)
	req.True(online)

	// Idempotent.
	req.NoError(f.svc.HandleLogin(context.Background(), c, &domain.LoginEvent{UserID: "1"}))
	req.Equal(domain.StateIdentified, c.Session().State())
	req.Equal(1, f.hub.Count())
}

func TestHandleLogin_MissingUserID(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, Options{}, nil)
	c := newFakeConn("c")

	err := f.svc.HandleLogin(context.Background(), c, &domain.LoginEvent{})
	req.ErrorIs(err, ErrInvalidEvent)
	req.Equal(domain.StateUnidentified, c.Session().State())
	req.Zero(f.hub.Count())

	// Still usable afterwards.
	req.NoError(f.svc.HandleLogin(context.Background(), c, &domain.LoginEvent{UserID: "1"}))
	req.Equal(domain.StateIdentified, c.Session().State())
}

func TestHandleLogin_LastLoginWins(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, Options{}, nil)
	ctx := context.Background()

	first := f.login(t, "1")
	second := f.login(t, "1")

	got, ok := f.hub.Lookup("1")
	req.True(ok)
	req.Equal(second, got)

	// The superseded connection closing must not evict the newer login.
	req.NoError(f.svc.HandleDisconnect(ctx, first))
	req.True(f.hub.IsOnline("1"))

	req.NoError(f.svc.HandleDisconnect(ctx, second))
	req.False(f.hub.IsOnline("1"))
}

func TestHandleLogin_SwitchIdentity(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, Options{}, nil)
	ctx := context.Background()

	c := f.login(t, "1")
	req.NoError(f.svc.HandleLogin(ctx, c, &domain.LoginEvent{UserID: "2"}))

	req.False(f.hub.IsOnline("1"))
	req.True(f.hub.IsOnline("2"))
	online, err := f.directory.IsOnline(ctx, "1")
	req.NoError(err)
	req.False(online)
}

func TestHandleLogin_RequireToken(t *testing.T) {
	req := require.New(t)
	manager, err := jwt.NewManager("secretKey", time.Hour, "villages")
	req.NoError(err)
	f := newFixture(t, Options{RequireLoginToken: true}, manager)
	ctx := context.Background()

	token, _, err := manager.Issue("7", jwt.RoleUser)
	req.NoError(err)

	c := newFakeConn("c")
	req.ErrorIs(f.svc.HandleLogin(ctx, c, &domain.LoginEvent{UserID: "7"}), ErrUnauthorized)
	req.ErrorIs(f.svc.HandleLogin(ctx, c, &domain.LoginEvent{UserID: "8", Token: token}), ErrUnauthorized)
	req.ErrorIs(f.svc.HandleLogin(ctx, c, &domain.LoginEvent{UserID: "7", Token: "garbage"}), ErrUnauthorized)
	req.Equal(domain.StateUnidentified, c.Session().State())
	req.Zero(f.hub.Count())

	req.NoError(f.svc.HandleLogin(ctx, c, &domain.LoginEvent{UserID: "7", Token: token}))
	req.True(f.hub.IsOnline("7"))
}

func TestHandleChatMessage_RequireTokenRejectsForeignSender(t *testing.T) {
	req := require.New(t)
	manager, err := jwt.NewManager("secretKey", time.Hour, "villages")
	req.NoError(err)
	f := newFixture(t, Options{RequireLoginToken: true}, manager)
	ctx := context.Background()

	anonymous := newFakeConn("anon")
	req.ErrorIs(f.svc.HandleChatMessage(ctx, anonymous, message("1", "2", "hi")), ErrUnauthorized)

	token, _, err := manager.Issue("1", jwt.RoleUser)
	req.NoError(err)
	c := newFakeConn("c")
	req.NoError(f.svc.HandleLogin(ctx, c, &domain.LoginEvent{UserID: "1", Token: token}))

	req.ErrorIs(f.svc.HandleChatMessage(ctx, c, message("3", "2", "spoofed")), ErrUnauthorized)
	req.Empty(f.history(t, "2_3"))

	req.NoError(f.svc.HandleChatMessage(ctx, c, message("1", "2", "hi")))
	req.Len(f.history(t, "1_2"), 1)
}

func TestHandleChatMessage_ReceiverOffline(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, Options{}, nil)

	sender := f.login(t, "1")
	req.NoError(f.svc.HandleChatMessage(context.Background(), sender, message("1", "2", "hello")))

	pushes := sender.pushes(t)
	req.Len(pushes, 1)
	req.Equal(domain.MsgTypeMessage, pushes[0].Type)
	req.Equal("hello", pushes[0].Message)

	stored := f.history(t, "1_2")
	req.Len(stored, 1)
	req.Equal(stored[0].ID, pushes[0].ID)
	req.True(stored[0].Timestamp.Equal(pushes[0].Timestamp))
	req.Len(f.producer.messages, 1)
}

func TestHandleChatMessage_ReceiverOnline(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, Options{}, nil)

	sender := f.login(t, "2")
	receiver := f.login(t, "1")
	req.NoError(f.svc.HandleChatMessage(context.Background(), sender, message("2", "1", "hi admin")))

	sent, received := sender.pushes(t), receiver.pushes(t)
	req.Len(sent, 1)
	req.Len(received, 1)

	s, r := sent[0], received[0]
	req.True(s.Timestamp.Equal(r.Timestamp))
	req.Equal(s.ConversationID, r.ConversationID)
	req.Equal("1_2", r.ConversationID)
	req.Equal("2", r.SenderID)
	req.Equal("1", r.ReceiverID)
	req.Equal("hi admin", r.Message)
	req.Equal(s.ID, r.ID)
}

func TestHandleChatMessage_MissingReceiver(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, Options{}, nil)

	sender := f.login(t, "1")
	other := f.login(t, "2")

	ev := message("1", "2", "hello")
	ev.ReceiverID = ""
	req.ErrorIs(f.svc.HandleChatMessage(context.Background(), sender, ev), ErrInvalidEvent)

	req.Empty(sender.pushes(t))
	req.Empty(other.pushes(t))
	req.Empty(f.history(t, "1_2"))
	req.Empty(f.producer.messages)
}

func TestHandleChatMessage_SelfMessageDropped(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, Options{}, nil)
	c := f.login(t, "1")

	req.ErrorIs(f.svc.HandleChatMessage(context.Background(), c, message("1", "1", "me")), ErrInvalidEvent)
	req.Empty(c.pushes(t))
}

func TestHandleChatMessage_ConversationIDIsDerived(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, Options{}, nil)
	c := f.login(t, "10")

	ev := message("10", "9", "hi")
	ev.ConversationID = "10_9"
	req.NoError(f.svc.HandleChatMessage(context.Background(), c, ev))

	req.Len(f.history(t, "9_10"), 1)
	req.Empty(f.history(t, "10_9"))
	req.Equal("9_10", c.pushes(t)[0].ConversationID)
}

func TestHandleChatMessage_HistoryOrder(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, Options{}, nil)
	ctx := context.Background()

	admin := f.login(t, "1")
	user := f.login(t, "2")

	req.NoError(f.svc.HandleChatMessage(ctx, admin, message("1", "2", "m1")))
	req.NoError(f.svc.HandleChatMessage(ctx, user, message("2", "1", "m2")))
	req.NoError(f.svc.HandleChatMessage(ctx, admin, message("1", "2", "m3")))

	stored := f.history(t, "1_2")
	req.Len(stored, 3)
	req.Equal("m1", stored[0].Body)
	req.Equal("m2", stored[1].Body)
	req.Equal("m3", stored[2].Body)
	req.Len(admin.pushes(t), 3)
	req.Len(user.pushes(t), 3)
}

func TestHandleChatMessage_PushFailureIsSkipped(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, Options{}, nil)

	sender := f.login(t, "1")
	receiver := f.login(t, "2")
	receiver.pushErr = hub.ErrSendBufferFull

	req.NoError(f.svc.HandleChatMessage(context.Background(), sender, message("1", "2", "hello")))
	req.Len(sender.pushes(t), 1)
	req.Len(f.history(t, "1_2"), 1)
}

func TestHandleChatMessage_PublishFailureDoesNotAffectDelivery(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, Options{}, nil)
	f.producer.err = errors.New("broker down")

	sender := f.login(t, "1")
	req.NoError(f.svc.HandleChatMessage(context.Background(), sender, message("1", "2", "hello")))
	req.Len(sender.pushes(t), 1)
}

func TestHandleChatMessage_PersistenceFailure(t *testing.T) {
	req := require.New(t)
	h := hub.NewHub()
	producer := &fakeProducer{}
	svc := NewChatService(h, failingStore{}, producer, nil, nil, Options{})
	ctx := context.Background()

	sender, receiver := newFakeConn("a"), newFakeConn("b")
	req.NoError(svc.HandleLogin(ctx, sender, &domain.LoginEvent{UserID: "1"}))
	req.NoError(svc.HandleLogin(ctx, receiver, &domain.LoginEvent{UserID: "2"}))

	req.Error(svc.HandleChatMessage(ctx, sender, message("1", "2", "hello")))
	req.Empty(sender.pushes(t))
	req.Empty(receiver.pushes(t))
	req.Empty(producer.messages)
}

func TestHandleChatMessage_UnidentifiedSenderIsAccepted(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, Options{}, nil)
	c := newFakeConn("anon")

	req.NoError(f.svc.HandleChatMessage(context.Background(), c, message("1", "2", "hello")))
	req.Len(c.pushes(t), 1)
	req.Equal(domain.StateUnidentified, c.Session().State())
}

func TestHandleJoin(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, Options{}, nil)
	ctx := context.Background()
	c := newFakeConn("c")

	req.NoError(f.svc.HandleJoin(ctx, c, &domain.JoinEvent{UserID: "1", ConversationID: "1_2"}))
	req.Equal(domain.StateUnidentified, c.Session().State())

	req.ErrorIs(f.svc.HandleJoin(ctx, c, &domain.JoinEvent{UserID: "1"}), ErrInvalidEvent)

	f.login(t, "1")
	req.NoError(f.svc.HandleJoin(ctx, c, &domain.JoinEvent{UserID: "1", ConversationID: "1_2"}))
	req.Empty(f.history(t, "1_2"))
}

func TestHandleDisconnect(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, Options{}, nil)
	ctx := context.Background()

	c := f.login(t, "1")
	req.NoError(f.svc.HandleDisconnect(ctx, c))
	req.Equal(domain.StateClosed, c.Session().State())
	req.False(f.hub.IsOnline("1"))

	online, err := f.directory.IsOnline(ctx, "1")
	req.NoError(err)
	req.False(online)

	// Closed sessions cannot log in again.
	req.ErrorIs(f.svc.HandleLogin(ctx, c, &domain.LoginEvent{UserID: "1"}), hub.ErrConnClosed)
	req.False(f.hub.IsOnline("1"))

	anon := newFakeConn("anon")
	req.NoError(f.svc.HandleDisconnect(ctx, anon))
	req.Equal(domain.StateClosed, anon.Session().State())
}
