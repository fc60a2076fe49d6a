package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"shopbot-api/internal/database"
	"shopbot-api/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// setupTestDB opens a private in-memory database with the full schema
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
		},
	})
	require.NoError(t, err)

	// one connection serializes writers, sqlite offers no row locking anyway
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.AutoMigrate(db))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, tgID int64) *models.User {
	t.Helper()
	user := &models.User{TgID: tgID, Username: fmt.Sprintf("user%d", tgID)}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedItem(t *testing.T, db *gorm.DB, item *models.Item) *models.Item {
	t.Helper()
	if item.Title == "" {
		item.Title = "Test item"
	}
	item.IsVisible = true
	require.NoError(t, db.Create(item).Error)
	return item
}

// fakeGateway records charge requests and answers with canned charges
type fakeGateway struct {
	mu       sync.Mutex
	requests []ChargeRequest
	failWith error
}

func (g *fakeGateway) CreatePayment(_ context.Context, req ChargeRequest) (*Charge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failWith != nil {
		return nil, g.failWith
	}
	g.requests = append(g.requests, req)
	return &Charge{
		ID:              fmt.Sprintf("gw-%d", len(g.requests)),
		ConfirmationURL: fmt.Sprintf("https://pay.example/%d", len(g.requests)),
	}, nil
}

func (g *fakeGateway) lastRequest() ChargeRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.requests[len(g.requests)-1]
}

// fakeTransport records outgoing messages
type fakeTransport struct {
	mu        sync.Mutex
	messages  []sentMessage
	documents []sentDocument
	docErr    error
}

type sentMessage struct {
	ChatID    int64
	Text      string
	ParseMode string
}

type sentDocument struct {
	ChatID   int64
	Document string
}

func (tr *fakeTransport) SendMessage(_ context.Context, chatID int64, text, parseMode string) error {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.messages = append(tr.messages, sentMessage{ChatID: chatID, Text: text, ParseMode: parseMode})
	return nil
}

func (tr *fakeTransport) SendDocument(_ context.Context, chatID int64, document string) error {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	if tr.docErr != nil {
		return tr.docErr
	}
	tr.documents = append(tr.documents, sentDocument{ChatID: chatID, Document: document})
	return nil
}

func (tr *fakeTransport) sent() []sentMessage {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	out := make([]sentMessage, len(tr.messages))
	copy(out, tr.messages)
	return out
}

// memSessionStore keeps checkout sessions in a map
type memSessionStore struct {
	mu       sync.Mutex
	sessions map[int64]*CheckoutSession
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: make(map[int64]*CheckoutSession)}
}

func (m *memSessionStore) Load(_ context.Context, tgID int64) (*CheckoutSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[tgID]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *memSessionStore) Save(_ context.Context, session *CheckoutSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *session
	m.sessions[session.TgID] = &cp
	return nil
}

func (m *memSessionStore) Clear(_ context.Context, tgID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, tgID)
	return nil
}
