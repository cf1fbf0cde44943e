package testutil

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/borkya1/smart-gallery/internal/models"
	"github.com/borkya1/smart-gallery/internal/providers"
)

// MockLogger implements providers.Logger and records calls.
type MockLogger struct {
	mu   sync.Mutex
	Logs []LogEntry
}

type LogEntry struct {
	Level  string
	Type   providers.TypeEnum
	Format string
	Args   []interface{}
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, LogEntry{Level: level, Type: t, Format: format, Args: args})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}
func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}
func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}
func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}
func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}
func (m *MockLogger) Close() {}

// Count returns how many entries were logged at level.
func (m *MockLogger) Count(level string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.Logs {
		if e.Level == level {
			n++
		}
	}
	return n
}

// MockMetrics implements providers.MetricsProviderInterface.
type MockMetrics struct {
	mu             sync.Mutex
	Requests       map[string]int
	CacheHits      int
	CacheMisses    int
	Allowed        map[string]int
	Denied         map[string]int
	VisionFailures int
	Uploads        int
}

func NewMockMetrics() *MockMetrics {
	return &MockMetrics{
		Requests: make(map[string]int),
		Allowed:  make(map[string]int),
		Denied:   make(map[string]int),
	}
}

func (m *MockMetrics) IncRequestsTotal(endpoint string, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests[fmt.Sprintf("%s %d", endpoint, status)]++
}
func (m *MockMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (m *MockMetrics) IncCacheHits() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheHits++
}
func (m *MockMetrics) IncCacheMisses() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheMisses++
}
func (m *MockMetrics) IncUploadDecision(identityKind string, allowed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if allowed {
		m.Allowed[identityKind]++
	} else {
		m.Denied[identityKind]++
	}
}
func (m *MockMetrics) IncVisionFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.VisionFailures++
}
func (m *MockMetrics) ObserveUploadDuration(_ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Uploads++
}

// MockImageCache implements providers.ImageCacheInterface on a map.
type MockImageCache struct {
	mu     sync.Mutex
	Images map[string]models.Blob
}

func NewMockImageCache() *MockImageCache {
	return &MockImageCache{Images: make(map[string]models.Blob)}
}

func (m *MockImageCache) Get(filename string) (*models.Blob, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	blob, ok := m.Images[filename]
	if !ok {
		return nil, false
	}
	return &blob, true
}

func (m *MockImageCache) Set(filename string, blob *models.Blob) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Images[filename] = *blob
}

// MemoryLedgerStore implements store.LedgerStoreInterface. A non-zero
// ceiling behaves like the conditional update of the DynamoDB store.
type MemoryLedgerStore struct {
	mu     sync.Mutex
	Guests map[string]int
	Users  map[string]models.UserUsage
	Err    error
	Writes int
}

func NewMemoryLedgerStore() *MemoryLedgerStore {
	return &MemoryLedgerStore{
		Guests: make(map[string]int),
		Users:  make(map[string]models.UserUsage),
	}
}

func (m *MemoryLedgerStore) GetGuestUsage(_ context.Context, address string) (*models.GuestUsage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	count, ok := m.Guests[address]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &models.GuestUsage{Address: address, Count: count}, nil
}

func (m *MemoryLedgerStore) IncrementGuestUsage(_ context.Context, address string, ceiling int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	if ceiling > 0 && m.Guests[address] >= ceiling {
		return 0, models.ErrConditionFailed
	}
	m.Guests[address]++
	m.Writes++
	return m.Guests[address], nil
}

func (m *MemoryLedgerStore) GetUserUsage(_ context.Context, userID string) (*models.UserUsage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	usage, ok := m.Users[userID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &usage, nil
}

func (m *MemoryLedgerStore) ResetUserUsage(_ context.Context, userID, date string, conditional bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if conditional && m.Users[userID].LastUploadDate == date {
		return models.ErrConditionFailed
	}
	m.Users[userID] = models.UserUsage{UserID: userID, LastUploadDate: date, DailyCount: 1}
	m.Writes++
	return nil
}

func (m *MemoryLedgerStore) IncrementUserUsage(_ context.Context, userID, date string, ceiling int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	usage := m.Users[userID]
	if ceiling > 0 && (usage.LastUploadDate != date || usage.DailyCount >= ceiling) {
		return 0, models.ErrConditionFailed
	}
	usage.UserID = userID
	usage.LastUploadDate = date
	usage.DailyCount++
	m.Users[userID] = usage
	m.Writes++
	return usage.DailyCount, nil
}

// MemoryGalleryStore implements store.GalleryStoreInterface.
type MemoryGalleryStore struct {
	mu        sync.Mutex
	Records   []models.GalleryRecord
	Err       error
	ListCalls int
}

func (m *MemoryGalleryStore) Put(_ context.Context, rec models.GalleryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Records = append(m.Records, rec)
	return nil
}

// ListByOwner returns the owner's records newest first; limit 0 means all.
func (m *MemoryGalleryStore) ListByOwner(_ context.Context, ownerID string, limit int) ([]models.GalleryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListCalls++
	if m.Err != nil {
		return nil, m.Err
	}

	out := make([]models.GalleryRecord, 0)
	for _, rec := range m.Records {
		if rec.OwnerID != "" && rec.OwnerID == ownerID {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MemoryBlobStore implements store.BlobStoreInterface.
type MemoryBlobStore struct {
	mu       sync.Mutex
	Prefix   string
	Blobs    map[string]models.Blob
	PutErr   error
	GetErr   error
	GetCalls int
}

func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{Prefix: "images", Blobs: make(map[string]models.Blob)}
}

func (m *MemoryBlobStore) Key(filename string) string {
	return path.Join(m.Prefix, filename)
}

func (m *MemoryBlobStore) Put(_ context.Context, key string, data []byte, contentType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PutErr != nil {
		return "", m.PutErr
	}
	m.Blobs[key] = models.Blob{Data: data, ContentType: contentType}
	return key, nil
}

func (m *MemoryBlobStore) Get(_ context.Context, key string) (*models.Blob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetCalls++
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	blob, ok := m.Blobs[key]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &blob, nil
}

// MemoryOtpStore implements store.OtpStoreInterface.
type MemoryOtpStore struct {
	mu    sync.Mutex
	Codes map[string]models.OtpCode
	Err   error
}

func NewMemoryOtpStore() *MemoryOtpStore {
	return &MemoryOtpStore{Codes: make(map[string]models.OtpCode)}
}

func (m *MemoryOtpStore) Put(_ context.Context, code models.OtpCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Codes[code.Email] = code
	return nil
}

func (m *MemoryOtpStore) Get(_ context.Context, email string) (*models.OtpCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	code, ok := m.Codes[email]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &code, nil
}

// MockAnalyzer implements vision.AnalyzerInterface.
type MockAnalyzer struct {
	mu    sync.Mutex
	Tags  []string
	Calls int
}

func (m *MockAnalyzer) Analyze(_ context.Context, _ []byte, _ string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.Tags == nil {
		return []string{}
	}
	return append([]string(nil), m.Tags...)
}

type SentMail struct {
	To   string
	Code string
}

// MockMailer implements mailer.MailerInterface.
type MockMailer struct {
	mu   sync.Mutex
	Sent []SentMail
	Err  error
}

func (m *MockMailer) Send(_ context.Context, to, code string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, SentMail{To: to, Code: code})
	return nil
}

// MockVerifier implements identity.TokenVerifierInterface. Tokens maps a raw
// credential to the user it stands for; anything else is rejected.
type MockVerifier struct {
	Tokens map[string]models.Identity
	Err    error
	Closed bool
}

func (m *MockVerifier) Verify(_ context.Context, raw string) (models.Identity, error) {
	if m.Err != nil {
		return models.Identity{}, m.Err
	}
	if who, ok := m.Tokens[strings.TrimSpace(raw)]; ok {
		return who, nil
	}
	return models.Identity{}, fmt.Errorf("%w: unknown token", models.ErrUnauthenticated)
}

func (m *MockVerifier) Close() {
	m.Closed = true
}
