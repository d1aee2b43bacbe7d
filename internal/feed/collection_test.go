package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/gratilog/internal/models"
)

const (
	testParent = "photo-123"
	testUser   = "user-1"
	testName   = "alice"
)

// testNotifier собирает сигналы reconciler для проверок
type testNotifier struct {
	mu    sync.Mutex
	notes []Notification
}

func (n *testNotifier) Notify(note Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, note)
}

func (n *testNotifier) failures() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	var failures []Notification
	for _, note := range n.notes {
		if note.Err != nil {
			failures = append(failures, note)
		}
	}
	return failures
}

func newTestCollection(backend Backend, notifier Notifier, order Order) *Collection {
	return NewCollection(Config{
		ParentID:   testParent,
		Kind:       models.KindComment,
		NodeID:     "node-a",
		AuthorID:   testUser,
		AuthorName: testName,
		Order:      order,
		Backend:    backend,
		Notifier:   notifier,
	})
}

func confirmedEntry(id, parent, author, content string, createdAt time.Time) *models.Entry {
	return &models.Entry{
		ID:         id,
		ParentID:   parent,
		Kind:       models.KindComment,
		AuthorID:   author,
		AuthorName: author,
		Content:    content,
		Status:     models.StatusConfirmed,
		CreatedAt:  createdAt,
	}
}

func waitSettled(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 5*time.Millisecond)
}

// Сценарий: pending запись видна немедленно, после подтверждения
// остается ровно одна запись с серверным id.
func TestCollection_SubmitCreate_ConfirmReplacesPending(t *testing.T) {
	release := make(chan struct{})
	serverTime := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	backend := &BackendMock{
		CreateFunc: func(ctx context.Context, entry *models.Entry) (*models.Entry, error) {
			<-release // имитируем зависший сетевой вызов
			confirmed := entry.Clone()
			confirmed.ID = "c-999"
			confirmed.Status = models.StatusConfirmed
			confirmed.CreatedAt = serverTime
			return confirmed, nil
		},
	}
	c := newTestCollection(backend, nil, OrderAsc)

	corrID, err := c.SubmitCreate(context.Background(), "شكرا", "")
	require.NoError(t, err)
	assert.True(t, len(corrID) > len("local-"))

	// Pending запись видна до ответа сервера
	snap := c.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "شكرا", snap[0].Content)
	assert.Equal(t, testUser, snap[0].AuthorID)
	assert.True(t, snap[0].IsPending())
	assert.Equal(t, corrID, snap[0].ID)
	assert.Equal(t, 1, c.PendingCount())

	close(release)

	waitSettled(t, func() bool {
		s := c.Snapshot()
		return len(s) == 1 && s[0].ID == "c-999"
	})

	snap = c.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "c-999", snap[0].ID)
	assert.Equal(t, "شكرا", snap[0].Content)
	assert.Equal(t, models.StatusConfirmed, snap[0].Status)
	assert.Equal(t, serverTime, snap[0].CreatedAt)
	assert.Equal(t, 0, c.PendingCount())
}

func TestCollection_SubmitCreate_ValidationRejectedBeforeNetwork(t *testing.T) {
	backend := &BackendMock{}
	c := newTestCollection(backend, nil, OrderAsc)

	tests := []struct {
		name    string
		content string
	}{
		{name: "empty content", content: ""},
		{name: "whitespace only", content: "  \t \n "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.SubmitCreate(context.Background(), tt.content, "")
			assert.Error(t, err)
			assert.Equal(t, 0, c.Len(), "невалидный ввод не создает pending запись")
			assert.Empty(t, backend.CreateCalls(), "сетевой вызов не выполняется")
		})
	}
}

// Свойство 2: после отклоненного create коллекция равна состоянию
// до вызова, наружу уходит failure сигнал.
func TestCollection_SubmitCreate_RollbackOnFailure(t *testing.T) {
	backend := &BackendMock{
		CreateFunc: func(ctx context.Context, entry *models.Entry) (*models.Entry, error) {
			return nil, errors.New("permission denied")
		},
	}
	notifier := &testNotifier{}
	c := newTestCollection(backend, notifier, OrderAsc)

	before := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	c.ApplyRemoteInsert(confirmedEntry("c-1", testParent, "user-2", "older", before))

	_, err := c.SubmitCreate(context.Background(), "doomed", "")
	require.NoError(t, err)

	waitSettled(t, func() bool { return c.PendingCount() == 0 })

	snap := c.Snapshot()
	require.Len(t, snap, 1, "коллекция вернулась к состоянию до вызова")
	assert.Equal(t, "c-1", snap[0].ID)

	waitSettled(t, func() bool { return len(notifier.failures()) == 1 })
}

// Свойство 1: echo push-событие и ответ сервера на один и тот же create
// дают ровно одну запись независимо от порядка прихода.
func TestCollection_NoDuplicate_EchoArrivesBeforeResponse(t *testing.T) {
	release := make(chan struct{})
	serverTime := time.Now().UTC()

	backend := &BackendMock{
		CreateFunc: func(ctx context.Context, entry *models.Entry) (*models.Entry, error) {
			<-release
			confirmed := entry.Clone()
			confirmed.ID = "c-7"
			confirmed.Status = models.StatusConfirmed
			confirmed.CreatedAt = serverTime
			return confirmed, nil
		},
	}
	c := newTestCollection(backend, nil, OrderAsc)

	corrID, err := c.SubmitCreate(context.Background(), "hello", "")
	require.NoError(t, err)

	// Push-событие с echo client_ref приходит раньше ответа сервера
	echo := confirmedEntry("c-7", testParent, testUser, "hello", serverTime)
	echo.ClientRef = corrID
	c.ApplyRemoteInsert(echo)

	snap := c.Snapshot()
	require.Len(t, snap, 1, "echo схлопнулось с pending записью")
	assert.Equal(t, "c-7", snap[0].ID)
	assert.Equal(t, models.StatusConfirmed, snap[0].Status)

	close(release)

	// Ответ сервера не вставляет вторую копию
	waitSettled(t, func() bool { return c.PendingCount() == 0 })
	time.Sleep(20 * time.Millisecond)
	snap = c.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "c-7", snap[0].ID)
}

func TestCollection_NoDuplicate_HeuristicEchoWithoutClientRef(t *testing.T) {
	release := make(chan struct{})
	backend := &BackendMock{
		CreateFunc: func(ctx context.Context, entry *models.Entry) (*models.Entry, error) {
			<-release
			confirmed := entry.Clone()
			confirmed.ID = "c-8"
			confirmed.Status = models.StatusConfirmed
			return confirmed, nil
		},
	}
	c := newTestCollection(backend, nil, OrderAsc)

	_, err := c.SubmitCreate(context.Background(), "same text", "")
	require.NoError(t, err)

	// Событие без client_ref: тот же автор, то же содержимое,
	// близкий timestamp — fallback-эвристика считает его echo
	echo := confirmedEntry("c-8", testParent, testUser, "same text", time.Now())
	c.ApplyRemoteInsert(echo)

	snap := c.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "c-8", snap[0].ID)

	close(release)
	waitSettled(t, func() bool { return c.PendingCount() == 0 })
	assert.Equal(t, 1, c.Len())
}

func TestCollection_ApplyRemoteInsert_Idempotent(t *testing.T) {
	c := newTestCollection(&BackendMock{}, nil, OrderAsc)

	entry := confirmedEntry("c-1", testParent, "user-2", "hi", time.Now())
	c.ApplyRemoteInsert(entry)
	c.ApplyRemoteInsert(entry)
	c.ApplyRemoteInsert(entry.Clone())

	assert.Equal(t, 1, c.Len())
}

// Сценарий: чужое сообщение встает на хронологически правильную
// позицию без собственного create вызова.
func TestCollection_ApplyRemoteInsert_ChronologicalPosition(t *testing.T) {
	backend := &BackendMock{}
	c := newTestCollection(backend, nil, OrderAsc)

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c.ApplyRemoteInsert(confirmedEntry("m-1", testParent, "user-2", "first", base))
	c.ApplyRemoteInsert(confirmedEntry("m-3", testParent, "user-2", "third", base.Add(2*time.Minute)))

	// "hello" от другого клиента должно встать между m-1 и m-3
	c.ApplyRemoteInsert(confirmedEntry("m-2", testParent, "user-3", "hello", base.Add(time.Minute)))

	snap := c.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, []string{"m-1", "m-2", "m-3"}, []string{snap[0].ID, snap[1].ID, snap[2].ID})
	assert.Empty(t, backend.CreateCalls(), "получатель не выполняет собственный create")
}

// Свойство 4: повторный remote delete отсутствующего id — no-op
func TestCollection_ApplyRemoteDelete_Idempotent(t *testing.T) {
	c := newTestCollection(&BackendMock{}, nil, OrderAsc)

	c.ApplyRemoteInsert(confirmedEntry("c-1", testParent, "user-2", "hi", time.Now()))
	require.Equal(t, 1, c.Len())

	c.ApplyRemoteDelete("c-1")
	assert.Equal(t, 0, c.Len())

	// Повторное событие для уже отсутствующего id
	c.ApplyRemoteDelete("c-1")
	c.ApplyRemoteDelete("never-existed")
	assert.Equal(t, 0, c.Len())
}

func TestCollection_ApplyRemoteDelete_IgnoresPendingIDs(t *testing.T) {
	release := make(chan struct{})
	backend := &BackendMock{
		CreateFunc: func(ctx context.Context, entry *models.Entry) (*models.Entry, error) {
			<-release
			confirmed := entry.Clone()
			confirmed.ID = "c-1"
			confirmed.Status = models.StatusConfirmed
			return confirmed, nil
		},
	}
	c := newTestCollection(backend, nil, OrderAsc)
	defer close(release)

	corrID, err := c.SubmitCreate(context.Background(), "text", "")
	require.NoError(t, err)

	// Pending записи имеют только локальные id: событие игнорируется
	c.ApplyRemoteDelete(corrID)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 1, c.PendingCount())
}

// Свойство 3: замена pending записи подтвержденной не меняет взаимный
// порядок остальных записей.
func TestCollection_OrderingStableAcrossConfirmation(t *testing.T) {
	release := make(chan struct{})
	var submitted time.Time

	backend := &BackendMock{
		CreateFunc: func(ctx context.Context, entry *models.Entry) (*models.Entry, error) {
			<-release
			confirmed := entry.Clone()
			confirmed.ID = "c-new"
			confirmed.Status = models.StatusConfirmed
			// Серверное время чуть позже локального, порядок не меняется
			confirmed.CreatedAt = submitted.Add(50 * time.Millisecond)
			return confirmed, nil
		},
	}
	c := newTestCollection(backend, nil, OrderAsc)

	base := time.Now().Add(-time.Hour)
	c.ApplyRemoteInsert(confirmedEntry("c-1", testParent, "user-2", "a", base))
	c.ApplyRemoteInsert(confirmedEntry("c-2", testParent, "user-2", "b", base.Add(time.Minute)))

	submitted = time.Now()
	corrID, err := c.SubmitCreate(context.Background(), "mine", "")
	require.NoError(t, err)

	before := c.Snapshot()
	require.Len(t, before, 3)
	assert.Equal(t, []string{"c-1", "c-2", corrID}, []string{before[0].ID, before[1].ID, before[2].ID})

	close(release)
	waitSettled(t, func() bool { return c.PendingCount() == 0 })

	after := c.Snapshot()
	require.Len(t, after, 3)
	assert.Equal(t, []string{"c-1", "c-2", "c-new"}, []string{after[0].ID, after[1].ID, after[2].ID},
		"взаимный порядок остальных записей не изменился")
}

func TestCollection_SubmitDelete_OptimisticWithRollback(t *testing.T) {
	backend := &BackendMock{
		DeleteFunc: func(ctx context.Context, id string) error {
			return errors.New("network unreachable")
		},
	}
	notifier := &testNotifier{}
	c := newTestCollection(backend, notifier, OrderAsc)

	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	c.ApplyRemoteInsert(confirmedEntry("c-1", testParent, "user-2", "a", base))
	c.ApplyRemoteInsert(confirmedEntry("c-2", testParent, testUser, "b", base.Add(time.Minute)))
	c.ApplyRemoteInsert(confirmedEntry("c-3", testParent, "user-2", "c", base.Add(2*time.Minute)))

	require.NoError(t, c.SubmitDelete(context.Background(), "c-2"))

	// Удаление видно немедленно
	snap := c.Snapshot()
	require.Len(t, snap, 2)

	// Неудачное удаление видимо откатывается: запись возвращается
	// на исходную позицию
	waitSettled(t, func() bool { return c.Len() == 3 })
	snap = c.Snapshot()
	assert.Equal(t, []string{"c-1", "c-2", "c-3"}, []string{snap[0].ID, snap[1].ID, snap[2].ID})
	waitSettled(t, func() bool { return len(notifier.failures()) == 1 })
}

func TestCollection_SubmitDelete_Success(t *testing.T) {
	backend := &BackendMock{
		DeleteFunc: func(ctx context.Context, id string) error { return nil },
	}
	c := newTestCollection(backend, nil, OrderAsc)

	c.ApplyRemoteInsert(confirmedEntry("c-1", testParent, testUser, "bye", time.Now()))
	require.NoError(t, c.SubmitDelete(context.Background(), "c-1"))

	assert.Equal(t, 0, c.Len())
	waitSettled(t, func() bool { return len(backend.DeleteCalls()) == 1 })
	assert.Equal(t, 0, c.Len())
}

func TestCollection_SubmitDelete_UnknownID(t *testing.T) {
	c := newTestCollection(&BackendMock{}, nil, OrderAsc)
	err := c.SubmitDelete(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

// Удаление pending записи — локальная отмена: сетевого delete нет,
// а подтвердившийся create компенсируется удалением.
func TestCollection_SubmitDelete_CancelsPending(t *testing.T) {
	release := make(chan struct{})
	deleted := make(chan string, 1)

	backend := &BackendMock{
		CreateFunc: func(ctx context.Context, entry *models.Entry) (*models.Entry, error) {
			<-release
			confirmed := entry.Clone()
			confirmed.ID = "c-cancel"
			confirmed.Status = models.StatusConfirmed
			return confirmed, nil
		},
		DeleteFunc: func(ctx context.Context, id string) error {
			deleted <- id
			return nil
		},
	}
	c := newTestCollection(backend, nil, OrderAsc)

	corrID, err := c.SubmitCreate(context.Background(), "changed my mind", "")
	require.NoError(t, err)

	require.NoError(t, c.SubmitDelete(context.Background(), corrID))
	assert.Equal(t, 0, c.Len(), "отмененная запись исчезает немедленно")
	assert.Empty(t, backend.DeleteCalls(), "отмена pending записи не делает сетевой вызов")

	close(release)

	// Create все же подтвердился: уходит компенсирующее удаление
	select {
	case id := <-deleted:
		assert.Equal(t, "c-cancel", id)
	case <-time.After(2 * time.Second):
		t.Fatal("compensating delete was not issued")
	}
	assert.Equal(t, 0, c.Len())
}

// Свойство 5: после Close ни завершение in-flight вызова, ни push-события
// не изменяют коллекцию.
func TestCollection_TeardownSafety(t *testing.T) {
	release := make(chan struct{})
	backend := &BackendMock{
		CreateFunc: func(ctx context.Context, entry *models.Entry) (*models.Entry, error) {
			<-release
			confirmed := entry.Clone()
			confirmed.ID = "c-late"
			confirmed.Status = models.StatusConfirmed
			return confirmed, nil
		},
	}

	var changes int
	var mu sync.Mutex
	c := NewCollection(Config{
		ParentID:   testParent,
		Kind:       models.KindComment,
		NodeID:     "node-a",
		AuthorID:   testUser,
		AuthorName: testName,
		Backend:    backend,
		OnChange: func([]models.Entry) {
			mu.Lock()
			changes++
			mu.Unlock()
		},
	})

	_, err := c.SubmitCreate(context.Background(), "in flight", "")
	require.NoError(t, err)

	c.Close()
	mu.Lock()
	changesAtClose := changes
	mu.Unlock()
	before := c.Snapshot()

	close(release)
	c.ApplyRemoteInsert(confirmedEntry("c-x", testParent, "user-2", "late", time.Now()))
	c.ApplyRemoteDelete("c-x")

	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, before, c.Snapshot(), "коллекция не мутирует после Close")
	mu.Lock()
	assert.Equal(t, changesAtClose, changes, "OnChange не вызывается после Close")
	mu.Unlock()

	_, err = c.SubmitCreate(context.Background(), "too late", "")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, c.SubmitDelete(context.Background(), "any"), ErrClosed)
	assert.ErrorIs(t, c.Load(context.Background()), ErrClosed)
}

func TestCollection_Load_ReplacesConfirmedKeepsPending(t *testing.T) {
	release := make(chan struct{})
	base := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	backend := &BackendMock{
		CreateFunc: func(ctx context.Context, entry *models.Entry) (*models.Entry, error) {
			<-release
			confirmed := entry.Clone()
			confirmed.ID = "c-mine"
			confirmed.Status = models.StatusConfirmed
			return confirmed, nil
		},
		ListFunc: func(ctx context.Context, parentID string) ([]*models.Entry, error) {
			return []*models.Entry{
				confirmedEntry("c-1", parentID, "user-2", "a", base),
				confirmedEntry("c-2", parentID, "user-3", "b", base.Add(time.Minute)),
			}, nil
		},
	}
	c := newTestCollection(backend, nil, OrderAsc)
	defer close(release)

	// Устаревшая запись, которой больше нет на сервере
	c.ApplyRemoteInsert(confirmedEntry("c-stale", testParent, "user-2", "gone", base))

	_, err := c.SubmitCreate(context.Background(), "pending text", "")
	require.NoError(t, err)

	require.NoError(t, c.Load(context.Background()))

	snap := c.Snapshot()
	require.Len(t, snap, 3)
	ids := []string{snap[0].ID, snap[1].ID}
	assert.Equal(t, []string{"c-1", "c-2"}, ids)
	assert.True(t, snap[2].IsPending(), "pending запись пережила загрузку")
	assert.Equal(t, 1, c.PendingCount())
}

func TestCollection_Load_CollapsesEchoByClientRef(t *testing.T) {
	release := make(chan struct{})
	var corrID string

	backend := &BackendMock{
		CreateFunc: func(ctx context.Context, entry *models.Entry) (*models.Entry, error) {
			<-release
			confirmed := entry.Clone()
			confirmed.ID = "c-9"
			confirmed.Status = models.StatusConfirmed
			return confirmed, nil
		},
		ListFunc: func(ctx context.Context, parentID string) ([]*models.Entry, error) {
			// Сервер уже знает нашу запись и echo-ит client_ref
			e := confirmedEntry("c-9", parentID, testUser, "mine", time.Now())
			e.ClientRef = corrID
			return []*models.Entry{e}, nil
		},
	}
	c := newTestCollection(backend, nil, OrderAsc)
	defer close(release)

	var err error
	corrID, err = c.SubmitCreate(context.Background(), "mine", "")
	require.NoError(t, err)

	require.NoError(t, c.Load(context.Background()))

	snap := c.Snapshot()
	require.Len(t, snap, 1, "серверная копия схлопнулась с pending записью")
	assert.Equal(t, "c-9", snap[0].ID)
}

func TestCollection_OrderDesc(t *testing.T) {
	c := NewCollection(Config{
		ParentID: "space-1",
		Kind:     models.KindPhoto,
		NodeID:   "node-a",
		AuthorID: testUser,
		Order:    OrderDesc,
		Backend:  &BackendMock{},
	})

	base := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	c.ApplyRemoteInsert(confirmedEntry("p-1", "space-1", "user-2", "old", base))
	c.ApplyRemoteInsert(confirmedEntry("p-2", "space-1", "user-2", "new", base.Add(time.Hour)))

	snap := c.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "p-2", snap[0].ID, "лента фотографий показывает новое первым")
	assert.Equal(t, "p-1", snap[1].ID)
}

// Свойство 1 в интерлевинге: серия локальных create вперемешку
// с echo push-событиями дает ровно одну запись на логическую мутацию.
func TestCollection_InterleavedCreatesAndEchoes(t *testing.T) {
	var mu sync.Mutex
	seq := 0

	backend := &BackendMock{
		CreateFunc: func(ctx context.Context, entry *models.Entry) (*models.Entry, error) {
			mu.Lock()
			seq++
			id := entry.ClientRef + "-srv"
			mu.Unlock()

			confirmed := entry.Clone()
			confirmed.ID = id
			confirmed.Status = models.StatusConfirmed
			return confirmed, nil
		},
	}
	c := newTestCollection(backend, nil, OrderAsc)

	contents := []string{"one", "two", "three", "four", "five"}
	for _, content := range contents {
		corrID, err := c.SubmitCreate(context.Background(), content, "")
		require.NoError(t, err)

		// Echo может прийти и раньше, и позже ответа сервера
		echo := confirmedEntry(corrID+"-srv", testParent, testUser, content, time.Now())
		echo.ClientRef = corrID
		c.ApplyRemoteInsert(echo)
	}

	waitSettled(t, func() bool { return c.PendingCount() == 0 })

	snap := c.Snapshot()
	assert.Len(t, snap, len(contents), "ровно одна запись на логическую мутацию")
	seen := make(map[string]bool)
	for _, e := range snap {
		assert.False(t, seen[e.Content], "дубликат содержимого %q", e.Content)
		seen[e.Content] = true
		assert.Equal(t, models.StatusConfirmed, e.Status)
	}
}

// Сценарий: подтверждения create гонятся с push-вставками других
// участников. Снимки доставляются строго в порядке мутаций, поэтому
// последний доставленный снимок совпадает с фактическим состоянием.
func TestCollection_OnChangeDeliversSnapshotsInMutationOrder(t *testing.T) {
	serverTime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	backend := &BackendMock{
		CreateFunc: func(ctx context.Context, entry *models.Entry) (*models.Entry, error) {
			confirmed := entry.Clone()
			confirmed.ID = "srv-" + entry.ClientRef
			confirmed.Status = models.StatusConfirmed
			confirmed.CreatedAt = serverTime
			return confirmed, nil
		},
	}

	var mu sync.Mutex
	var delivered []models.Entry
	c := NewCollection(Config{
		ParentID:   testParent,
		Kind:       models.KindComment,
		NodeID:     "node-a",
		AuthorID:   testUser,
		AuthorName: testName,
		Order:      OrderAsc,
		Backend:    backend,
		OnChange: func(entries []models.Entry) {
			mu.Lock()
			delivered = entries
			mu.Unlock()
		},
	})

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.ApplyRemoteInsert(confirmedEntry(
				fmt.Sprintf("r-%d", i), testParent, "user-2",
				fmt.Sprintf("remote %d", i), base.Add(time.Duration(i)*time.Second)))
		}(i)
	}
	for i := 0; i < 5; i++ {
		_, err := c.SubmitCreate(context.Background(), fmt.Sprintf("local %d", i), "")
		require.NoError(t, err)
	}
	wg.Wait()

	waitSettled(t, func() bool { return c.PendingCount() == 0 })

	mu.Lock()
	final := delivered
	mu.Unlock()
	assert.Equal(t, c.Snapshot(), final,
		"последний доставленный снимок равен актуальному состоянию")
	assert.Len(t, final, 25)
}
