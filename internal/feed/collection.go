package feed

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/iudanet/gratilog/internal/models"
	"github.com/iudanet/gratilog/internal/validation"
)

// echoWindow максимальное расхождение created_at, при котором push-событие
// без client_ref все еще считается echo локальной pending записи
const echoWindow = 10 * time.Second

// cancelTimeout таймаут компенсирующего удаления отмененной записи
const cancelTimeout = 5 * time.Second

// pendingOp представляет эфемерный учет незавершенной операции.
// Создается при действии пользователя, уничтожается при обработке
// ответа сервера (успех или ошибка).
type pendingOp struct {
	submittedAt   time.Time
	correlationID string        // локальный id pending записи (для create) или серверный id (для delete)
	kind          string        // opCreate или opDelete
	remoteID      string        // серверный id, если push-echo пришло раньше ответа
	removed       *models.Entry // снятая запись для отката неудачного delete
	cancelled     bool          // пользователь отменил create до подтверждения
	remoteDeleted bool          // удаление уже подтверждено push-событием
}

// Config параметры создания коллекции
type Config struct {
	ParentID   string                       // ключ коллекции
	Kind       string                       // тип создаваемых записей
	NodeID     string                       // идентификатор клиента для correlation id
	AuthorID   string                       // текущий пользователь
	AuthorName string                       // отображаемое имя текущего пользователя
	Order      Order                        // порядок отображения
	Backend  Backend      // авторитетные операции
	Notifier Notifier     // success/failure сигналы (опционально)
	Logger   *slog.Logger // логгер (опционально)

	// OnChange вызывается со снимком после каждого изменения (опционально).
	// Вызов происходит под внутренней блокировкой коллекции: снимки
	// доставляются строго в порядке мутаций. Callback не должен
	// обращаться к методам коллекции и не должен блокироваться надолго.
	OnChange func(entries []models.Entry)

	Now func() time.Time // источник времени (для тестов)
}

// Collection поддерживает согласованность одной упорядоченной коллекции
// под тремя конкурентными источниками изменений. Все мутации
// сериализуются мьютексом; после Close коллекция не изменяется,
// даже если завершаются ранее запущенные операции.
type Collection struct {
	mu       sync.Mutex
	cfg      Config
	entries  []*models.Entry
	pending  map[string]*pendingOp
	closed   bool
	now      func() time.Time
	logger   *slog.Logger
	notifier Notifier
}

// NewCollection создает пустую коллекцию для заданного parent
func NewCollection(cfg Config) *Collection {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = NotifierFunc(func(Notification) {})
	}
	return &Collection{
		cfg:      cfg,
		pending:  make(map[string]*pendingOp),
		now:      now,
		logger:   logger,
		notifier: notifier,
	}
}

// Load выполняет начальную загрузку коллекции с сервера.
// Подтвержденные записи заменяются серверным списком, pending записи
// сохраняются; echo по client_ref схлопывается в одну запись.
func (c *Collection) Load(ctx context.Context) error {
	serverEntries, err := c.cfg.Backend.List(ctx, c.cfg.ParentID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}

	merged := make([]*models.Entry, 0, len(serverEntries)+len(c.entries))
	for _, e := range c.entries {
		if e.IsPending() {
			merged = append(merged, e)
		}
	}

	for _, se := range serverEntries {
		e := se.Clone()
		e.Status = models.StatusConfirmed

		// Серверная запись может быть echo нашей pending записи
		if op, ok := c.pending[e.ClientRef]; ok && op.kind == opCreate && op.remoteID == "" {
			op.remoteID = e.ID
			merged = removeByID(merged, op.correlationID)
		}
		merged = append(merged, e)
	}

	c.entries = merged
	c.sortLocked()
	c.emitLocked()
	c.mu.Unlock()

	return nil
}

// SubmitCreate синтезирует pending запись, немедленно видимую в коллекции,
// и запускает авторитетную запись. Возвращает correlation id.
// Невалидное содержимое отклоняется до любого сетевого вызова.
func (c *Collection) SubmitCreate(ctx context.Context, content, mediaURL string) (string, error) {
	if err := validation.ValidateContent(content); err != nil {
		return "", err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return "", ErrClosed
	}

	corrID := newLocalID(c.cfg.NodeID)
	entry := &models.Entry{
		ID:         corrID,
		ParentID:   c.cfg.ParentID,
		Kind:       c.cfg.Kind,
		AuthorID:   c.cfg.AuthorID,
		AuthorName: c.cfg.AuthorName,
		Content:    content,
		MediaURL:   mediaURL,
		ClientRef:  corrID,
		Status:     models.StatusPending,
		CreatedAt:  c.now(),
	}
	c.insertLocked(entry)
	c.pending[corrID] = &pendingOp{
		correlationID: corrID,
		kind:          opCreate,
		submittedAt:   entry.CreatedAt,
	}
	request := entry.Clone()
	c.emitLocked()
	c.mu.Unlock()

	go c.runCreate(ctx, corrID, request)

	return corrID, nil
}

// runCreate выполняет авторитетную запись и согласует результат
func (c *Collection) runCreate(ctx context.Context, corrID string, request *models.Entry) {
	confirmed, err := c.cfg.Backend.Create(ctx, request)
	c.resolveCreate(corrID, confirmed, err)
}

// resolveCreate обрабатывает ответ сервера на create.
// Успех: pending запись заменяется подтвержденной (или схлопывается
// с уже пришедшим echo). Ошибка: pending запись снимается, наружу
// уходит failure сигнал. Повторов нет — повторная попытка за пользователем.
func (c *Collection) resolveCreate(corrID string, confirmed *models.Entry, callErr error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	op, ok := c.pending[corrID]
	if !ok {
		c.mu.Unlock()
		return
	}
	delete(c.pending, corrID)

	var (
		changed      bool
		note         *Notification
		compensateID string
	)

	switch {
	case callErr != nil:
		if op.remoteID != "" {
			// Echo уже подтвердил запись: сервер применил запись,
			// а ответ потерялся. Коллекция уже согласована.
			c.logger.Warn("create failed after push echo, keeping confirmed entry",
				"correlation_id", corrID, "server_id", op.remoteID, "error", callErr)
		} else if !op.cancelled {
			c.removeLocked(corrID)
			changed = true
			note = &Notification{Err: callErr, Message: "failed to publish, try again"}
		}

	case op.cancelled:
		// Пользователь отменил запись до подтверждения: локально ее уже
		// нет, а на сервере она появилась — компенсируем удалением.
		c.removeLocked(confirmed.ID)
		changed = true
		compensateID = confirmed.ID

	default:
		entry := confirmed.Clone()
		entry.Status = models.StatusConfirmed
		if op.remoteID != "" || c.indexLocked(entry.ID) >= 0 {
			// Push-событие успело согласовать запись: не вставляем вторую
			// копию, только снимаем pending остаток, если он есть.
			c.removeLocked(corrID)
		} else {
			c.replaceLocked(corrID, entry)
		}
		changed = true
		note = &Notification{Message: "published"}
	}

	if changed {
		c.emitLocked()
	}
	c.mu.Unlock()

	if note != nil {
		c.notifier.Notify(*note)
	}
	if compensateID != "" {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), cancelTimeout)
			defer cancel()
			if err := c.cfg.Backend.Delete(ctx, compensateID); err != nil {
				c.logger.Warn("failed to delete cancelled entry", "id", compensateID, "error", err)
			}
		}()
	}
}

// SubmitDelete оптимистично удаляет запись и запускает авторитетное
// удаление. Удаление pending записи — локальная отмена без сетевого
// вызова. Неудачное удаление видимо откатывается: запись возвращается
// на исходную позицию.
func (c *Collection) SubmitDelete(ctx context.Context, id string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}

	idx := c.indexLocked(id)
	if idx < 0 {
		c.mu.Unlock()
		return ErrNotFound
	}
	entry := c.entries[idx]

	if entry.IsPending() {
		// Отмена: create еще в полете, resolveCreate компенсирует
		if op, ok := c.pending[id]; ok {
			op.cancelled = true
		}
		c.removeLocked(id)
		c.emitLocked()
		c.mu.Unlock()
		return nil
	}

	c.removeLocked(id)
	c.pending[id] = &pendingOp{
		correlationID: id,
		kind:          opDelete,
		submittedAt:   c.now(),
		removed:       entry,
	}
	c.emitLocked()
	c.mu.Unlock()

	go c.runDelete(ctx, id)
	return nil
}

// runDelete выполняет авторитетное удаление и согласует результат
func (c *Collection) runDelete(ctx context.Context, id string) {
	err := c.cfg.Backend.Delete(ctx, id)
	c.resolveDelete(id, err)
}

// resolveDelete обрабатывает ответ сервера на delete
func (c *Collection) resolveDelete(id string, callErr error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	op, ok := c.pending[id]
	if !ok {
		c.mu.Unlock()
		return
	}
	delete(c.pending, id)

	var note *Notification
	if callErr != nil && !op.remoteDeleted {
		// Откат: запись возвращается на исходную позицию,
		// порядок восстанавливается сортировкой по created_at
		c.insertLocked(op.removed)
		c.emitLocked()
		note = &Notification{Err: callErr, Message: "failed to delete, entry restored"}
	}
	c.mu.Unlock()

	if note != nil {
		c.notifier.Notify(*note)
	}
}

// ApplyRemoteInsert обрабатывает push-событие вставки от любого клиента.
// Идемпотентно: запись с уже известным серверным id игнорируется.
// Echo собственной записи (по client_ref, либо эвристически) схлопывается
// с pending копией — коллекция никогда не показывает обе одновременно.
func (c *Collection) ApplyRemoteInsert(remote *models.Entry) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	if c.indexLocked(remote.ID) >= 0 {
		c.mu.Unlock()
		return
	}

	entry := remote.Clone()
	entry.Status = models.StatusConfirmed

	// Точное сопоставление: сервер echo-ит client_ref создателя
	if op, ok := c.pending[entry.ClientRef]; ok && op.kind == opCreate && op.remoteID == "" {
		c.collapseEchoLocked(op, entry)
		c.emitLocked()
		c.mu.Unlock()
		return
	}

	// Fallback-эвристика для событий без client_ref:
	// тот же автор, то же содержимое, близкий timestamp
	for corrID, op := range c.pending {
		if op.kind != opCreate || op.cancelled || op.remoteID != "" {
			continue
		}
		idx := c.indexLocked(corrID)
		if idx >= 0 && likelyEcho(c.entries[idx], entry) {
			c.collapseEchoLocked(op, entry)
			c.emitLocked()
			c.mu.Unlock()
			return
		}
	}

	c.insertLocked(entry)
	c.emitLocked()
	c.mu.Unlock()
}

// collapseEchoLocked заменяет pending запись операции op подтвержденной
// записью entry, пришедшей push-каналом
func (c *Collection) collapseEchoLocked(op *pendingOp, entry *models.Entry) {
	op.remoteID = entry.ID
	if op.cancelled {
		// Запись отменена локально: echo не вставляем,
		// компенсирующее удаление выполнит resolveCreate
		return
	}
	if c.indexLocked(op.correlationID) >= 0 {
		c.replaceLocked(op.correlationID, entry)
	} else {
		c.insertLocked(entry)
	}
}

// ApplyRemoteDelete обрабатывает push-событие удаления.
// Идемпотентно: отсутствующий id — no-op. Pending записи имеют только
// локальные id и push-событиями не удаляются.
func (c *Collection) ApplyRemoteDelete(id string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	// Локальное удаление этой записи уже в полете: помечаем,
	// чтобы неудачный ответ сервера не откатил уже удаленное
	if op, ok := c.pending[id]; ok && op.kind == opDelete {
		op.remoteDeleted = true
	}

	idx := c.indexLocked(id)
	if idx < 0 || c.entries[idx].IsPending() {
		c.mu.Unlock()
		return
	}

	c.removeLocked(id)
	c.emitLocked()
	c.mu.Unlock()
}

// Close останавливает коллекцию. Все последующие операции и завершения
// ранее запущенных вызовов становятся no-op. Обязательный контракт
// teardown: вызывается при размонтировании фичи вместе с отпиской
// от push-канала.
func (c *Collection) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

// Snapshot возвращает копию записей в порядке отображения
func (c *Collection) Snapshot() []models.Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// PendingCount возвращает количество pending записей в коллекции
func (c *Collection) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for _, e := range c.entries {
		if e.IsPending() {
			count++
		}
	}
	return count
}

// Len возвращает количество записей в коллекции
func (c *Collection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// less определяет порядок отображения записей
func (c *Collection) less(a, b *models.Entry) bool {
	if c.cfg.Order == OrderDesc {
		return b.Before(a)
	}
	return a.Before(b)
}

// sortLocked сортирует коллекцию целиком (после Load)
func (c *Collection) sortLocked() {
	sort.SliceStable(c.entries, func(i, j int) bool {
		return c.less(c.entries[i], c.entries[j])
	})
}

// indexLocked возвращает позицию записи по id, -1 если нет
func (c *Collection) indexLocked(id string) int {
	for i, e := range c.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// insertLocked вставляет запись на позицию, которую диктует порядок
func (c *Collection) insertLocked(entry *models.Entry) {
	idx := sort.Search(len(c.entries), func(i int) bool {
		return c.less(entry, c.entries[i])
	})
	c.entries = append(c.entries, nil)
	copy(c.entries[idx+1:], c.entries[idx:])
	c.entries[idx] = entry
}

// removeLocked удаляет запись по id, возвращает ее или nil
func (c *Collection) removeLocked(id string) *models.Entry {
	idx := c.indexLocked(id)
	if idx < 0 {
		return nil
	}
	entry := c.entries[idx]
	c.entries = append(c.entries[:idx], c.entries[idx+1:]...)
	return entry
}

// replaceLocked заменяет запись id подтвержденной записью на том же месте.
// Позиция меняется только если серверный created_at действительно
// нарушает порядок относительно соседей.
func (c *Collection) replaceLocked(id string, entry *models.Entry) {
	idx := c.indexLocked(id)
	if idx < 0 {
		c.insertLocked(entry)
		return
	}
	c.entries[idx] = entry

	inOrder := (idx == 0 || !c.less(entry, c.entries[idx-1])) &&
		(idx == len(c.entries)-1 || !c.less(c.entries[idx+1], entry))
	if !inOrder {
		c.entries = append(c.entries[:idx], c.entries[idx+1:]...)
		c.insertLocked(entry)
	}
}

// snapshotLocked возвращает копию коллекции для слоя представления
func (c *Collection) snapshotLocked() []models.Entry {
	snap := make([]models.Entry, len(c.entries))
	for i, e := range c.entries {
		snap[i] = *e
	}
	return snap
}

// emitLocked передает снимок в OnChange callback под мьютексом.
// Удержание блокировки гарантирует, что снимки доставляются строго
// в порядке мутаций: без этого поздний снимок может обогнать ранний,
// и слой представления останется на устаревшем состоянии.
func (c *Collection) emitLocked() {
	if c.cfg.OnChange == nil {
		return
	}
	c.cfg.OnChange(c.snapshotLocked())
}

// removeByID удаляет запись с заданным id из среза, сохраняя порядок
func removeByID(entries []*models.Entry, id string) []*models.Entry {
	for i, e := range entries {
		if e.ID == id {
			return append(entries[:i], entries[i+1:]...)
		}
	}
	return entries
}

// likelyEcho эвристически определяет, является ли push-событие remote
// echo локальной pending записи local. Используется только когда
// событие не несет client_ref.
func likelyEcho(local, remote *models.Entry) bool {
	if !local.IsPending() {
		return false
	}
	if local.AuthorID != remote.AuthorID ||
		local.ParentID != remote.ParentID ||
		local.Kind != remote.Kind ||
		local.Content != remote.Content {
		return false
	}
	delta := remote.CreatedAt.Sub(local.CreatedAt)
	if delta < 0 {
		delta = -delta
	}
	return delta <= echoWindow
}
