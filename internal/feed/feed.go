// Package feed реализует оптимистичное согласование коллекций ленты.
//
// Коллекция (комментарии одного фото, сообщения одного чата) обновляется
// из трех независимых источников: локальные действия пользователя,
// ответ сервера на авторитетную запись и push-события других клиентов.
// Пакет гарантирует, что после согласования каждая логическая запись
// представлена в коллекции ровно один раз.
package feed

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/iudanet/gratilog/internal/models"
)

// Ошибки коллекции
var (
	// ErrClosed операция над закрытой (unmounted) коллекцией
	ErrClosed = errors.New("collection is closed")

	// ErrNotFound запись не найдена в коллекции
	ErrNotFound = errors.New("entry not found in collection")
)

// Order определяет порядок отображения коллекции
type Order int

const (
	// OrderAsc хронологический порядок (чат, комментарии)
	OrderAsc Order = iota
	// OrderDesc обратный хронологический порядок (лента фотографий)
	OrderDesc
)

//go:generate moq -out backend_mock.go . Backend

// Backend определяет авторитетные операции над одной коллекцией.
// Реализуется API клиентом; все вызовы уходят по сети.
type Backend interface {
	// Create выполняет авторитетную запись.
	// Возвращает подтвержденную запись с серверным id, серверным
	// created_at и echo client_ref.
	Create(ctx context.Context, entry *models.Entry) (*models.Entry, error)

	// Delete выполняет авторитетное удаление по серверному id
	Delete(ctx context.Context, id string) error

	// List возвращает все подтвержденные записи коллекции
	List(ctx context.Context, parentID string) ([]*models.Entry, error)
}

// Notification представляет сигнал для слоя представления (toast-аналог)
type Notification struct {
	Err     error  // не nil для ошибок
	Message string // человекочитаемое сообщение
}

// Notifier принимает success/failure сигналы reconciler.
// Никаких других побочных каналов у коллекции нет.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc адаптер функции к интерфейсу Notifier
type NotifierFunc func(n Notification)

// Notify вызывает функцию
func (f NotifierFunc) Notify(n Notification) { f(n) }

// localIDPrefix namespace локальных correlation id.
// Серверные id — UUID, коллизия с этим префиксом исключена.
const localIDPrefix = "local-"

// localSeq монотонный счетчик correlation id в рамках процесса
var localSeq atomic.Int64

// newLocalID генерирует correlation id, уникальный в рамках процесса
func newLocalID(nodeID string) string {
	return fmt.Sprintf("%s%s-%d", localIDPrefix, nodeID, localSeq.Add(1))
}

// Виды pending операций
const (
	opCreate = "create"
	opDelete = "delete"
)
