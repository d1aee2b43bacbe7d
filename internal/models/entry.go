package models

import "time"

// Kind константы для типов записей ленты
const (
	KindPhoto    = "photo"    // фотография с подписью (parent = space)
	KindComment  = "comment"  // комментарий (parent = фото)
	KindMessage  = "message"  // сообщение группового чата (parent = chat-топик space)
	KindReaction = "reaction" // реакция на фото (parent = фото, content = emoji)
)

// Status константы для состояния записи на клиенте.
// Сервер хранит и отдает только подтвержденные записи;
// pending существует только в локальной коллекции до ответа сервера.
const (
	StatusPending   = "pending"   // локальная запись, ожидает подтверждения сервера
	StatusConfirmed = "confirmed" // авторитетная запись с серверным id
)

// Entry представляет одну запись ленты: фотографию, комментарий,
// сообщение чата или реакцию. Одна и та же структура используется
// серверным хранилищем и клиентским reconciler.
type Entry struct {
	CreatedAt  time.Time `json:"created_at"`  // время создания (серверное для confirmed, локальное для pending)
	ID         string    `json:"id"`          // серверный id или локальный correlation id
	ParentID   string    `json:"parent_id"`   // ключ коллекции (space, фото или чат)
	Kind       string    `json:"kind"`        // тип записи
	AuthorID   string    `json:"author_id"`   // UUID автора
	AuthorName string    `json:"author_name"` // отображаемое имя автора
	Content    string    `json:"content"`     // содержимое (подпись, текст, emoji)
	MediaURL   string    `json:"media_url"`   // опциональная ссылка на объект (для фото)
	ClientRef  string    `json:"client_ref"`  // correlation id, которым клиент пометил создание
	Status     string    `json:"status"`      // pending или confirmed
	Deleted    bool      `json:"deleted"`     // флаг soft delete (только на сервере)
}

// IsPending сообщает, является ли запись локальной неподтвержденной.
// Единственное место, где проверяется состояние записи — остальной код
// не должен смотреть на префиксы идентификаторов.
func (e *Entry) IsPending() bool {
	return e.Status == StatusPending
}

// Before определяет хронологический порядок записей в коллекции.
// Сначала сравнивается CreatedAt, при равенстве — ID (детерминизм
// при одинаковых timestamp, как tie-break по NodeID в LWW).
func (e *Entry) Before(other *Entry) bool {
	if !e.CreatedAt.Equal(other.CreatedAt) {
		return e.CreatedAt.Before(other.CreatedAt)
	}
	return e.ID < other.ID
}

// Clone создает копию записи
func (e *Entry) Clone() *Entry {
	clone := *e
	return &clone
}

// ChatTopic возвращает ключ коллекции групповых сообщений пространства.
// Сообщения чата и фотографии живут в разных коллекциях одного space.
func ChatTopic(spaceID string) string {
	return spaceID + "/chat"
}
