package api

import "time"

// Entry представляет одну подтвержденную запись ленты:
// фотографию, комментарий, сообщение чата или реакцию.
type Entry struct {
	CreatedAt  time.Time `json:"created_at"`           // серверное время создания
	ID         string    `json:"id"`                   // серверный идентификатор записи
	ParentID   string    `json:"parent_id"`            // ключ коллекции (space, фото или чат)
	Kind       string    `json:"kind"`                 // тип записи: photo, comment, message, reaction
	AuthorID   string    `json:"author_id"`            // UUID автора
	AuthorName string    `json:"author_name"`          // отображаемое имя автора
	Content    string    `json:"content"`              // содержимое (подпись, текст, emoji)
	MediaURL   string    `json:"media_url,omitempty"`  // опциональная ссылка на объект (для фото)
	ClientRef  string    `json:"client_ref,omitempty"` // correlation id клиента, echo при подтверждении
}

// CreateEntryRequest представляет запрос на создание записи
type CreateEntryRequest struct {
	ParentID  string `json:"parent_id"`            // ключ коллекции
	Kind      string `json:"kind"`                 // тип записи
	Content   string `json:"content"`              // содержимое
	MediaURL  string `json:"media_url,omitempty"`  // опциональная ссылка на объект
	ClientRef string `json:"client_ref,omitempty"` // correlation id для сопоставления с echo
}

// EntriesResponse представляет список записей одной коллекции
type EntriesResponse struct {
	Entries []Entry `json:"entries"` // записи, упорядоченные по created_at
}

// Типы событий push-канала
const (
	ChangeInsert = "insert" // новая запись в коллекции
	ChangeDelete = "delete" // запись удалена
)

// ChangeEvent представляет одно событие push-канала для подписчиков топика.
// Для insert заполнено поле Entry, для delete — поле ID.
type ChangeEvent struct {
	Type  string `json:"type"`            // insert или delete
	Topic string `json:"topic"`           // parent_id коллекции
	Entry *Entry `json:"entry,omitempty"` // запись (для insert)
	ID    string `json:"id,omitempty"`    // идентификатор записи (для delete)
}

// CreateSpaceRequest представляет запрос на создание пространства
type CreateSpaceRequest struct {
	Name string `json:"name"` // название пространства
	Kind string `json:"kind"` // personal или shared
}

// Space представляет пространство (личный журнал или общую группу)
type Space struct {
	CreatedAt time.Time `json:"created_at"` // время создания
	ID        string    `json:"id"`         // UUID пространства
	Name      string    `json:"name"`       // название
	Kind      string    `json:"kind"`       // personal или shared
	OwnerID   string    `json:"owner_id"`   // UUID владельца
}

// SpacesResponse представляет список пространств пользователя
type SpacesResponse struct {
	Spaces []Space `json:"spaces"`
}
