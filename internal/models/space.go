package models

import "time"

// SpaceKind константы для типов пространств
const (
	SpacePersonal = "personal" // личный журнал, виден только владельцу
	SpaceShared   = "shared"   // общая группа, доступна участникам
)

// Space представляет пространство: личный журнал благодарностей
// или общую группу с лентой фотографий и чатом.
type Space struct {
	CreatedAt time.Time `json:"created_at"` // время создания
	ID        string    `json:"id"`         // UUID пространства
	Name      string    `json:"name"`       // название
	Kind      string    `json:"kind"`       // personal или shared
	OwnerID   string    `json:"owner_id"`   // UUID владельца
}

// SpaceMember представляет участие пользователя в пространстве
type SpaceMember struct {
	JoinedAt time.Time `json:"joined_at"` // время вступления
	SpaceID  string    `json:"space_id"`  // UUID пространства
	UserID   string    `json:"user_id"`   // UUID участника
}
