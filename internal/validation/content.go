package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// MaxContentLen максимальная длина текстового содержимого записи (в рунах)
	MaxContentLen = 4000
	// MaxSpaceNameLen максимальная длина названия пространства
	MaxSpaceNameLen = 64
	// MaxDisplayNameLen максимальная длина отображаемого имени
	MaxDisplayNameLen = 64
)

// ValidateContent проверяет текстовое содержимое записи (подпись, комментарий,
// сообщение). Пустое после trim содержимое отклоняется до любого сетевого
// вызова — reconciler не создает pending запись для невалидного ввода.
func ValidateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("content cannot be empty")
	}

	if utf8.RuneCountInString(content) > MaxContentLen {
		return fmt.Errorf("content must not exceed %d characters", MaxContentLen)
	}

	return nil
}

// ValidateSpaceName проверяет название пространства
func ValidateSpaceName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("space name cannot be empty")
	}

	if utf8.RuneCountInString(trimmed) > MaxSpaceNameLen {
		return fmt.Errorf("space name must not exceed %d characters", MaxSpaceNameLen)
	}

	return nil
}

// ValidateDisplayName проверяет отображаемое имя пользователя.
// Пустое имя допустимо — вместо него показывается username.
func ValidateDisplayName(name string) error {
	if utf8.RuneCountInString(name) > MaxDisplayNameLen {
		return fmt.Errorf("display name must not exceed %d characters", MaxDisplayNameLen)
	}

	return nil
}
