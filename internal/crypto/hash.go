package crypto

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// HashAuthKey сворачивает auth key в hex SHA256.
// Клиент хеширует производный ключ перед отправкой на сервер,
// сервер хранит и сравнивает только этот хеш. Сам auth key уже
// получен через Argon2id, поэтому соль здесь не нужна
func HashAuthKey(authKey []byte) (string, error) {
	if len(authKey) == 0 {
		return "", fmt.Errorf("auth key cannot be empty")
	}

	sum := sha256.Sum256(authKey)
	return hex.EncodeToString(sum[:]), nil
}

// VerifyAuthKey сверяет auth key с сохраненным хешем.
// Сравнение за константное время, чтобы не давать тайминговый оракул
// при подборе ключа
func VerifyAuthKey(authKey []byte, storedHash string) error {
	if len(authKey) == 0 {
		return fmt.Errorf("auth key cannot be empty")
	}
	if storedHash == "" {
		return fmt.Errorf("stored auth key hash cannot be empty")
	}

	computed, err := HashAuthKey(authKey)
	if err != nil {
		return fmt.Errorf("failed to compute auth key hash: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(computed), []byte(storedHash)) != 1 {
		return fmt.Errorf("invalid auth key")
	}

	return nil
}
