package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAuthKey(t *testing.T) {
	tests := []struct {
		name    string
		errMsg  string
		authKey []byte
		wantErr bool
	}{
		{
			name:    "производный ключ после Argon2id",
			authKey: []byte("derived-auth-key-alice-0123456789abcdef"),
		},
		{
			name:    "пустой ключ",
			authKey: []byte{},
			wantErr: true,
			errMsg:  "auth key cannot be empty",
		},
		{
			name:    "nil ключ",
			authKey: nil,
			wantErr: true,
			errMsg:  "auth key cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashAuthKey(tt.authKey)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.Empty(t, hash)
				return
			}

			require.NoError(t, err)
			// hex SHA256: ровно 64 символа
			assert.Regexp(t, "^[a-f0-9]{64}$", hash)
		})
	}
}

// Клиент и сервер хешируют независимо, поэтому хеш обязан быть
// детерминированным и совпадать с известным вектором
func TestHashAuthKey_Deterministic(t *testing.T) {
	hash1, err := HashAuthKey([]byte("derived-auth-key-alice"))
	require.NoError(t, err)
	hash2, err := HashAuthKey([]byte("derived-auth-key-alice"))
	require.NoError(t, err)
	assert.Equal(t, hash1, hash2)

	known, err := HashAuthKey([]byte("test"))
	require.NoError(t, err)
	assert.Equal(t, "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08", known)
}

func TestVerifyAuthKey(t *testing.T) {
	validKey := []byte("derived-auth-key-alice")
	validHash, err := HashAuthKey(validKey)
	require.NoError(t, err)

	tests := []struct {
		name       string
		storedHash string
		errMsg     string
		authKey    []byte
		wantErr    bool
	}{
		{
			name:       "верный ключ",
			authKey:    validKey,
			storedHash: validHash,
		},
		{
			name:       "чужой ключ",
			authKey:    []byte("derived-auth-key-mallory"),
			storedHash: validHash,
			wantErr:    true,
			errMsg:     "invalid auth key",
		},
		{
			name:       "хеш другой длины",
			authKey:    validKey,
			storedHash: "deadbeef",
			wantErr:    true,
			errMsg:     "invalid auth key",
		},
		{
			name:       "пустой ключ",
			authKey:    nil,
			storedHash: validHash,
			wantErr:    true,
			errMsg:     "auth key cannot be empty",
		},
		{
			name:    "пустой сохраненный хеш",
			authKey: validKey,
			wantErr: true,
			errMsg:  "stored auth key hash cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifyAuthKey(tt.authKey, tt.storedHash)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
		})
	}
}

// Полный круг регистрации: хешируем как клиент, проверяем как сервер
func TestHashAndVerify_RoundTrip(t *testing.T) {
	for _, key := range []string{
		"auth-key-alice",
		"auth-key-with-unicode-благодарность",
		"0123456789abcdef0123456789abcdef0123456789abcdef",
	} {
		t.Run(key, func(t *testing.T) {
			hash, err := HashAuthKey([]byte(key))
			require.NoError(t, err)

			require.NoError(t, VerifyAuthKey([]byte(key), hash))
			require.Error(t, VerifyAuthKey([]byte(key+"-tampered"), hash))
		})
	}
}
