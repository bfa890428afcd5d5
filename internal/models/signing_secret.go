package models

import (
	"time"

	"github.com/google/uuid"
)

// SigningSecret is the per-tenant symmetric key material behind voucher
// signatures. The secret is stored encrypted (AES-GCM) and only ever
// decrypted inside the signature service; it never crosses an API
// boundary in clear form.
type SigningSecret struct {
	ID         uuid.UUID `json:"id" db:"id"`
	TenantID   uuid.UUID `json:"tenant_id" db:"tenant_id"`
	Ciphertext []byte    `json:"-" db:"ciphertext"`
	Nonce      []byte    `json:"-" db:"nonce"`
	RotatedAt  time.Time `json:"rotated_at" db:"rotated_at"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
