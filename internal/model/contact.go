package model

// Contact is keyed by UID. Created by explicit import or by receipt of
// a valid reciprocal-import ping; refreshed in place when a newer
// token for the same UID arrives; deleted only via smart delete.
type Contact struct {
	UID               string `db:"uid"`
	IP                string `db:"ip"`
	SigningPublicKey  []byte `db:"signing_public_key"`
	KxPublicKey       []byte `db:"kx_public_key"`
	ExpiryMillis      int64  `db:"expiry_ms"`
	IsActive          bool   `db:"is_active"`
}

// Expired reports whether the token that produced this contact record
// has passed its validity window as of nowMillis.
func (c *Contact) Expired(nowMillis int64) bool {
	return c.ExpiryMillis <= nowMillis
}
