package utils

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// ToNullTimestamptz converts a *time.Time to a pgtype.Timestamptz.
// A nil pointer is considered invalid (NULL).
func ToNullTimestamptz(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{Valid: false}
	}
	return pgtype.Timestamptz{
		Time:  t.UTC(),
		Valid: true,
	}
}

// FromNullTimestamptz converts a pgtype.Timestamptz to a *time.Time.
// A NULL value is converted to nil.
func FromNullTimestamptz(ts pgtype.Timestamptz) *time.Time {
	if !ts.Valid {
		return nil
	}
	t := ts.Time.UTC()
	return &t
}

// ToTimestamptz converts a time.Time to a non-null pgtype.Timestamptz.
func ToTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{
		Time:  t.UTC(),
		Valid: true,
	}
}

// ToUUID converts a [16]byte-compatible id to a pgtype.UUID.
// The zero id is considered invalid (NULL).
func ToUUID(id [16]byte) pgtype.UUID {
	return pgtype.UUID{
		Bytes: id,
		Valid: id != [16]byte{},
	}
}

// NonNilStrings replaces a nil slice with an empty one so array columns
// are written as '{}' rather than NULL.
func NonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
