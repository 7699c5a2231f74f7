package session

// CurrentSchemaVersion is the encoding version written by Encode.
const CurrentSchemaVersion = 1

// Session defines a public type used by backoffice APIs.
//
// Session instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Session struct {
	SessionID   string
	UserID      string
	Email       string
	DisplayName string

	Role        string
	Permissions []string

	// Dev marks a synthesized development-fallback session. Dev
	// sessions bypass the directory cross-check only while the engine
	// was built with the insecure dev flag on.
	Dev bool

	CreatedAt     int64
	ExpiresAt     int64
	RevalidatedAt int64

	SchemaVersion uint8
}

// StructurallyValid reports whether the record carries the minimum
// fields a cached session must have to be adopted at all. Permission
// semantics are the caller's concern.
func (s *Session) StructurallyValid() bool {
	return s != nil && s.UserID != "" && s.Email != "" && len(s.Permissions) > 0
}
