package cart

import (
	"regexp"
	"strings"

	pkgerrors "github.com/angelmondragon/foodcart-backend/pkg/errors"
	"github.com/google/uuid"
)

var sessionIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]{8,128}$`)

// userSessionPrefix namespaces signed-in carts. Anonymous ids may not use it.
const userSessionPrefix = "user-"

// Session identifies whose cart snapshots are being read or written. It is
// passed explicitly into every cart, checkout and order call.
type Session struct {
	ID     string
	UserID *uuid.UUID
	// GuestID is the anonymous session a signed-in request still carried.
	// Its snapshots are moved under ID once the user is known.
	GuestID string
}

// ResolveSession picks the snapshot namespace for a request. Authenticated
// users are keyed by user id so their cart follows them across devices;
// anonymous callers must present a session header.
func ResolveSession(headerValue string, userID *uuid.UUID) (Session, error) {
	headerValue = strings.TrimSpace(headerValue)
	if userID != nil && *userID != uuid.Nil {
		id := *userID
		sess := Session{ID: userSessionPrefix + id.String(), UserID: &id}
		if guest := (Session{ID: headerValue}); headerValue != "" && guest.Validate() == nil {
			sess.GuestID = headerValue
		}
		return sess, nil
	}
	sess := Session{ID: headerValue}
	if err := sess.Validate(); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// Validate checks the session id format.
func (s Session) Validate() error {
	if s.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart session is required")
	}
	if !sessionIDRe.MatchString(s.ID) {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart session is malformed")
	}
	if !s.Authenticated() && strings.HasPrefix(s.ID, userSessionPrefix) {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart session is malformed")
	}
	return nil
}

// Guest returns the anonymous session to merge, if any.
func (s Session) Guest() (Session, bool) {
	if !s.Authenticated() || s.GuestID == "" || s.GuestID == s.ID {
		return Session{}, false
	}
	return Session{ID: s.GuestID}, true
}

// Authenticated reports whether a user is attached to the session.
func (s Session) Authenticated() bool {
	return s.UserID != nil && *s.UserID != uuid.Nil
}
