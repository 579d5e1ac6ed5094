package shared

// Authorize implements the recurring admin-or-self capability check: admins
// may act on any resource, other callers only on resources they own.
func Authorize(caller Identity, resourceOwnerID int64) error {
	if caller.IsAdmin() {
		return nil
	}
	if caller.UserID == resourceOwnerID {
		return nil
	}
	return ErrForbidden
}

// RequireAdmin rejects callers without the admin role.
func RequireAdmin(caller Identity) error {
	if !caller.IsAdmin() {
		return ErrForbidden
	}
	return nil
}
