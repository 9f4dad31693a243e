package reminder

// PermissionStatus is a chat's answer to the reminder permission prompt.
type PermissionStatus string

const (
	PermissionNotDetermined PermissionStatus = "NOT_DETERMINED"
	PermissionPending       PermissionStatus = "PENDING" // Prompt sent, no answer yet
	PermissionGranted       PermissionStatus = "GRANTED"
	PermissionDenied        PermissionStatus = "DENIED"
)

// Determined reports whether the prompt must not be shown again.
func (p PermissionStatus) Determined() bool {
	return p != PermissionNotDetermined
}
