package protocol

// ACK rejection codes.
const (
	ErrBadRequest = "E_BAD_REQUEST"
	ErrNotFound   = "E_NOT_FOUND"
	// ErrMapInvalid: the map file exists but does not parse or has dangling references.
	ErrMapInvalid = "E_MAP_INVALID"
	ErrInternal   = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrBadRequest: {},
	ErrNotFound:   {},
	ErrMapInvalid: {},
	ErrInternal:   {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
