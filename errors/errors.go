package errors

import "fmt"

var (
	// ErrUnauthorizedIdentity rejects a connect attempt by an identity
	// absent from the directory. The transport must close the connection
	// without any state mutation.
	ErrUnauthorizedIdentity = fmt.Errorf("identity not in directory")

	// ErrUnknownRecipient rejects a direct message to an unknown identity.
	ErrUnknownRecipient = fmt.Errorf("unknown recipient")

	// ErrUnknownGroup rejects an operation on a group absent from the roster.
	ErrUnknownGroup = fmt.Errorf("unknown group")

	// ErrNotAGroupMember rejects a group message from a non-member sender.
	ErrNotAGroupMember = fmt.Errorf("sender is not a group member")

	// ErrMalformedFrame marks undecodable or ambiguously addressed inbound
	// data. The frame is dropped, the connection stays open.
	ErrMalformedFrame = fmt.Errorf("malformed frame")

	ErrInvalidCredentials = fmt.Errorf("invalid username or password")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
	ErrInvalidToken       = fmt.Errorf("invalid token")

	// ErrSinkUnavailable is the fast-fail result of delivering to a full or
	// closed connection buffer. The router converts it into an implicit
	// disconnect, it never reaches the sender.
	ErrSinkUnavailable = fmt.Errorf("connection sink unavailable")
)
