package mail

import "errors"

var (
	ErrFailedToSend      = errors.New("mail: failed to send email")
	ErrInvalidConfig     = errors.New("mail: invalid config")
	ErrRecipientRequired = errors.New("mail: recipient is required")
	ErrInvalidRecipient  = errors.New("mail: recipient is not a valid email address")
	ErrSubjectRequired   = errors.New("mail: subject is required")
	ErrBodyRequired      = errors.New("mail: message body is required")
)
