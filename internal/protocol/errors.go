package protocol

import (
	"errors"

	"github.com/danmuck/weechatpage/internal/protocol/wire"
)

var (
	ErrTruncatedInput = wire.ErrTruncatedInput
	ErrMalformedFrame = wire.ErrMalformedFrame

	ErrUnknownType     = errors.New("protocol: unknown object type")
	ErrTypeMismatch    = errors.New("protocol: object type mismatch")
	ErrMissingColumn   = errors.New("protocol: missing hdata column")
	ErrInvalidCount    = errors.New("protocol: invalid element count")
	ErrNestingTooDeep  = errors.New("protocol: object nesting too deep")
	ErrInvalidKeySpec  = errors.New("protocol: invalid hdata key spec")
	ErrUnexpectedShape = errors.New("protocol: unexpected message shape")
)
