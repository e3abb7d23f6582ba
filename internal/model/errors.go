package model

import "errors"

// ErrCode はハンドラ層がHTTPステータスへ変換するためのエラー種別です
type ErrCode string

const (
	CodeNotFound          ErrCode = "NOT_FOUND"
	CodeInvalidRange      ErrCode = "INVALID_RANGE"
	CodeUnavailable       ErrCode = "UNAVAILABLE"
	CodeDuplicateBill     ErrCode = "DUPLICATE_BILL"
	CodeUnauthorized      ErrCode = "UNAUTHORIZED"
	CodeInvalidStatus     ErrCode = "INVALID_STATUS"
	CodeInvalidTransition ErrCode = "INVALID_TRANSITION"
	CodeAlreadyCancelled  ErrCode = "ALREADY_CANCELLED"
	CodeCapacityExceeded  ErrCode = "CAPACITY_EXCEEDED"
	CodeDuplicateRoom     ErrCode = "DUPLICATE_ROOM"
	CodeInvalidRoom       ErrCode = "INVALID_ROOM"
)

// codedError は比較可能なので errors.Is でそのまま判定できます
type codedError struct {
	code ErrCode
	msg  string
}

func (e codedError) Error() string { return e.msg }
func (e codedError) Code() ErrCode { return e.code }

var (
	ErrRoomNotFound         error = codedError{CodeNotFound, "room not found"}
	ErrReservationNotFound  error = codedError{CodeNotFound, "reservation not found"}
	ErrBillNotFound         error = codedError{CodeNotFound, "bill not found"}
	ErrNotificationNotFound error = codedError{CodeNotFound, "notification not found"}
	ErrInvalidDateRange     error = codedError{CodeInvalidRange, "check-in must be before check-out"}
	ErrRoomUnavailable      error = codedError{CodeUnavailable, "room is not available for the requested dates"}
	ErrDuplicateBill        error = codedError{CodeDuplicateBill, "bill already exists for reservation"}
	ErrUnauthorized         error = codedError{CodeUnauthorized, "caller is not allowed to perform this operation"}
	ErrInvalidStatus        error = codedError{CodeInvalidStatus, "unrecognized status"}
	ErrInvalidTransition    error = codedError{CodeInvalidTransition, "status transition is not allowed"}
	ErrAlreadyCancelled     error = codedError{CodeAlreadyCancelled, "reservation is already cancelled"}
	ErrCapacityExceeded     error = codedError{CodeCapacityExceeded, "guest count exceeds room capacity"}
	ErrDuplicateRoom        error = codedError{CodeDuplicateRoom, "room number already exists in hotel"}
	ErrInvalidRoom          error = codedError{CodeInvalidRoom, "room attributes are invalid"}
)

// Code はエラーチェーンからエラー種別を取り出します。該当しない場合は空文字を返します
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}
