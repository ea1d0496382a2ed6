package booking

import "github.com/cockroachdb/errors"

var (
	// ErrProtocol 协议误用（响应 failed），状态不变
	ErrProtocol = errors.New("booking: protocol misuse")
	// ErrConflict 提交区间与已有预订相交（响应 conflict），选择锁已释放
	ErrConflict = errors.New("booking: conflict")
)

func protocolf(cause error, format string, args ...interface{}) error {
	if cause == nil {
		return errors.Mark(errors.Newf(format, args...), ErrProtocol)
	}
	return errors.Mark(errors.Wrapf(cause, format, args...), ErrProtocol)
}
