package utils

import (
	"fmt"

	"github.com/pkg/errors"
)

/*
WrapError 为 err 附加上下文信息与调用栈，err 为 nil 时返回 nil。
*/
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, msg)
}

/*
WrapErrorf 同 WrapError，msg 由 format 与 args 生成。
*/
func WrapErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, fmt.Sprintf(format, args...))
}
