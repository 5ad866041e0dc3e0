package common

const (
	CodeSuccess      = 0
	CodeUnknownError = 1
	CodeBadRequest   = 2
	CodeNotFound     = 3
	CodeUnavailable  = 4
)

type Resp struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Data interface{} `json:"data,omitempty"`
}

func MakeSuccessResp(data interface{}) *Resp {
	return &Resp{
		Code: CodeSuccess,
		Msg:  "success",
		Data: data,
	}
}

func MakeErrorResp(code int, msg string) *Resp {
	return &Resp{
		Code: code,
		Msg:  msg,
	}
}

func MakeUnknownErrorResp() *Resp {
	return MakeErrorResp(CodeUnknownError, "unknown error")
}
