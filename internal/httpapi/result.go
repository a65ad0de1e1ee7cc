package httpapi

import (
	"encoding/json"
	"net/http"
)

// Result 面板前端统一的响应封装。业务失败也走 HTTP 200，
// 前端只看 code：2000 成功，其余都是失败。
type Result[T any] struct {
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
	Result  T      `json:"result"`
}

const (
	CodeOK    = 2000
	CodeError = -1
)

func Ok[T any](result T) Result[T] {
	return Result[T]{Code: CodeOK, Type: "success", Message: "ok", Result: result}
}

func Fail(message string) Result[any] {
	return Result[any]{Code: CodeError, Type: "error", Message: message, Result: nil}
}

// respond 写出统一封装。状态码恒为 200，业务成败由 code 表达；
// 非 200 只用于路由层（404）和文件下载。
func respond[T any](w http.ResponseWriter, result Result[T]) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(result)
}
