package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// 请求体上限。告警批量可能带很大的 details 负载，开关类请求则很小。
const (
	maxIngestBody int64 = 4 << 20
	maxToggleBody int64 = 64 << 10
)

// decodeBody 按上限解码 JSON 请求体。本 API 的 POST 都要求有内容，
// 空请求体按解码失败处理。
func decodeBody(r *http.Request, limit int64, out any) error {
	return json.NewDecoder(io.LimitReader(r.Body, limit)).Decode(out)
}

// queryInt 读取正整数查询参数，缺失或非法时用默认值
func queryInt(r *http.Request, name string, def int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// arrayIDParam 按阵列查询的接口都要求 array_id，缺失时直接应答失败
func arrayIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	arrayID := strings.TrimSpace(r.URL.Query().Get("array_id"))
	if arrayID == "" {
		respond(w, Fail("array_id is required"))
		return "", false
	}
	return arrayID, true
}
