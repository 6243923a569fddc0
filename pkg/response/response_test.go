package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("响应不是合法 JSON: %v", err)
	}
	return body
}

func TestOKPage_TotalPages(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	OKPage(c, []int{1, 2}, 21, 1, 10)

	body := decode(t, w)
	p := body["data"].(map[string]interface{})["pagination"].(map[string]interface{})
	if p["total_pages"].(float64) != 3 {
		t.Errorf("期望 3 页，实际 %v", p["total_pages"])
	}
}

func TestUnprocessable_CarriesDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Unprocessable(c, 20001, "日报校验未通过", []string{"缺少日期", "缺少编号"})

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("期望 422，实际 %d", w.Code)
	}
	body := decode(t, w)
	if d, ok := body["details"].([]interface{}); !ok || len(d) != 2 {
		t.Errorf("details 应为 2 条问题，实际 %v", body["details"])
	}
	if body["code"].(float64) != 20001 {
		t.Errorf("业务码不正确: %v", body["code"])
	}
}
