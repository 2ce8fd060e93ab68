// Package request разбирает тела и параметры запросов back-office.
package request

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/render"
)

// Int целое из JSON-числа или строки. Отсутствующее или нечисловое значение даёт 0.
type Int int

// UnmarshalJSON принимает 7, "7" и любое другое значение как 0.
func (i *Int) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*i = 0
			return nil
		}
		return i.UnmarshalText([]byte(s))
	}
	return i.UnmarshalText(data)
}

// UnmarshalText используется при разборе форм.
func (i *Int) UnmarshalText(text []byte) error {
	n, err := strconv.Atoi(strings.TrimSpace(string(text)))
	if err != nil {
		*i = 0
		return nil
	}
	*i = Int(n)
	return nil
}

// Decode разбирает тело запроса по Content-Type: JSON или форма.
func Decode(r *http.Request, v any) error {
	if render.GetRequestContentType(r) == render.ContentTypeForm {
		return render.DecodeForm(r.Body, v)
	}
	return render.DecodeJSON(r.Body, v)
}

// Page номер страницы из параметра page, по умолчанию 1.
func Page(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// Query строка поиска из параметра q без пробелов по краям.
func Query(r *http.Request) string {
	return strings.TrimSpace(r.URL.Query().Get("q"))
}
