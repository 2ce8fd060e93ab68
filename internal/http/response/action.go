package response

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-backoffice/internal/models"
	"github.com/magabrotheeeer/subscription-backoffice/internal/services"
)

// Action пишет итог действия администратора. Предупреждение отдаётся как 200
// с level "warning", прочие ошибки сопоставляются через FromError.
func Action(w http.ResponseWriter, r *http.Request, res models.ActionResult, err error, subject string) {
	if err != nil && !services.IsWarning(err) {
		code, resp := FromError(err, subject)
		render.Status(r, code)
		render.JSON(w, r, resp)
		return
	}
	render.JSON(w, r, StatusOKWithData(res))
}

// Fail пишет ответ об ошибке с кодом code.
func Fail(w http.ResponseWriter, r *http.Request, code int, msg string) {
	render.Status(r, code)
	render.JSON(w, r, Error(msg))
}
