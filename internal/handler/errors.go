package handler

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/uma-arai/sbcntr-hotel/internal/model"
)

// statusFor はエラー種別をHTTPステータスに変換します
func statusFor(code model.ErrCode) int {
	switch code {
	case model.CodeNotFound:
		return http.StatusNotFound
	case model.CodeInvalidRange, model.CodeInvalidStatus, model.CodeInvalidRoom:
		return http.StatusBadRequest
	case model.CodeUnavailable, model.CodeAlreadyCancelled, model.CodeDuplicateBill, model.CodeDuplicateRoom:
		return http.StatusConflict
	case model.CodeInvalidTransition, model.CodeCapacityExceeded:
		return http.StatusUnprocessableEntity
	case model.CodeUnauthorized:
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

func (h *Handler) fail(c echo.Context, op string, err error) error {
	code := model.Code(err)
	status := statusFor(code)
	if status == http.StatusInternalServerError {
		h.Log.Error(op, "err", err)
		return c.JSON(status, errorResp{Message: "internal error"})
	}
	h.Log.Info(op, "code", code, "err", err)
	return c.JSON(status, errorResp{Code: string(code), Message: err.Error()})
}

func badRequest(c echo.Context, err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  verrs.Error(),
		})
	}
	return c.JSON(http.StatusBadRequest, errorResp{Message: err.Error()})
}
