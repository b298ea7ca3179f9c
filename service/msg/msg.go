package msg

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"rto_engine/service/order"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translation "github.com/go-playground/validator/v10/translations/en"
	zh_translation "github.com/go-playground/validator/v10/translations/zh"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

type Response struct {
	Code   int             `json:"code"`
	Status string          `json:"status"`
	Msg    any             `json:"msg"`
	Data   *map[string]any `json:"data"`
}

type ErrResponseST struct {
	Code   int             `json:"code"`
	Status string          `json:"status"`
	Msg    any             `json:"msg"`
	Data   *map[string]any `json:"data"`
	Err    any             `json:"error"`
	Kind   string          `json:"kind,omitempty"`
}

var (
	trans     ut.Translator
	transOnce sync.Once
	transErr  error
)

// Language 校验错误的翻译语言
var Language = "en"

func initTranslator(language string) error {
	//转换成go-playground的validator
	validate, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}

	//第一个参数是备用语言，后面的是应当支持的语言
	uni := ut.New(en.New(), en.New(), zh.New())
	trans, ok = uni.GetTranslator(language)
	if !ok {
		return fmt.Errorf("not found translator %s", language)
	}

	//绑定到gin的验证器上，对binding的tag进行翻译
	switch language {
	case "zh":
		return zh_translation.RegisterDefaultTranslations(validate, trans)
	default:
		return en_translation.RegisterDefaultTranslations(validate, trans)
	}
}

func translator() (ut.Translator, error) {
	transOnce.Do(func() { transErr = initTranslator(Language) })
	return trans, transErr
}

func remove(errors map[string]string) map[string]string {
	result := map[string]string{}
	for key, value := range errors {
		result[key[strings.Index(key, ".")+1:]] = value
	}
	return result
}

func SuccessResponse(msg string, dataPtr *map[string]any) *Response {
	if dataPtr == nil {
		emptyMap := make(map[string]any)
		dataPtr = &emptyMap
	}
	return &Response{
		Code:   200,
		Status: StatusSuccess,
		Msg:    msg,
		Data:   dataPtr,
	}
}

func SuccessResponseStr(msg string) *Response {
	return SuccessResponse(msg, nil)
}

// Data 把单个对象包成 data.key
func Data(key string, value any) *map[string]any {
	return &map[string]any{key: value}
}

// ErrResponse 参数错误，校验错误按字段翻译
func ErrResponse(msg string, err error) *ErrResponseST {
	resp := &ErrResponseST{
		Code:   201,
		Status: StatusError,
		Msg:    msg,
		Data:   &map[string]any{},
		Kind:   order.KindInvalidInput.String(),
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		if t, terr := translator(); terr == nil && t != nil {
			resp.Err = remove(verrs.Translate(t))
			return resp
		}
	}
	if err != nil {
		resp.Err = err.Error()
	}
	return resp
}

func ErrResponseStr(msg string) *ErrResponseST {
	return &ErrResponseST{
		Code:   201,
		Status: StatusError,
		Msg:    msg,
		Data:   &map[string]any{},
		Err:    "",
	}
}

// FromError 把业务错误转换为HTTP状态码和错误响应
func FromError(err error) (int, *ErrResponseST) {
	httpStatus := http.StatusInternalServerError
	kind := order.KindOf(err)
	switch kind {
	case order.KindNotFound:
		httpStatus = http.StatusNotFound
	case order.KindInvalidTransition, order.KindConflict:
		httpStatus = http.StatusConflict
	case order.KindInvalidInput:
		httpStatus = http.StatusBadRequest
	}

	resp := &ErrResponseST{
		Code:   201,
		Status: StatusError,
		Data:   &map[string]any{},
		Kind:   kind.String(),
		Err:    "",
	}
	var appErr *order.Error
	if errors.As(err, &appErr) {
		resp.Msg = appErr.Message
		// 存储失败附带底层错误文本
		if appErr.Kind == order.KindStore || appErr.Kind == order.KindConflict {
			resp.Err = appErr.Detail()
		}
	} else {
		resp.Msg = "internal error"
		resp.Err = err.Error()
	}
	return httpStatus, resp
}
