package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"autograph-ds-builder/domain/record"
	"autograph-ds-builder/logging"
	"autograph-ds-builder/server/common"
	"autograph-ds-builder/utils"
)

func Link(ctx *gin.Context) {
	if globalSetting.Linker == nil {
		ctx.JSON(http.StatusServiceUnavailable, common.MakeErrorResp(common.CodeUnavailable, "entity index not loaded"))
		return
	}

	handler := linkHandler{ctx: ctx}

	if err := handler.checkParam(); err != nil {
		logging.Default().WithError(err).Errorf("parse req error: %s", err.Error())
		ctx.JSON(http.StatusBadRequest, common.MakeErrorResp(common.CodeBadRequest, err.Error()))
		return
	}

	ctx.JSON(http.StatusOK, common.MakeSuccessResp(handler.produce()))
}

type linkHandler struct {
	ctx *gin.Context

	// params
	sentence string
}

type linkReqSchema struct {
	Sentence string `json:"sentence"`
}

/*
linkRespSchema 与 linked.jsonl 中的记录一致；Ambiguous 为 true 表示句中有重复的实体文本，整句被丢弃。
*/
type linkRespSchema struct {
	Sent      string                 `json:"sent"`
	Matches   map[string]record.Span `json:"matches"`
	Ambiguous bool                   `json:"ambiguous"`
}

func (h *linkHandler) checkParam() error {
	var req linkReqSchema
	if err := h.ctx.BindJSON(&req); err != nil {
		return utils.WrapError(err, "bind req fail")
	}

	req.Sentence = strings.TrimSpace(req.Sentence)
	if len(req.Sentence) == 0 {
		return utils.WrapError(common.ErrRequestParamEmpty, "param sentence is empty")
	}

	h.sentence = req.Sentence
	return nil
}

func (h *linkHandler) produce() *linkRespSchema {
	matches, ok := globalSetting.Linker.Link(h.sentence)
	if !ok {
		return &linkRespSchema{Sent: h.sentence, Matches: map[string]record.Span{}, Ambiguous: true}
	}
	if matches == nil {
		matches = map[string]record.Span{}
	}
	return &linkRespSchema{Sent: h.sentence, Matches: matches}
}
