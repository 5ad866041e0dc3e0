package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"autograph-ds-builder/logging"
	"autograph-ds-builder/repository/metadata"
	"autograph-ds-builder/server/common"
	"autograph-ds-builder/utils"
)

func GetRunInfo(ctx *gin.Context) {
	if globalSetting.Metadata == nil {
		ctx.JSON(http.StatusServiceUnavailable, common.MakeErrorResp(common.CodeUnavailable, "metadata not configured"))
		return
	}

	handler := getRunInfoHandler{
		ctx: ctx,
	}

	if err := handler.checkParam(); err != nil {
		logging.Default().WithError(err).Errorf("parse req error: %s", err.Error())
		ctx.JSON(http.StatusBadRequest, common.MakeErrorResp(common.CodeBadRequest, err.Error()))
		return
	}

	resp, err := handler.produce()
	if errors.Is(err, metadata.ErrRunNotFound) {
		ctx.JSON(http.StatusNotFound, common.MakeErrorResp(common.CodeNotFound, "run not found"))
		return
	}
	if err != nil {
		logging.Default().WithError(err).Errorf("produce error: %s", err.Error())
		ctx.JSON(http.StatusInternalServerError, common.MakeUnknownErrorResp())
		return
	}

	ctx.JSON(http.StatusOK, common.MakeSuccessResp(resp))
}

type getRunInfoHandler struct {
	ctx *gin.Context

	// params
	id uint
}

type runRelationSchema struct {
	Name   string `json:"name"`
	Groups int    `json:"groups"`
	Kept   bool   `json:"kept"`
}

type runSplitSchema struct {
	Name      string `json:"name"`
	Triples   int    `json:"triples"`
	Lines     int    `json:"lines"`
	Sentences int    `json:"sentences"`
}

type getRunInfoResp struct {
	ID         uint                        `json:"id"`
	RunKey     string                      `json:"run_key"`
	Stage      string                      `json:"stage"`
	Status     uint                        `json:"status"`
	Seed       uint64                      `json:"seed"`
	OutputDir  string                      `json:"output_dir"`
	Message    string                      `json:"message,omitempty"`
	StartTime  string                      `json:"start_time"`
	FinishTime string                      `json:"finish_time,omitempty"`
	Counters   map[string]map[string]int64 `json:"counters,omitempty"`
	Relations  []runRelationSchema         `json:"relations"`
	Splits     []runSplitSchema            `json:"splits"`
}

func (h *getRunInfoHandler) checkParam() error {
	id := h.ctx.Param("id")

	if len(id) == 0 {
		return utils.WrapError(common.ErrRequestParamEmpty, "path param 'id' is empty")
	}

	idInteger, err := strconv.Atoi(id)
	if err != nil {
		return utils.WrapErrorf(err, "atoi(%#v) fail", id)
	}

	if idInteger <= 0 {
		return utils.WrapErrorf(common.ErrRequestParamInvalid, "id(%d) must be positive", idInteger)
	}

	h.id = uint(idInteger)

	return nil
}

func (h *getRunInfoHandler) produce() (*getRunInfoResp, error) {
	run, err := globalSetting.Metadata.GetRun(h.id)
	if err != nil {
		return nil, err
	}

	resp := getRunInfoResp{
		ID:        run.ID,
		RunKey:    run.RunKey,
		Stage:     run.Stage,
		Status:    run.Status,
		Seed:      run.Seed,
		OutputDir: run.OutputDir,
		Message:   run.Message,
		StartTime: run.CreatedAt.Format(time.RFC3339),
		Relations: make([]runRelationSchema, 0, len(run.Relations)),
		Splits:    make([]runSplitSchema, 0, len(run.Splits)),
	}
	if run.FinishedAt != nil {
		resp.FinishTime = run.FinishedAt.Format(time.RFC3339)
	}
	if len(run.CountersJSON) != 0 {
		if err := json.Unmarshal([]byte(run.CountersJSON), &resp.Counters); err != nil {
			return nil, utils.WrapErrorf(err, "json unmarshal counters of run [%d] fail", run.ID)
		}
	}
	for _, relation := range run.Relations {
		resp.Relations = append(resp.Relations, runRelationSchema{
			Name:   relation.Name,
			Groups: relation.Groups,
			Kept:   relation.Kept,
		})
	}
	for _, split := range run.Splits {
		resp.Splits = append(resp.Splits, runSplitSchema{
			Name:      split.Name,
			Triples:   split.Triples,
			Lines:     split.Lines,
			Sentences: split.Sentences,
		})
	}

	return &resp, nil
}
