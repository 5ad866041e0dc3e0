package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"autograph-ds-builder/logging"
	"autograph-ds-builder/server/common"
	"autograph-ds-builder/utils"
)

const defaultListLimit = 20

func ListRun(ctx *gin.Context) {
	if globalSetting.Metadata == nil {
		ctx.JSON(http.StatusServiceUnavailable, common.MakeErrorResp(common.CodeUnavailable, "metadata not configured"))
		return
	}

	limit := defaultListLimit
	if raw := ctx.Query("limit"); len(raw) != 0 {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			logging.Default().Errorf("parse req error: invalid limit %#v", raw)
			ctx.JSON(http.StatusBadRequest, common.MakeErrorResp(common.CodeBadRequest, "limit must be a positive integer"))
			return
		}
		limit = n
	}

	res, err := listRun(limit)
	if err != nil {
		logging.Default().WithError(err).Errorf("ListRun produce error: %s", err.Error())
		ctx.JSON(http.StatusInternalServerError, common.MakeUnknownErrorResp())
		return
	}

	ctx.JSON(http.StatusOK, common.MakeSuccessResp(res))
}

type listRunItem struct {
	ID      uint   `json:"id"`
	RunKey  string `json:"run_key"`
	Stage   string `json:"stage"`
	Status  uint   `json:"status"`
	Time    int64  `json:"time"`
	TimeStr string `json:"time_str"`
}

func listRun(limit int) ([]listRunItem, error) {
	runs, err := globalSetting.Metadata.ListRuns(limit)
	if err != nil {
		return nil, utils.WrapError(err, "select runs fail")
	}

	ret := make([]listRunItem, 0, len(runs))
	for _, run := range runs {
		ret = append(ret, listRunItem{
			ID:      run.ID,
			RunKey:  run.RunKey,
			Stage:   run.Stage,
			Status:  run.Status,
			Time:    run.CreatedAt.Unix(),
			TimeStr: run.CreatedAt.Format(time.RFC3339),
		})
	}

	return ret, nil
}

