package metadata

import (
	"encoding/json"
	"errors"
	"sort"
	"time"

	"gorm.io/gorm"

	"autograph-ds-builder/utils"
)

var ErrRunNotFound = errors.New("run not found")

func toJSON(schema interface{}) (string, error) {
	bytes, err := json.Marshal(schema)
	if err != nil {
		return "", utils.WrapError(err, "marshal json fail")
	}
	return string(bytes), nil
}

// CreateRun 新建一条 DOING 状态的运行记录，snapshot 为运行时配置。
func (s *Store) CreateRun(runKey, stage string, seed uint64, outputDir string, snapshot interface{}) (*Run, error) {
	run := Run{
		RunKey:    runKey,
		Stage:     stage,
		Status:    RunStatusDoing,
		Seed:      seed,
		OutputDir: outputDir,
	}

	if snapshot != nil {
		content, err := toJSON(snapshot)
		if err != nil {
			return nil, err
		}
		run.ExtraType.String, run.ExtraType.Valid = ExtraTypeConfig, true
		run.ExtraJSON.String, run.ExtraJSON.Valid = content, true
	}

	if err := s.db.Create(&run).Error; err != nil {
		return nil, utils.WrapErrorf(err, "create run [%s] fail", runKey)
	}
	return &run, nil
}

func (s *Store) finish(runID uint, updates map[string]interface{}) error {
	now := time.Now()
	updates["finished_at"] = &now

	result := s.db.Model(&Run{}).Where("id = ?", runID).Updates(updates)
	if result.Error != nil {
		return utils.WrapErrorf(result.Error, "update run [%d] fail", runID)
	}
	if result.RowsAffected == 0 {
		return utils.WrapErrorf(ErrRunNotFound, "update run [%d] fail", runID)
	}
	return nil
}

// FinishRun 标记运行成功，并保存 stage -> counter -> value 形式的计数器。
func (s *Store) FinishRun(runID uint, counters map[string]map[string]int64) error {
	content, err := toJSON(counters)
	if err != nil {
		return err
	}
	return s.finish(runID, map[string]interface{}{
		"status":        RunStatusDone,
		"counters_json": content,
	})
}

func (s *Store) FailRun(runID uint, cause error) error {
	message := ""
	if cause != nil {
		message = cause.Error()
	}
	return s.finish(runID, map[string]interface{}{
		"status":  RunStatusFail,
		"message": message,
	})
}

/*
SaveRelations 保存剪枝前每个关系的组合数 groups；dropped 中的关系记为未保留。
*/
func (s *Store) SaveRelations(runID uint, groups map[string]int, dropped map[string]int) error {
	names := make([]string, 0, len(groups)+len(dropped))
	counts := make(map[string]int, len(groups)+len(dropped))
	for name, cnt := range groups {
		names = append(names, name)
		counts[name] = cnt
	}
	for name, cnt := range dropped {
		if _, ok := counts[name]; !ok {
			names = append(names, name)
		}
		counts[name] = cnt
	}
	if len(names) == 0 {
		return nil
	}
	sort.Strings(names)

	rows := make([]RunRelation, 0, len(names))
	for _, name := range names {
		_, isDropped := dropped[name]
		rows = append(rows, RunRelation{
			RunID:  runID,
			Name:   name,
			Groups: counts[name],
			Kept:   !isDropped,
		})
	}

	if err := s.db.CreateInBatches(&rows, 500).Error; err != nil {
		return utils.WrapErrorf(err, "save relations of run [%d] fail", runID)
	}
	return nil
}

func (s *Store) SaveSplits(runID uint, splits []RunSplit) error {
	if len(splits) == 0 {
		return nil
	}
	for i := range splits {
		splits[i].RunID = runID
	}
	if err := s.db.Create(&splits).Error; err != nil {
		return utils.WrapErrorf(err, "save splits of run [%d] fail", runID)
	}
	return nil
}

// ListRuns 按创建时间倒序返回最近的 limit 条运行记录，不含关联数据。
func (s *Store) ListRuns(limit int) ([]Run, error) {
	var runs []Run
	query := s.db.Order("id desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&runs).Error; err != nil {
		return nil, utils.WrapError(err, "list runs fail")
	}
	return runs, nil
}

func (s *Store) getRun(query string, arg interface{}) (*Run, error) {
	var run Run
	err := s.db.
		Preload("Relations", func(db *gorm.DB) *gorm.DB { return db.Order("name") }).
		Preload("Splits", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where(query, arg).
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.WrapErrorf(ErrRunNotFound, "get run [%v] fail", arg)
	}
	if err != nil {
		return nil, utils.WrapErrorf(err, "get run [%v] fail", arg)
	}
	return &run, nil
}

func (s *Store) GetRun(runID uint) (*Run, error) {
	return s.getRun("id = ?", runID)
}

func (s *Store) GetRunByKey(runKey string) (*Run, error) {
	return s.getRun("run_key = ?", runKey)
}
