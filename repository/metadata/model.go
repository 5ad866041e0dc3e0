package metadata

import (
	"database/sql"
	"time"

	"gorm.io/gorm"
)

/*
Extra 用于扩展信息，或者保存多态的信息，通过JSON格式。不直接单独作为一个数据库对象，类似gorm.Model。

	ExtraType 标记JSON的schema；
	ExtraJSON 额外信息的JSON主体；
*/
type Extra struct {
	ExtraType sql.NullString `gorm:"type:varchar(16)"`
	ExtraJSON sql.NullString `gorm:"type:text"`
}

/*
Run 描述了一次语料构建。

	Extra 保存运行时的配置快照；
	RunKey 运行的 UUID，同时作为输出目录中的标识；
	Stage 执行的阶段，link/align/build/run；
	Status DOING=1,DONE=2,FAIL=3；
	CountersJSON 各阶段计数器，stage -> name -> value；
	Message 失败时的错误信息；
*/
type Run struct {
	gorm.Model
	Extra

	RunKey       string `gorm:"type:varchar(36) not null;uniqueIndex"`
	Stage        string `gorm:"type:varchar(16) not null"`
	Status       uint
	Seed         uint64
	OutputDir    string `gorm:"type:varchar(256)"`
	CountersJSON string `gorm:"type:text"`
	Message      string `gorm:"type:text"`
	FinishedAt   *time.Time

	Relations []RunRelation `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Splits    []RunSplit    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

/*
RunRelation 记录一次构建中某个关系的正样本组合数，以及是否在剪枝后保留。
*/
type RunRelation struct {
	gorm.Model

	RunID  uint   `gorm:"index:idx_run_relation"`
	Name   string `gorm:"type:varchar(128) not null;index:idx_run_relation"`
	Groups int
	Kept   bool
}

/*
RunSplit 记录一次构建中 train/dev/test 的规模。
*/
type RunSplit struct {
	gorm.Model

	RunID     uint   `gorm:"index"`
	Name      string `gorm:"type:varchar(8) not null"`
	Triples   int
	Lines     int
	Sentences int
}
