package metadata

const (
	RunStatusDoing uint = 1
	RunStatusDone  uint = 2
	RunStatusFail  uint = 3
)

const (
	StageLink  = "link"
	StageAlign = "align"
	StageBuild = "build"
	StageRun   = "run"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

const (
	ExtraTypeConfig = "config"
)
